package rules

import (
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/Almahr1/seoaudit/internal/issue"
)

var hreflangPattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// SoftNotFoundPhrases mark a 200 page as an error page when found in its title or H1
var SoftNotFoundPhrases = []string{
	"not found", "404 error", "error 404", "page not found",
	"页面不存在", "找不到页面", "未找到",
}

// DefaultRules returns the full on-page catalog in evaluation order
func DefaultRules() []Rule {
	return []Rule{
		SoftNotFound,
		Noindex,
		Title,
		Description,
		Headings,
		Viewport,
		Canonical,
		StructuredData,
		Hreflang,
		URLHygiene,
		HTMLLang,
		JavascriptLinks,
		ImageAlt,
		ImageDimensions,
		GenericAnchors,
	}
}

func one(i issue.Issue) []issue.Issue { return []issue.Issue{i} }

func count(n int) string { return strconv.Itoa(n) }

// SoftNotFound flags 200 responses whose title or H1 reads like an error page
func SoftNotFound(p *Page) []issue.Issue {
	if p.Status != http.StatusOK {
		return nil
	}
	for _, text := range []string{p.Facts.Title, p.Facts.H1()} {
		lower := strings.ToLower(text)
		for _, phrase := range SoftNotFoundPhrases {
			if strings.Contains(lower, phrase) {
				return one(issue.New(issue.Soft404, p.Facts.URL).WithEvidence(text))
			}
		}
	}
	return nil
}

func Noindex(p *Page) []issue.Issue {
	if !p.Facts.Noindex() {
		return nil
	}
	return one(issue.New(issue.Noindex, p.Facts.URL).WithEvidence(p.Facts.MetaRobots))
}

func Title(p *Page) []issue.Issue {
	title := p.Facts.Title
	if title == "" {
		return one(issue.New(issue.MissingTitle, p.Facts.URL))
	}
	w := EstimateWidth(title)
	switch {
	case w < p.Thresholds.TitleMinPx:
		return one(issue.New(issue.ShortTitle, p.Facts.URL, count(w)).WithEvidence(title))
	case w > p.Thresholds.TitleMaxPx:
		return one(issue.New(issue.LongTitle, p.Facts.URL, count(w)).WithEvidence(title))
	}
	return nil
}

func Description(p *Page) []issue.Issue {
	desc := p.Facts.Description
	if desc == "" {
		return one(issue.New(issue.MissingDescription, p.Facts.URL))
	}
	if w := EstimateWidth(desc); w < p.Thresholds.DescriptionMinPx {
		return one(issue.New(issue.ShortDescription, p.Facts.URL, count(w)).WithEvidence(desc))
	}
	return nil
}

// Headings requires exactly one H1
func Headings(p *Page) []issue.Issue {
	switch n := len(p.Facts.H1s); {
	case n == 0:
		return one(issue.New(issue.MissingH1, p.Facts.URL))
	case n > 1:
		return one(issue.New(issue.MultipleH1, p.Facts.URL, count(n)).WithEvidence(strings.Join(p.Facts.H1s, " | ")))
	}
	return nil
}

func Viewport(p *Page) []issue.Issue {
	if p.Facts.HasViewport {
		return nil
	}
	return one(issue.New(issue.MissingViewport, p.Facts.URL))
}

func Canonical(p *Page) []issue.Issue {
	if p.Facts.Canonical != "" {
		return nil
	}
	return one(issue.New(issue.MissingCanonical, p.Facts.URL))
}

// StructuredData checks for JSON-LD and suggests a schema type when none is present
func StructuredData(p *Page) []issue.Issue {
	if !p.Facts.HasJSONLD() {
		return one(issue.New(issue.MissingSchema, p.Facts.URL, SuggestSchemaType(p.Facts.URL)))
	}
	if p.Facts.InvalidJSONLD > 0 {
		return one(issue.New(issue.InvalidSchema, p.Facts.URL, count(p.Facts.InvalidJSONLD)))
	}
	return nil
}

// Hreflang validates declared alternates. Invalid codes and a missing
// x-default are reported separately.
func Hreflang(p *Page) []issue.Issue {
	entries := p.Facts.Hreflang
	if len(entries) == 0 {
		if p.SitemapHasHreflang {
			return nil
		}
		return one(issue.New(issue.MissingHreflang, p.Facts.URL))
	}

	var out []issue.Issue
	var invalid []string
	hasDefault := false
	for _, e := range entries {
		switch {
		case strings.EqualFold(e.Lang, "x-default"):
			hasDefault = true
		case !hreflangPattern.MatchString(e.Lang):
			invalid = append(invalid, e.Lang)
		}
	}
	if len(invalid) > 0 {
		out = append(out, issue.New(issue.InvalidHreflang, p.Facts.URL, strings.Join(invalid, ", ")).
			WithEvidence(strings.Join(invalid, ", ")))
	}
	if !hasDefault {
		out = append(out, issue.New(issue.MissingXDefault, p.Facts.URL))
	}
	return out
}

func URLHygiene(p *Page) []issue.Issue {
	var out []issue.Issue
	if p.Facts.Path.Uppercase {
		out = append(out, issue.New(issue.URLUppercase, p.Facts.URL))
	}
	if p.Facts.Path.Underscore {
		out = append(out, issue.New(issue.URLUnderscore, p.Facts.URL))
	}
	return out
}

func HTMLLang(p *Page) []issue.Issue {
	if p.Facts.HTMLLang != "" {
		return nil
	}
	return one(issue.New(issue.MissingHTMLLang, p.Facts.URL))
}

func JavascriptLinks(p *Page) []issue.Issue {
	n := p.Facts.Anchors.Javascript
	if n == 0 {
		return nil
	}
	return one(issue.New(issue.JavascriptLinks, p.Facts.URL, count(n)).WithEvidence(count(n) + " javascript: links"))
}

func ImageAlt(p *Page) []issue.Issue {
	var out []issue.Issue
	img := p.Facts.Images
	if img.MissingAlt > 0 {
		out = append(out, issue.New(issue.MissingAlt, p.Facts.URL, count(img.MissingAlt)).
			WithEvidence(count(img.MissingAlt)+" images without alt"))
	}
	if img.PoorAlt > 0 {
		out = append(out, issue.New(issue.PoorAlt, p.Facts.URL, count(img.PoorAlt)).
			WithEvidence(strings.Join(img.PoorAltSamples, ", ")))
	}
	return out
}

// ImageDimensions flags images without width and height, a layout-shift risk
func ImageDimensions(p *Page) []issue.Issue {
	n := p.Facts.Images.MissingDimensions
	if n == 0 {
		return nil
	}
	return one(issue.New(issue.MissingImageDimensions, p.Facts.URL, count(n)).WithEvidence(count(n) + " images without width/height"))
}

func GenericAnchors(p *Page) []issue.Issue {
	a := p.Facts.Anchors
	if a.Generic == 0 {
		return nil
	}
	return one(issue.New(issue.GenericAnchor, p.Facts.URL, count(a.Generic)).WithEvidence(strings.Join(a.GenericSamples, ", ")))
}

// SuggestSchemaType infers a schema.org type from URL path keywords
func SuggestSchemaType(pageURL string) string {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		path = u.Path
	}
	path = strings.ToLower(path)
	switch {
	case strings.Contains(path, "product") || strings.Contains(path, "shop"):
		return "Product"
	case strings.Contains(path, "blog") || strings.Contains(path, "news"):
		return "Article"
	case path == "" || path == "/":
		return "Organization"
	default:
		return "BreadcrumbList"
	}
}
