package extractor

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/PuerkitoBio/goquery"
)

// extractHead fills the document-level facts: title, meta tags, link relations,
// structured data and the html lang attribute
func (h *HTMLExtractor) extractHead(doc *goquery.Document, base *url.URL, facts *PageFacts) {
	// svg and math carry their own <title> elements
	title := doc.Find("title").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("svg, math").Length() == 0
	})
	facts.Title = CleanText(title.First().Text())
	facts.HTMLLang = strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		content := strings.TrimSpace(s.AttrOr("content", ""))
		switch name {
		case "description":
			if facts.Description == "" {
				facts.Description = CleanText(content)
			}
		case "viewport":
			facts.HasViewport = true
		case "robots":
			if facts.MetaRobots == "" {
				facts.MetaRobots = content
			}
		}
	})

	doc.Find("link[rel]").Each(func(_ int, s *goquery.Selection) {
		rel := relTokens(s.AttrOr("rel", ""))
		href := strings.TrimSpace(s.AttrOr("href", ""))

		switch {
		case rel["canonical"]:
			if facts.Canonical == "" && href != "" {
				facts.Canonical = absolute(base, href)
			}
		case rel["alternate"]:
			if lang, ok := s.Attr("hreflang"); ok {
				facts.Hreflang = append(facts.Hreflang, HreflangEntry{
					Lang: strings.TrimSpace(lang),
					Href: absolute(base, href),
				})
			}
		case rel["icon"]:
			if !facts.HasFaviconLink {
				facts.HasFaviconLink = true
				facts.FaviconHref = absolute(base, href)
			}
		}
	})

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "application/ld+json") {
			return
		}
		facts.JSONLDBlocks++
		if !json.Valid([]byte(strings.TrimSpace(s.Text()))) {
			facts.InvalidJSONLD++
		}
	})
}

// relTokens splits a rel attribute into lowercase tokens; "shortcut icon" yields shortcut and icon
func relTokens(rel string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(rel)) {
		tokens[t] = true
	}
	return tokens
}

// absolute resolves href against base, returning href unchanged when it cannot be parsed
func absolute(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	u, err := frontier.Resolve(base, href)
	if err != nil {
		return href
	}
	u.Fragment = ""
	return u.String()
}

// FaviconHref returns the absolute href of the first <link rel=icon> in body, or ""
func FaviconHref(body []byte, contentType, pageURL string) string {
	base, err := frontier.ParseURL(pageURL)
	if err != nil {
		return ""
	}
	doc, err := parseDocument(body, contentType)
	if err != nil {
		return ""
	}
	href := ""
	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if relTokens(s.AttrOr("rel", ""))["icon"] {
			href = absolute(base, strings.TrimSpace(s.AttrOr("href", "")))
			return false
		}
		return true
	})
	return href
}
