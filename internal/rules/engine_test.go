package rules

import (
	"strings"
	"testing"

	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioA = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta name="description" content="A thorough description of the example guide page that is long enough to pass the width rule">
	<link rel="canonical" href="https://x.test/guide">
	<link rel="alternate" hreflang="en" href="https://x.test/guide">
	<link rel="alternate" hreflang="x-default" href="https://x.test/guide">
	<script type="application/ld+json">{"@context":"https://schema.org","@type":"Article"}</script>
</head>
<body>
	<h1>Guide</h1>
	<p>Body text for the guide.</p>
	<img src="/a.png" width="10" height="10">
</body>
</html>`

func kinds(issues []issue.Issue) []issue.Kind {
	out := make([]issue.Kind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestAnalyzeScenarioA(t *testing.T) {
	facts, issues := Analyze("https://x.test/guide", []byte(scenarioA), 200, false)

	assert.ElementsMatch(t, []issue.Kind{issue.MissingTitle, issue.MissingViewport, issue.MissingAlt}, kinds(issues))
	sev := map[issue.Kind]issue.Severity{}
	for _, i := range issues {
		sev[i.Kind] = i.Severity
		assert.Equal(t, "https://x.test/guide", i.URL)
	}
	assert.Equal(t, issue.High, sev[issue.MissingTitle])
	assert.Equal(t, issue.Critical, sev[issue.MissingViewport])
	assert.Equal(t, issue.Medium, sev[issue.MissingAlt])

	assert.Equal(t, 200, facts.Status)
	assert.Equal(t, 3, facts.IssueCount)
}

func TestCanonicalElsewhereOnlyChecksSoft404(t *testing.T) {
	page := `<html><head><link rel="canonical" href="https://x.test/a"></head><body><img src="x.png"></body></html>`

	_, issues := Analyze("https://x.test/a?ref=1", []byte(page), 200, false)
	assert.Empty(t, issues)

	notFound := `<html><head><title>Page Not Found</title><link rel="canonical" href="https://x.test/home"></head><body></body></html>`
	_, issues = Analyze("https://x.test/missing", []byte(notFound), 200, false)
	assert.Equal(t, []issue.Kind{issue.Soft404}, kinds(issues))
}

func TestSelfCanonicalRunsAllRules(t *testing.T) {
	page := `<html><head><link rel="canonical" href="/a"></head><body></body></html>`
	_, issues := Analyze("https://x.test/a", []byte(page), 200, true)
	assert.Contains(t, kinds(issues), issue.MissingTitle)
	assert.NotContains(t, kinds(issues), issue.MissingCanonical)
	assert.NotContains(t, kinds(issues), issue.MissingHreflang)
}

func TestInlineSVGTitleIsNotPageTitle(t *testing.T) {
	page := `<html><head></head><body><h1>Shop</h1><svg><title>Basket</title></svg></body></html>`
	_, issues := Analyze("https://x.test/shop", []byte(page), 200, false)
	assert.Contains(t, kinds(issues), issue.MissingTitle)
}

func TestEvaluateCarriesDepth(t *testing.T) {
	facts, _, err := NewEngine(nil, nil).Evaluate(Input{
		URL:         "https://x.test/",
		ContentType: "text/html",
		Body:        []byte("<html><body>hi</body></html>"),
		Status:      200,
		Depth:       2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, facts.Depth)
}

func TestEvaluateBadURL(t *testing.T) {
	facts, issues, err := NewEngine(nil, nil).Evaluate(Input{URL: "::", Status: 200})
	assert.Error(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, 200, facts.Status)
}

func page(facts extractor.PageFacts) *Page {
	if facts.URL == "" {
		facts.URL = "https://x.test/"
	}
	return &Page{Facts: &facts, Status: 200, Thresholds: DefaultThresholds}
}

func TestSoftNotFound(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		h1     []string
		status int
		want   bool
	}{
		{"title phrase", "Page not found", nil, 200, true},
		{"h1 phrase", "Shop", []string{"404 Error"}, 200, true},
		{"chinese phrase", "页面不存在", nil, 200, true},
		{"real 404 status", "Not Found", nil, 404, false},
		{"clean page", "Welcome", []string{"Hello"}, 200, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page(extractor.PageFacts{Title: tt.title, H1s: tt.h1})
			p.Status = tt.status
			got := SoftNotFound(p)
			if tt.want {
				require.Len(t, got, 1)
				assert.Equal(t, issue.Critical, got[0].Severity)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestTitleAndDescription(t *testing.T) {
	long := strings.Repeat("Abcdefghij ", 10)
	good := "A well sized page title for search"
	tests := []struct {
		name  string
		title string
		desc  string
		want  []issue.Kind
	}{
		{"missing both", "", "", []issue.Kind{issue.MissingTitle, issue.MissingDescription}},
		{"short title", "Home", strings.Repeat("description ", 6), []issue.Kind{issue.ShortTitle}},
		{"long title", long, strings.Repeat("description ", 6), []issue.Kind{issue.LongTitle}},
		{"short description", good, "Too short", []issue.Kind{issue.ShortDescription}},
		{"both fine", good, strings.Repeat("description ", 6), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page(extractor.PageFacts{Title: tt.title, Description: tt.desc})
			got := append(Title(p), Description(p)...)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, kinds(got))
		})
	}
}

func TestHeadings(t *testing.T) {
	assert.Equal(t, []issue.Kind{issue.MissingH1}, kinds(Headings(page(extractor.PageFacts{}))))
	assert.Empty(t, Headings(page(extractor.PageFacts{H1s: []string{"One"}})))

	got := Headings(page(extractor.PageFacts{H1s: []string{"One", "Two"}}))
	require.Len(t, got, 1)
	assert.Equal(t, issue.MultipleH1, got[0].Kind)
	assert.Equal(t, []string{"2"}, got[0].Args)
}

func TestHreflang(t *testing.T) {
	tests := []struct {
		name    string
		entries []extractor.HreflangEntry
		sitemap bool
		want    []issue.Kind
	}{
		{name: "absent", want: []issue.Kind{issue.MissingHreflang}},
		{name: "absent but declared in sitemap", sitemap: true},
		{name: "valid with default", entries: []extractor.HreflangEntry{{Lang: "en"}, {Lang: "de-DE"}, {Lang: "x-default"}}},
		{name: "no default", entries: []extractor.HreflangEntry{{Lang: "en"}}, want: []issue.Kind{issue.MissingXDefault}},
		{name: "bad codes", entries: []extractor.HreflangEntry{{Lang: "en-us"}, {Lang: "english"}, {Lang: "X-Default"}},
			want: []issue.Kind{issue.InvalidHreflang}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := page(extractor.PageFacts{Hreflang: tt.entries})
			p.SitemapHasHreflang = tt.sitemap
			got := Hreflang(p)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, kinds(got))
		})
	}

	got := Hreflang(page(extractor.PageFacts{Hreflang: []extractor.HreflangEntry{{Lang: "en-us"}, {Lang: "fr"}}}))
	require.Len(t, got, 2)
	assert.Equal(t, []string{"en-us"}, got[0].Args)
}

func TestImageAndAnchorRules(t *testing.T) {
	p := page(extractor.PageFacts{
		Images:  extractor.ImageCensus{Total: 4, MissingAlt: 2, PoorAlt: 1, PoorAltSamples: []string{"img"}, MissingDimensions: 3},
		Anchors: extractor.AnchorCensus{Total: 5, Generic: 2, GenericSamples: []string{"click here"}, Javascript: 1},
	})

	alt := ImageAlt(p)
	require.Len(t, alt, 2)
	assert.Equal(t, issue.MissingAlt, alt[0].Kind)
	assert.Equal(t, "2 images without alt", alt[0].Evidence)
	assert.Equal(t, issue.PoorAlt, alt[1].Kind)

	dims := ImageDimensions(p)
	require.Len(t, dims, 1)
	assert.Equal(t, issue.CategoryCWVPerformance, dims[0].Category)

	js := JavascriptLinks(p)
	require.Len(t, js, 1)
	assert.Equal(t, issue.High, js[0].Severity)
	assert.Equal(t, []string{"1"}, js[0].Args)

	assert.Equal(t, []issue.Kind{issue.GenericAnchor}, kinds(GenericAnchors(p)))

	clean := page(extractor.PageFacts{})
	assert.Empty(t, ImageAlt(clean))
	assert.Empty(t, ImageDimensions(clean))
	assert.Empty(t, JavascriptLinks(clean))
	assert.Empty(t, GenericAnchors(clean))
}

func TestStructuredData(t *testing.T) {
	got := StructuredData(page(extractor.PageFacts{URL: "https://x.test/shop/shoes"}))
	require.Len(t, got, 1)
	assert.Equal(t, issue.MissingSchema, got[0].Kind)
	assert.Equal(t, []string{"Product"}, got[0].Args)

	got = StructuredData(page(extractor.PageFacts{JSONLDBlocks: 2, InvalidJSONLD: 1}))
	assert.Equal(t, []issue.Kind{issue.InvalidSchema}, kinds(got))

	assert.Empty(t, StructuredData(page(extractor.PageFacts{JSONLDBlocks: 1})))
}

func TestSuggestSchemaType(t *testing.T) {
	tests := map[string]string{
		"https://x.test/":           "Organization",
		"https://x.test":            "Organization",
		"https://x.test/products/1": "Product",
		"https://x.test/Shop":       "Product",
		"https://x.test/blog/post":  "Article",
		"https://x.test/news/today": "Article",
		"https://x.test/about/team": "BreadcrumbList",
		"https://x.test/?q=product": "Organization",
	}
	for in, want := range tests {
		assert.Equal(t, want, SuggestSchemaType(in), in)
	}
}

func TestURLHygieneAndLang(t *testing.T) {
	p := page(extractor.PageFacts{Path: extractor.PathTraits{Underscore: true, Uppercase: true}})
	got := URLHygiene(p)
	assert.Equal(t, []issue.Kind{issue.URLUppercase, issue.URLUnderscore}, kinds(got))
	assert.Equal(t, issue.Medium, got[0].Severity)
	assert.Equal(t, issue.Low, got[1].Severity)

	assert.Equal(t, []issue.Kind{issue.MissingHTMLLang}, kinds(HTMLLang(p)))
	assert.Empty(t, HTMLLang(page(extractor.PageFacts{HTMLLang: "en"})))
}

func TestNoindexRule(t *testing.T) {
	got := Noindex(page(extractor.PageFacts{MetaRobots: "noindex"}))
	require.Len(t, got, 1)
	assert.Equal(t, "noindex", got[0].Evidence)
	assert.Empty(t, Noindex(page(extractor.PageFacts{})))
}

func TestWithThresholds(t *testing.T) {
	e := NewEngine(nil, nil).WithThresholds(Thresholds{TitleMinPx: 1, TitleMaxPx: 10, DescriptionMinPx: 1})
	body := `<html><head><title>A much longer title</title></head></html>`
	_, issues, err := e.Evaluate(Input{URL: "https://x.test/", Body: []byte(body), Status: 200})
	require.NoError(t, err)
	assert.Contains(t, kinds(issues), issue.LongTitle)
}
