package extractor

import (
	"strings"
	"testing"

	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const fullPage = `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<title>  Test   Page Title </title>
	<meta name="Description" content="This is a test page description">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<meta name="robots" content="index, follow">
	<link rel="canonical" href="/page">
	<link rel="alternate" hreflang="en-US" href="https://test.com/en/page">
	<link rel="alternate" hreflang="x-default" href="https://test.com/page">
	<link rel="shortcut icon" href="/static/favicon.png">
	<script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization"}</script>
	<script>var hidden = "not visible text";</script>
	<style>body { color: red }</style>
</head>
<body>
	<h1>Main Article Title</h1>
	<p>This is the main content of the article.</p>
	<a href="https://example.com/">External Link</a>
	<a href="/internal#top">Internal Link</a>
	<a href="/internal">read more</a>
	<a href="https://blog.test.com/post">Sub</a>
	<a href="javascript:void(0)">Open</a>
	<a href="mailto:hi@test.com">Mail</a>
	<a href="#section">Jump</a>
	<img src="/a.png" alt="A descriptive caption" width="10" height="10">
	<img src="/b.png">
	<img src="/c.png" alt="">
	<img src="/d.png" alt="Photo" width="5">
	<img src="/e.png" alt="ok">
</body>
</html>`

func TestHTMLExtractor_Extract(t *testing.T) {
	e := NewHTMLExtractor(nil, zaptest.NewLogger(t))

	facts, err := e.Extract([]byte(fullPage), "text/html; charset=utf-8", "https://test.com/page")
	require.NoError(t, err)

	assert.Equal(t, "Test Page Title", facts.Title)
	assert.Equal(t, "This is a test page description", facts.Description)
	assert.Equal(t, []string{"Main Article Title"}, facts.H1s)
	assert.Equal(t, "Main Article Title", facts.H1())
	assert.Equal(t, "https://test.com/page", facts.Canonical)
	assert.Equal(t, []HreflangEntry{
		{Lang: "en-US", Href: "https://test.com/en/page"},
		{Lang: "x-default", Href: "https://test.com/page"},
	}, facts.Hreflang)
	assert.True(t, facts.HasViewport)
	assert.True(t, facts.HasJSONLD())
	assert.Zero(t, facts.InvalidJSONLD)
	assert.True(t, facts.HasFaviconLink)
	assert.Equal(t, "https://test.com/static/favicon.png", facts.FaviconHref)
	assert.Equal(t, "en", facts.HTMLLang)
	assert.False(t, facts.Noindex())

	assert.Equal(t, ImageCensus{
		Total:             5,
		MissingAlt:        2,
		PoorAlt:           2,
		PoorAltSamples:    []string{"Photo", "ok"},
		MissingDimensions: 3,
	}, facts.Images)

	assert.Equal(t, 7, facts.Anchors.Total)
	assert.Equal(t, 1, facts.Anchors.Javascript)
	assert.Equal(t, 1, facts.Anchors.Generic)
	assert.Equal(t, []string{"read more"}, facts.Anchors.GenericSamples)
	assert.Equal(t, 3, facts.Anchors.Internal)
	assert.Equal(t, []string{
		"https://example.com/",
		"https://test.com/internal",
		"https://blog.test.com/post",
	}, facts.Links)

	assert.NotContains(t, facts.Text, "not visible text")
	assert.NotContains(t, facts.Text, "color: red")
	assert.Contains(t, facts.Text, "main content of the article")
	assert.NotEmpty(t, facts.ContentHash)
	assert.Greater(t, facts.WordCount, 10)
}

func TestExtractMissingElements(t *testing.T) {
	e := NewHTMLExtractor(nil, zaptest.NewLogger(t))
	facts, err := e.Extract([]byte(`<html><body><p>bare</p></body></html>`), "", "https://test.com/Some_Path")
	require.NoError(t, err)

	assert.Empty(t, facts.Title)
	assert.Empty(t, facts.Description)
	assert.Empty(t, facts.H1s)
	assert.Empty(t, facts.H1())
	assert.Empty(t, facts.Canonical)
	assert.Empty(t, facts.Hreflang)
	assert.False(t, facts.HasViewport)
	assert.False(t, facts.HasJSONLD())
	assert.False(t, facts.HasFaviconLink)
	assert.Empty(t, facts.HTMLLang)
	assert.Equal(t, PathTraits{Underscore: true, Uppercase: true}, facts.Path)
	assert.Equal(t, "bare", facts.Text)
}

func TestExtractInvalidJSONLD(t *testing.T) {
	e := NewHTMLExtractor(nil, nil)
	page := `<html><head>
	<script type="application/ld+json">{"@type": "Article",}</script>
	<script type="Application/LD+JSON">{"@type": "Article"}</script>
	</head><body></body></html>`

	facts, err := e.Extract([]byte(page), "text/html", "https://test.com/")
	require.NoError(t, err)
	assert.Equal(t, 2, facts.JSONLDBlocks)
	assert.Equal(t, 1, facts.InvalidJSONLD)
}

func TestExtractCharset(t *testing.T) {
	// "Café" in ISO-8859-1
	body := []byte("<html><head><title>Caf\xe9</title></head><body>x</body></html>")
	facts, err := NewHTMLExtractor(nil, nil).Extract(body, "text/html; charset=iso-8859-1", "https://test.com/")
	require.NoError(t, err)
	assert.Equal(t, "Café", facts.Title)
}

func TestExtractIgnoresSVGTitle(t *testing.T) {
	e := NewHTMLExtractor(nil, nil)
	page := `<html><head></head><body><svg><title>Cart icon</title></svg><h1>Shop</h1></body></html>`
	facts, err := e.Extract([]byte(page), "text/html", "https://test.com/")
	require.NoError(t, err)
	assert.Empty(t, facts.Title)

	page = `<html><head><title>Real title</title></head><body><svg><title>Icon</title></svg></body></html>`
	facts, err = e.Extract([]byte(page), "text/html", "https://test.com/")
	require.NoError(t, err)
	assert.Equal(t, "Real title", facts.Title)
}

func TestExtractRejectsBadURL(t *testing.T) {
	_, err := NewHTMLExtractor(nil, nil).Extract([]byte("<html></html>"), "", "not-a-url")
	assert.Error(t, err)
}

func TestPageFactsNoindex(t *testing.T) {
	tests := []struct {
		robots string
		want   bool
	}{
		{"", false},
		{"index, follow", false},
		{"NOINDEX, nofollow", true},
		{"none", true},
	}
	for _, tt := range tests {
		t.Run(tt.robots, func(t *testing.T) {
			p := PageFacts{MetaRobots: tt.robots}
			assert.Equal(t, tt.want, p.Noindex())
		})
	}
}

func TestCanonicalElsewhere(t *testing.T) {
	n := frontier.NewURLNormalizer(false)
	tests := []struct {
		name      string
		url       string
		canonical string
		want      bool
	}{
		{"absent", "https://test.com/a", "", false},
		{"self", "https://test.com/a", "https://test.com/a", false},
		{"self with www and fragment", "https://test.com/a", "https://www.test.com/a#x", false},
		{"elsewhere", "https://test.com/a?ref=1", "https://test.com/a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PageFacts{URL: tt.url, Canonical: tt.canonical}
			assert.Equal(t, tt.want, p.CanonicalElsewhere(n))
		})
	}
}

func TestContentHash(t *testing.T) {
	assert.Empty(t, ContentHash("   \n\t"))
	assert.Equal(t, ContentHash("hello world"), ContentHash("  hello\n\n world "))
	assert.NotEqual(t, ContentHash("hello world"), ContentHash("hello there"))
	assert.Len(t, ContentHash("x"), 64)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText(" a\n b\t\tc "))
	assert.Empty(t, CleanText(strings.Repeat(" ", 10)))
}

func BenchmarkExtract(b *testing.B) {
	e := NewHTMLExtractor(nil, nil)
	body := []byte(fullPage)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Extract(body, "text/html", "https://test.com/page")
	}
}

func TestFaviconHref(t *testing.T) {
	assert.Equal(t, "https://test.com/static/favicon.png", FaviconHref([]byte(fullPage), "text/html", "https://test.com/page"))
	assert.Empty(t, FaviconHref([]byte("<html></html>"), "", "https://test.com/"))
	assert.Empty(t, FaviconHref([]byte(fullPage), "", "bad"))
}
