// Package rules evaluates one fetched page against the on-page rule catalog.
//
// Evaluation is pure: no I/O and no shared mutable state, so an Engine may be
// used from many goroutines at once.
package rules

import (
	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
)

// Thresholds are the estimated pixel widths used by the title and description rules
type Thresholds struct {
	TitleMinPx       int
	TitleMaxPx       int
	DescriptionMinPx int
}

// DefaultThresholds approximate desktop SERP truncation
var DefaultThresholds = Thresholds{
	TitleMinPx:       200,
	TitleMaxPx:       600,
	DescriptionMinPx: 400,
}

// Input is one page handed to the engine
type Input struct {
	URL         string
	ContentType string
	Body        []byte
	Status      int
	Depth       int
	// SitemapHasHreflang suppresses missing_hreflang when the sitemap declares alternates
	SitemapHasHreflang bool
}

// Page is what a Rule inspects
type Page struct {
	Facts              *extractor.PageFacts
	Status             int
	SitemapHasHreflang bool
	Thresholds         Thresholds
}

// Rule is an independent predicate over a page, emitting zero or one issue
type Rule func(p *Page) []issue.Issue

// Engine runs the rule catalog
type Engine struct {
	extractor  *extractor.HTMLExtractor
	normalizer *frontier.URLNormalizer
	thresholds Thresholds
	rules      []Rule
}

// NewEngine creates an engine with the default catalog. Nil arguments get defaults.
func NewEngine(ext *extractor.HTMLExtractor, normalizer *frontier.URLNormalizer) *Engine {
	if ext == nil {
		ext = extractor.NewHTMLExtractor(nil, nil)
	}
	if normalizer == nil {
		normalizer = frontier.NewURLNormalizer(false)
	}
	return &Engine{
		extractor:  ext,
		normalizer: normalizer,
		thresholds: DefaultThresholds,
		rules:      DefaultRules(),
	}
}

// WithThresholds returns a copy of the engine using t
func (e *Engine) WithThresholds(t Thresholds) *Engine {
	c := *e
	c.thresholds = t
	return &c
}

// Evaluate extracts facts from in and runs the rules. A page whose canonical
// points elsewhere only gets the soft-404 check.
func (e *Engine) Evaluate(in Input) (extractor.PageFacts, []issue.Issue, error) {
	facts, err := e.extractor.Extract(in.Body, in.ContentType, in.URL)
	if err != nil {
		return extractor.PageFacts{URL: in.URL, Status: in.Status, Depth: in.Depth}, nil, err
	}
	facts.Status = in.Status
	facts.Depth = in.Depth

	page := &Page{
		Facts:              facts,
		Status:             in.Status,
		SitemapHasHreflang: in.SitemapHasHreflang,
		Thresholds:         e.thresholds,
	}

	rules := e.rules
	if facts.CanonicalElsewhere(e.normalizer) {
		rules = []Rule{SoftNotFound}
	}

	var out []issue.Issue
	for _, rule := range rules {
		out = append(out, rule(page)...)
	}
	facts.IssueCount = len(out)
	return *facts, out, nil
}

// Analyze evaluates a page with an unknown content type. Extraction failures yield no issues.
func (e *Engine) Analyze(pageURL string, body []byte, status int, sitemapHasHreflang bool) (extractor.PageFacts, []issue.Issue) {
	facts, issues, _ := e.Evaluate(Input{
		URL:                pageURL,
		Body:               body,
		Status:             status,
		SitemapHasHreflang: sitemapHasHreflang,
	})
	return facts, issues
}

var defaultEngine = NewEngine(nil, nil)

// Analyze runs the default engine
func Analyze(pageURL string, body []byte, status int, sitemapHasHreflang bool) (extractor.PageFacts, []issue.Issue) {
	return defaultEngine.Analyze(pageURL, body, status, sitemapHasHreflang)
}
