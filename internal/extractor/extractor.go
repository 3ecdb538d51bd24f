// Package extractor turns an HTML document into PageFacts, the structural
// data the rule engine and duplicate detector work from.
// Uses goquery for parsing and x/net/html/charset for transcoding to UTF-8.
package extractor

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// PageFacts is the extracted view of one page. It is not modified after extraction,
// except for IssueCount which the caller fills once rules have run.
type PageFacts struct {
	URL    string `json:"url"`
	Status int    `json:"status"`
	Depth  int    `json:"depth"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	H1s         []string `json:"h1s"`
	// Canonical is absolute, empty when the page declares none
	Canonical string          `json:"canonical,omitempty"`
	Hreflang  []HreflangEntry `json:"hreflang,omitempty"`

	HasViewport    bool   `json:"has_viewport"`
	JSONLDBlocks   int    `json:"jsonld_blocks"`
	InvalidJSONLD  int    `json:"invalid_jsonld"`
	HasFaviconLink bool   `json:"has_favicon_link"`
	FaviconHref    string `json:"favicon_href,omitempty"`
	HTMLLang       string `json:"html_lang,omitempty"`
	MetaRobots     string `json:"meta_robots,omitempty"`

	Images  ImageCensus  `json:"images"`
	Anchors AnchorCensus `json:"anchors"`
	Path    PathTraits   `json:"path"`

	// Links holds absolute http(s) targets in document order, without duplicates
	Links       []string `json:"-"`
	Text        string   `json:"-"`
	ContentHash string   `json:"content_hash,omitempty"`
	WordCount   int      `json:"word_count"`
	IssueCount  int      `json:"issue_count"`
}

// HreflangEntry is one <link rel=alternate hreflang=...> declaration
type HreflangEntry struct {
	Lang string `json:"lang"`
	Href string `json:"href"`
}

// ImageCensus counts <img> elements by accessibility and layout defects
type ImageCensus struct {
	Total             int      `json:"total"`
	MissingAlt        int      `json:"missing_alt"`
	PoorAlt           int      `json:"poor_alt"`
	PoorAltSamples    []string `json:"poor_alt_samples,omitempty"`
	MissingDimensions int      `json:"missing_dimensions"`
}

// AnchorCensus counts <a href> elements
type AnchorCensus struct {
	Total          int      `json:"total"`
	Internal       int      `json:"internal"`
	Generic        int      `json:"generic"`
	GenericSamples []string `json:"generic_samples,omitempty"`
	Javascript     int      `json:"javascript"`
}

// PathTraits describes URL hygiene of the page's own path
type PathTraits struct {
	Underscore bool `json:"underscore"`
	Uppercase  bool `json:"uppercase"`
}

// H1 returns the first H1 text, or "" when the page has none
func (p *PageFacts) H1() string {
	if len(p.H1s) == 0 {
		return ""
	}
	return p.H1s[0]
}

// HasJSONLD reports whether any structured data block was declared
func (p *PageFacts) HasJSONLD() bool {
	return p.JSONLDBlocks > 0
}

// CanonicalElsewhere reports whether the declared canonical names a different URL than the page itself
func (p *PageFacts) CanonicalElsewhere(n *frontier.URLNormalizer) bool {
	if p.Canonical == "" {
		return false
	}
	return !n.SameURL(p.Canonical, p.URL)
}

// Noindex reports whether meta robots carries a noindex or none directive
func (p *PageFacts) Noindex() bool {
	for _, d := range strings.Split(strings.ToLower(p.MetaRobots), ",") {
		switch strings.TrimSpace(d) {
		case "noindex", "none":
			return true
		}
	}
	return false
}

// ExtractorConfig holds the word lists used by the censuses
type ExtractorConfig struct {
	// MinAltLength is counted in runes
	MinAltLength    int      `mapstructure:"min_alt_length" yaml:"min_alt_length" json:"min_alt_length"`
	GenericAltWords []string `mapstructure:"generic_alt_words" yaml:"generic_alt_words" json:"generic_alt_words"`
	GenericAnchors  []string `mapstructure:"generic_anchors" yaml:"generic_anchors" json:"generic_anchors"`
	// MaxSamples bounds the sample slices kept for evidence
	MaxSamples int `mapstructure:"max_samples" yaml:"max_samples" json:"max_samples"`
}

// GetDefaultExtractorConfig returns the default word lists (English and Chinese)
func GetDefaultExtractorConfig() *ExtractorConfig {
	return &ExtractorConfig{
		MinAltLength: 3,
		GenericAltWords: []string{
			"image", "img", "photo", "picture", "pic", "graphic", "banner", "icon", "untitled",
			"图片", "图像", "照片",
		},
		GenericAnchors: []string{
			"click here", "read more", "more", "here", "learn more", "this", "link",
			"点击这里", "点击此处", "更多", "阅读更多", "了解更多",
		},
		MaxSamples: 3,
	}
}

// HTMLExtractor extracts PageFacts from HTML documents
type HTMLExtractor struct {
	Logger *zap.Logger
	Config *ExtractorConfig

	genericAlt    map[string]bool
	genericAnchor map[string]bool
}

// NewHTMLExtractor creates an extractor. Nil arguments get defaults.
func NewHTMLExtractor(config *ExtractorConfig, logger *zap.Logger) *HTMLExtractor {
	if config == nil {
		config = GetDefaultExtractorConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTMLExtractor{
		Logger:        logger,
		Config:        config,
		genericAlt:    wordSet(config.GenericAltWords),
		genericAnchor: wordSet(config.GenericAnchors),
	}
}

// Extract parses body as HTML served at pageURL. contentType may be empty, in
// which case the encoding is sniffed from the document.
func (h *HTMLExtractor) Extract(body []byte, contentType, pageURL string) (*PageFacts, error) {
	base, err := frontier.ParseURL(pageURL)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	doc, err := parseDocument(body, contentType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	facts := &PageFacts{URL: pageURL}
	h.extractHead(doc, base, facts)
	facts.H1s = extractH1s(doc)
	h.censusImages(doc, facts)
	h.censusAnchors(doc, base, facts)
	facts.Path = pathTraits(base)

	// text extraction removes scripts, so it runs last
	facts.Text = visibleText(doc)
	facts.ContentHash = ContentHash(facts.Text)
	facts.WordCount = len(strings.Fields(facts.Text))

	h.Logger.Debug("extracted page facts",
		zap.String("url", pageURL),
		zap.Int("links", len(facts.Links)),
		zap.Int("images", facts.Images.Total),
		zap.Int("words", facts.WordCount))
	return facts, nil
}

func parseDocument(body []byte, contentType string) (*goquery.Document, error) {
	var r io.Reader = bytes.NewReader(body)
	if utf8, err := charset.NewReader(r, contentType); err == nil {
		r = utf8
	} else {
		r = bytes.NewReader(body)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func extractH1s(doc *goquery.Document) []string {
	var out []string
	doc.Find("h1").Each(func(_ int, s *goquery.Selection) {
		out = append(out, CleanText(s.Text()))
	})
	return out
}

// visibleText returns the body text with markup-only elements removed
func visibleText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, template").Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		return CleanText(doc.Text())
	}
	return CleanText(body.Text())
}

func pathTraits(u *url.URL) PathTraits {
	p := u.Path
	return PathTraits{
		Underscore: strings.Contains(p, "_"),
		Uppercase:  p != strings.ToLower(p),
	}
}

// CleanText collapses all whitespace runs to single spaces and trims the result
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ContentHash is the hex sha256 of whitespace-normalized text, or "" for empty text
func ContentHash(text string) string {
	text = CleanText(text)
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = true
	}
	return set
}
