// Package issue defines the closed catalog of audit findings.
//
// Every Kind carries a fixed Category and Severity. The catalog is ordered:
// a Kind's position within its category is its presentation priority.
package issue

import (
	"fmt"
	"strings"
)

// Severity is totally ordered, Critical first
type Severity int

const (
	Critical Severity = iota
	High
	Medium
	Low
)

var severityNames = [...]string{"Critical", "High", "Medium", "Low"}

func (s Severity) String() string {
	if s < Critical || s > Low {
		return fmt.Sprintf("Severity(%d)", int(s))
	}
	return severityNames[s]
}

// Rank is the sort key for the severity, lower first
func (s Severity) Rank() int { return int(s) }

// MarshalText lets severities appear by name in JSON reports
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity parses a case-insensitive severity name
func ParseSeverity(name string) (Severity, error) {
	for i, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", name)
}

// Category groups kinds in a fixed narrative order
type Category string

const (
	CategoryAccess         Category = "access"
	CategoryIndexability   Category = "indexability"
	CategoryTechnical      Category = "technical"
	CategoryContent        Category = "content"
	CategoryImageUX        Category = "image_ux"
	CategoryCWVPerformance Category = "cwv_performance"
)

// Categories lists every category in report order
var Categories = []Category{
	CategoryAccess,
	CategoryIndexability,
	CategoryTechnical,
	CategoryContent,
	CategoryImageUX,
	CategoryCWVPerformance,
}

// Rank returns the category's report position; unknown categories sort last
func (c Category) Rank() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

// Kind identifies one type of finding
type Kind string

// Site access
const (
	NoRobots              Kind = "no_robots"
	RobotsEmpty           Kind = "robots_empty"
	RobotsNoUserAgent     Kind = "robots_no_user_agent"
	RobotsBlocksAll       Kind = "robots_blocks_all"
	RobotsBlocksResources Kind = "robots_blocks_resources"
	RobotsNoSitemap       Kind = "robots_no_sitemap"
	NoSitemap             Kind = "no_sitemap"
	InvalidSitemap        Kind = "invalid_sitemap"
	EmptySitemap          Kind = "empty_sitemap"
	HTTP5xx               Kind = "http_5xx"
	HTTP4xx               Kind = "http_4xx"
	HTTP3xx               Kind = "http_3xx"
	FetchFailed           Kind = "fetch_failed"
	ServerLocation        Kind = "server_location"
)

// Indexability
const (
	Soft404          Kind = "soft_404"
	Noindex          Kind = "noindex"
	Duplicate        Kind = "duplicate"
	MissingCanonical Kind = "missing_canonical"
	InvalidHreflang  Kind = "invalid_hreflang"
	MissingXDefault  Kind = "missing_x_default"
	MissingHreflang  Kind = "missing_hreflang"
)

// Technical
const (
	MissingViewport Kind = "missing_viewport"
	NoHTTPS         Kind = "no_https"
	JavascriptLinks Kind = "javascript_links"
	MissingSchema   Kind = "missing_schema"
	InvalidSchema   Kind = "invalid_schema"
	URLUppercase    Kind = "url_uppercase"
	URLUnderscore   Kind = "url_underscore"
	MissingHTMLLang Kind = "missing_html_lang"
	MissingFavicon  Kind = "missing_favicon"
)

// Content
const (
	MissingTitle       Kind = "missing_title"
	ShortTitle         Kind = "short_title"
	LongTitle          Kind = "long_title"
	MissingDescription Kind = "missing_description"
	ShortDescription   Kind = "short_description"
	MissingH1          Kind = "missing_h1"
	MultipleH1         Kind = "multiple_h1"
	GenericAnchor      Kind = "generic_anchor"
)

// Images
const (
	MissingAlt Kind = "missing_alt"
	PoorAlt    Kind = "poor_alt"
)

// Page experience
const (
	MissingImageDimensions Kind = "missing_image_dimensions"
	SlowLCP                Kind = "slow_lcp"
	HighCLS                Kind = "high_cls"
	SlowINP                Kind = "slow_inp"
	SlowFCP                Kind = "slow_fcp"
	PerfUnavailable        Kind = "perf_unavailable"
)

// Meta is the fixed classification attached to a Kind
type Meta struct {
	Category Category
	Severity Severity
	Priority int
}

type entry struct {
	kind     Kind
	severity Severity
}

// catalog order inside each category is the priority order
var catalog = map[Category][]entry{
	CategoryAccess: {
		{NoRobots, Medium},
		{RobotsEmpty, Low},
		{RobotsNoUserAgent, Medium},
		{RobotsBlocksAll, Critical},
		{RobotsBlocksResources, High},
		{RobotsNoSitemap, Low},
		{NoSitemap, Medium},
		{InvalidSitemap, High},
		{EmptySitemap, Low},
		{HTTP5xx, Critical},
		{HTTP4xx, High},
		{HTTP3xx, Low},
		{FetchFailed, High},
		{ServerLocation, Low},
	},
	CategoryIndexability: {
		{Soft404, Critical},
		{Noindex, High},
		{Duplicate, High},
		{MissingCanonical, Medium},
		{InvalidHreflang, High},
		{MissingXDefault, Low},
		{MissingHreflang, Low},
	},
	CategoryTechnical: {
		{MissingViewport, Critical},
		{NoHTTPS, Medium},
		{JavascriptLinks, High},
		{MissingSchema, Medium},
		{InvalidSchema, Medium},
		{URLUppercase, Medium},
		{URLUnderscore, Low},
		{MissingHTMLLang, Low},
		{MissingFavicon, Low},
	},
	CategoryContent: {
		{MissingTitle, High},
		{ShortTitle, Medium},
		{LongTitle, Low},
		{MissingDescription, High},
		{ShortDescription, Low},
		{MissingH1, High},
		{MultipleH1, Medium},
		{GenericAnchor, Low},
	},
	CategoryImageUX: {
		{MissingAlt, Medium},
		{PoorAlt, Low},
	},
	CategoryCWVPerformance: {
		{MissingImageDimensions, Medium},
		{SlowLCP, High},
		{HighCLS, Medium},
		{SlowINP, Medium},
		{SlowFCP, Low},
		{PerfUnavailable, Low},
	},
}

var (
	metas = make(map[Kind]Meta)
	kinds []Kind
)

func init() {
	for _, cat := range Categories {
		for i, e := range catalog[cat] {
			if _, dup := metas[e.kind]; dup {
				panic(fmt.Sprintf("issue: kind %q registered twice", e.kind))
			}
			metas[e.kind] = Meta{Category: cat, Severity: e.severity, Priority: i}
			kinds = append(kinds, e.kind)
		}
	}
}

// Kinds returns every registered kind in report order
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Lookup returns the classification for k
func Lookup(k Kind) (Meta, bool) {
	m, ok := metas[k]
	return m, ok
}

// Valid reports whether k is part of the catalog
func (k Kind) Valid() bool {
	_, ok := metas[k]
	return ok
}

// Category returns the kind's category, or "" when k is not registered
func (k Kind) Category() Category { return metas[k].Category }

// Severity returns the kind's fixed severity
func (k Kind) Severity() Severity { return metas[k].Severity }

// Priority returns the kind's rank inside its category; unknown kinds sort last
func (k Kind) Priority() int {
	m, ok := metas[k]
	if !ok {
		return len(kinds)
	}
	return m.Priority
}

// Issue is one finding. Issues are never modified after creation.
type Issue struct {
	Kind     Kind     `json:"kind"`
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	URL      string   `json:"url"`
	Evidence string   `json:"evidence,omitempty"`
	Args     []string `json:"args,omitempty"`
}

// New builds an Issue with the kind's catalog classification
func New(k Kind, url string, args ...string) Issue {
	m, ok := metas[k]
	if !ok {
		panic(fmt.Sprintf("issue: unknown kind %q", k))
	}
	return Issue{
		Kind:     k,
		Category: m.Category,
		Severity: m.Severity,
		URL:      url,
		Args:     args,
	}
}

// WithEvidence returns a copy of i carrying evidence
func (i Issue) WithEvidence(evidence string) Issue {
	i.Evidence = evidence
	return i
}

// Sink collects issues in emission order
type Sink struct {
	issues []Issue
}

// Add appends issues to the sink
func (s *Sink) Add(issues ...Issue) {
	s.issues = append(s.issues, issues...)
}

// Len reports how many issues have been collected
func (s *Sink) Len() int { return len(s.issues) }

// Issues returns a copy of the collected issues
func (s *Sink) Issues() []Issue {
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}
