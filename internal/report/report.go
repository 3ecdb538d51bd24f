// Package report aggregates the issue stream of an audit into ordered groups
// with localized messages and renders them for output.
package report

import (
	"sort"

	"github.com/Almahr1/seoaudit/internal/issue"
)

// DefaultMaxExamples is the number of example URLs kept per group
const DefaultMaxExamples = 3

// Example is one occurrence shown under a group
type Example struct {
	URL      string `json:"url"`
	Evidence string `json:"evidence,omitempty"`
}

// Group is every issue of one kind
type Group struct {
	Kind     issue.Kind     `json:"kind"`
	Category issue.Category `json:"category"`
	Severity issue.Severity `json:"severity"`
	Count    int            `json:"count"`
	Examples []Example      `json:"examples"`
	Message
}

// Report is the ordered view of an issue list
type Report struct {
	Locale string  `json:"locale"`
	Total  int     `json:"total"`
	Groups []Group `json:"groups"`
}

// BuildOptions tunes Build
type BuildOptions struct {
	// MaxExamples defaults to DefaultMaxExamples when zero or negative
	MaxExamples int
}

// Build groups issues by kind and sorts the groups for presentation.
// It does not modify issues; a nil catalog uses the English one.
func Build(issues []issue.Issue, catalog *LocaleCatalog, opts BuildOptions) Report {
	if catalog == nil {
		catalog = builtin[DefaultLocale]
	}
	maxExamples := opts.MaxExamples
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}

	index := make(map[issue.Kind]int)
	groups := make([]Group, 0)
	for _, is := range issues {
		i, ok := index[is.Kind]
		if !ok {
			i = len(groups)
			index[is.Kind] = i
			groups = append(groups, Group{
				Kind:     is.Kind,
				Category: is.Category,
				Severity: is.Severity,
				Message:  catalog.Message(is.Kind, is.Args),
			})
		}
		g := &groups[i]
		g.Count++
		if len(g.Examples) < maxExamples {
			g.Examples = append(g.Examples, Example{URL: is.URL, Evidence: is.Evidence})
		}
	}

	Sort(groups)
	return Report{Locale: catalog.Locale, Total: len(issues), Groups: groups}
}

// Sort orders groups by category, then kind priority, then severity. Ties keep their order.
func Sort(groups []Group) {
	sort.SliceStable(groups, func(a, b int) bool {
		return less(groups[a], groups[b])
	})
}

func less(a, b Group) bool {
	if ca, cb := a.Category.Rank(), b.Category.Rank(); ca != cb {
		return ca < cb
	}
	if pa, pb := a.Kind.Priority(), b.Kind.Priority(); pa != pb {
		return pa < pb
	}
	return a.Severity.Rank() < b.Severity.Rank()
}

// BySeverity returns the groups at severity s, in report order
func (r Report) BySeverity(s issue.Severity) []Group {
	var out []Group
	for _, g := range r.Groups {
		if g.Severity == s {
			out = append(out, g)
		}
	}
	return out
}

// Group returns the group for k
func (r Report) Group(k issue.Kind) (Group, bool) {
	for _, g := range r.Groups {
		if g.Kind == k {
			return g, true
		}
	}
	return Group{}, false
}
