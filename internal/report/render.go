package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// ErrUnknownFormat is returned by Render for an unsupported format name
var ErrUnknownFormat = errors.New("unknown report format")

const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Document is everything written for one audit
type Document struct {
	RunID    string  `json:"run_id,omitempty"`
	StartURL string  `json:"start_url"`
	Summary  Summary `json:"summary"`
	Report   Report  `json:"report"`
}

// Render writes doc to w as a table or JSON
func Render(w io.Writer, format string, doc Document) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		return RenderTable(w, doc)
	case FormatJSON:
		return RenderJSON(w, doc)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// RenderJSON writes doc as indented JSON
func RenderJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// RenderTable writes the summary, the issue groups and the page table
func RenderTable(w io.Writer, doc Document) error {
	s := doc.Summary

	overview := table.NewWriter()
	overview.SetOutputMirror(w)
	overview.SetStyle(table.StyleLight)
	overview.SetTitle("Audit of " + doc.StartURL)
	overview.AppendRows([]table.Row{
		{"Health score", s.HealthScore},
		{"Pages analyzed", s.Pages},
		{"Issues", s.TotalIssues},
		{"Critical / High / Medium / Low", fmt.Sprintf("%d / %d / %d / %d",
			s.BySeverity[issue.Critical], s.BySeverity[issue.High], s.BySeverity[issue.Medium], s.BySeverity[issue.Low])},
	})
	overview.Render()
	fmt.Fprintln(w)

	issues := table.NewWriter()
	issues.SetOutputMirror(w)
	issues.SetStyle(table.StyleLight)
	issues.AppendHeader(table.Row{"Severity", "Category", "Issue", "Count", "Examples", "Suggestion"})
	for _, g := range doc.Report.Groups {
		issues.AppendRow(table.Row{
			severityColor(g.Severity),
			g.Category,
			g.Title,
			g.Count,
			exampleURLs(g.Examples),
			g.Suggestion,
		})
	}
	issues.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Issue", WidthMax: 40},
		{Name: "Examples", WidthMax: 60},
		{Name: "Suggestion", WidthMax: 50},
	})
	issues.Render()
	fmt.Fprintln(w)

	pages := table.NewWriter()
	pages.SetOutputMirror(w)
	pages.SetStyle(table.StyleLight)
	pages.AppendHeader(table.Row{"URL", "Status", "Title", "H1", "Links", "Issues"})
	for _, p := range s.PageRows {
		pages.AppendRow(table.Row{p.URL, p.Status, p.Title, p.H1, p.LinkCount, p.IssueCount})
	}
	pages.SetColumnConfigs([]table.ColumnConfig{
		{Name: "URL", WidthMax: 60},
		{Name: "Title", WidthMax: 40},
		{Name: "H1", WidthMax: 30},
	})
	pages.Render()
	return nil
}

func exampleURLs(examples []Example) string {
	urls := make([]string, len(examples))
	for i, e := range examples {
		urls[i] = e.URL
	}
	return strings.Join(urls, "\n")
}

func severityColor(s issue.Severity) string {
	switch s {
	case issue.Critical:
		return text.Colors{text.FgHiRed, text.Bold}.Sprint(s.String())
	case issue.High:
		return text.FgRed.Sprint(s.String())
	case issue.Medium:
		return text.FgYellow.Sprint(s.String())
	}
	return s.String()
}
