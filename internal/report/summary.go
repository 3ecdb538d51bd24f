package report

import (
	"sort"
	"strconv"

	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/issue"
)

// PageRow is one line of the per-page table
type PageRow struct {
	URL        string `json:"url"`
	Status     int    `json:"status"`
	Title      string `json:"title"`
	H1         string `json:"h1"`
	LinkCount  int    `json:"link_count"`
	IssueCount int    `json:"issue_count"`
}

// Count is a labelled tally
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary is the dashboard view of an audit
type Summary struct {
	HealthScore int                    `json:"health_score"`
	Pages       int                    `json:"pages"`
	TotalIssues int                    `json:"total_issues"`
	BySeverity  map[issue.Severity]int `json:"by_severity"`
	StatusCodes []Count                `json:"status_codes"`
	IssueKinds  []Count                `json:"issue_kinds"`
	PageRows    []PageRow              `json:"page_rows"`
}

// HealthScore deducts half a point per issue from 100, floored at zero
func HealthScore(totalIssues int) int {
	score := 100 - int(0.5*float64(totalIssues))
	if score < 0 {
		return 0
	}
	return score
}

// Summarize computes the health score and distributions for a finished audit
func Summarize(pages []extractor.PageFacts, issues []issue.Issue) Summary {
	s := Summary{
		HealthScore: HealthScore(len(issues)),
		Pages:       len(pages),
		TotalIssues: len(issues),
		BySeverity:  make(map[issue.Severity]int),
		PageRows:    make([]PageRow, 0, len(pages)),
	}
	for _, sev := range []issue.Severity{issue.Critical, issue.High, issue.Medium, issue.Low} {
		s.BySeverity[sev] = 0
	}

	statuses := make(map[int]int)
	for _, p := range pages {
		statuses[p.Status]++
		title := p.Title
		if title == "" {
			title = "No Title"
		}
		h1 := p.H1()
		if h1 == "" {
			h1 = "No H1"
		}
		s.PageRows = append(s.PageRows, PageRow{
			URL:        p.URL,
			Status:     p.Status,
			Title:      title,
			H1:         h1,
			LinkCount:  len(p.Links),
			IssueCount: p.IssueCount,
		})
	}
	codes := make([]int, 0, len(statuses))
	for code := range statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		s.StatusCodes = append(s.StatusCodes, Count{Label: statusLabel(code), Count: statuses[code]})
	}

	kindCounts := make(map[issue.Kind]int)
	for _, is := range issues {
		s.BySeverity[is.Severity]++
		kindCounts[is.Kind]++
	}
	for k, n := range kindCounts {
		s.IssueKinds = append(s.IssueKinds, Count{Label: string(k), Count: n})
	}
	sort.Slice(s.IssueKinds, func(i, j int) bool {
		if s.IssueKinds[i].Count != s.IssueKinds[j].Count {
			return s.IssueKinds[i].Count > s.IssueKinds[j].Count
		}
		return s.IssueKinds[i].Label < s.IssueKinds[j].Label
	})
	return s
}

func statusLabel(code int) string {
	if code == 0 {
		return "unknown"
	}
	return strconv.Itoa(code)
}
