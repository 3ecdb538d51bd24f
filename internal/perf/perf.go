// Package perf consumes page-experience metrics from an external provider and
// turns them into findings.
package perf

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Almahr1/seoaudit/internal/issue"
	"go.uber.org/zap"
)

// Metrics are field measurements for one URL
type Metrics struct {
	LCP time.Duration // largest contentful paint
	CLS float64       // cumulative layout shift
	INP time.Duration // interaction to next paint
	FCP time.Duration // first contentful paint
}

// Provider returns metrics for a URL
type Provider interface {
	Metrics(ctx context.Context, pageURL string) (Metrics, error)
}

// Thresholds are the "good" upper bounds for each metric
type Thresholds struct {
	LCP time.Duration
	CLS float64
	INP time.Duration
	FCP time.Duration
}

var DefaultThresholds = Thresholds{
	LCP: 2500 * time.Millisecond,
	CLS: 0.1,
	INP: 200 * time.Millisecond,
	FCP: 1800 * time.Millisecond,
}

// Evaluate compares m against t. Zero metrics are treated as unmeasured.
func Evaluate(pageURL string, m Metrics, t Thresholds) []issue.Issue {
	var out []issue.Issue
	if m.LCP > t.LCP {
		out = append(out, issue.New(issue.SlowLCP, pageURL, ms(m.LCP)).WithEvidence("LCP " + m.LCP.String()))
	}
	if m.CLS > t.CLS {
		cls := strconv.FormatFloat(m.CLS, 'f', 2, 64)
		out = append(out, issue.New(issue.HighCLS, pageURL, cls).WithEvidence("CLS "+cls))
	}
	if m.INP > t.INP {
		out = append(out, issue.New(issue.SlowINP, pageURL, ms(m.INP)).WithEvidence("INP " + m.INP.String()))
	}
	if m.FCP > t.FCP {
		out = append(out, issue.New(issue.SlowFCP, pageURL, ms(m.FCP)).WithEvidence("FCP " + m.FCP.String()))
	}
	return out
}

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

// Auditor queries a provider for a bounded number of pages
type Auditor struct {
	provider   Provider
	thresholds Thresholds
	logger     *zap.Logger

	mu        sync.Mutex
	remaining int
}

// NewAuditor returns an auditor that checks at most pages URLs. A nil provider disables it.
func NewAuditor(provider Provider, pages int, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		provider:   provider,
		thresholds: DefaultThresholds,
		logger:     logger,
		remaining:  pages,
	}
}

// Enabled reports whether the auditor will query anything
func (a *Auditor) Enabled() bool {
	return a != nil && a.provider != nil
}

// Check queries pageURL while budget remains. Provider errors become perf_unavailable.
func (a *Auditor) Check(ctx context.Context, pageURL string) []issue.Issue {
	if !a.Enabled() || !a.take() {
		return nil
	}

	m, err := a.provider.Metrics(ctx, pageURL)
	if err != nil {
		a.logger.Warn("performance metrics unavailable", zap.String("url", pageURL), zap.Error(err))
		return []issue.Issue{issue.New(issue.PerfUnavailable, pageURL).WithEvidence(err.Error())}
	}
	a.logger.Debug("performance metrics",
		zap.String("url", pageURL),
		zap.Duration("lcp", m.LCP),
		zap.Float64("cls", m.CLS),
		zap.Duration("inp", m.INP),
		zap.Duration("fcp", m.FCP))
	return Evaluate(pageURL, m, a.thresholds)
}

func (a *Auditor) take() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.remaining <= 0 {
		return false
	}
	a.remaining--
	return true
}
