// Package seoaudit is the public API of the site auditor: one call crawls a
// site, runs every check and returns the grouped report with per-page facts.
package seoaudit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/config"
	"github.com/Almahr1/seoaudit/internal/crawler"
	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/Almahr1/seoaudit/internal/perf"
	"github.com/Almahr1/seoaudit/internal/report"
	"github.com/Almahr1/seoaudit/internal/siteassets"
	"go.uber.org/zap"
)

var (
	ErrInvalidStartURL = crawler.ErrInvalidStartURL
	ErrNoPagesFetched  = crawler.ErrNoPagesFetched
	ErrUnknownLocale   = report.ErrUnknownLocale
)

// Re-exported result types
type (
	Report    = report.Report
	Group     = report.Group
	Summary   = report.Summary
	PageFacts = extractor.PageFacts
	Issue     = issue.Issue
	Metrics   = crawler.CrawlerMetrics
	Fetcher   = crawler.Fetcher
)

// Options configures one audit
type Options struct {
	MaxPages           int
	Workers            int
	AllowSubdomains    bool
	AllowOutsideFolder bool
	IgnoreQuery        bool
	RespectRobots      bool

	CheckRobots  bool
	CheckSitemap bool
	Sitemaps     []string
	MaxSitemaps  int

	// Locale selects the report language, "en" or "zh"
	Locale      string
	MaxExamples int

	TargetCountry string
	GeoEndpoint   string
	PerfEndpoint  string
	PerfAPIKey    string
	PerfPages     int

	// HTTP and RateLimit build the default client when Fetcher is nil
	HTTP      *config.HTTPConfig
	RateLimit config.RateLimitConfig

	// Collaborators override the endpoint-based defaults
	Fetcher      Fetcher
	Locator      siteassets.Locator
	Resolver     siteassets.Resolver
	PerfProvider perf.Provider

	Logger *zap.Logger
}

// DefaultOptions enables the site checks with a 50 page budget
func DefaultOptions() Options {
	return Options{
		MaxPages:     crawler.DefaultMaxPages,
		Workers:      1,
		CheckRobots:  true,
		CheckSitemap: true,
		Locale:       report.DefaultLocale,
		MaxExamples:  report.DefaultMaxExamples,
	}
}

// OptionsFromConfig maps loaded configuration onto audit options
func OptionsFromConfig(cfg *config.Config) Options {
	a := cfg.Audit
	httpCfg := cfg.HTTP
	return Options{
		MaxPages:           a.MaxPages,
		Workers:            a.Workers,
		AllowSubdomains:    a.AllowSubdomains,
		AllowOutsideFolder: a.AllowOutsideFolder,
		IgnoreQuery:        a.IgnoreQuery,
		RespectRobots:      a.RespectRobots,
		CheckRobots:        a.CheckRobots,
		CheckSitemap:       a.CheckSitemap,
		Sitemaps:           a.Sitemaps,
		MaxSitemaps:        a.MaxSitemaps,
		Locale:             cfg.Report.Locale,
		MaxExamples:        cfg.Report.MaxExamples,
		TargetCountry:      a.TargetCountry,
		GeoEndpoint:        cfg.Providers.GeoEndpoint,
		PerfEndpoint:       cfg.Providers.PerfEndpoint,
		PerfAPIKey:         cfg.Providers.PerfAPIKey,
		PerfPages:          a.PerfPages,
		HTTP:               &httpCfg,
		RateLimit:          cfg.RateLimit,
	}
}

// Audit is the complete outcome of Run
type Audit struct {
	RunID    string
	StartURL string
	Report   Report
	Summary  Summary
	Pages    []PageFacts
	Issues   []Issue
	Metrics  Metrics
	// Drained is true when the page budget stopped the crawl
	Drained bool
}

// Document returns the renderable form of the audit
func (a *Audit) Document() report.Document {
	return report.Document{
		RunID:    a.RunID,
		StartURL: a.StartURL,
		Summary:  a.Summary,
		Report:   a.Report,
	}
}

// RunAudit crawls startURL and returns the grouped report and the analyzed pages
func RunAudit(ctx context.Context, startURL string, opts Options) (*Report, []PageFacts, error) {
	a, err := Run(ctx, startURL, opts)
	if a == nil {
		return nil, nil, err
	}
	return &a.Report, a.Pages, err
}

// Run is RunAudit returning the summary and crawl metrics as well. When the crawl
// is cancelled or fetches nothing, the partial audit is returned with the error.
func Run(ctx context.Context, startURL string, opts Options) (*Audit, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalog, err := report.Catalog(opts.Locale)
	if err != nil {
		return nil, err
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		httpClient := newHTTPClient(opts, logger)
		defer func() { _ = httpClient.Close() }()
		fetcher = httpClient
	}

	ctrl := crawler.NewController(fetcher, controllerOptions(opts, fetcher), logger)
	res, runErr := ctrl.Run(ctx, startURL)
	if res == nil {
		return nil, runErr
	}

	a := &Audit{
		RunID:    res.RunID,
		StartURL: res.StartURL,
		Report:   report.Build(res.Issues, catalog, report.BuildOptions{MaxExamples: opts.MaxExamples}),
		Summary:  report.Summarize(res.Pages, res.Issues),
		Pages:    res.Pages,
		Issues:   res.Issues,
		Metrics:  res.Metrics,
		Drained:  res.Drained,
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return a, fmt.Errorf("audit %s: %w", startURL, runErr)
	}
	return a, runErr
}

func controllerOptions(opts Options, fetcher Fetcher) crawler.Options {
	userAgent := config.DefaultUserAgent
	if opts.HTTP != nil && opts.HTTP.UserAgent != "" {
		userAgent = opts.HTTP.UserAgent
	}

	co := crawler.Options{
		MaxPages:      opts.MaxPages,
		Workers:       opts.Workers,
		IgnoreQuery:   opts.IgnoreQuery,
		RespectRobots: opts.RespectRobots,
		UserAgent:     userAgent,
		Scope: frontier.ScopeOptions{
			AllowSubdomains:    opts.AllowSubdomains,
			AllowOutsideFolder: opts.AllowOutsideFolder,
		},
		Assets: siteassets.Options{
			CheckRobots:   opts.CheckRobots,
			CheckSitemap:  opts.CheckSitemap,
			Sitemaps:      opts.Sitemaps,
			MaxSitemaps:   opts.MaxSitemaps,
			TargetCountry: opts.TargetCountry,
			Resolver:      opts.Resolver,
			Locator:       opts.Locator,
		},
		PerfProvider: opts.PerfProvider,
		PerfPages:    opts.PerfPages,
	}

	// nil pointers must not end up inside the interfaces
	if co.Assets.Locator == nil {
		if l := siteassets.NewHTTPLocator(opts.GeoEndpoint, fetcher); l != nil {
			co.Assets.Locator = l
		}
	}
	if co.PerfProvider == nil {
		if p := perf.NewHTTPProvider(opts.PerfEndpoint, opts.PerfAPIKey, fetcher); p != nil {
			co.PerfProvider = p
		}
	}
	return co
}

func newHTTPClient(opts Options, logger *zap.Logger) *client.HTTPClient {
	httpCfg := opts.HTTP
	if httpCfg == nil {
		httpCfg = &config.HTTPConfig{
			UserAgent:                 config.DefaultUserAgent,
			MaxIdleConnections:        50,
			MaxIdleConnectionsPerHost: 10,
			IdleConnectionTimeout:     30 * time.Second,
			Timeout:                   15 * time.Second,
			DialTimeout:               5 * time.Second,
			TLSHandshakeTimeout:       5 * time.Second,
			ResponseHeaderTimeout:     10 * time.Second,
			MaxRedirects:              10,
		}
	}
	rl := opts.RateLimit
	return client.NewHTTPClientWithMiddleware(httpCfg, logger,
		client.NewRateLimitMiddleware(rl.RequestsPerSecond, rl.Burst, rl.PerHostLimit))
}
