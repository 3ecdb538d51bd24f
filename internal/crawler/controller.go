// Package crawler drives an audit run: it owns the frontier, fetches pages in
// breadth-first waves, classifies responses and feeds HTML to the rule engine
// and duplicate detector.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/dedup"
	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/Almahr1/seoaudit/internal/perf"
	"github.com/Almahr1/seoaudit/internal/robots"
	"github.com/Almahr1/seoaudit/internal/rules"
	"github.com/Almahr1/seoaudit/internal/siteassets"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidStartURL = errors.New("invalid start URL")
	ErrNoPagesFetched  = errors.New("no pages fetched")
)

const DefaultMaxPages = 50

// Fetcher is the HTTP capability the controller needs
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts client.FetchOptions) (*client.FetchResult, error)
}

// State is the controller's run phase
type State int

const (
	StateInit State = iota
	StateCrawling
	// StateDraining means the budget is spent while the queue still holds work
	StateDraining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCrawling:
		return "crawling"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Options configures a Controller
type Options struct {
	MaxPages int
	// Workers bounds concurrent fetches; 1 is strictly sequential
	Workers     int
	Scope       frontier.ScopeOptions
	IgnoreQuery bool
	// RespectRobots drops links disallowed for UserAgent
	RespectRobots bool
	UserAgent     string

	Assets siteassets.Options

	PerfProvider perf.Provider
	PerfPages    int
}

// Result is everything one run produced
type Result struct {
	RunID              string
	StartURL           string
	Issues             []issue.Issue
	Pages              []extractor.PageFacts
	SitemapHasHreflang bool
	// Drained is true when the run stopped on the page budget with work left
	Drained bool
	Metrics CrawlerMetrics
}

// Controller runs audits. It holds no per-run state and may run several audits in sequence.
type Controller struct {
	fetcher Fetcher
	opts    Options
	logger  *zap.Logger
}

// NewController creates a controller. It panics on a nil fetcher.
func NewController(fetcher Fetcher, opts Options, logger *zap.Logger) *Controller {
	if fetcher == nil {
		panic("crawler: nil fetcher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Controller{fetcher: fetcher, opts: opts, logger: logger}
}

// run holds the state of a single audit
type run struct {
	c      *Controller
	logger *zap.Logger
	state  State

	normalizer *frontier.URLNormalizer
	frontier   *frontier.Frontier
	scope      *frontier.Scope
	robots     *robots.Parser
	assets     *siteassets.Checker
	engine     *rules.Engine
	dedup      *dedup.Detector
	perf       *perf.Auditor

	assetsDone         bool
	sitemapHasHreflang bool
	analyzed           map[string]bool

	sink     issue.Sink
	pages    []extractor.PageFacts
	firstErr error
	metrics  CrawlerMetrics
}

// Run audits the site at startURL. A cancelled context returns the partial
// result together with ctx.Err().
func (c *Controller) Run(ctx context.Context, startURL string) (*Result, error) {
	normalizer := frontier.NewURLNormalizer(c.opts.IgnoreQuery)
	start, err := normalizer.Normalize(startURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}
	scope, err := frontier.NewScope(start.Fetch, c.opts.Scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStartURL, err)
	}

	runID := uuid.NewString()
	logger := c.logger.With(zap.String("run_id", runID))

	r := &run{
		c:          c,
		logger:     logger,
		normalizer: normalizer,
		frontier:   frontier.New(normalizer),
		scope:      scope,
		robots:     robots.NewParser(robots.Config{UserAgent: c.opts.UserAgent}, c.fetcher, logger),
		engine:     rules.NewEngine(extractor.NewHTMLExtractor(nil, logger), normalizer),
		dedup:      dedup.NewDetector(normalizer, logger),
		perf:       perf.NewAuditor(c.opts.PerfProvider, c.opts.PerfPages, logger),
		analyzed:   make(map[string]bool),
	}
	r.assets = siteassets.NewChecker(c.fetcher, r.robots, c.opts.Assets, logger)
	r.frontier.Push(start.Fetch, 0)

	logger.Info("starting audit",
		zap.String("start_url", start.Fetch),
		zap.Int("max_pages", c.opts.MaxPages),
		zap.Int("workers", c.opts.Workers))

	began := time.Now()
	runErr := r.loop(ctx, start.Fetch)
	r.metrics.Duration = time.Since(began)
	r.metrics.QueueDepth = r.frontier.Len()
	if secs := r.metrics.Duration.Seconds(); secs > 0 {
		r.metrics.PagesPerSecond = float64(r.metrics.FetchCalls) / secs
	}

	result := &Result{
		RunID:              runID,
		StartURL:           start.Fetch,
		Issues:             r.sink.Issues(),
		Pages:              r.pages,
		SitemapHasHreflang: r.sitemapHasHreflang,
		Drained:            r.state == StateDraining,
		Metrics:            r.metrics,
	}
	r.transition(StateDone)

	logger.Info("audit finished",
		zap.Int("fetched", r.metrics.SuccessfulJobs),
		zap.Int("failed", r.metrics.FailedJobs),
		zap.Int("analyzed", r.metrics.AnalyzedPages),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("duration", r.metrics.Duration))

	if runErr != nil {
		return result, runErr
	}
	if r.metrics.SuccessfulJobs == 0 {
		return result, fmt.Errorf("%w: %w", ErrNoPagesFetched, r.firstErr)
	}
	return result, nil
}

func (r *run) loop(ctx context.Context, startURL string) error {
	r.transition(StateCrawling)
	// a hop that leaves scope ends the fetch with its 3xx response
	follow := r.scope.InScopeURL

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("audit cancelled", zap.Error(err))
			return err
		}

		remaining := r.c.opts.MaxPages - r.metrics.FetchCalls
		if remaining <= 0 {
			if r.frontier.Len() > 0 {
				r.transition(StateDraining)
				r.logger.Info("page budget reached",
					zap.Int("max_pages", r.c.opts.MaxPages),
					zap.Int("queued", r.frontier.Len()))
			}
			return nil
		}

		jobs := r.popWave(min(remaining, r.c.opts.Workers))
		if len(jobs) == 0 {
			return nil
		}

		results := r.c.fetchWave(ctx, jobs, follow, r.logger)
		r.metrics.FetchCalls += len(jobs)
		r.metrics.Waves++

		if !r.assetsDone {
			r.runAssets(ctx, startURL, results)
		}
		for i := range results {
			r.process(ctx, &results[i])
		}
	}
}

func (r *run) popWave(n int) []CrawlJob {
	jobs := make([]CrawlJob, 0, n)
	now := time.Now()
	for len(jobs) < n {
		task, ok := r.frontier.Pop()
		if !ok {
			break
		}
		jobs = append(jobs, CrawlJob{Task: task, SubmittedAt: now})
	}
	return jobs
}

// runAssets performs the site checks once, using the start page's icon link when it was fetched
func (r *run) runAssets(ctx context.Context, startURL string, results []CrawlResult) {
	r.assetsDone = true

	var hints siteassets.Hints
	for _, res := range results {
		if res.Success() && res.Job.Task.Depth == 0 && res.Fetch.IsHTML() {
			hints.FaviconHref = extractor.FaviconHref(res.Fetch.Body, res.Fetch.ContentType, res.Fetch.FinalURL)
		}
	}

	out, err := r.assets.Run(ctx, startURL, hints)
	if err != nil {
		r.logger.Warn("site asset checks skipped", zap.Error(err))
		return
	}
	if ctx.Err() != nil {
		r.logger.Warn("site asset checks interrupted", zap.Error(ctx.Err()))
		return
	}
	r.sitemapHasHreflang = out.SitemapHasHreflang
	r.sink.Add(out.Issues...)
}

func (r *run) process(ctx context.Context, res *CrawlResult) {
	task := res.Job.Task
	if !res.Success() {
		if interrupted(ctx, res.Error) {
			r.logger.Debug("fetch interrupted", zap.String("url", task.URL))
			return
		}
		r.metrics.FailedJobs++
		if r.firstErr == nil {
			r.firstErr = res.Error
		}
		r.logger.Warn("fetch failed", zap.String("url", task.URL), zap.Error(res.Error))
		evidence := ""
		if res.Error != nil {
			evidence = res.Error.Error()
		}
		r.sink.Add(issue.New(issue.FetchFailed, task.URL).WithEvidence(evidence))
		return
	}
	r.metrics.SuccessfulJobs++

	fetch := res.Fetch
	if fetch.Redirected() {
		r.sink.Add(issue.New(issue.HTTP3xx, task.URL, strconv.Itoa(len(fetch.RedirectChain))).
			WithEvidence(fetch.ChainEvidence()))
		r.frontier.MarkVisited(fetch.FinalURL)
	}

	switch {
	case fetch.StatusCode >= 500:
		r.sink.Add(issue.New(issue.HTTP5xx, fetch.FinalURL, strconv.Itoa(fetch.StatusCode)))
		return
	case fetch.StatusCode >= 400:
		r.sink.Add(issue.New(issue.HTTP4xx, fetch.FinalURL, strconv.Itoa(fetch.StatusCode)))
		return
	case fetch.StatusCode >= 300, !fetch.IsHTML():
		return
	}

	r.analyze(ctx, task, fetch)
}

// analyze runs the rule engine, dedup and perf on a successful HTML response, then enqueues its links
func (r *run) analyze(ctx context.Context, task frontier.Task, fetch *client.FetchResult) {
	final, err := r.normalizer.Normalize(fetch.FinalURL)
	if err != nil {
		r.logger.Warn("unusable final URL", zap.String("url", fetch.FinalURL), zap.Error(err))
		return
	}
	if r.analyzed[final.Key] {
		return
	}
	if fetch.Redirected() && !r.scope.InScope(fetch.FinalURL) {
		r.logger.Debug("redirect target out of scope", zap.String("url", fetch.FinalURL))
		return
	}
	r.analyzed[final.Key] = true

	facts, found, err := r.engine.Evaluate(rules.Input{
		URL:                fetch.FinalURL,
		ContentType:        fetch.ContentType,
		Body:               fetch.Body,
		Status:             fetch.StatusCode,
		Depth:              task.Depth,
		SitemapHasHreflang: r.sitemapHasHreflang,
	})
	if err != nil {
		r.logger.Warn("page analysis failed", zap.String("url", fetch.FinalURL), zap.Error(err))
		return
	}

	if fetch.StatusCode == http.StatusOK {
		if dup := r.dedup.CheckFacts(&facts); dup != nil {
			found = append(found, *dup)
		}
	}
	if ctx.Err() == nil {
		found = append(found, r.perf.Check(ctx, fetch.FinalURL)...)
	}

	facts.IssueCount = len(found)
	r.sink.Add(found...)
	r.pages = append(r.pages, facts)
	r.metrics.AnalyzedPages++

	enqueued := 0
	for _, link := range facts.Links {
		if !r.scope.InScope(link) {
			continue
		}
		if r.c.opts.RespectRobots && !r.robots.IsAllowed(ctx, link) {
			r.logger.Debug("link disallowed by robots.txt", zap.String("url", link))
			continue
		}
		if r.frontier.Push(link, task.Depth+1) {
			enqueued++
		}
	}
	r.logger.Debug("analyzed page",
		zap.String("url", fetch.FinalURL),
		zap.Int("issues", len(found)),
		zap.Int("links", len(facts.Links)),
		zap.Int("enqueued", enqueued))
}

func (r *run) transition(to State) {
	if r.state == to {
		return
	}
	r.logger.Debug("state transition", zap.Stringer("from", r.state), zap.Stringer("to", to))
	r.state = to
}

// interrupted reports whether err is the run's own cancellation, not a site failure
func interrupted(ctx context.Context, err error) bool {
	cause := ctx.Err()
	return cause != nil && errors.Is(err, cause)
}
