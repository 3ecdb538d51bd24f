package crawler

import (
	"context"
	"net/url"
	"time"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CrawlJob is one task popped from the frontier
type CrawlJob struct {
	Task        frontier.Task
	SubmittedAt time.Time
}

// CrawlResult is the outcome of fetching one job
type CrawlResult struct {
	Job         CrawlJob
	Fetch       *client.FetchResult
	Error       error
	CompletedAt time.Time
}

// Success reports whether the fetch produced a response
func (r *CrawlResult) Success() bool {
	return r.Error == nil && r.Fetch != nil
}

// CrawlerMetrics summarises one run
type CrawlerMetrics struct {
	FetchCalls     int
	SuccessfulJobs int
	FailedJobs     int
	AnalyzedPages  int
	QueueDepth     int
	Waves          int
	Duration       time.Duration
	PagesPerSecond float64
}

// fetchWave fetches jobs concurrently, at most workers at a time.
// Results are returned in job order; a failed fetch never cancels its siblings.
func (c *Controller) fetchWave(ctx context.Context, jobs []CrawlJob, follow func(*url.URL) bool, logger *zap.Logger) []CrawlResult {
	results := make([]CrawlResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := c.fetcher.Fetch(ctx, job.Task.URL, client.FetchOptions{FollowRedirect: follow})
			results[i] = CrawlResult{
				Job:         job,
				Fetch:       res,
				Error:       err,
				CompletedAt: time.Now(),
			}
			if err == nil && res != nil {
				logger.Debug("fetched",
					zap.String("url", job.Task.URL),
					zap.Int("status", res.StatusCode),
					zap.Int("depth", job.Task.Depth),
					zap.Duration("elapsed", res.Duration))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
