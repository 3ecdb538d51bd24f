// Package siteassets runs the one-shot origin checks of an audit: robots.txt,
// sitemaps, favicon, transport security and optional server geolocation.
package siteassets

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/Almahr1/seoaudit/internal/robots"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MinRobotsSize is the trimmed length below which robots.txt counts as empty
const MinRobotsSize = 10

// DefaultMaxSitemaps caps the sitemap work-list when Options leaves it unset
const DefaultMaxSitemaps = 10

// Fetcher is the HTTP capability the checker needs
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts client.FetchOptions) (*client.FetchResult, error)
}

// Options toggles individual checks
type Options struct {
	CheckRobots  bool
	CheckSitemap bool
	// Sitemaps are fetched in addition to those declared in robots.txt
	Sitemaps    []string
	MaxSitemaps int

	// TargetCountry enables the geolocation advisory when set together with Locator
	TargetCountry string
	Resolver      Resolver
	Locator       Locator
}

// Hints carries facts from the start page that refine the checks
type Hints struct {
	// FaviconHref is the absolute href of the start page's <link rel=icon>, if any
	FaviconHref string
}

// Result is the outcome of one Run
type Result struct {
	Issues             []issue.Issue
	SitemapHasHreflang bool
	Robots             *robots.Analysis
	// SitemapPages counts <loc> entries across all fetched urlsets
	SitemapPages int
}

// Checker performs the site-level checks against a start URL's origin
type Checker struct {
	fetcher Fetcher
	robots  *robots.Parser
	opts    Options
	logger  *zap.Logger
}

// NewChecker creates a checker. A nil robots parser gets one built on fetcher.
func NewChecker(fetcher Fetcher, robotsParser *robots.Parser, opts Options, logger *zap.Logger) *Checker {
	if fetcher == nil {
		panic("siteassets: nil fetcher")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if robotsParser == nil {
		robotsParser = robots.NewParser(robots.Config{}, fetcher, logger)
	}
	if opts.MaxSitemaps <= 0 {
		opts.MaxSitemaps = DefaultMaxSitemaps
	}
	if opts.Resolver == nil {
		opts.Resolver = netResolver{}
	}
	return &Checker{
		fetcher: fetcher,
		robots:  robotsParser,
		opts:    opts,
		logger:  logger,
	}
}

// Run executes every enabled check once. Failed checks become issues;
// the only error is an unusable start URL.
func (c *Checker) Run(ctx context.Context, startURL string, hints Hints) (Result, error) {
	start, err := frontier.ParseURL(startURL)
	if err != nil {
		return Result{}, fmt.Errorf("site assets: %w", err)
	}
	origin := &url.URL{Scheme: start.Scheme, Host: frontier.RemoveDefaultPort(start.Host, start.Scheme)}

	var (
		result  Result
		robotsI []issue.Issue
		favI    []issue.Issue
		geoI    []issue.Issue
	)

	// robots, favicon and geolocation are independent; sitemaps wait for robots discoveries
	g, gctx := errgroup.WithContext(ctx)
	if c.opts.CheckRobots {
		g.Go(func() error {
			result.Robots, robotsI = c.checkRobots(gctx, origin)
			return nil
		})
	}
	g.Go(func() error {
		favI = c.checkFavicon(gctx, origin, hints.FaviconHref)
		return nil
	})
	if c.opts.TargetCountry != "" && c.opts.Locator != nil {
		g.Go(func() error {
			geoI = c.checkLocation(gctx, origin)
			return nil
		})
	}
	_ = g.Wait()

	result.Issues = append(result.Issues, robotsI...)

	if c.opts.CheckSitemap {
		var discovered []string
		if result.Robots != nil {
			discovered = result.Robots.Sitemaps
		}
		sm := c.checkSitemaps(ctx, origin, discovered)
		result.Issues = append(result.Issues, sm.issues...)
		result.SitemapHasHreflang = sm.hasHreflang
		result.SitemapPages = sm.pages
	}

	if origin.Scheme == "http" {
		result.Issues = append(result.Issues, issue.New(issue.NoHTTPS, start.String()))
	}
	result.Issues = append(result.Issues, favI...)
	result.Issues = append(result.Issues, geoI...)

	c.logger.Info("site asset checks complete",
		zap.String("origin", origin.String()),
		zap.Int("issues", len(result.Issues)),
		zap.Bool("sitemap_hreflang", result.SitemapHasHreflang))
	return result, nil
}

func (c *Checker) checkRobots(ctx context.Context, origin *url.URL) (*robots.Analysis, []issue.Issue) {
	a, err := c.robots.Get(ctx, origin.String())
	if err != nil {
		robotsURL := origin.String() + "/robots.txt"
		return nil, []issue.Issue{issue.New(issue.NoRobots, robotsURL).WithEvidence(err.Error())}
	}

	if !a.Reachable() {
		evidence := "status " + strconv.Itoa(a.StatusCode)
		if a.FetchErr != nil {
			evidence = a.FetchErr.Error()
		}
		return a, []issue.Issue{issue.New(issue.NoRobots, a.URL).WithEvidence(evidence)}
	}

	var out []issue.Issue
	if a.Size < MinRobotsSize {
		out = append(out, issue.New(issue.RobotsEmpty, a.URL).WithEvidence(strconv.Itoa(a.Size)+" bytes"))
	}
	if !a.HasUserAgent {
		out = append(out, issue.New(issue.RobotsNoUserAgent, a.URL))
	}
	if a.BlocksAll {
		out = append(out, issue.New(issue.RobotsBlocksAll, a.URL).WithEvidence("Disallow: /"))
	}
	if len(a.BlockedResources) > 0 {
		out = append(out, issue.New(issue.RobotsBlocksResources, a.URL, a.BlockedResources...).
			WithEvidence(fmt.Sprintf("%d rules", len(a.BlockedResources))))
	}
	if len(a.Sitemaps) == 0 {
		out = append(out, issue.New(issue.RobotsNoSitemap, a.URL))
	}
	return a, out
}

func (c *Checker) checkFavicon(ctx context.Context, origin *url.URL, href string) []issue.Issue {
	target := origin.String() + "/favicon.ico"
	if href != "" {
		if u, err := frontier.Resolve(origin, href); err == nil {
			target = u.String()
		}
	}

	res, err := c.fetcher.Fetch(ctx, target, client.FetchOptions{Accept: "image/*,*/*;q=0.8"})
	if err != nil {
		c.logger.Warn("favicon fetch failed", zap.String("url", target), zap.Error(err))
		return []issue.Issue{issue.New(issue.MissingFavicon, target).WithEvidence(err.Error())}
	}
	if res.StatusCode != http.StatusOK {
		return []issue.Issue{issue.New(issue.MissingFavicon, target).WithEvidence("status " + strconv.Itoa(res.StatusCode))}
	}
	if len(res.Body) == 0 {
		return []issue.Issue{issue.New(issue.MissingFavicon, target).WithEvidence("empty body")}
	}
	return nil
}
