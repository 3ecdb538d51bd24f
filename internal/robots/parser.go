// Package robots fetches robots.txt, analyses it for audit findings and answers
// permission checks according to the Robots Exclusion Standard.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// MaxSize caps how much of a robots.txt file is analysed
const MaxSize = 500 * 1024

// Fetcher is the HTTP capability the parser needs
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts client.FetchOptions) (*client.FetchResult, error)
}

// Config holds configuration for the robots.txt parser
type Config struct {
	UserAgent string
}

// Parser fetches robots.txt once per origin and caches the analysis for the run
type Parser struct {
	fetcher   Fetcher
	userAgent string
	logger    *zap.Logger

	cacheMu sync.RWMutex
	cache   map[string]*Analysis

	lockMu    sync.Mutex
	hostLocks map[string]*sync.Mutex
}

// NewParser creates a new robots.txt parser with the given configuration and fetcher
func NewParser(cfg Config, fetcher Fetcher, logger *zap.Logger) *Parser {
	if fetcher == nil {
		panic("robots: nil fetcher")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "*"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		fetcher:   fetcher,
		userAgent: cfg.UserAgent,
		logger:    logger,
		cache:     make(map[string]*Analysis),
		hostLocks: make(map[string]*sync.Mutex),
	}
}

// Get returns the robots.txt analysis for the origin of rawURL.
// Fetch failures are recorded on the Analysis, not returned.
func (p *Parser) Get(ctx context.Context, rawURL string) (*Analysis, error) {
	robotsURL, err := BuildRobotsURL(rawURL)
	if err != nil {
		return nil, err
	}

	if a, ok := p.cached(robotsURL); ok {
		return a, nil
	}

	lock := p.hostLock(robotsURL)
	lock.Lock()
	defer lock.Unlock()

	// another goroutine may have fetched it while we waited
	if a, ok := p.cached(robotsURL); ok {
		return a, nil
	}

	a := p.fetch(ctx, robotsURL)
	p.cacheMu.Lock()
	p.cache[robotsURL] = a
	p.cacheMu.Unlock()
	return a, nil
}

// IsAllowed reports whether the parser's user agent may fetch rawURL.
// Unreachable robots.txt files allow everything.
func (p *Parser) IsAllowed(ctx context.Context, rawURL string) bool {
	a, err := p.Get(ctx, rawURL)
	if err != nil || a.Data == nil {
		return true
	}
	u, err := frontier.ParseURL(rawURL)
	if err != nil {
		return true
	}
	target := u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return a.Data.TestAgent(target, p.userAgent)
}

func (p *Parser) fetch(ctx context.Context, robotsURL string) *Analysis {
	res, err := p.fetcher.Fetch(ctx, robotsURL, client.FetchOptions{Accept: "text/plain,*/*;q=0.5"})
	if err != nil {
		p.logger.Warn("robots.txt fetch failed", zap.String("url", robotsURL), zap.Error(err))
		return &Analysis{URL: robotsURL, FetchErr: err}
	}
	p.logger.Debug("fetched robots.txt",
		zap.String("url", robotsURL),
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(res.Body)))
	return Analyze(robotsURL, res.StatusCode, res.Body)
}

func (p *Parser) cached(robotsURL string) (*Analysis, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	a, ok := p.cache[robotsURL]
	return a, ok
}

// hostLock returns a mutex for the origin to prevent concurrent fetching
func (p *Parser) hostLock(robotsURL string) *sync.Mutex {
	p.lockMu.Lock()
	defer p.lockMu.Unlock()
	if m, ok := p.hostLocks[robotsURL]; ok {
		return m
	}
	m := &sync.Mutex{}
	p.hostLocks[robotsURL] = m
	return m
}

// BuildRobotsURL returns the robots.txt location for the origin of rawURL
func BuildRobotsURL(rawURL string) (string, error) {
	raw := strings.TrimSpace(rawURL)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := frontier.ParseURL(raw)
	if err != nil {
		return "", fmt.Errorf("build robots.txt url: %w", err)
	}
	u.Host = frontier.RemoveDefaultPort(strings.ToLower(u.Host), u.Scheme)
	u.Path = "/robots.txt"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String(), nil
}

// ParseRobotsContent parses robots.txt content; unparseable or unavailable files yield permissive data
func ParseRobotsContent(status int, content []byte) *robotstxt.RobotsData {
	data, err := robotstxt.FromStatusAndBytes(status, content)
	if err != nil || data == nil {
		data, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	}
	return data
}
