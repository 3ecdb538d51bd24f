// Package client provides the HTTP fetch collaborator for the auditor
// Includes connection pooling, redirect tracing, body decoding, rate limiting and request middleware
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Almahr1/seoaudit/internal/config"
	"go.uber.org/zap"
)

// HTTPClient wraps the standard HTTP client with redirect tracing and middleware support.
// Failed requests are never retried.
type HTTPClient struct {
	client       *http.Client
	config       *config.HTTPConfig
	logger       *zap.Logger
	middleware   []Middleware
	maxBodyBytes int64
}

// FetchOptions tunes a single Fetch call
type FetchOptions struct {
	// FollowRedirect vets each redirect target. A rejected target leaves the 3xx as the final response.
	// Nil follows every redirect up to the hop limit.
	FollowRedirect func(target *url.URL) bool
	// Accept overrides the default Accept header
	Accept string
}

// FetchResult is one completed request, after redirects
type FetchResult struct {
	RequestedURL string
	FinalURL     string
	StatusCode   int
	ContentType  string
	Header       http.Header
	Body         []byte
	// RedirectChain lists every URL that answered with a redirect, in order
	RedirectChain []string
	// BlockedRedirect is the target that was not followed, if any
	BlockedRedirect string
	Duration        time.Duration
}

// Redirected reports whether at least one redirect was observed
func (r *FetchResult) Redirected() bool {
	return len(r.RedirectChain) > 0
}

// IsHTML reports whether the response declares an HTML media type
func (r *FetchResult) IsHTML() bool {
	ct := strings.ToLower(r.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

// ChainEvidence renders the redirect chain ending at the final URL
func (r *FetchResult) ChainEvidence() string {
	hops := append([]string(nil), r.RedirectChain...)
	if r.BlockedRedirect != "" {
		hops = append(hops, r.BlockedRedirect)
	} else {
		hops = append(hops, r.FinalURL)
	}
	return strings.Join(hops, " → ")
}

const defaultAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// NewHTTPClient creates a client with logging and user-agent middleware
func NewHTTPClient(cfg *config.HTTPConfig, logger *zap.Logger) *HTTPClient {
	return NewHTTPClientWithMiddleware(cfg, logger)
}

// NewHTTPClientWithMiddleware appends extra middleware after the defaults
func NewHTTPClientWithMiddleware(cfg *config.HTTPConfig, logger *zap.Logger, middleware ...Middleware) *HTTPClient {
	if cfg == nil {
		panic("client: nil HTTP config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &HTTPClient{
		config:       cfg,
		logger:       logger,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = 5 * 1024 * 1024
	}

	c.middleware = append([]Middleware{
		NewLoggingMiddleware(logger),
		NewUserAgentMiddleware(cfg.UserAgent),
	}, middleware...)

	c.client = buildHTTPClient(cfg)
	c.client.Transport = chainMiddleware(c.middleware, c.client.Transport)
	c.client.CheckRedirect = redirectPolicy(cfg.MaxRedirects)
	return c
}

// Get fetches rawURL following every redirect
func (c *HTTPClient) Get(ctx context.Context, rawURL string) (*FetchResult, error) {
	return c.Fetch(ctx, rawURL, FetchOptions{})
}

// Fetch performs a GET and reads the decoded body.
// Non-2xx statuses are results, not errors. Transport failures, hop-limit
// violations and oversized bodies are errors.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string, opts FetchOptions) (*FetchResult, error) {
	trace := &redirectTrace{allow: opts.FollowRedirect}
	ctx = withTrace(ctx, trace)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	accept := opts.Accept
	if accept == "" {
		accept = defaultAccept
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	if !c.config.DisableCompression {
		enc := c.config.AcceptEncoding
		if enc == "" {
			enc = "gzip, deflate, br"
		}
		req.Header.Set("Accept-Encoding", enc)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) {
			return nil, fmt.Errorf("fetch %s: %w", rawURL, ErrTooManyRedirects)
		}
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	body, err := readBody(resp, c.maxBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		RequestedURL:    rawURL,
		FinalURL:        finalURL,
		StatusCode:      resp.StatusCode,
		ContentType:     resp.Header.Get("Content-Type"),
		Header:          resp.Header.Clone(),
		Body:            body,
		RedirectChain:   trace.chain,
		BlockedRedirect: trace.blocked,
		Duration:        time.Since(start),
	}, nil
}

// Close releases idle connections
func (c *HTTPClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func buildTransport(cfg *config.HTTPConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          cfg.MaxIdleConnections,
		MaxIdleConnsPerHost:   cfg.MaxIdleConnectionsPerHost,
		IdleConnTimeout:       cfg.IdleConnectionTimeout,
		DisableCompression:    true, // bodies are decoded in readBody
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		DialContext:           dialer.DialContext,
	}
}

// buildHTTPClient creates and configures the underlying http.Client
func buildHTTPClient(cfg *config.HTTPConfig) *http.Client {
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: buildTransport(cfg),
	}
}
