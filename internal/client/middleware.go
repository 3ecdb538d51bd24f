package client

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Middleware defines the interface for HTTP middleware
type Middleware interface {
	RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error)
}

// MiddlewareFunc adapts a function to Middleware
type MiddlewareFunc func(req *http.Request, next http.RoundTripper) (*http.Response, error)

func (f MiddlewareFunc) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	return f(req, next)
}

// LoggingMiddleware logs HTTP requests and responses
type LoggingMiddleware struct {
	logger *zap.Logger
}

// UserAgentMiddleware sets the User-Agent header when the request has none
type UserAgentMiddleware struct {
	userAgent string
}

// RateLimitMiddleware paces requests, per host or globally
type RateLimitMiddleware struct {
	limit   rate.Limit
	burst   int
	perHost bool

	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingMiddleware{logger: logger}
}

func NewUserAgentMiddleware(userAgent string) *UserAgentMiddleware {
	return &UserAgentMiddleware{userAgent: userAgent}
}

// NewRateLimitMiddleware allows requestsPerSecond with the given burst; a non-positive rate disables limiting
func NewRateLimitMiddleware(requestsPerSecond float64, burst int, perHost bool) *RateLimitMiddleware {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitMiddleware{
		limit:    limit,
		burst:    burst,
		perHost:  perHost,
		limiters: make(map[string]*rate.Limiter),
	}
}

// RoundTrip implements the Middleware interface for logging
func (m *LoggingMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	start := time.Now()
	m.logger.Debug("http request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()))

	resp, err := next.RoundTrip(req)
	if err != nil {
		m.logger.Debug("http request failed",
			zap.String("url", req.URL.String()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	m.logger.Debug("http response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", resp.Header.Get("Content-Type")),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// RoundTrip implements the Middleware interface for the User-Agent header
func (m *UserAgentMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if m.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", m.userAgent)
	}
	return next.RoundTrip(req)
}

// RoundTrip waits for the limiter before forwarding the request
func (m *RateLimitMiddleware) RoundTrip(req *http.Request, next http.RoundTripper) (*http.Response, error) {
	if err := m.limiterFor(req.URL.Host).Wait(req.Context()); err != nil {
		return nil, err
	}
	return next.RoundTrip(req)
}

// limiterFor gets or creates the limiter for host
func (m *RateLimitMiddleware) limiterFor(host string) *rate.Limiter {
	key := "*"
	if m.perHost {
		key = strings.ToLower(host)
	}

	m.mu.RLock()
	if limiter, ok := m.limiters[key]; ok {
		m.mu.RUnlock()
		return limiter
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// double-check after upgrading the lock
	if limiter, ok := m.limiters[key]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(m.limit, m.burst)
	m.limiters[key] = limiter
	return limiter
}

type middlewareTransport struct {
	middleware Middleware
	next       http.RoundTripper
}

func (t *middlewareTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.middleware.RoundTrip(req, t.next)
}

// chainMiddleware wraps base so the first middleware runs outermost
func chainMiddleware(middleware []Middleware, base http.RoundTripper) http.RoundTripper {
	rt := base
	for i := len(middleware) - 1; i >= 0; i-- {
		rt = &middlewareTransport{middleware: middleware[i], next: rt}
	}
	return rt
}
