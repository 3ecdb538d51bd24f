package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// ErrTooManyRedirects is returned when the redirect hop limit is exceeded
var ErrTooManyRedirects = errors.New("too many redirects")

// redirectTrace is carried on the request context so one shared http.Client can
// record per-call redirect chains
type redirectTrace struct {
	allow   func(*url.URL) bool
	chain   []string
	blocked string
}

type traceKey struct{}

func withTrace(ctx context.Context, t *redirectTrace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func traceFrom(ctx context.Context) *redirectTrace {
	t, _ := ctx.Value(traceKey{}).(*redirectTrace)
	return t
}

// redirectPolicy returns a CheckRedirect function that records each hop, stops at
// targets rejected by the trace, and fails with ErrTooManyRedirects past maxHops
func redirectPolicy(maxHops int) func(*http.Request, []*http.Request) error {
	if maxHops <= 0 {
		maxHops = 10
	}
	return func(req *http.Request, via []*http.Request) error {
		t := traceFrom(req.Context())
		if t != nil && len(via) > 0 {
			t.chain = append(t.chain, via[len(via)-1].URL.String())
		}
		if len(via) > maxHops {
			return ErrTooManyRedirects
		}
		if t != nil && t.allow != nil && !t.allow(req.URL) {
			t.blocked = req.URL.String()
			return http.ErrUseLastResponse
		}
		return nil
	}
}
