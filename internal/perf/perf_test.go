package perf

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/config"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	metrics Metrics
	err     error
	calls   int
}

func (s *stubProvider) Metrics(context.Context, string) (Metrics, error) {
	s.calls++
	return s.metrics, s.err
}

func kinds(issues []issue.Issue) []issue.Kind {
	var out []issue.Kind
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want []issue.Kind
	}{
		{name: "all good", m: Metrics{LCP: time.Second, CLS: 0.05, INP: 100 * time.Millisecond, FCP: time.Second}},
		{name: "unmeasured", m: Metrics{}},
		{
			name: "all slow",
			m:    Metrics{LCP: 4 * time.Second, CLS: 0.3, INP: 500 * time.Millisecond, FCP: 3 * time.Second},
			want: []issue.Kind{issue.SlowLCP, issue.HighCLS, issue.SlowINP, issue.SlowFCP},
		},
		{name: "boundary is good", m: Metrics{LCP: 2500 * time.Millisecond, CLS: 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Evaluate("https://x.test/", tt.m, DefaultThresholds)))
		})
	}

	got := Evaluate("https://x.test/", Metrics{LCP: 3200 * time.Millisecond}, DefaultThresholds)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"3200"}, got[0].Args)
	assert.Equal(t, issue.High, got[0].Severity)
}

func TestAuditorBudget(t *testing.T) {
	p := &stubProvider{metrics: Metrics{LCP: 5 * time.Second}}
	a := NewAuditor(p, 2, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.Len(t, a.Check(ctx, "https://x.test/1"), 1)
	assert.Len(t, a.Check(ctx, "https://x.test/2"), 1)
	assert.Empty(t, a.Check(ctx, "https://x.test/3"))
	assert.Equal(t, 2, p.calls)
}

func TestAuditorProviderError(t *testing.T) {
	a := NewAuditor(&stubProvider{err: errors.New("quota exceeded")}, 1, zaptest.NewLogger(t))
	got := a.Check(context.Background(), "https://x.test/")
	require.Len(t, got, 1)
	assert.Equal(t, issue.PerfUnavailable, got[0].Kind)
	assert.Equal(t, "quota exceeded", got[0].Evidence)
}

func TestAuditorDisabled(t *testing.T) {
	var nilAuditor *Auditor
	assert.False(t, nilAuditor.Enabled())
	assert.Nil(t, nilAuditor.Check(context.Background(), "https://x.test/"))

	a := NewAuditor(nil, 5, nil)
	assert.False(t, a.Enabled())
	assert.Nil(t, a.Check(context.Background(), "https://x.test/"))
}

func testFetcher(t *testing.T) *client.HTTPClient {
	return client.NewHTTPClient(&config.HTTPConfig{
		Timeout:      5 * time.Second,
		DialTimeout:  2 * time.Second,
		MaxBodyBytes: 1 << 20,
		MaxRedirects: 3,
	}, zaptest.NewLogger(t))
}

func TestHTTPProvider(t *testing.T) {
	var gotURL, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		gotKey = r.URL.Query().Get("key")
		switch gotURL {
		case "https://x.test/slow":
			_, _ = w.Write([]byte(`{"loadingExperience":{"metrics":{
				"LARGEST_CONTENTFUL_PAINT_MS":{"percentile":3100,"category":"AVERAGE"},
				"CUMULATIVE_LAYOUT_SHIFT_SCORE":{"percentile":25},
				"INTERACTION_TO_NEXT_PAINT":{"percentile":180},
				"FIRST_CONTENTFUL_PAINT_MS":{"percentile":1500}}}}`))
		case "https://x.test/empty":
			_, _ = w.Write([]byte(`{"loadingExperience":{}}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid url"}}`))
		}
	}))
	defer server.Close()

	p := NewHTTPProvider(server.URL+"/run?url={url}&key={key}", "secret", testFetcher(t))
	require.NotNil(t, p)
	ctx := context.Background()

	m, err := p.Metrics(ctx, "https://x.test/slow")
	require.NoError(t, err)
	assert.Equal(t, "https://x.test/slow", gotURL)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, 3100*time.Millisecond, m.LCP)
	assert.InDelta(t, 0.25, m.CLS, 1e-9)
	assert.Equal(t, 180*time.Millisecond, m.INP)
	assert.Equal(t, 1500*time.Millisecond, m.FCP)

	_, err = p.Metrics(ctx, "https://x.test/empty")
	assert.ErrorIs(t, err, ErrNoFieldData)

	_, err = p.Metrics(ctx, "https://x.test/bad")
	assert.ErrorContains(t, err, "invalid url")

	assert.Nil(t, NewHTTPProvider("", "", testFetcher(t)))
}
