package perf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Almahr1/seoaudit/internal/client"
)

// ErrNoFieldData is returned when the provider has no measurements for a URL
var ErrNoFieldData = errors.New("no field data for url")

// Fetcher is the HTTP capability the provider needs
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, opts client.FetchOptions) (*client.FetchResult, error)
}

// HTTPProvider reads PageSpeed Insights style responses. Endpoint contains a
// {url} placeholder; {key} is replaced with APIKey when present.
type HTTPProvider struct {
	Endpoint string
	APIKey   string
	Fetcher  Fetcher
}

// NewHTTPProvider returns nil when endpoint is empty
func NewHTTPProvider(endpoint, apiKey string, fetcher Fetcher) *HTTPProvider {
	if endpoint == "" || fetcher == nil {
		return nil
	}
	return &HTTPProvider{Endpoint: endpoint, APIKey: apiKey, Fetcher: fetcher}
}

type psiMetric struct {
	Percentile float64 `json:"percentile"`
}

type psiResponse struct {
	LoadingExperience struct {
		Metrics map[string]psiMetric `json:"metrics"`
	} `json:"loadingExperience"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *HTTPProvider) Metrics(ctx context.Context, pageURL string) (Metrics, error) {
	target := strings.ReplaceAll(p.Endpoint, "{url}", url.QueryEscape(pageURL))
	target = strings.ReplaceAll(target, "{key}", url.QueryEscape(p.APIKey))

	res, err := p.Fetcher.Fetch(ctx, target, client.FetchOptions{Accept: "application/json"})
	if err != nil {
		return Metrics{}, fmt.Errorf("perf metrics: %w", err)
	}

	var body psiResponse
	if err := json.Unmarshal(res.Body, &body); err != nil {
		if res.StatusCode != http.StatusOK {
			return Metrics{}, fmt.Errorf("perf metrics: status %d", res.StatusCode)
		}
		return Metrics{}, fmt.Errorf("perf metrics: decode: %w", err)
	}
	if body.Error != nil {
		return Metrics{}, fmt.Errorf("perf metrics: %s", body.Error.Message)
	}
	if res.StatusCode != http.StatusOK {
		return Metrics{}, fmt.Errorf("perf metrics: status %d", res.StatusCode)
	}

	m := body.LoadingExperience.Metrics
	if len(m) == 0 {
		return Metrics{}, ErrNoFieldData
	}
	return Metrics{
		LCP: millis(m["LARGEST_CONTENTFUL_PAINT_MS"].Percentile),
		// reported as the score multiplied by 100
		CLS: m["CUMULATIVE_LAYOUT_SHIFT_SCORE"].Percentile / 100,
		INP: millis(m["INTERACTION_TO_NEXT_PAINT"].Percentile),
		FCP: millis(m["FIRST_CONTENTFUL_PAINT_MS"].Percentile),
	}, nil
}

func millis(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}
