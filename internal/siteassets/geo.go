package siteassets

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"go.uber.org/zap"
)

// Resolver turns a host name into addresses
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Locator maps an IP address to an ISO 3166-1 alpha-2 country code
type Locator interface {
	Country(ctx context.Context, ip string) (string, error)
}

type netResolver struct{}

func (netResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return net.DefaultResolver.LookupHost(ctx, host)
}

// HTTPLocator queries a JSON geolocation endpoint. Endpoint contains an {ip}
// placeholder, e.g. http://ip-api.com/json/{ip}?fields=countryCode
type HTTPLocator struct {
	Endpoint string
	Fetcher  Fetcher
}

// NewHTTPLocator returns nil when endpoint is empty
func NewHTTPLocator(endpoint string, fetcher Fetcher) *HTTPLocator {
	if endpoint == "" || fetcher == nil {
		return nil
	}
	return &HTTPLocator{Endpoint: endpoint, Fetcher: fetcher}
}

type geoResponse struct {
	CountryCode  string `json:"countryCode"`
	CountryCode2 string `json:"country_code"`
	Status       string `json:"status"`
	Message      string `json:"message"`
}

func (l *HTTPLocator) Country(ctx context.Context, ip string) (string, error) {
	target := strings.ReplaceAll(l.Endpoint, "{ip}", url.PathEscape(ip))
	res, err := l.Fetcher.Fetch(ctx, target, client.FetchOptions{Accept: "application/json"})
	if err != nil {
		return "", fmt.Errorf("geolocate %s: %w", ip, err)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocate %s: status %d", ip, res.StatusCode)
	}

	var body geoResponse
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return "", fmt.Errorf("geolocate %s: decode: %w", ip, err)
	}
	if body.Status == "fail" {
		return "", fmt.Errorf("geolocate %s: %s", ip, body.Message)
	}
	code := body.CountryCode
	if code == "" {
		code = body.CountryCode2
	}
	if code == "" {
		return "", fmt.Errorf("geolocate %s: no country in response", ip)
	}
	return strings.ToUpper(code), nil
}

// checkLocation emits one advisory when the server sits outside the target country.
// Lookup failures are logged and produce nothing.
func (c *Checker) checkLocation(ctx context.Context, origin *url.URL) []issue.Issue {
	host := origin.Hostname()
	ip := host
	if !frontier.IsIPAddress(host) {
		addrs, err := c.opts.Resolver.LookupHost(ctx, host)
		if err != nil || len(addrs) == 0 {
			c.logger.Debug("host lookup failed", zap.String("host", host), zap.Error(err))
			return nil
		}
		ip = addrs[0]
	}

	country, err := c.opts.Locator.Country(ctx, ip)
	if err != nil {
		c.logger.Warn("geolocation unavailable", zap.String("ip", ip), zap.Error(err))
		return nil
	}

	target := strings.ToUpper(c.opts.TargetCountry)
	if strings.EqualFold(country, target) {
		return nil
	}
	return []issue.Issue{issue.New(issue.ServerLocation, origin.String(), country, target).WithEvidence(ip)}
}
