package frontier

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalForm is the pair of representations derived from one URL.
// Fetch is what goes on the wire; Key is what the visited/queued sets compare.
type CanonicalForm struct {
	Fetch string
	Key   string
	Host  string
}

type URLNormalizer struct {
	// IgnoreQuery drops the whole query from Key. Fetch always keeps it.
	IgnoreQuery bool
	// ParamBlacklist entries are dropped from Key only
	ParamBlacklist []string
}

func NewURLNormalizer(ignoreQuery bool) *URLNormalizer {
	return &URLNormalizer{
		IgnoreQuery:    ignoreQuery,
		ParamBlacklist: []string{"utm_source", "utm_medium", "utm_campaign", "utm_content", "utm_term", "fbclid", "gclid"},
	}
}

func (n *URLNormalizer) Normalize(rawURL string) (CanonicalForm, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return CanonicalForm{}, err
	}
	return n.NormalizeParsed(u), nil
}

// NormalizeParsed normalizes an already parsed absolute URL without modifying it
func (n *URLNormalizer) NormalizeParsed(parsedURL *url.URL) CanonicalForm {
	u := *parsedURL
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = RemoveDefaultPort(strings.ToLower(u.Host), u.Scheme)
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}
	fetch := u.String()
	host := u.Hostname()

	u.Host = strings.TrimPrefix(u.Host, "www.")
	if n.IgnoreQuery {
		u.RawQuery = ""
	} else {
		u.RawQuery = n.keyQuery(u.RawQuery)
	}
	u.ForceQuery = false

	return CanonicalForm{
		Fetch: fetch,
		Key:   u.String(),
		Host:  host,
	}
}

// keyQuery removes tracking parameters and orders the rest
func (n *URLNormalizer) keyQuery(query string) string {
	if query == "" {
		return ""
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		return query
	}
	for _, blocked := range n.ParamBlacklist {
		values.Del(blocked)
	}
	return SortQueryParams(values.Encode())
}

// ParseURL parses an absolute http(s) URL
func ParseURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("empty URL")
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	if u.Scheme == "" {
		return nil, fmt.Errorf("URL missing scheme")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("URL missing host")
	}

	return u, nil
}

// Resolve resolves href against base, returning the absolute form
func Resolve(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(ref), nil
}

// HostKey lowercases a host and drops a leading www. for comparisons
func HostKey(host string) string {
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}

// SameURL reports whether two URLs point to the same resource once normalized
func (n *URLNormalizer) SameURL(a, b string) bool {
	ca, err := n.Normalize(a)
	if err != nil {
		return false
	}
	cb, err := n.Normalize(b)
	if err != nil {
		return false
	}
	return ca.Key == cb.Key
}

// RegistrableDomain falls back to the bare host for IPs and single-label hosts
func RegistrableDomain(host string) string {
	host = HostKey(host)
	if IsIPAddress(host) {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// SameSite reports whether two hosts share a registrable domain
func SameSite(hostA, hostB string) bool {
	return RegistrableDomain(hostA) == RegistrableDomain(hostB)
}

func IsIPAddress(host string) bool {
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}

func RemoveDefaultPort(host, scheme string) string {
	if (scheme == "http" && strings.HasSuffix(host, ":80")) ||
		(scheme == "https" && strings.HasSuffix(host, ":443")) {
		return host[:strings.LastIndex(host, ":")]
	}
	return host
}

func SortQueryParams(query string) string {
	if query == "" {
		return query
	}
	parts := strings.Split(query, "&")
	sort.Strings(parts)
	return strings.Join(parts, "&")
}

func ExtractFileExtension(urlPath string) string {
	base := path.Base(urlPath)
	if base == "/" || base == "." {
		return ""
	}
	idx := strings.LastIndex(base, ".")
	if idx <= 0 {
		return ""
	}
	return strings.ToLower(base[idx:])
}
