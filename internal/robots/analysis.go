package robots

import (
	"bufio"
	"bytes"
	"net/http"
	"strings"

	"github.com/temoto/robotstxt"
)

// Analysis is the audit view of one robots.txt file
type Analysis struct {
	URL        string
	StatusCode int
	FetchErr   error

	// Size is the trimmed body length
	Size int
	// HasUserAgent is true when at least one User-agent line exists
	HasUserAgent bool
	// BlocksAll is a bare "Disallow: /" with no Allow line anywhere
	BlocksAll bool
	// BlockedResources lists Disallow values that target stylesheets or scripts
	BlockedResources []string
	Sitemaps         []string

	Data *robotstxt.RobotsData
}

// Reachable reports whether the file was served with status 200
func (a *Analysis) Reachable() bool {
	return a.FetchErr == nil && a.StatusCode == http.StatusOK
}

// Analyze inspects a robots.txt response line by line and through robotstxt
func Analyze(robotsURL string, status int, body []byte) *Analysis {
	if len(body) > MaxSize {
		body = body[:MaxSize]
	}
	a := &Analysis{
		URL:        robotsURL,
		StatusCode: status,
		Size:       len(bytes.TrimSpace(body)),
		Data:       ParseRobotsContent(status, body),
	}
	if status != http.StatusOK {
		return a
	}

	var disallowRoot, hasAllow bool
	seenSitemap := make(map[string]bool)

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxSize)
	for scanner.Scan() {
		field, value, ok := directive(scanner.Text())
		if !ok {
			continue
		}
		switch field {
		case "user-agent":
			a.HasUserAgent = true
		case "allow":
			hasAllow = true
		case "disallow":
			if value == "/" {
				disallowRoot = true
			}
			if targetsResource(value) {
				a.BlockedResources = append(a.BlockedResources, value)
			}
		case "sitemap":
			if value != "" && !seenSitemap[value] {
				seenSitemap[value] = true
				a.Sitemaps = append(a.Sitemaps, value)
			}
		}
	}

	a.BlocksAll = disallowRoot && !hasAllow
	return a
}

// directive splits "Field: value # comment" into a lowercase field and trimmed value
func directive(line string) (string, string, bool) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(field)), strings.TrimSpace(value), true
}

func targetsResource(value string) bool {
	v := strings.ToLower(strings.TrimSuffix(value, "$"))
	return strings.HasSuffix(v, ".css") || strings.HasSuffix(v, ".js") ||
		strings.Contains(v, ".css?") || strings.Contains(v, ".js?") ||
		strings.Contains(v, "*.css") || strings.Contains(v, "*.js")
}
