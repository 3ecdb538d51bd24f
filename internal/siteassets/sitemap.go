package siteassets

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Almahr1/seoaudit/internal/client"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/antchfx/xmlquery"
	"go.uber.org/zap"
)

const xhtmlNamespace = "http://www.w3.org/1999/xhtml"

// maxSitemapBytes bounds the decompressed size of a gzipped sitemap
const maxSitemapBytes = 50 * 1024 * 1024

var (
	// errCompressed marks content that was gzip-compressed and could not be read
	errCompressed = errors.New("compressed sitemap could not be read")
	errBadRoot    = errors.New("root element is neither urlset nor sitemapindex")
)

// sitemapDoc is the parsed view of one sitemap resource
type sitemapDoc struct {
	index       bool
	locs        []string
	hasHreflang bool
}

type sitemapOutcome struct {
	issues      []issue.Issue
	hasHreflang bool
	pages       int
}

// checkSitemaps walks the deduplicated work-list, following sitemap indexes, up to MaxSitemaps fetches
func (c *Checker) checkSitemaps(ctx context.Context, origin *url.URL, discovered []string) sitemapOutcome {
	var out sitemapOutcome

	queue := sitemapWorklist(origin, discovered, c.opts.Sitemaps)
	seen := make(map[string]bool, len(queue))
	for _, loc := range queue {
		seen[loc] = true
	}

	for fetched := 0; len(queue) > 0 && fetched < c.opts.MaxSitemaps; fetched++ {
		if ctx.Err() != nil {
			break
		}
		loc := queue[0]
		queue = queue[1:]

		doc, found := c.fetchSitemap(ctx, loc)
		out.issues = append(out.issues, found...)
		if doc == nil {
			continue
		}
		if doc.hasHreflang {
			out.hasHreflang = true
		}
		if len(doc.locs) == 0 {
			out.issues = append(out.issues, issue.New(issue.EmptySitemap, loc))
			continue
		}
		if !doc.index {
			out.pages += len(doc.locs)
			continue
		}
		for _, child := range doc.locs {
			u, err := frontier.ParseURL(child)
			if err != nil || !frontier.SameSite(u.Host, origin.Host) || seen[u.String()] {
				continue
			}
			seen[u.String()] = true
			queue = append(queue, u.String())
		}
	}

	if len(queue) > 0 {
		c.logger.Info("sitemap limit reached", zap.Int("max", c.opts.MaxSitemaps), zap.Int("skipped", len(queue)))
	}
	return out
}

// fetchSitemap returns a nil doc when the resource produced an issue or could not be judged
func (c *Checker) fetchSitemap(ctx context.Context, loc string) (*sitemapDoc, []issue.Issue) {
	res, err := c.fetcher.Fetch(ctx, loc, client.FetchOptions{Accept: "application/xml,text/xml;q=0.9,*/*;q=0.8"})
	if err != nil {
		c.logger.Warn("sitemap fetch failed", zap.String("url", loc), zap.Error(err))
		return nil, []issue.Issue{issue.New(issue.NoSitemap, loc).WithEvidence(err.Error())}
	}
	if res.StatusCode != http.StatusOK {
		return nil, []issue.Issue{issue.New(issue.NoSitemap, loc).WithEvidence("status " + strconv.Itoa(res.StatusCode))}
	}

	compressed := strings.HasSuffix(strings.ToLower(urlPath(loc)), ".gz") ||
		strings.Contains(strings.ToLower(res.ContentType), "gzip")
	doc, err := parseSitemap(res.Body, compressed)
	switch {
	case errors.Is(err, errCompressed):
		c.logger.Debug("skipping unreadable compressed sitemap", zap.String("url", loc), zap.Error(err))
		return nil, nil
	case err != nil:
		return nil, []issue.Issue{issue.New(issue.InvalidSitemap, loc).WithEvidence(err.Error())}
	}

	c.logger.Debug("parsed sitemap",
		zap.String("url", loc),
		zap.Bool("index", doc.index),
		zap.Int("entries", len(doc.locs)))
	return doc, nil
}

// parseSitemap parses a urlset or sitemapindex document. Failures on
// gzip-compressed input are reported as errCompressed.
func parseSitemap(body []byte, compressed bool) (*sitemapDoc, error) {
	if isGzip(body) {
		compressed = true
		inflated, err := gunzip(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errCompressed, err)
		}
		body = inflated
	}

	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		if compressed {
			return nil, fmt.Errorf("%w: %v", errCompressed, err)
		}
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	root := xmlquery.FindOne(doc, "/*")
	if root == nil {
		if compressed {
			return nil, errCompressed
		}
		return nil, errBadRoot
	}

	out := &sitemapDoc{}
	switch root.Data {
	case "urlset":
	case "sitemapindex":
		out.index = true
	default:
		if compressed {
			return nil, errCompressed
		}
		return nil, fmt.Errorf("%w: <%s>", errBadRoot, root.Data)
	}

	for _, n := range xmlquery.Find(doc, "//*[local-name()='loc']") {
		if loc := strings.TrimSpace(n.InnerText()); loc != "" {
			out.locs = append(out.locs, loc)
		}
	}

	out.hasHreflang = xmlquery.FindOne(doc, "//*[@hreflang]") != nil
	if !out.hasHreflang {
		for _, attr := range root.Attr {
			if attr.Value == xhtmlNamespace {
				out.hasHreflang = true
				break
			}
		}
	}
	return out, nil
}

// sitemapWorklist merges robots discoveries and manual entries, falling back to /sitemap.xml
func sitemapWorklist(origin *url.URL, discovered, manual []string) []string {
	var list []string
	seen := make(map[string]bool)
	add := func(raw string) {
		u, err := frontier.Resolve(origin, raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return
		}
		u.Fragment = ""
		if s := u.String(); !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	for _, s := range discovered {
		add(s)
	}
	for _, s := range manual {
		add(s)
	}
	if len(list) == 0 {
		add("/sitemap.xml")
	}
	return list
}

func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

func gunzip(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(io.LimitReader(zr, maxSitemapBytes))
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
