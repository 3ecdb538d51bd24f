// Package dedup detects pages whose visible text duplicates an earlier page.
package dedup

import (
	"net/url"
	"sync"

	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"go.uber.org/zap"
)

// Detector records the first URL seen for each content hash.
// Check-and-insert is atomic, so one Detector may serve concurrent callers.
type Detector struct {
	mu         sync.Mutex
	index      map[string]string
	normalizer *frontier.URLNormalizer
	logger     *zap.Logger
}

// NewDetector creates a detector comparing URLs by the normalizer's Key
func NewDetector(normalizer *frontier.URLNormalizer, logger *zap.Logger) *Detector {
	if normalizer == nil {
		normalizer = frontier.NewURLNormalizer(false)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		index:      make(map[string]string),
		normalizer: normalizer,
		logger:     logger,
	}
}

// Check hashes text and returns a duplicate issue for pageURL when another URL
// already holds the same content. Empty text is never indexed.
func (d *Detector) Check(pageURL, canonical, text string) *issue.Issue {
	return d.check(extractor.ContentHash(text), pageURL, canonical)
}

// CheckFacts is Check using the hash already computed during extraction
func (d *Detector) CheckFacts(f *extractor.PageFacts) *issue.Issue {
	return d.check(f.ContentHash, f.URL, f.Canonical)
}

func (d *Detector) check(hash, pageURL, canonical string) *issue.Issue {
	if hash == "" {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	original, seen := d.index[hash]
	if !seen {
		d.index[hash] = pageURL
		return nil
	}
	if d.normalizer.SameURL(original, pageURL) {
		return nil
	}

	if shouldPromote(original, pageURL) {
		d.logger.Debug("promoting cleaner duplicate to original",
			zap.String("previous", original),
			zap.String("url", pageURL))
		d.index[hash] = pageURL
	}

	// a canonical pointing away from the page already declares its preferred version
	if canonical != "" && !d.normalizer.SameURL(canonical, pageURL) {
		return nil
	}

	found := issue.New(issue.Duplicate, pageURL, original).WithEvidence(original)
	return &found
}

// Len reports how many distinct hashes are recorded
func (d *Detector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.index)
}

// shouldPromote prefers a shorter query-free URL over a recorded URL carrying a query
func shouldPromote(recorded, candidate string) bool {
	return hasQuery(recorded) && !hasQuery(candidate) && len(candidate) < len(recorded)
}

func hasQuery(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.RawQuery != ""
}
