package dedup

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Almahr1/seoaudit/internal/extractor"
	"github.com/Almahr1/seoaudit/internal/frontier"
	"github.com/Almahr1/seoaudit/internal/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const body = "The same words appear on both pages"

func TestCheckFirstSeenRecords(t *testing.T) {
	d := NewDetector(nil, zaptest.NewLogger(t))

	assert.Nil(t, d.Check("https://x.test/a", "", body))
	assert.Equal(t, 1, d.Len())
}

func TestCheckDuplicateAttributedToLaterURL(t *testing.T) {
	d := NewDetector(nil, zaptest.NewLogger(t))

	require.Nil(t, d.Check("https://x.test/a", "", body))
	dup := d.Check("https://x.test/b", "", "  The same words\nappear on both pages ")
	require.NotNil(t, dup)

	assert.Equal(t, issue.Duplicate, dup.Kind)
	assert.Equal(t, issue.High, dup.Severity)
	assert.Equal(t, "https://x.test/b", dup.URL)
	assert.Equal(t, []string{"https://x.test/a"}, dup.Args)
}

func TestCheckSuppressedByCanonical(t *testing.T) {
	d := NewDetector(nil, zaptest.NewLogger(t))

	require.Nil(t, d.Check("https://x.test/a", "", body))
	assert.Nil(t, d.Check("https://x.test/a?ref=mail", "https://x.test/a", body))

	// a self-referencing canonical does not suppress
	assert.NotNil(t, d.Check("https://x.test/c", "https://x.test/c", body))
}

func TestCheckSameURLAndEmptyText(t *testing.T) {
	d := NewDetector(nil, zaptest.NewLogger(t))

	require.Nil(t, d.Check("https://x.test/a", "", body))
	assert.Nil(t, d.Check("https://www.x.test/a#top", "", body))

	assert.Nil(t, d.Check("https://x.test/e1", "", "   "))
	assert.Nil(t, d.Check("https://x.test/e2", "", ""))
	assert.Equal(t, 1, d.Len())
}

func TestCheckIgnoreQueryNormalizer(t *testing.T) {
	d := NewDetector(frontier.NewURLNormalizer(true), zaptest.NewLogger(t))
	require.Nil(t, d.Check("https://x.test/list?page=1", "", body))
	assert.Nil(t, d.Check("https://x.test/list?page=2", "", body))
}

func TestTieBreakPromotion(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		second   string
		promoted bool
	}{
		{"clean shorter url wins", "https://x.test/item?id=1&ref=2", "https://x.test/item", true},
		{"recorded url without query keeps place", "https://x.test/item", "https://x.test/i", false},
		{"candidate with query never wins", "https://x.test/item?id=1", "https://x.test/i?a=1", false},
		{"longer clean url does not win", "https://x.test/a?b=1", "https://x.test/much-longer-path", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(nil, zaptest.NewLogger(t))
			require.Nil(t, d.Check(tt.first, "", body))

			dup := d.Check(tt.second, "", body)
			require.NotNil(t, dup)
			assert.Equal(t, []string{tt.first}, dup.Args)

			// later duplicates name whichever URL is now recorded
			want := tt.first
			if tt.promoted {
				want = tt.second
			}
			third := d.Check("https://x.test/third-copy-of-the-page", "", body)
			require.NotNil(t, third)
			assert.Equal(t, []string{want}, third.Args)
		})
	}
}

func TestCheckFacts(t *testing.T) {
	d := NewDetector(nil, nil)
	a := &extractor.PageFacts{URL: "https://x.test/a", ContentHash: extractor.ContentHash(body)}
	b := &extractor.PageFacts{URL: "https://x.test/b", ContentHash: a.ContentHash}

	assert.Nil(t, d.CheckFacts(a))
	assert.NotNil(t, d.CheckFacts(b))
}

func TestCheckConcurrentSingleOriginal(t *testing.T) {
	d := NewDetector(nil, nil)
	var dups int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if d.Check(fmt.Sprintf("https://x.test/p%d", i), "", body) != nil {
				atomic.AddInt32(&dups, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(49), dups)
	assert.Equal(t, 1, d.Len())
}
