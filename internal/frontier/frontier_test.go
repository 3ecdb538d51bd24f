package frontier

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontierFIFO(t *testing.T) {
	f := New(nil)
	require.True(t, f.Push("https://x.test/", 0))
	require.True(t, f.Push("https://x.test/a", 1))
	require.True(t, f.Push("https://x.test/b", 1))

	var order []string
	for {
		task, ok := f.Pop()
		if !ok {
			break
		}
		order = append(order, task.URL)
	}
	assert.Equal(t, []string{"https://x.test/", "https://x.test/a", "https://x.test/b"}, order)
	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 3, f.VisitedCount())
}

func TestFrontierRejectsKnownURLs(t *testing.T) {
	f := New(nil)
	assert.True(t, f.Push("https://x.test/a", 0))
	assert.False(t, f.Push("https://X.TEST/a#frag", 0), "queued duplicate")

	_, ok := f.Pop()
	require.True(t, ok)
	assert.False(t, f.Push("https://x.test/a", 1), "visited duplicate")
	assert.False(t, f.Push("not a url", 0))
}

func TestFrontierMembershipIsExclusive(t *testing.T) {
	f := New(nil)
	f.Push("https://x.test/a", 0)
	assert.True(t, f.IsQueued("https://x.test/a"))
	assert.False(t, f.IsVisited("https://x.test/a"))

	// redirect target discovered before it is popped
	assert.True(t, f.MarkVisited("https://x.test/a"))
	assert.False(t, f.IsQueued("https://x.test/a"))
	assert.True(t, f.IsVisited("https://x.test/a"))
	assert.False(t, f.MarkVisited("https://x.test/a"))

	_, ok := f.Pop()
	assert.False(t, ok, "visited entries are skipped")
}

func TestFrontierIgnoreQuery(t *testing.T) {
	f := New(NewURLNormalizer(true))
	assert.True(t, f.Push("https://x.test/list?page=1", 0))
	assert.False(t, f.Push("https://x.test/list?page=2", 0))

	task, ok := f.Pop()
	require.True(t, ok)
	assert.Equal(t, "https://x.test/list?page=1", task.URL)
	assert.Equal(t, "https://x.test/list", task.Key)
}

func TestFrontierCompaction(t *testing.T) {
	f := New(nil)
	for i := 0; i < 500; i++ {
		f.Push(fmt.Sprintf("https://x.test/p%d", i), 1)
	}
	for i := 0; i < 500; i++ {
		task, ok := f.Pop()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("https://x.test/p%d", i), task.URL)
	}
	_, ok := f.Pop()
	assert.False(t, ok)
}

func TestFrontierConcurrentPush(t *testing.T) {
	f := New(nil)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Push(fmt.Sprintf("https://x.test/p%d", i), 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, f.Len())
}
