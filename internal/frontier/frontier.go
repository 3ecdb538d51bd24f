// Package frontier holds URL normalization, crawl scope rules and the BFS queue.
package frontier

import "sync"

// Task is one URL waiting to be fetched
type Task struct {
	URL   string
	Key   string
	Depth int
}

// Frontier is a FIFO queue with O(1) queued/visited membership.
// A key lives in at most one of the two sets.
type Frontier struct {
	normalizer *URLNormalizer

	mu      sync.Mutex
	queue   []Task
	head    int
	queued  map[string]struct{}
	visited map[string]struct{}
}

func New(normalizer *URLNormalizer) *Frontier {
	if normalizer == nil {
		normalizer = NewURLNormalizer(false)
	}
	return &Frontier{
		normalizer: normalizer,
		queued:     make(map[string]struct{}),
		visited:    make(map[string]struct{}),
	}
}

// Push enqueues rawURL unless it is malformed, queued or visited
func (f *Frontier) Push(rawURL string, depth int) bool {
	c, err := f.normalizer.Normalize(rawURL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[c.Key]; ok {
		return false
	}
	if _, ok := f.queued[c.Key]; ok {
		return false
	}
	f.queued[c.Key] = struct{}{}
	f.queue = append(f.queue, Task{URL: c.Fetch, Key: c.Key, Depth: depth})
	return true
}

// Pop removes the oldest unvisited task and marks it visited
func (f *Frontier) Pop() (Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.head < len(f.queue) {
		t := f.queue[f.head]
		f.queue[f.head] = Task{}
		f.head++
		if _, seen := f.visited[t.Key]; seen {
			continue
		}
		delete(f.queued, t.Key)
		f.visited[t.Key] = struct{}{}
		f.compact()
		return t, true
	}
	f.compact()
	return Task{}, false
}

// compact drops the consumed prefix once it dominates the backing array
func (f *Frontier) compact() {
	if f.head > 64 && f.head*2 > len(f.queue) {
		f.queue = append([]Task(nil), f.queue[f.head:]...)
		f.head = 0
	}
}

// MarkVisited records a URL reached without being popped, such as a redirect target.
// It reports whether the URL was newly marked.
func (f *Frontier) MarkVisited(rawURL string) bool {
	c, err := f.normalizer.Normalize(rawURL)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[c.Key]; ok {
		return false
	}
	delete(f.queued, c.Key)
	f.visited[c.Key] = struct{}{}
	return true
}

func (f *Frontier) IsVisited(rawURL string) bool {
	c, err := f.normalizer.Normalize(rawURL)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[c.Key]
	return ok
}

func (f *Frontier) IsQueued(rawURL string) bool {
	c, err := f.normalizer.Normalize(rawURL)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.queued[c.Key]
	return ok
}

// Len is the number of queued, not yet visited, URLs
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queued)
}

func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}
