package crawler

import (
	"sync"

	"github.com/ternarybob/arbor"
)

// Item is one admitted URL awaiting crawl
type Item struct {
	URL         string // Canonical form
	Depth       int
	Parent      string
	SectionPath []string
}

// Frontier is the single admission point for URLs. It owns the visited
// set: a URL is admitted at most once per run, and dequeued at most once.
// Dequeue order is FIFO, which yields strict level order under BFS
// discovery. Enqueue blocks when the queue is at capacity (backpressure);
// Dequeue blocks until work arrives and returns nil once the queue is
// empty with nothing in flight.
type Frontier struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	queue    []*Item
	admitted map[string]struct{}
	maxSize  int
	pending  int // Admitted but not yet completed via Done
	stopped  bool
	peak     int

	logger arbor.ILogger
}

// NewFrontier creates a frontier bounded at maxSize queued items
func NewFrontier(maxSize int, logger arbor.ILogger) *Frontier {
	f := &Frontier{
		queue:    make([]*Item, 0, 64),
		admitted: make(map[string]struct{}),
		maxSize:  maxSize,
		logger:   logger,
	}
	f.notEmpty = sync.NewCond(&f.mu)
	f.notFull = sync.NewCond(&f.mu)
	return f
}

// Seed admits the start URL. It must be called before workers start.
func (f *Frontier) Seed(item *Item) bool {
	return f.Enqueue(item)
}

// Enqueue admits item if its URL has not been seen this run. It returns
// false for duplicates and after Stop. When the queue is full it blocks
// until space frees or the frontier stops.
func (f *Frontier) Enqueue(item *Item) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return false
	}
	if _, seen := f.admitted[item.URL]; seen {
		return false
	}

	// Mark before waiting so a concurrent duplicate is rejected while
	// this enqueue is blocked on capacity
	f.admitted[item.URL] = struct{}{}
	f.pending++

	for len(f.queue) >= f.maxSize && !f.stopped {
		f.notFull.Wait()
	}
	if f.stopped {
		f.pending--
		f.notEmpty.Broadcast()
		return false
	}

	f.queue = append(f.queue, item)
	if len(f.queue) > f.peak {
		f.peak = len(f.queue)
	}
	f.notEmpty.Broadcast()
	return true
}

// Dequeue returns the next item in admission order. It blocks while the
// queue is empty but work is still in flight, and returns nil when the
// crawl is complete or stopped.
func (f *Frontier) Dequeue() *Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	for len(f.queue) == 0 && f.pending > 0 && !f.stopped {
		f.notEmpty.Wait()
	}
	if f.stopped || len(f.queue) == 0 {
		return nil
	}

	item := f.queue[0]
	f.queue = f.queue[1:]
	f.notFull.Broadcast()
	return item
}

// Done marks one dequeued item as fully processed, including any child
// enqueues it performed. When the last pending item completes with an
// empty queue, blocked Dequeue calls return nil.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending--
	if f.pending <= 0 && len(f.queue) == 0 {
		f.notEmpty.Broadcast()
	}
}

// Stop halts the frontier: pending enqueues abort, queued items are
// discarded, and all blocked calls return
func (f *Frontier) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stopped {
		return
	}
	f.stopped = true
	f.queue = nil
	f.notEmpty.Broadcast()
	f.notFull.Broadcast()
}

// Len returns the current queue depth
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Peak returns the maximum queue depth observed
func (f *Frontier) Peak() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

// HasQueued reports whether undispatched work remains
func (f *Frontier) HasQueued() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) > 0
}

// Admitted returns the number of distinct URLs admitted this run
func (f *Frontier) Admitted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.admitted)
}
