package crawler

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
)

func TestFrontierDedup(t *testing.T) {
	f := NewFrontier(100, common.GetLogger())

	assert.True(t, f.Enqueue(&Item{URL: "https://example.com/a", Depth: 0}))
	assert.False(t, f.Enqueue(&Item{URL: "https://example.com/a", Depth: 1}),
		"second admission of the same URL must be rejected")
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 1, f.Admitted())
}

func TestFrontierFIFOOrder(t *testing.T) {
	f := NewFrontier(100, common.GetLogger())

	urls := []string{
		"https://example.com/depth0",
		"https://example.com/depth1-a",
		"https://example.com/depth1-b",
		"https://example.com/depth2-a",
	}
	for i, u := range urls {
		require.True(t, f.Enqueue(&Item{URL: u, Depth: i}))
	}

	for _, want := range urls {
		item := f.Dequeue()
		require.NotNil(t, item)
		assert.Equal(t, want, item.URL)
		f.Done()
	}
}

func TestFrontierEndOfStream(t *testing.T) {
	f := NewFrontier(100, common.GetLogger())
	require.True(t, f.Seed(&Item{URL: "https://example.com/", Depth: 0}))

	item := f.Dequeue()
	require.NotNil(t, item)

	// A blocked Dequeue must return nil once the last in-flight item
	// completes without enqueuing children
	done := make(chan *Item, 1)
	go func() {
		done <- f.Dequeue()
	}()

	time.Sleep(20 * time.Millisecond)
	f.Done()

	select {
	case got := <-done:
		assert.Nil(t, got)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after last pending item completed")
	}
}

func TestFrontierChildrenKeepStreamOpen(t *testing.T) {
	f := NewFrontier(100, common.GetLogger())
	require.True(t, f.Seed(&Item{URL: "https://example.com/", Depth: 0}))

	parent := f.Dequeue()
	require.NotNil(t, parent)
	require.True(t, f.Enqueue(&Item{URL: "https://example.com/child", Depth: 1, Parent: parent.URL}))
	f.Done()

	child := f.Dequeue()
	require.NotNil(t, child)
	assert.Equal(t, "https://example.com/child", child.URL)
	f.Done()

	assert.Nil(t, f.Dequeue())
}

func TestFrontierStop(t *testing.T) {
	f := NewFrontier(100, common.GetLogger())
	f.Enqueue(&Item{URL: "https://example.com/a"})
	f.Enqueue(&Item{URL: "https://example.com/b"})

	f.Stop()

	assert.Nil(t, f.Dequeue(), "Dequeue must return nil after Stop")
	assert.False(t, f.Enqueue(&Item{URL: "https://example.com/c"}), "Enqueue must reject after Stop")
}

func TestFrontierBackpressure(t *testing.T) {
	f := NewFrontier(1, common.GetLogger())
	require.True(t, f.Enqueue(&Item{URL: "https://example.com/a"}))

	unblocked := make(chan bool, 1)
	go func() {
		unblocked <- f.Enqueue(&Item{URL: "https://example.com/b"})
	}()

	select {
	case <-unblocked:
		t.Fatal("Enqueue should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	item := f.Dequeue()
	require.NotNil(t, item)

	select {
	case ok := <-unblocked:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Enqueue did not unblock after space freed")
	}
}

func TestFrontierConcurrentDrain(t *testing.T) {
	f := NewFrontier(1000, common.GetLogger())
	const total = 200
	for i := 0; i < total; i++ {
		require.True(t, f.Enqueue(&Item{URL: "https://example.com/page-" + strconv.Itoa(i)}))
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				item := f.Dequeue()
				if item == nil {
					return
				}
				mu.Lock()
				seen[item.URL]++
				mu.Unlock()
				f.Done()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
	for url, count := range seen {
		assert.Equal(t, 1, count, "URL %s dequeued more than once", url)
	}
	assert.Equal(t, total, f.Peak())
}
