package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

func TestMonitorCounters(t *testing.T) {
	m := NewMonitor(common.GetLogger())

	assert.Equal(t, 1, m.PageCrawled())
	assert.Equal(t, 2, m.PageCrawled())
	m.PageFailed(models.CrawlError{URL: "https://example.com/bad", Kind: "network", Timestamp: time.Now()})
	m.PageSkipped()
	m.PageRetried()
	m.LinksDiscovered(12)
	m.LinksEnqueued(4)
	m.ObserveQueueDepth(7)
	m.ObserveQueueDepth(3)

	stats := m.Snapshot()
	assert.Equal(t, 2, stats.PagesCrawled)
	assert.Equal(t, 1, stats.PagesFailed)
	assert.Equal(t, 1, stats.PagesSkipped)
	assert.Equal(t, 1, stats.PagesRetried)
	assert.Equal(t, 12, stats.LinksDiscovered)
	assert.Equal(t, 4, stats.LinksEnqueued)
	assert.Equal(t, 7, stats.PeakQueueDepth, "peak survives later lower depths")
	assert.Greater(t, stats.Elapsed, time.Duration(0))
}

func TestMonitorErrorsAlwaysSurfaced(t *testing.T) {
	m := NewMonitor(common.GetLogger())
	m.PageFailed(models.CrawlError{URL: "https://example.com/a", Kind: "timeout"})
	m.PageFailed(models.CrawlError{URL: "https://example.com/b", Kind: "http_server_error"})

	errs := m.Errors()
	assert.Len(t, errs, 2)
	assert.Equal(t, "https://example.com/a", errs[0].URL)

	// The returned slice is a copy
	errs[0].URL = "mutated"
	assert.Equal(t, "https://example.com/a", m.Errors()[0].URL)
}

func TestMonitorPagesPerSecond(t *testing.T) {
	m := NewMonitor(common.GetLogger())
	assert.Zero(t, m.PagesPerSecond())

	for i := 0; i < 5; i++ {
		m.PageCrawled()
	}
	assert.Greater(t, m.PagesPerSecond(), 0.0)
}

func TestMonitorConcurrentAccess(t *testing.T) {
	m := NewMonitor(common.GetLogger())

	done := make(chan struct{})
	for w := 0; w < 4; w++ {
		go func() {
			for i := 0; i < 100; i++ {
				m.PageCrawled()
				m.LinksDiscovered(2)
				m.ObserveQueueDepth(i)
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < 4; w++ {
		<-done
	}

	stats := m.Snapshot()
	assert.Equal(t, 400, stats.PagesCrawled)
	assert.Equal(t, 800, stats.LinksDiscovered)
}
