package crawler

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// rateWindow is the sliding window over which pages/sec is computed
const rateWindow = 30 * time.Second

// Monitor tracks crawl progress. All methods are safe for concurrent use
// by workers; reads always see a consistent snapshot.
type Monitor struct {
	mu sync.Mutex

	started         time.Time
	crawled         int
	failed          int
	skipped         int
	retried         int
	linksDiscovered int
	linksEnqueued   int
	queueDepth      int
	peakQueue       int
	completions     []time.Time // Crawl completion times inside the rate window
	errors          []models.CrawlError

	logger arbor.ILogger
}

// NewMonitor creates a monitor; the clock starts immediately
func NewMonitor(logger arbor.ILogger) *Monitor {
	return &Monitor{
		started: time.Now(),
		logger:  logger,
	}
}

// PageCrawled records a successful page and returns the new total
func (m *Monitor) PageCrawled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.crawled++
	m.completions = append(m.completions, time.Now())
	m.pruneLocked()
	return m.crawled
}

// PageFailed records a page that exhausted its attempts
func (m *Monitor) PageFailed(err models.CrawlError) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
	m.errors = append(m.errors, err)
}

// PageSkipped records a dequeued page that was dropped without crawling
func (m *Monitor) PageSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skipped++
}

// PageRetried records one retry attempt
func (m *Monitor) PageRetried() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retried++
}

// LinksDiscovered adds to the raw discovered-link count
func (m *Monitor) LinksDiscovered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linksDiscovered += n
}

// LinksEnqueued adds to the admitted-link count
func (m *Monitor) LinksEnqueued(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.linksEnqueued += n
}

// ObserveQueueDepth records the current queue depth and its peak
func (m *Monitor) ObserveQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueDepth = depth
	if depth > m.peakQueue {
		m.peakQueue = depth
	}
}

// PagesPerSecond returns the crawl rate over the sliding window
func (m *Monitor) PagesPerSecond() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pagesPerSecondLocked()
}

// pruneLocked drops completions that fell out of the rate window
func (m *Monitor) pruneLocked() {
	cutoff := time.Now().Add(-rateWindow)
	i := 0
	for i < len(m.completions) && m.completions[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		m.completions = m.completions[i:]
	}
}

// Errors returns a copy of every recorded failure
func (m *Monitor) Errors() []models.CrawlError {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CrawlError, len(m.errors))
	copy(out, m.errors)
	return out
}

// Snapshot returns the current stats
func (m *Monitor) Snapshot() models.CrawlStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.CrawlStats{
		PagesCrawled:    m.crawled,
		PagesFailed:     m.failed,
		PagesSkipped:    m.skipped,
		PagesRetried:    m.retried,
		LinksDiscovered: m.linksDiscovered,
		LinksEnqueued:   m.linksEnqueued,
		PeakQueueDepth:  m.peakQueue,
		PagesPerSecond:  m.pagesPerSecondLocked(),
		Elapsed:         time.Since(m.started),
	}
}

func (m *Monitor) pagesPerSecondLocked() float64 {
	m.pruneLocked()
	if len(m.completions) == 0 {
		return 0
	}
	window := time.Since(m.started)
	if window > rateWindow {
		window = rateWindow
	}
	if window <= 0 {
		return 0
	}
	return float64(len(m.completions)) / window.Seconds()
}

// StartReporter logs a progress summary every interval until ctx ends
func (m *Monitor) StartReporter(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	common.SafeGo(m.logger, "crawl-progress", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := m.Snapshot()
				m.logger.Info().
					Int("crawled", stats.PagesCrawled).
					Int("failed", stats.PagesFailed).
					Int("skipped", stats.PagesSkipped).
					Int("queue", m.queueDepthNow()).
					Float64("pages_per_sec", stats.PagesPerSecond).
					Msg("Crawl progress")
			}
		}
	})
}

func (m *Monitor) queueDepthNow() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queueDepth
}
