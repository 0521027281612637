package crawler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between page dispatches across all
// workers of a run. One token is replenished per interval; every worker
// waits on the same limiter before fetching.
type Throttle struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
}

// NewThrottle creates a throttle with the given minimum interval between
// dispatches. A non-positive interval disables throttling.
func NewThrottle(interval time.Duration) *Throttle {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Throttle{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Wait blocks until the next dispatch slot or context cancellation
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Lengthen raises the interval to d if d is longer than the current
// interval. Used to honor a robots.txt crawl-delay that exceeds the
// configured rate; it never shortens the interval.
func (t *Throttle) Lengthen(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d <= t.interval {
		return
	}
	t.interval = d
	t.limiter.SetLimit(rate.Every(d))
}

// Interval returns the effective interval
func (t *Throttle) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interval
}
