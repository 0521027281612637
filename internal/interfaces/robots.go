package interfaces

import (
	"context"
	"time"
)

// RobotsPolicy answers whether a URL may be fetched. Implementations
// fetch and cache robots.txt per host; an unreachable or missing
// robots.txt allows everything.
type RobotsPolicy interface {
	Allowed(ctx context.Context, url string) bool

	// CrawlDelay returns the host's requested delay, zero if none
	CrawlDelay(ctx context.Context, url string) time.Duration
}
