package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy defines retry behavior with exponential backoff: a fixed
// base delay that doubles per attempt up to a cap
type RetryPolicy struct {
	MaxRetries  int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// NewRetryPolicy creates a retry policy from crawl settings
func NewRetryPolicy(maxRetries int, base, max time.Duration) *RetryPolicy {
	if base <= 0 {
		base = time.Second
	}
	if max <= 0 {
		max = 30 * time.Second
	}
	return &RetryPolicy{
		MaxRetries:  maxRetries,
		BackoffBase: base,
		BackoffMax:  max,
	}
}

// ShouldRetry reports whether another attempt is allowed after attempt
// failures (attempt is zero-based)
func (p *RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if attempt >= p.MaxRetries {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}

// Backoff returns the delay before retrying after the given zero-based
// attempt: base, 2*base, 4*base, ... capped at BackoffMax
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := p.BackoffBase
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if backoff >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if backoff > p.BackoffMax {
		return p.BackoffMax
	}
	return backoff
}

// Execute runs fn with the retry loop. onRetry is invoked before each
// backoff sleep (it feeds the retry counter); a nil onRetry is allowed.
func (p *RetryPolicy) Execute(ctx context.Context, logger arbor.ILogger, url string, onRetry func(), fn func() error) (int, error) {
	var lastErr error

	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return attempt, nil
		}

		if !p.ShouldRetry(attempt, lastErr) {
			if attempt > 0 {
				logger.Warn().
					Str("url", url).
					Int("attempts", attempt+1).
					Err(lastErr).
					Msg("Retry attempts exhausted")
			}
			return attempt, lastErr
		}

		backoff := p.Backoff(attempt)
		logger.Debug().
			Str("url", url).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Retrying after backoff")
		if onRetry != nil {
			onRetry()
		}

		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
