package crawler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// progressInterval is how often the monitor logs a rolling summary
const progressInterval = 10 * time.Second

// Deps are the external capabilities a crawl needs. Fallback and Storage
// are optional.
type Deps struct {
	Renderer  interfaces.Renderer
	Fallback  interfaces.Renderer // Static fetch used when rendering fails
	Extractor interfaces.Extractor
	Robots    interfaces.RobotsPolicy
	Storage   interfaces.CrawlStorage
}

// Service coordinates one crawl run: it owns the frontier, the worker
// pool, the shared rate limiter and the stop conditions
type Service struct {
	config    *common.Config
	scope     *ScopeFilter
	frontier  *Frontier
	monitor   *Monitor
	retry     *RetryPolicy
	throttle  *Throttle
	policy    *InteractionPolicy
	renderer  interfaces.Renderer
	fallback  interfaces.Renderer
	extractor interfaces.Extractor
	robots    interfaces.RobotsPolicy
	storage   interfaces.CrawlStorage
	logger    arbor.ILogger

	mu           sync.Mutex
	pages        []*models.PageResult
	stopReason   string
	crawled      int  // Pages that consumed a slot under MaxPages
	limitHit     bool // crawled reached MaxPages
	limitStopped bool // Frontier already stopped for the limit
	runID        string

	// authMu serializes re-authentication; authGen detects a refresh
	// completed by another worker while this one waited
	authMu  sync.Mutex
	authGen atomic.Int64
}

// NewService builds a crawl service for the configured start URL
func NewService(config *common.Config, deps Deps, logger arbor.ILogger) (*Service, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	if deps.Extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}

	scope, err := NewScopeFilter(config.Crawler.StartURL, &config.Crawler, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:    config,
		scope:     scope,
		frontier:  NewFrontier(config.Crawler.QueueSize, logger),
		monitor:   NewMonitor(logger),
		retry:     NewRetryPolicy(config.Crawler.MaxRetries, config.Crawler.RetryBackoffBase, config.Crawler.RetryBackoffMax),
		throttle:  NewThrottle(config.Crawler.RequestInterval),
		policy:    NewInteractionPolicy(&config.Interaction, logger),
		renderer:  deps.Renderer,
		fallback:  deps.Fallback,
		extractor: deps.Extractor,
		robots:    deps.Robots,
		storage:   deps.Storage,
		logger:    logger,
	}, nil
}

// Run executes the crawl until the frontier drains, the page limit hits,
// or ctx is cancelled. In-flight pages always complete and every dequeued
// item is accounted as crawled, failed or skipped.
func (s *Service) Run(ctx context.Context) (*models.CrawlResult, error) {
	started := time.Now()
	s.mu.Lock()
	s.runID = common.NewRunID()
	runID := s.runID
	s.mu.Unlock()

	start, err := Canonicalize(s.config.Crawler.StartURL, s.config.Crawler.StripQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("url", start).
		Str("scope_path", s.scope.ScopePath()).
		Int("workers", s.config.Crawler.Workers).
		Int("max_pages", s.config.Crawler.MaxPages).
		Msg("Starting crawl")

	if s.robots != nil {
		if delay := s.robots.CrawlDelay(ctx, start); delay > s.throttle.Interval() {
			s.logger.Info().Dur("crawl_delay", delay).Msg("Honoring robots.txt crawl-delay")
			s.throttle.Lengthen(delay)
		}
	}

	s.frontier.Seed(&Item{URL: start, Depth: 0})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	common.SafeGo(s.logger, "crawl-stop-watcher", func() {
		<-runCtx.Done()
		if ctx.Err() != nil {
			s.setStopReason(models.StopReasonUserStop)
		}
		s.frontier.Stop()
	})

	s.monitor.StartReporter(runCtx, progressInterval)

	var g errgroup.Group
	for i := 1; i <= s.config.Crawler.Workers; i++ {
		workerID := i
		g.Go(func() error {
			return s.worker(runCtx, workerID)
		})
	}
	workerErr := g.Wait()
	cancel()

	result := &models.CrawlResult{
		RunID:      runID,
		StartURL:   start,
		ScopeHost:  s.scope.Host(),
		ScopePath:  s.scope.ScopePath(),
		StopReason: s.finalStopReason(),
		Stats:      s.finalStats(),
		Pages:      s.Pages(),
		Errors:     s.monitor.Errors(),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	if s.storage != nil {
		if err := s.storage.SaveResult(result); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist crawl result")
		}
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("stop_reason", result.StopReason).
		Int("crawled", result.Stats.PagesCrawled).
		Int("failed", result.Stats.PagesFailed).
		Int("skipped", result.Stats.PagesSkipped).
		Dur("elapsed", result.Stats.Elapsed).
		Msg("Crawl finished")

	if workerErr != nil {
		return result, workerErr
	}
	return result, nil
}

// Pages returns crawled pages in production order
func (s *Service) Pages() []*models.PageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.PageResult, len(s.pages))
	copy(out, s.pages)
	return out
}

// RunID returns the current run identifier
func (s *Service) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

func (s *Service) appendPage(page *models.PageResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, page)
}

func (s *Service) setStopReason(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopReason == "" {
		s.stopReason = reason
	}
}

func (s *Service) finalStopReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopReason == "" {
		return models.StopReasonQueueExhausted
	}
	return s.stopReason
}

func (s *Service) finalStats() models.CrawlStats {
	stats := s.monitor.Snapshot()
	if peak := s.frontier.Peak(); peak > stats.PeakQueueDepth {
		stats.PeakQueueDepth = peak
	}
	return stats
}

// admitPage reserves one slot under the page limit. The re-check runs
// under the lock so in-flight pages cannot overshoot max_pages after
// another worker consumes the last slot.
func (s *Service) admitPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limitHit {
		return false
	}
	s.crawled++
	if s.crawled >= s.config.Crawler.MaxPages {
		s.limitHit = true
	}
	return true
}

// checkPageLimit halts intake once the configured page count is reached.
// The MAX_PAGES stop reason is only reported when the limit actually cut
// the crawl short; a frontier that was about to drain anyway reports
// queue exhaustion.
func (s *Service) checkPageLimit() {
	s.mu.Lock()
	if !s.limitHit || s.limitStopped {
		s.mu.Unlock()
		return
	}
	s.limitStopped = true
	s.mu.Unlock()

	if s.frontier.HasQueued() {
		s.setStopReason(models.StopReasonMaxPages(s.config.Crawler.MaxPages))
	}
	s.frontier.Stop()
}

func (s *Service) limitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limitHit
}

// reauthenticate refreshes the shared session. At most one worker runs the
// refresh; late arrivals observe the bumped generation and return. A failed
// refresh is fatal to the run.
func (s *Service) reauthenticate(ctx context.Context) error {
	gen := s.authGen.Load()

	s.authMu.Lock()
	defer s.authMu.Unlock()

	if s.authGen.Load() != gen {
		return nil
	}

	s.logger.Info().Msg("Session expired, re-authenticating")
	if err := s.renderer.Authenticate(ctx); err != nil {
		return fmt.Errorf("re-authentication failed: %w", err)
	}
	s.authGen.Add(1)
	s.logger.Info().Msg("Session re-established")
	return nil
}
