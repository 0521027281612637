package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// fatalError aborts the whole run when a worker returns it
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// worker dequeues items until the frontier reports end of stream. Each
// dequeued item is completed even when the run is stopping; only a failed
// re-authentication ends the worker early.
func (s *Service) worker(ctx context.Context, id int) error {
	for {
		item := s.frontier.Dequeue()
		if item == nil {
			s.logger.Debug().Int("worker", id).Msg("Worker exiting, frontier drained")
			return nil
		}
		s.monitor.ObserveQueueDepth(s.frontier.Len())

		if s.limitReached() {
			// Drained after the page limit hit; account and drop
			s.monitor.PageSkipped()
			s.frontier.Done()
			continue
		}

		err := s.processItem(ctx, id, item)
		s.frontier.Done()

		var fatal *fatalError
		if errors.As(err, &fatal) {
			s.frontier.Stop()
			return fatal.err
		}

		s.checkPageLimit()
	}
}

// processItem crawls one dequeued URL end to end: robots check, throttled
// fetch with retries, interaction pass, extraction, emission and link
// re-admission. Per-page failures are recorded, never returned; only a
// fatal auth failure propagates.
func (s *Service) processItem(ctx context.Context, workerID int, item *Item) error {
	if s.robots != nil && !s.robots.Allowed(ctx, item.URL) {
		s.logger.Debug().Int("worker", workerID).Str("url", item.URL).Msg("Blocked by robots.txt")
		s.monitor.PageSkipped()
		return nil
	}

	if err := s.throttle.Wait(ctx); err != nil {
		s.monitor.PageSkipped()
		return nil
	}

	var page *models.PageResult
	attempts, err := s.retry.Execute(ctx, s.logger, item.URL, s.monitor.PageRetried, func() error {
		var ferr error
		page, ferr = s.crawlPage(ctx, item)
		if ferr == nil || !IsAuthRequired(ferr) {
			return ferr
		}

		// Session expired mid-crawl: refresh once, then retry the page.
		// A failed refresh aborts the run.
		if aerr := s.reauthenticate(ctx); aerr != nil {
			return &fatalError{err: aerr}
		}
		page, ferr = s.crawlPage(ctx, item)
		return ferr
	})
	if err != nil {
		var fatal *fatalError
		if errors.As(err, &fatal) {
			return fatal
		}

		kind := NewFetchError(item.URL, 0, err).Kind
		s.monitor.PageFailed(models.CrawlError{
			URL:       item.URL,
			Kind:      string(kind),
			Message:   err.Error(),
			Attempts:  attempts + 1,
			Timestamp: time.Now(),
		})
		s.logger.Warn().
			Int("worker", workerID).
			Str("url", item.URL).
			Str("kind", string(kind)).
			Int("attempts", attempts+1).
			Err(err).
			Msg("Page failed")
		return nil
	}
	page.Retries = attempts

	// Links are admitted even when the page itself is skipped below
	s.monitor.LinksDiscovered(len(page.Links))
	s.enqueueLinks(item, page)

	if page.WordCount < s.config.Crawler.MinWordCount {
		s.logger.Debug().
			Int("worker", workerID).
			Str("url", item.URL).
			Int("words", page.WordCount).
			Msg("Below minimum word count, page skipped")
		s.monitor.PageSkipped()
		return nil
	}

	if !s.admitPage() {
		// Another worker consumed the last slot while this page was in
		// flight; the page is dropped and the limit reported
		s.setStopReason(models.StopReasonMaxPages(s.config.Crawler.MaxPages))
		s.logger.Debug().
			Int("worker", workerID).
			Str("url", item.URL).
			Msg("Page limit reached mid-flight, page dropped")
		s.monitor.PageSkipped()
		return nil
	}

	s.appendPage(page)
	if s.storage != nil {
		if err := s.storage.SavePage(s.RunID(), page); err != nil {
			s.logger.Warn().Str("url", page.URL).Err(err).Msg("Failed to persist page")
		}
	}

	total := s.monitor.PageCrawled()
	s.logger.Info().
		Int("worker", workerID).
		Str("url", page.URL).
		Int("depth", page.Depth).
		Int("words", page.WordCount).
		Int("pages", total).
		Msg("Page crawled")
	return nil
}

// crawlPage performs one fetch attempt: render (static fallback when the
// browser path fails), expand, read HTML, extract
func (s *Service) crawlPage(ctx context.Context, item *Item) (*models.PageResult, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.Crawler.RequestTimeout)
	defer cancel()

	mode := models.RenderModeBrowser
	handle, err := s.renderer.Fetch(fetchCtx, item.URL)
	if err != nil && s.fallback != nil && !IsAuthRequired(err) {
		s.logger.Debug().Str("url", item.URL).Err(err).Msg("Render failed, using static fallback")
		mode = models.RenderModeStatic
		handle, err = s.fallback.Fetch(fetchCtx, item.URL)
	}
	if err != nil {
		return nil, NewFetchError(item.URL, 0, err)
	}
	defer handle.Close()

	if status := handle.StatusCode(); status >= 400 {
		return nil, NewFetchError(item.URL, status, fmt.Errorf("http status %d", status))
	}

	clicks := 0
	if mode == models.RenderModeBrowser {
		report, expandErr := s.policy.Expand(fetchCtx, handle)
		if expandErr != nil {
			s.logger.Debug().Str("url", item.URL).Err(expandErr).Msg("Expansion pass incomplete")
		}
		if report != nil {
			clicks = report.Clicks
		}
	}

	html, err := handle.HTML(fetchCtx)
	if err != nil {
		return nil, &FetchError{Kind: ErrorKindRender, URL: item.URL, Err: err}
	}

	content, err := s.extractor.Extract(item.URL, html)
	if err != nil {
		return nil, &FetchError{Kind: ErrorKindParse, URL: item.URL, Err: err}
	}

	return &models.PageResult{
		URL:         item.URL,
		Parent:      item.Parent,
		Depth:       item.Depth,
		SectionPath: item.SectionPath,
		Title:       content.Title,
		StatusCode:  handle.StatusCode(),
		RenderMode:  mode,
		Units:       content.Units,
		Links:       content.Links,
		Markdown:    content.Markdown,
		WordCount:   content.WordCount,
		Clicks:      clicks,
		FetchedAt:   time.Now(),
	}, nil
}

// enqueueLinks admits a page's outbound links at depth+1
func (s *Service) enqueueLinks(item *Item, page *models.PageResult) {
	if item.Depth >= s.config.Crawler.MaxDepth {
		return
	}

	sectionPath := childSectionPath(item, page.Title)
	enqueued := 0
	for _, link := range page.Links {
		canonical, ok := s.scope.Admit(link)
		if !ok {
			continue
		}
		child := &Item{
			URL:         canonical,
			Depth:       item.Depth + 1,
			Parent:      item.URL,
			SectionPath: sectionPath,
		}
		if s.frontier.Enqueue(child) {
			enqueued++
		}
	}
	s.monitor.LinksEnqueued(enqueued)
	s.monitor.ObserveQueueDepth(s.frontier.Len())
}

// childSectionPath extends the parent's section path with its title
func childSectionPath(item *Item, title string) []string {
	if title == "" {
		return item.SectionPath
	}
	path := make([]string, 0, len(item.SectionPath)+1)
	path = append(path, item.SectionPath...)
	return append(path, title)
}
