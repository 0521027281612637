package models

import (
	"fmt"
	"time"
)

// UnitType classifies a piece of extracted content
type UnitType string

const (
	UnitTypeHeading UnitType = "heading"
	UnitTypeText    UnitType = "text"
	UnitTypeTable   UnitType = "table"
	UnitTypeCode    UnitType = "code"
)

// ContentUnit is one extracted block in document order
type ContentUnit struct {
	Type  UnitType `json:"type"`
	Level int      `json:"level,omitempty"` // Heading level 1-6, zero otherwise
	Text  string   `json:"text"`
}

// PageContent is the structured output of HTML extraction
type PageContent struct {
	Title     string        `json:"title"`
	Units     []ContentUnit `json:"units"`
	Links     []string      `json:"links"`
	Markdown  string        `json:"markdown"`
	WordCount int           `json:"word_count"`
}

// RenderMode records how a page was fetched
type RenderMode string

const (
	RenderModeBrowser RenderMode = "browser"
	RenderModeStatic  RenderMode = "static"
)

// PageResult is the outcome of crawling a single in-scope page
type PageResult struct {
	URL         string        `json:"url"` // Canonical form
	Parent      string        `json:"parent,omitempty"`
	Depth       int           `json:"depth"`
	SectionPath []string      `json:"section_path,omitempty"`
	Title       string        `json:"title"`
	StatusCode  int           `json:"status_code"`
	RenderMode  RenderMode    `json:"render_mode"`
	Units       []ContentUnit `json:"units"`
	Links       []string      `json:"links"`
	Markdown    string        `json:"markdown,omitempty"`
	WordCount   int           `json:"word_count"`
	Clicks      int           `json:"clicks,omitempty"` // Interaction clicks applied before extraction
	Retries     int           `json:"retries,omitempty"`
	FetchedAt   time.Time     `json:"fetched_at"`
}

// CrawlError records a page that could not be crawled
type CrawlError struct {
	URL       string    `json:"url"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}

// CrawlStats aggregates counters for a crawl run
type CrawlStats struct {
	PagesCrawled    int           `json:"pages_crawled"`
	PagesFailed     int           `json:"pages_failed"`
	PagesSkipped    int           `json:"pages_skipped"`
	PagesRetried    int           `json:"pages_retried"`
	LinksDiscovered int           `json:"links_discovered"`
	LinksEnqueued   int           `json:"links_enqueued"`
	PeakQueueDepth  int           `json:"peak_queue_depth"`
	PagesPerSecond  float64       `json:"pages_per_second"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Stop reasons reported on CrawlResult
const (
	StopReasonQueueExhausted = "Queue exhausted"
	StopReasonUserStop       = "User stop"
)

// StopReasonMaxPages formats the stop reason for a crawl halted by the
// page limit while work remained queued
func StopReasonMaxPages(limit int) string {
	return fmt.Sprintf("MAX_PAGES limit reached (%d)", limit)
}

// CrawlResult is the complete outcome of one crawl run
type CrawlResult struct {
	RunID      string        `json:"run_id"`
	StartURL   string        `json:"start_url"` // Canonical form
	ScopeHost  string        `json:"scope_host"`
	ScopePath  string        `json:"scope_path"`
	StopReason string        `json:"stop_reason"`
	Stats      CrawlStats    `json:"stats"`
	Pages      []*PageResult `json:"pages"`
	Errors     []CrawlError  `json:"errors"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}
