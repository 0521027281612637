package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// Renderer fetches and renders pages. Implementations share one session
// (cookies, auth state) across all pages of a run.
type Renderer interface {
	// Fetch navigates to url and returns a handle to the live page.
	// The caller owns the returned Page and must Close it.
	Fetch(ctx context.Context, url string) (Page, error)

	// Authenticate re-establishes the shared session. Callers serialize
	// invocations; a failure is fatal to the run.
	Authenticate(ctx context.Context) error

	Close() error
}

// Page is a handle to one fetched page. Browser-backed implementations
// keep the page live so interaction can mutate it before HTML is read;
// static implementations return empty snapshots so interaction no-ops.
type Page interface {
	// StatusCode of the main document response, zero if unknown
	StatusCode() int

	// FinalURL after redirects
	FinalURL() string

	// HTML returns the current serialized DOM
	HTML(ctx context.Context) (string, error)

	// Snapshot summarizes the current DOM for change detection
	Snapshot(ctx context.Context) (*models.PageSnapshot, error)

	// Query returns elements currently matching the selector
	Query(ctx context.Context, selector string) ([]models.ElementSummary, error)

	// Click dispatches a click on the index-th element matching selector
	Click(ctx context.Context, selector string, index int) error

	Close() error
}
