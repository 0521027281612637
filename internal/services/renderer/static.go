package renderer

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// maxBodySize caps static response bodies at 10MB
const maxBodySize = 10 * 1024 * 1024

// StaticRenderer fetches pages with plain HTTP, no JavaScript. Used when
// browser rendering is disabled or as a fallback when it fails. Its pages
// report an empty DOM, so the interaction pass naturally no-ops.
type StaticRenderer struct {
	client *http.Client
	config *common.CrawlerConfig
	logger arbor.ILogger
}

// NewStaticRenderer creates a plain-HTTP renderer
func NewStaticRenderer(config *common.CrawlerConfig, logger arbor.ILogger) *StaticRenderer {
	return &StaticRenderer{
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		config: config,
		logger: logger,
	}
}

// Fetch implements interfaces.Renderer
func (r *StaticRenderer) Fetch(ctx context.Context, pageURL string) (interfaces.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", r.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &staticPage{
		html:     string(body),
		status:   resp.StatusCode,
		finalURL: resp.Request.URL.String(),
	}, nil
}

// Authenticate is a no-op; static fetches carry no session
func (r *StaticRenderer) Authenticate(ctx context.Context) error {
	return nil
}

func (r *StaticRenderer) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// staticPage is an immutable fetched document
type staticPage struct {
	html     string
	status   int
	finalURL string
}

func (p *staticPage) StatusCode() int  { return p.status }
func (p *staticPage) FinalURL() string { return p.finalURL }

func (p *staticPage) HTML(ctx context.Context) (string, error) {
	return p.html, nil
}

// Snapshot reports an empty DOM: nothing for the interaction pass to do
func (p *staticPage) Snapshot(ctx context.Context) (*models.PageSnapshot, error) {
	return &models.PageSnapshot{URL: p.finalURL}, nil
}

func (p *staticPage) Query(ctx context.Context, selector string) ([]models.ElementSummary, error) {
	return nil, nil
}

func (p *staticPage) Click(ctx context.Context, selector string, index int) error {
	return fmt.Errorf("static pages cannot be clicked")
}

func (p *staticPage) Close() error { return nil }
