package renderer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/crawler"
)

// BrowserRenderer drives a single headless Chrome instance. Every Fetch
// opens a tab in the shared browser context, so cookies and auth state
// are shared across all workers of a run.
type BrowserRenderer struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	config *common.CrawlerConfig
	logger arbor.ILogger
}

// NewBrowserRenderer launches the shared browser
func NewBrowserRenderer(config *common.CrawlerConfig, logger arbor.ILogger) (*BrowserRenderer, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(config.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser process eagerly so launch failures surface here
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Debug().Msg("Headless browser started")

	return &BrowserRenderer{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		config:        config,
		logger:        logger,
	}, nil
}

// Fetch implements interfaces.Renderer. The returned page keeps its tab
// open until Close so interaction can mutate the DOM before HTML is read.
func (r *BrowserRenderer) Fetch(ctx context.Context, pageURL string) (interfaces.Page, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	stopWatch := context.AfterFunc(ctx, tabCancel)

	var status int64
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		atomic.CompareAndSwapInt64(&status, 0, resp.Response.Status)
	})

	var finalURL string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.config.RenderWaitTime),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		stopWatch()
		tabCancel()
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	page := &browserPage{
		ctx:       tabCtx,
		cancel:    tabCancel,
		stopWatch: stopWatch,
		status:    int(atomic.LoadInt64(&status)),
		finalURL:  finalURL,
	}

	if r.redirectedToLogin(pageURL, finalURL) {
		page.Close()
		return nil, &crawler.FetchError{
			Kind: crawler.ErrorKindAuth,
			URL:  pageURL,
			Err:  fmt.Errorf("redirected to login page %s", finalURL),
		}
	}

	return page, nil
}

func (r *BrowserRenderer) redirectedToLogin(pageURL, finalURL string) bool {
	pattern := r.config.LoginURLPattern
	if pattern == "" {
		return false
	}
	return strings.Contains(finalURL, pattern) && !strings.Contains(pageURL, pattern)
}

// Authenticate re-establishes the session by visiting the start URL in a
// fresh tab and verifying it no longer lands on the login page. Cookie
// refresh happens inside the shared browser context.
func (r *BrowserRenderer) Authenticate(ctx context.Context) error {
	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()
	stopWatch := context.AfterFunc(ctx, tabCancel)
	defer stopWatch()

	var finalURL string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(r.config.StartURL),
		chromedp.Sleep(r.config.RenderWaitTime*2),
		chromedp.Location(&finalURL),
	)
	if err != nil {
		return fmt.Errorf("authentication navigation failed: %w", err)
	}

	if r.redirectedToLogin(r.config.StartURL, finalURL) {
		return fmt.Errorf("session could not be re-established, still on login page %s", finalURL)
	}
	return nil
}

// Close shuts down the browser
func (r *BrowserRenderer) Close() error {
	r.browserCancel()
	r.allocCancel()
	return nil
}

// browserPage is a live tab
type browserPage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
	status    int
	finalURL  string
}

func (p *browserPage) StatusCode() int  { return p.status }
func (p *browserPage) FinalURL() string { return p.finalURL }

func (p *browserPage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("failed to read DOM: %w", err)
	}
	return html, nil
}

func (p *browserPage) Snapshot(ctx context.Context) (*models.PageSnapshot, error) {
	var snap models.PageSnapshot
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(snapshotJS, &snap)); err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	return &snap, nil
}

func (p *browserPage) Query(ctx context.Context, selector string) ([]models.ElementSummary, error) {
	var elements []models.ElementSummary
	script := fmt.Sprintf(queryJS, strconv.Quote(selector))
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &elements)); err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}
	return elements, nil
}

// Click re-queries the selector in the page so it survives DOM mutation
// between Query and Click
func (p *browserPage) Click(ctx context.Context, selector string, index int) error {
	var clicked bool
	script := fmt.Sprintf(clickJS, strconv.Quote(selector), index)
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return fmt.Errorf("click on %q[%d] failed: %w", selector, index, err)
	}
	if !clicked {
		return fmt.Errorf("element %q[%d] no longer present", selector, index)
	}
	return nil
}

func (p *browserPage) Close() error {
	if p.stopWatch != nil {
		p.stopWatch()
	}
	p.cancel()
	return nil
}

const snapshotJS = `(() => {
	const text = document.body ? document.body.innerText : '';
	return {
		url: location.href,
		text_length: text.length,
		link_count: document.querySelectorAll('a[href]').length,
		expanded_count: document.querySelectorAll('[aria-expanded="true"], details[open]').length
	};
})()`

const queryJS = `(() => {
	const selector = %s;
	const out = [];
	let matches;
	try { matches = document.querySelectorAll(selector); } catch (e) { return out; }
	matches.forEach((el, i) => {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		out.push({
			selector: selector,
			index: i,
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.textContent || '').slice(0, 200),
			aria_expanded: el.getAttribute('aria-expanded') || '',
			href: el.getAttribute('href') || '',
			visible: rect.width > 0 && rect.height > 0 &&
				style.visibility !== 'hidden' && style.display !== 'none'
		});
	});
	return out;
})()`

const clickJS = `(() => {
	let matches;
	try { matches = document.querySelectorAll(%s); } catch (e) { return false; }
	const index = %d;
	if (index >= matches.length) return false;
	const el = matches[index];
	el.scrollIntoView({block: 'center'});
	el.click();
	return true;
})()`
