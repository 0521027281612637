package crawler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// minTextGrowth is the smallest text-length increase that counts as a
// meaningful change after a click
const minTextGrowth = 80

// InteractionPolicy expands collapsed page content before extraction.
// It decides what to click from DOM summaries and issues click intents
// through the Page handle; it never touches the DOM itself.
//
// Three phases run in order, bounded by a shared click and time budget:
// a bulk expand-all control (success skips the rest), the framework
// selector catalogue, then a visible-text heuristic scan.
type InteractionPolicy struct {
	enabled     bool
	clickBudget int
	timeBudget  time.Duration
	settle      time.Duration
	bulkSettle  time.Duration
	logger      arbor.ILogger
}

// ExpansionReport summarizes one page's interaction pass
type ExpansionReport struct {
	Clicks     int
	Effective  int // Clicks that produced a meaningful DOM change
	BulkExpand bool
	TextGrowth int
	NewLinks   int
}

// NewInteractionPolicy creates the expansion policy from config
func NewInteractionPolicy(cfg *common.InteractionConfig, logger arbor.ILogger) *InteractionPolicy {
	return &InteractionPolicy{
		enabled:     cfg.Enabled,
		clickBudget: cfg.ClickBudget,
		timeBudget:  cfg.TimeBudget,
		settle:      cfg.SettleDelay,
		bulkSettle:  cfg.BulkSettleDelay,
		logger:      logger,
	}
}

// Expand runs the three-phase expansion on page. Individual click or
// query failures are skipped; only snapshot failures abort the pass.
func (p *InteractionPolicy) Expand(ctx context.Context, page interfaces.Page) (*ExpansionReport, error) {
	report := &ExpansionReport{}
	if !p.enabled || p.clickBudget <= 0 {
		return report, nil
	}

	base, err := page.Snapshot(ctx)
	if err != nil {
		return report, fmt.Errorf("initial snapshot failed: %w", err)
	}
	// Static fetches report an empty DOM; nothing to expand
	if base.TextLength == 0 && base.LinkCount == 0 {
		return report, nil
	}

	deadline := time.Now().Add(p.timeBudget)
	state := &expansionState{
		page:     page,
		last:     base,
		seen:     make(map[string]struct{}),
		deadline: deadline,
		report:   report,
	}

	if p.bulkExpand(ctx, state) {
		report.BulkExpand = true
		p.finish(base, state)
		return report, nil
	}

	p.catalogueExpand(ctx, state)
	p.textHeuristicExpand(ctx, state)

	p.finish(base, state)
	return report, nil
}

func (p *InteractionPolicy) finish(base *models.PageSnapshot, state *expansionState) {
	state.report.TextGrowth = state.last.TextLength - base.TextLength
	state.report.NewLinks = state.last.LinkCount - base.LinkCount
	if state.report.Clicks > 0 {
		p.logger.Debug().
			Int("clicks", state.report.Clicks).
			Int("effective", state.report.Effective).
			Int("text_growth", state.report.TextGrowth).
			Int("new_links", state.report.NewLinks).
			Bool("bulk", state.report.BulkExpand).
			Msg("Expansion pass complete")
	}
}

// expansionState carries the budget and change-detection state across
// phases
type expansionState struct {
	page     interfaces.Page
	last     *models.PageSnapshot
	seen     map[string]struct{}
	deadline time.Time
	report   *ExpansionReport
}

func (s *expansionState) budgetLeft(budget int) bool {
	return s.report.Clicks < budget && time.Now().Before(s.deadline)
}

// bulkExpand tries the expand-all catalogue; returns true when one click
// meaningfully changed the page
func (p *InteractionPolicy) bulkExpand(ctx context.Context, state *expansionState) bool {
	for _, rule := range bulkExpandSelectors {
		if !state.budgetLeft(p.clickBudget) {
			return false
		}
		elements, err := state.page.Query(ctx, rule.Selector)
		if err != nil || len(elements) == 0 {
			continue
		}
		target, ok := firstClickable(elements, state.seen)
		if !ok {
			continue
		}

		state.seen[fingerprint(target)] = struct{}{}
		state.report.Clicks++
		if err := state.page.Click(ctx, rule.Selector, target.Index); err != nil {
			p.logger.Debug().Str("selector", rule.Selector).Err(err).Msg("Bulk expand click failed, skipping")
			continue
		}
		sleepCtx(ctx, p.bulkSettle)

		after, err := state.page.Snapshot(ctx)
		if err != nil {
			continue
		}
		if meaningfulDelta(state.last, after) {
			p.logger.Debug().
				Str("selector", rule.Selector).
				Str("framework", rule.Framework).
				Msg("Bulk expand succeeded")
			state.report.Effective++
			state.last = after
			return true
		}
		state.last = after
	}
	return false
}

// catalogueExpand walks the framework selector table in order, clicking
// each unvisited collapsed element
func (p *InteractionPolicy) catalogueExpand(ctx context.Context, state *expansionState) {
	for _, rule := range expandableSelectors {
		if !state.budgetLeft(p.clickBudget) {
			return
		}
		elements, err := state.page.Query(ctx, rule.Selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			if !state.budgetLeft(p.clickBudget) {
				return
			}
			if !shouldClick(el, state.seen) {
				continue
			}
			p.clickAndVerify(ctx, state, rule.Selector, el)
		}
	}
}

// textHeuristicExpand scans clickable elements for expand-style labels
func (p *InteractionPolicy) textHeuristicExpand(ctx context.Context, state *expansionState) {
	for _, selector := range textHeuristicSelectors {
		if !state.budgetLeft(p.clickBudget) {
			return
		}
		elements, err := state.page.Query(ctx, selector)
		if err != nil {
			continue
		}
		for _, el := range elements {
			if !state.budgetLeft(p.clickBudget) {
				return
			}
			if !matchesExpandHint(el.Text) {
				continue
			}
			if !shouldClick(el, state.seen) {
				continue
			}
			p.clickAndVerify(ctx, state, selector, el)
		}
	}
}

// clickAndVerify performs one click, waits for the page to settle, and
// checks the snapshot delta. Failed clicks are skipped, never fatal.
func (p *InteractionPolicy) clickAndVerify(ctx context.Context, state *expansionState, selector string, el models.ElementSummary) {
	state.seen[fingerprint(el)] = struct{}{}
	state.report.Clicks++

	if err := state.page.Click(ctx, selector, el.Index); err != nil {
		p.logger.Debug().
			Str("selector", selector).
			Int("index", el.Index).
			Err(err).
			Msg("Click failed, skipping element")
		return
	}
	sleepCtx(ctx, p.settle)

	after, err := state.page.Snapshot(ctx)
	if err != nil {
		return
	}
	if meaningfulDelta(state.last, after) {
		state.report.Effective++
	}
	state.last = after
}

// shouldClick filters out elements that are invisible, already expanded,
// already clicked, or plain navigation links
func shouldClick(el models.ElementSummary, seen map[string]struct{}) bool {
	if !el.Visible {
		return false
	}
	if el.AriaExpanded == "true" {
		return false
	}
	if isNavigationLink(el) {
		return false
	}
	if _, dup := seen[fingerprint(el)]; dup {
		return false
	}
	return true
}

// isNavigationLink identifies anchors that would navigate away rather
// than toggle content: a real href and no expansion semantics
func isNavigationLink(el models.ElementSummary) bool {
	if el.Tag != "a" || el.AriaExpanded != "" {
		return false
	}
	href := strings.TrimSpace(el.Href)
	return href != "" && href != "#" && !strings.HasPrefix(href, "javascript:")
}

func firstClickable(elements []models.ElementSummary, seen map[string]struct{}) (models.ElementSummary, bool) {
	for _, el := range elements {
		if shouldClick(el, seen) {
			return el, true
		}
	}
	return models.ElementSummary{}, false
}

// fingerprint identifies an element across re-queries so it is clicked
// at most once per page
func fingerprint(el models.ElementSummary) string {
	text := strings.TrimSpace(el.Text)
	if len(text) > 60 {
		text = text[:60]
	}
	return fmt.Sprintf("%s|%s|%d|%s", el.Tag, el.Selector, el.Index, text)
}

// meaningfulDelta reports whether a click actually revealed content:
// new links, newly expanded elements, or a real text increase
func meaningfulDelta(before, after *models.PageSnapshot) bool {
	if after.LinkCount > before.LinkCount {
		return true
	}
	if after.ExpandedCount > before.ExpandedCount {
		return true
	}
	return after.TextLength >= before.TextLength+minTextGrowth
}

// matchesExpandHint reports whether visible text looks like an expansion
// control and not a collapse control
func matchesExpandHint(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" || len(t) > 40 {
		return false
	}
	for _, hint := range collapseTextHints {
		if strings.Contains(t, hint) {
			return false
		}
	}
	for _, hint := range expandTextHints {
		if strings.Contains(t, hint) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
