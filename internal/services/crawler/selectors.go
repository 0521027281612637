package crawler

// selectorRule maps one framework's collapsed-content marker to a CSS
// selector. Rules are tried in order; earlier rows are the more reliable,
// attribute-based conventions.
type selectorRule struct {
	Selector  string
	Framework string
}

// bulkExpandSelectors are single controls that expand an entire page at
// once. A successful bulk expansion skips the granular phases.
var bulkExpandSelectors = []selectorRule{
	{`[data-testid="expand-all"]`, "generic"},
	{`button[aria-label="Expand all"]`, "generic"},
	{`.expand-all`, "confluence"},
	{`.aui-expander-trigger-all`, "confluence"},
	{`button.expandAllButton`, "oracle-jet"},
	{`[data-action="expand-all"]`, "generic"},
}

// expandableSelectors identify individually collapsed elements, ordered
// from standards-based markers to framework-specific ones
var expandableSelectors = []selectorRule{
	{`[aria-expanded="false"]`, "aria"},
	{`details:not([open]) > summary`, "html"},
	{`.accordion-button.collapsed`, "bootstrap"},
	{`[data-bs-toggle="collapse"].collapsed`, "bootstrap"},
	{`[data-toggle="collapse"].collapsed`, "bootstrap"},
	{`.menu__link--sublist:not(.menu__link--active)`, "docusaurus"},
	{`.menu__caret`, "docusaurus"},
	{`label.md-nav__title`, "mkdocs"},
	{`.md-nav__link[for]`, "mkdocs"},
	{`.toctree-expand`, "sphinx"},
	{`.expand-control`, "confluence"},
	{`.aui-expander-trigger`, "confluence"},
	{`.ant-collapse-item:not(.ant-collapse-item-active) > .ant-collapse-header`, "ant-design"},
	{`.ant-tree-switcher_close`, "ant-design"},
	{`.MuiAccordionSummary-root[aria-expanded="false"]`, "mui"},
	{`.chakra-accordion__button[aria-expanded="false"]`, "chakra"},
	{`oj-collapsible:not([expanded]) .oj-collapsible-header`, "oracle-jet"},
	{`.sapMPanelHdr.sapMPanelHdrExpandable`, "sap-ui5"},
	{`.collapsible-header:not(.active)`, "materialize"},
}

// textHeuristicSelectors bound the phase 2 scan to clickable elements
var textHeuristicSelectors = []string{
	`button`,
	`a`,
	`[role="button"]`,
	`summary`,
}

// expandTextHints match visible labels that reveal hidden content.
// Compared lowercased against trimmed element text.
var expandTextHints = []string{
	"show more",
	"show all",
	"view more",
	"view all",
	"see more",
	"see all",
	"load more",
	"read more",
	"expand",
	"more results",
}

// collapseTextHints exclude controls that would hide content
var collapseTextHints = []string{
	"show less",
	"see less",
	"collapse",
	"hide",
}
