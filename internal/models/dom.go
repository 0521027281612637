package models

// PageSnapshot is a cheap summary of the rendered DOM, used to judge
// whether an interaction produced a meaningful change
type PageSnapshot struct {
	URL           string `json:"url"`
	TextLength    int    `json:"text_length"`
	LinkCount     int    `json:"link_count"`
	ExpandedCount int    `json:"expanded_count"` // Elements with aria-expanded="true" or open <details>
}

// ElementSummary describes one element matched by a selector query.
// Index identifies the element within its selector's match list.
type ElementSummary struct {
	Selector     string `json:"selector"`
	Index        int    `json:"index"`
	Tag          string `json:"tag"`
	Text         string `json:"text"`
	AriaExpanded string `json:"aria_expanded"` // "", "true" or "false"
	Href         string `json:"href"`
	Visible      bool   `json:"visible"`
}
