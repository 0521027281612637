package extractor

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// boilerplateSelector removes elements that never carry page content
const boilerplateSelector = "script, style, noscript, svg, iframe, template"

// contentSelector matches the block elements collected as content units,
// in document order
const contentSelector = "h1, h2, h3, h4, h5, h6, p, li, blockquote, dt, dd, pre, table"

// textAncestors are containers whose text is captured at the outermost
// level; matching descendants are skipped to avoid duplication
var textAncestors = map[string]bool{
	"p": true, "li": true, "blockquote": true, "dt": true, "dd": true,
	"pre": true, "table": true,
}

// HTMLExtractor parses rendered HTML into structured content units,
// absolute links and a markdown rendering of the main content
type HTMLExtractor struct {
	converter *md.Converter
	logger    arbor.ILogger
}

// New creates an HTML extractor
func New(logger arbor.ILogger) interfaces.Extractor {
	return &HTMLExtractor{
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// Extract implements interfaces.Extractor
func (e *HTMLExtractor) Extract(pageURL string, html string) (*models.PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	// Links come from the whole document; nav and footer links matter
	// for discovery even when they are not content
	links := e.extractLinks(doc, pageURL)

	doc.Find(boilerplateSelector).Remove()

	root := mainContent(doc)
	units := extractUnits(root)

	wordCount := 0
	for _, unit := range units {
		if unit.Type == models.UnitTypeHeading || unit.Type == models.UnitTypeText {
			wordCount += len(strings.Fields(unit.Text))
		}
	}

	markdown := ""
	if rootHTML, err := goquery.OuterHtml(root); err == nil {
		markdown, err = e.converter.ConvertString(rootHTML)
		if err != nil {
			e.logger.Debug().Str("url", pageURL).Err(err).Msg("Markdown conversion failed")
			markdown = ""
		}
	}

	return &models.PageContent{
		Title:     title,
		Units:     units,
		Links:     links,
		Markdown:  strings.TrimSpace(markdown),
		WordCount: wordCount,
	}, nil
}

// mainContent prefers <main> or <article> over the full body
func mainContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range []string{"main", "article", "body"} {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return doc.Selection
}

// extractUnits walks the content blocks in document order. Text inside
// nested containers is captured once, at the outermost element.
func extractUnits(root *goquery.Selection) []models.ContentUnit {
	var units []models.ContentUnit

	root.Find(contentSelector).Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)

		switch name {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if hasAncestor(sel, textAncestors) {
				return
			}
			text := strings.TrimSpace(sel.Text())
			if text == "" {
				return
			}
			units = append(units, models.ContentUnit{
				Type:  models.UnitTypeHeading,
				Level: int(name[1] - '0'),
				Text:  text,
			})

		case "pre":
			if hasAncestor(sel, textAncestors) {
				return
			}
			text := strings.Trim(sel.Text(), "\n")
			if strings.TrimSpace(text) == "" {
				return
			}
			units = append(units, models.ContentUnit{
				Type: models.UnitTypeCode,
				Text: text,
			})

		case "table":
			if hasAncestor(sel, textAncestors) {
				return
			}
			text := tableText(sel)
			if text == "" {
				return
			}
			units = append(units, models.ContentUnit{
				Type: models.UnitTypeTable,
				Text: text,
			})

		default:
			if hasAncestor(sel, textAncestors) {
				return
			}
			text := strings.TrimSpace(sel.Text())
			if text == "" {
				return
			}
			units = append(units, models.ContentUnit{
				Type: models.UnitTypeText,
				Text: text,
			})
		}
	})

	return units
}

// tableText renders a table row by row, cells joined with " | "
func tableText(table *goquery.Selection) string {
	var rows []string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	})
	return strings.Join(rows, "\n")
}

// extractLinks resolves every anchor href against the page URL,
// deduplicated in first-seen order
func (e *HTMLExtractor) extractLinks(doc *goquery.Document, pageURL string) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || href == "#" || strings.HasPrefix(href, "#") {
			return
		}

		absolute, err := common.ResolveReference(pageURL, href)
		if err != nil {
			return
		}
		if _, dup := seen[absolute]; dup {
			return
		}
		seen[absolute] = struct{}{}
		links = append(links, absolute)
	})

	return links
}

func hasAncestor(sel *goquery.Selection, names map[string]bool) bool {
	for parent := sel.Parent(); parent.Length() > 0; parent = parent.Parent() {
		if names[goquery.NodeName(parent)] {
			return true
		}
	}
	return false
}
