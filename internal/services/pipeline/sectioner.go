package pipeline

import (
	"github.com/ternarybob/colligo/internal/models"
)

// section groups the content units that fall under one heading, carrying
// the full heading path from the document root
type section struct {
	Title       string
	HeadingPath []string
	Units       []models.ContentUnit
}

// Sectionize splits extracted units into sections at H1-H6 boundaries in
// document order. Content before the first heading lands in a leading
// section titled with the page title. Heading paths track the hierarchy:
// an H3 under an H2 under an H1 carries all three titles.
func Sectionize(title string, units []models.ContentUnit) []section {
	var sections []section

	// Heading stack indexed by level; stack[0] is unused
	stack := make([]string, 7)
	depth := 0

	current := section{Title: title}
	flush := func() {
		if len(current.Units) > 0 {
			sections = append(sections, current)
		}
	}

	for _, unit := range units {
		if unit.Type != models.UnitTypeHeading {
			text := unit.Text
			if unit.Type == models.UnitTypeText {
				text = CleanText(text)
				if text == "" {
					continue
				}
			}
			current.Units = append(current.Units, models.ContentUnit{
				Type: unit.Type,
				Text: text,
			})
			continue
		}

		flush()

		level := unit.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		headingText := CleanText(unit.Text)

		stack[level] = headingText
		if level > depth {
			depth = level
		} else {
			for i := level + 1; i <= depth; i++ {
				stack[i] = ""
			}
			depth = level
		}

		path := make([]string, 0, level)
		for i := 1; i <= level; i++ {
			if stack[i] != "" {
				path = append(path, stack[i])
			}
		}

		current = section{
			Title:       headingText,
			HeadingPath: path,
		}
	}
	flush()

	return sections
}
