package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/models"
)

func heading(level int, text string) models.ContentUnit {
	return models.ContentUnit{Type: models.UnitTypeHeading, Level: level, Text: text}
}

func text(s string) models.ContentUnit {
	return models.ContentUnit{Type: models.UnitTypeText, Text: s}
}

func TestSectionizeLeadingContentUsesPageTitle(t *testing.T) {
	sections := Sectionize("Getting Started", []models.ContentUnit{
		text("Welcome paragraph."),
		heading(2, "Install"),
		text("Run the installer."),
	})

	require.Len(t, sections, 2)
	assert.Equal(t, "Getting Started", sections[0].Title)
	assert.Empty(t, sections[0].HeadingPath)
	assert.Equal(t, "Install", sections[1].Title)
	assert.Equal(t, []string{"Install"}, sections[1].HeadingPath)
}

func TestSectionizeHeadingHierarchy(t *testing.T) {
	sections := Sectionize("Doc", []models.ContentUnit{
		heading(1, "Guide"),
		text("intro"),
		heading(2, "Setup"),
		text("setup body"),
		heading(3, "Linux"),
		text("linux body"),
		heading(2, "Usage"),
		text("usage body"),
	})

	require.Len(t, sections, 4)
	assert.Equal(t, []string{"Guide"}, sections[0].HeadingPath)
	assert.Equal(t, []string{"Guide", "Setup"}, sections[1].HeadingPath)
	assert.Equal(t, []string{"Guide", "Setup", "Linux"}, sections[2].HeadingPath)
	assert.Equal(t, []string{"Guide", "Usage"}, sections[3].HeadingPath,
		"a sibling H2 must clear the stale H3")
}

func TestSectionizeSkipsEmptySections(t *testing.T) {
	sections := Sectionize("Doc", []models.ContentUnit{
		heading(2, "Empty heading"),
		heading(2, "Real"),
		text("content"),
	})

	require.Len(t, sections, 1)
	assert.Equal(t, "Real", sections[0].Title)
}

func TestSectionizeCleansTextKeepsTablesVerbatim(t *testing.T) {
	tableText := "| a | b |\n| 1 | 2 |"
	sections := Sectionize("Doc", []models.ContentUnit{
		heading(1, "  Spaced   Heading "),
		text("line one\n\tline   two"),
		text("   \n  "), // whitespace-only units are dropped
		{Type: models.UnitTypeTable, Text: tableText},
	})

	require.Len(t, sections, 1)
	assert.Equal(t, "Spaced Heading", sections[0].Title)
	require.Len(t, sections[0].Units, 2)
	assert.Equal(t, "line one line two", sections[0].Units[0].Text)
	assert.Equal(t, tableText, sections[0].Units[1].Text)
}

func TestSectionizeClampsHeadingLevels(t *testing.T) {
	sections := Sectionize("Doc", []models.ContentUnit{
		heading(0, "Zero"),
		text("a"),
		heading(9, "Nine"),
		text("b"),
	})

	require.Len(t, sections, 2)
	assert.Equal(t, []string{"Zero"}, sections[0].HeadingPath)
	assert.Equal(t, []string{"Zero", "Nine"}, sections[1].HeadingPath)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"  leading and trailing  ", "leading and trailing"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"non\u00a0breaking\u00a0spaces", "non breaking spaces"},
		{"multiple    spaces", "multiple spaces"},
		{"", ""},
		{" \n\t ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in))
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 3, WordCount("one two three"))
	assert.Equal(t, 3, WordCount("one\ttwo\nthree"))
}
