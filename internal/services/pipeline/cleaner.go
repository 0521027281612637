package pipeline

import (
	"strings"
	"unicode"
)

// CleanText collapses all whitespace runs (spaces, tabs, newlines,
// non-breaking spaces) to single spaces and trims the ends. Applied to
// text units only; table and code units keep their layout.
func CleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// WordCount counts whitespace-separated words
func WordCount(s string) int {
	return len(strings.Fields(s))
}
