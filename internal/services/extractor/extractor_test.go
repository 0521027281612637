package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

func newExtractor() *HTMLExtractor {
	return New(common.GetLogger()).(*HTMLExtractor)
}

func TestExtractTitle(t *testing.T) {
	content, err := newExtractor().Extract("https://example.com/page",
		`<html><head><title>  Page Title </title></head><body><h1>Heading</h1></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Page Title", content.Title)
}

func TestExtractTitleFallsBackToH1(t *testing.T) {
	content, err := newExtractor().Extract("https://example.com/page",
		`<html><body><h1>Only Heading</h1></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Only Heading", content.Title)
}

func TestExtractUnitsInDocumentOrder(t *testing.T) {
	html := `<html><body>
		<h1>Guide</h1>
		<p>Intro paragraph.</p>
		<h2>Setup</h2>
		<p>Setup paragraph.</p>
		<pre>go install ./...</pre>
		<table><tr><th>Flag</th><th>Default</th></tr><tr><td>-v</td><td>false</td></tr></table>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/guide", html)
	require.NoError(t, err)

	require.Len(t, content.Units, 6)
	assert.Equal(t, models.UnitTypeHeading, content.Units[0].Type)
	assert.Equal(t, 1, content.Units[0].Level)
	assert.Equal(t, "Guide", content.Units[0].Text)
	assert.Equal(t, models.UnitTypeText, content.Units[1].Type)
	assert.Equal(t, models.UnitTypeHeading, content.Units[2].Type)
	assert.Equal(t, 2, content.Units[2].Level)
	assert.Equal(t, models.UnitTypeText, content.Units[3].Type)
	assert.Equal(t, models.UnitTypeCode, content.Units[4].Type)
	assert.Equal(t, "go install ./...", content.Units[4].Text)
	assert.Equal(t, models.UnitTypeTable, content.Units[5].Type)
	assert.Equal(t, "Flag | Default\n-v | false", content.Units[5].Text)
}

func TestExtractNestedContentCapturedOnce(t *testing.T) {
	html := `<html><body>
		<ul><li>Item with <p>nested paragraph</p> text</li></ul>
		<blockquote><p>quoted paragraph</p></blockquote>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/", html)
	require.NoError(t, err)

	require.Len(t, content.Units, 2, "nested blocks must not duplicate their ancestor's text")
	assert.Contains(t, content.Units[0].Text, "nested paragraph")
	assert.Contains(t, content.Units[1].Text, "quoted paragraph")
}

func TestExtractPrefersMainOverBody(t *testing.T) {
	html := `<html><body>
		<nav><p>Navigation junk</p></nav>
		<main><p>Real content</p></main>
		<footer><p>Footer junk</p></footer>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/", html)
	require.NoError(t, err)

	require.Len(t, content.Units, 1)
	assert.Equal(t, "Real content", content.Units[0].Text)
}

func TestExtractDropsBoilerplate(t *testing.T) {
	html := `<html><body>
		<script>var x = "hidden words";</script>
		<style>.a { color: red; }</style>
		<p>Visible words</p>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/", html)
	require.NoError(t, err)

	require.Len(t, content.Units, 1)
	assert.Equal(t, "Visible words", content.Units[0].Text)
	assert.Equal(t, 2, content.WordCount)
}

func TestExtractLinksAbsoluteAndDeduped(t *testing.T) {
	html := `<html><body><main><p>x</p></main>
		<a href="/docs/install">Install</a>
		<a href="guide">Guide</a>
		<a href="https://other.example.org/page">External</a>
		<a href="/docs/install">Duplicate</a>
		<a href="#section">Fragment only</a>
		<a href="">Empty</a>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/docs/", html)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://example.com/docs/install",
		"https://example.com/docs/guide",
		"https://other.example.org/page",
	}, content.Links)
}

func TestExtractLinksDirectoryCorrection(t *testing.T) {
	// An extension-less page URL behaves like a directory for its
	// relative links
	html := `<html><body><a href="child">Child</a></body></html>`

	content, err := newExtractor().Extract("https://example.com/docs/guide", html)
	require.NoError(t, err)

	require.Len(t, content.Links, 1)
	assert.Equal(t, "https://example.com/docs/guide/child", content.Links[0])
}

func TestExtractLinksFromWholeDocument(t *testing.T) {
	// Discovery links live outside <main> too
	html := `<html><body>
		<nav><a href="/docs/nav-target">Nav</a></nav>
		<main><p>content</p></main>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/", html)
	require.NoError(t, err)
	assert.Contains(t, content.Links, "https://example.com/docs/nav-target")
}

func TestExtractWordCount(t *testing.T) {
	html := `<html><body>
		<h1>Two words</h1>
		<p>Three more words</p>
		<pre>code is not counted</pre>
	</body></html>`

	content, err := newExtractor().Extract("https://example.com/", html)
	require.NoError(t, err)
	assert.Equal(t, 5, content.WordCount, "headings and text count, code does not")
}

func TestExtractMarkdown(t *testing.T) {
	html := `<html><body><main><h1>Guide</h1><p>Some <strong>bold</strong> text.</p></main></body></html>`

	content, err := newExtractor().Extract("https://example.com/", html)
	require.NoError(t, err)

	assert.Contains(t, content.Markdown, "Guide")
	assert.Contains(t, content.Markdown, "**bold**")
}
