package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
)

func testScopeConfig(startURL string) *common.CrawlerConfig {
	cfg := &common.NewDefaultConfig().Crawler
	cfg.StartURL = startURL
	return cfg
}

func newTestScope(t *testing.T, startURL string, mutate ...func(*common.CrawlerConfig)) *ScopeFilter {
	t.Helper()
	cfg := testScopeConfig(startURL)
	for _, m := range mutate {
		m(cfg)
	}
	scope, err := NewScopeFilter(startURL, cfg, common.GetLogger())
	require.NoError(t, err)
	return scope
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips www", "https://www.example.com/a", "https://example.com/a"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"keeps custom port", "https://example.com:8443/a", "https://example.com:8443/a"},
		{"drops fragment", "https://example.com/a#section", "https://example.com/a"},
		{"resolves dot segments", "https://example.com/a/b/../c/./d", "https://example.com/a/c/d"},
		{"trims trailing slash", "https://example.com/a/", "https://example.com/a"},
		{"keeps root slash", "https://example.com/", "https://example.com/"},
		{"adds root slash", "https://example.com", "https://example.com/"},
		{"decodes unreserved escapes", "https://example.com/%7Euser/%41bc", "https://example.com/~user/Abc"},
		{"keeps reserved escapes uppercased", "https://example.com/a%2fb", "https://example.com/a%2Fb"},
		{"drops tracking params", "https://example.com/a?utm_source=x&id=5", "https://example.com/a?id=5"},
		{"drops all-tracking query", "https://example.com/a?utm_source=x&gclid=y", "https://example.com/a"},
		{"sorts query keys", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.in, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// Idempotence: canonical input is a fixed point
			again, err := Canonicalize(got, false)
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestCanonicalizeRejects(t *testing.T) {
	for _, raw := range []string{
		"javascript:void(0)",
		"mailto:someone@example.com",
		"tel:+1234567890",
		"data:text/html,hello",
		"ftp://example.com/file",
		"",
		"   ",
	} {
		_, err := Canonicalize(raw, false)
		assert.Error(t, err, "expected rejection for %q", raw)
	}
}

func TestCanonicalizeStripQuery(t *testing.T) {
	got, err := Canonicalize("https://example.com/a?id=5&b=2", true)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got)
}

func TestScopePathFromFileRoot(t *testing.T) {
	scope := newTestScope(t, "https://example.com/docs/index.html")
	assert.Equal(t, "/docs", scope.ScopePath())
	assert.True(t, scope.Accept("https://example.com/docs/guide"))
	assert.False(t, scope.Accept("https://example.com/other"))
}

func TestScopeSegmentBoundary(t *testing.T) {
	scope := newTestScope(t, "https://example.com/blog")

	assert.True(t, scope.Accept("https://example.com/blog"))
	assert.True(t, scope.Accept("https://example.com/blog/post-1"))
	assert.False(t, scope.Accept("https://example.com/blogger"), "/blogger must not match /blog")
	assert.False(t, scope.Accept("https://example.com/blog-archive"))
}

func TestScopeHostMatch(t *testing.T) {
	scope := newTestScope(t, "https://example.com/docs")

	assert.False(t, scope.Accept("https://other.example.com/docs/page"))

	// www and the bare host canonicalize to the same form
	canonical, ok := scope.Admit("https://www.example.com/docs/page")
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/docs/page", canonical)
}

func TestScopeCrossScheme(t *testing.T) {
	scope := newTestScope(t, "https://example.com/docs")
	assert.True(t, scope.Accept("http://example.com/docs/page"))

	strict := newTestScope(t, "https://example.com/docs", func(cfg *common.CrawlerConfig) {
		cfg.AllowCrossScheme = false
	})
	assert.False(t, strict.Accept("http://example.com/docs/page"))
}

func TestScopeDenyPatterns(t *testing.T) {
	scope := newTestScope(t, "https://example.com/", func(cfg *common.CrawlerConfig) {
		cfg.DenyPatterns = []string{`/archive/`}
	})

	assert.False(t, scope.Accept("https://example.com/archive/2020"))
	// Case-insensitive match
	assert.False(t, scope.Accept("https://example.com/ARCHIVE/2020"))

	// Builtins apply without user patterns
	assert.False(t, scope.Accept("https://example.com/api/v1/users"))
	assert.False(t, scope.Accept("https://example.com/login"))
	assert.False(t, scope.Accept("https://example.com/manual.pdf"))
}

func TestScopeSkipExtensions(t *testing.T) {
	scope := newTestScope(t, "https://example.com/")

	for _, u := range []string{
		"https://example.com/logo.png",
		"https://example.com/app.js",
		"https://example.com/styles.css",
		"https://example.com/video.mp4",
	} {
		assert.False(t, scope.Accept(u), "expected %s to be rejected", u)
	}
	assert.True(t, scope.Accept("https://example.com/page.html"))
}

func TestAdmitSharesCanonicalForm(t *testing.T) {
	scope := newTestScope(t, "https://example.com/docs")

	a, okA := scope.Admit("https://example.com/docs/page/")
	b, okB := scope.Admit("https://EXAMPLE.com/docs/page#top")
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b, "equivalent URLs must dedup to one canonical form")
}
