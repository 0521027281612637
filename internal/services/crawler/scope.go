package crawler

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
)

// builtinDenyPatterns reject URL families that are never worth crawling:
// auth pages, API endpoints, archives and localized mirrors of the same
// content. User patterns from config are appended to these.
var builtinDenyPatterns = []string{
	`/api/`,
	`/(login|logout|signin|signout|signup|register)([/?]|$)`,
	`\.(zip|tar|gz|tgz|rar|7z|pdf)$`,
	`/(zh-cn|zh-tw|zh-hans|zh-hant|ja-jp|ko-kr|fr-fr|de-de|es-es|pt-br|ru-ru|it-it)(/|$)`,
}

// skipExtensions are binary or asset suffixes that can never yield
// crawlable content
var skipExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".svg": true, ".ico": true, ".bmp": true,
	".css": true, ".js": true, ".mjs": true, ".map": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".webm": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".exe": true, ".dmg": true, ".iso": true, ".bin": true,
	".xml": true, ".rss": true, ".atom": true,
}

// trackingParams are query keys dropped during canonicalization regardless
// of the strip_query setting
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true,
	"gclid": true, "fbclid": true, "msclkid": true,
	"mc_cid": true, "mc_eid": true, "igshid": true, "ref_src": true,
}

// rejectedSchemes never admit, silently
var rejectedSchemes = map[string]bool{
	"javascript": true,
	"mailto":     true,
	"tel":        true,
	"data":       true,
	"ftp":        true,
	"file":       true,
	"about":      true,
	"blob":       true,
}

// ScopeFilter decides which discovered URLs belong to the crawl. The scope
// is the subtree under the start URL's directory on the start URL's host.
type ScopeFilter struct {
	host             string
	scheme           string
	scopePath        string // No trailing slash; "" means the whole host
	allowCrossScheme bool
	stripQuery       bool
	denyPatterns     []*regexp.Regexp
	logger           arbor.ILogger
}

// NewScopeFilter builds a filter rooted at startURL. When the start URL's
// last path segment is a page file (index.html and friends), the scope is
// its parent directory.
func NewScopeFilter(startURL string, cfg *common.CrawlerConfig, logger arbor.ILogger) (*ScopeFilter, error) {
	canonical, err := Canonicalize(startURL, cfg.StripQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	u, err := url.Parse(canonical)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	scopePath := u.Path
	if common.HasPageExtension(scopePath) {
		scopePath = path.Dir(scopePath)
	}
	if scopePath == "/" || scopePath == "." {
		scopePath = ""
	}
	scopePath = strings.TrimSuffix(scopePath, "/")

	patterns := make([]*regexp.Regexp, 0, len(builtinDenyPatterns)+len(cfg.DenyPatterns))
	for _, p := range append(append([]string{}, builtinDenyPatterns...), cfg.DenyPatterns...) {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid deny pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	logger.Debug().
		Str("host", u.Host).
		Str("scope_path", scopePath).
		Int("deny_patterns", len(patterns)).
		Msg("Scope filter initialized")

	return &ScopeFilter{
		host:             u.Host,
		scheme:           u.Scheme,
		scopePath:        scopePath,
		allowCrossScheme: cfg.AllowCrossScheme,
		stripQuery:       cfg.StripQuery,
		denyPatterns:     patterns,
		logger:           logger,
	}, nil
}

// Host returns the scope host
func (f *ScopeFilter) Host() string { return f.host }

// ScopePath returns the path prefix that bounds the crawl, without a
// trailing slash. Empty means the whole host is in scope.
func (f *ScopeFilter) ScopePath() string { return f.scopePath }

// Canonicalize reduces a URL to its canonical form: lowercase scheme and
// host, no www prefix, no default port, no fragment, dot segments resolved,
// unreserved percent-escapes decoded, tracking params removed, remaining
// query keys sorted, trailing slash trimmed except at the root.
// Canonicalize(Canonicalize(x)) == Canonicalize(x).
func Canonicalize(raw string, stripQuery bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable URL %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if rejectedSchemes[scheme] {
		return "", fmt.Errorf("unsupported scheme %q", scheme)
	}
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("not an http(s) URL: %q", raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host = host + ":" + port
		}
	}

	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	p = cleanPath(p)
	p = decodeUnreserved(p)
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}

	query := canonicalQuery(u.Query(), stripQuery)

	canonical := scheme + "://" + host + p
	if query != "" {
		canonical += "?" + query
	}
	return canonical, nil
}

// cleanPath resolves "." and ".." segments while keeping a trailing slash
// distinction out of the result (the caller trims it anyway)
func cleanPath(p string) string {
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "/"
	}
	return cleaned
}

// decodeUnreserved decodes percent-escapes of RFC 3986 unreserved
// characters (ALPHA / DIGIT / "-" / "." / "_" / "~") and uppercases the
// hex digits of everything else, so equivalent encodings compare equal
func decodeUnreserved(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		if p[i] != '%' || i+2 >= len(p) {
			b.WriteByte(p[i])
			continue
		}
		hi, ok1 := unhex(p[i+1])
		lo, ok2 := unhex(p[i+2])
		if !ok1 || !ok2 {
			b.WriteByte(p[i])
			continue
		}
		c := hi<<4 | lo
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(upperHex(p[i+1]))
			b.WriteByte(upperHex(p[i+2]))
		}
		i += 2
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func upperHex(c byte) byte {
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 'A'
	}
	return c
}

func isUnreserved(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' ||
		c == '-' || c == '.' || c == '_' || c == '~'
}

// canonicalQuery drops tracking params, optionally all params, and sorts
// the remainder by key for a stable form
func canonicalQuery(values url.Values, stripAll bool) string {
	if stripAll || len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		lower := strings.ToLower(k)
		if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			if v == "" {
				parts = append(parts, url.QueryEscape(k))
			} else {
				parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
	}
	return strings.Join(parts, "&")
}

// Admit canonicalizes a discovered URL and reports whether it is in scope.
// Admission and deduplication share the returned canonical form.
func (f *ScopeFilter) Admit(raw string) (string, bool) {
	canonical, err := Canonicalize(raw, f.stripQuery)
	if err != nil {
		return "", false
	}
	if !f.Accept(canonical) {
		return canonical, false
	}
	return canonical, true
}

// Accept reports whether an already-canonical URL is in scope
func (f *ScopeFilter) Accept(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return false
	}

	if u.Host != f.host {
		return false
	}
	if !f.allowCrossScheme && u.Scheme != f.scheme {
		return false
	}

	if skipExtensions[strings.ToLower(path.Ext(u.Path))] {
		return false
	}

	// Segment-boundary prefix: /blog admits /blog and /blog/..., never /blogger
	if f.scopePath != "" {
		if u.Path != f.scopePath && !strings.HasPrefix(u.Path, f.scopePath+"/") {
			return false
		}
	}

	for _, re := range f.denyPatterns {
		if re.MatchString(canonical) {
			return false
		}
	}

	return true
}
