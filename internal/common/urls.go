package common

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// pageExtensions are path suffixes that identify a file rather than a
// directory. A start URL ending in one of these scopes the crawl to its
// parent directory.
var pageExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".php":   true,
	".asp":   true,
	".aspx":  true,
	".jsp":   true,
	".cfm":   true,
	".shtml": true,
}

// HasPageExtension reports whether the last path segment names a page file
func HasPageExtension(urlPath string) bool {
	return pageExtensions[strings.ToLower(path.Ext(urlPath))]
}

// ResolveReference resolves ref against base with directory correction:
// a base path whose last segment carries no extension is treated as a
// directory, so "/docs/api" + "endpoint" yields "/docs/api/endpoint"
// rather than "/docs/endpoint".
func ResolveReference(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}

	if needsDirectoryCorrection(baseURL, refURL) {
		corrected := *baseURL
		corrected.Path = baseURL.Path + "/"
		baseURL = &corrected
	}

	return baseURL.ResolveReference(refURL).String(), nil
}

// needsDirectoryCorrection applies only to relative references resolved
// against an extension-less base path
func needsDirectoryCorrection(base, ref *url.URL) bool {
	if ref.IsAbs() || ref.Host != "" {
		return false
	}
	if strings.HasPrefix(ref.Path, "/") || ref.Path == "" {
		return false
	}
	if base.Path == "" || strings.HasSuffix(base.Path, "/") {
		return false
	}
	last := path.Base(base.Path)
	return !strings.Contains(last, ".")
}
