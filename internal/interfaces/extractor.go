package interfaces

import (
	"github.com/ternarybob/colligo/internal/models"
)

// Extractor turns rendered HTML into structured page content
type Extractor interface {
	// Extract parses html fetched from pageURL. Relative links are
	// resolved against pageURL and returned absolute.
	Extract(pageURL string, html string) (*models.PageContent, error)
}
