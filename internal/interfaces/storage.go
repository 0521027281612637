package interfaces

import (
	"github.com/ternarybob/colligo/internal/models"
)

// CrawlStorage persists crawl output keyed by run ID
type CrawlStorage interface {
	SavePage(runID string, page *models.PageResult) error
	SaveDocument(runID string, doc *models.RAGDocument) error
	SaveResult(result *models.CrawlResult) error

	GetResult(runID string) (*models.CrawlResult, error)
	ListPages(runID string) ([]*models.PageResult, error)
	ListDocuments(runID string) ([]*models.RAGDocument, error)

	Close() error
}
