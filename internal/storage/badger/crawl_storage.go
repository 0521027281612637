package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// PageRecord wraps a crawled page with its run for querying
type PageRecord struct {
	ID      string `badgerhold:"key"`
	RunID   string `badgerholdIndex:"RunID"`
	Page    models.PageResult
	SavedAt time.Time
}

// DocumentRecord wraps a chunked document with its run
type DocumentRecord struct {
	ID      string `badgerhold:"key"`
	RunID   string `badgerholdIndex:"RunID"`
	Doc     models.RAGDocument
	SavedAt time.Time
}

// ResultRecord stores the final outcome of a run
type ResultRecord struct {
	RunID   string `badgerhold:"key"`
	Result  models.CrawlResult
	SavedAt time.Time
}

// CrawlStorage implements the CrawlStorage interface for Badger
type CrawlStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCrawlStorage creates a new CrawlStorage instance
func NewCrawlStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CrawlStorage {
	return &CrawlStorage{
		db:     db,
		logger: logger,
	}
}

func (s *CrawlStorage) SavePage(runID string, page *models.PageResult) error {
	if runID == "" {
		return fmt.Errorf("run ID is required")
	}
	record := &PageRecord{
		ID:      runID + "/" + common.DocumentID(page.URL),
		RunID:   runID,
		Page:    *page,
		SavedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

func (s *CrawlStorage) SaveDocument(runID string, doc *models.RAGDocument) error {
	if runID == "" {
		return fmt.Errorf("run ID is required")
	}
	record := &DocumentRecord{
		ID:      runID + "/" + doc.ID,
		RunID:   runID,
		Doc:     *doc,
		SavedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *CrawlStorage) SaveResult(result *models.CrawlResult) error {
	if result.RunID == "" {
		return fmt.Errorf("run ID is required")
	}
	record := &ResultRecord{
		RunID:   result.RunID,
		Result:  *result,
		SavedAt: time.Now(),
	}
	if err := s.db.Store().Upsert(record.RunID, record); err != nil {
		return fmt.Errorf("failed to save crawl result: %w", err)
	}
	return nil
}

func (s *CrawlStorage) GetResult(runID string) (*models.CrawlResult, error) {
	var record ResultRecord
	if err := s.db.Store().Get(runID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("crawl result not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get crawl result: %w", err)
	}
	return &record.Result, nil
}

func (s *CrawlStorage) ListPages(runID string) ([]*models.PageResult, error) {
	var records []PageRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("RunID").Eq(runID).Index("RunID")); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	pages := make([]*models.PageResult, len(records))
	for i := range records {
		pages[i] = &records[i].Page
	}
	return pages, nil
}

func (s *CrawlStorage) ListDocuments(runID string) ([]*models.RAGDocument, error) {
	var records []DocumentRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("RunID").Eq(runID).Index("RunID")); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	docs := make([]*models.RAGDocument, len(records))
	for i := range records {
		docs[i] = &records[i].Doc
	}
	return docs, nil
}

func (s *CrawlStorage) Close() error {
	return s.db.Close()
}
