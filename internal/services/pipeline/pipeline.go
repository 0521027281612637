package pipeline

import (
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// Service transforms crawled pages into a retrieval corpus:
// clean -> section -> chunk -> enrich, preserving crawl production order
type Service struct {
	chunker *Chunker
	logger  arbor.ILogger
}

// NewService creates the content pipeline
func NewService(cfg *common.PipelineConfig, logger arbor.ILogger) *Service {
	return &Service{
		chunker: NewChunker(cfg),
		logger:  logger,
	}
}

// Process chunks every page of a crawl run into a corpus. Pages that
// yield no chunks are dropped.
func (s *Service) Process(runID, sourceURL string, pages []*models.PageResult) *models.RAGCorpus {
	corpus := &models.RAGCorpus{
		RunID:     runID,
		SourceURL: sourceURL,
		CreatedAt: time.Now(),
	}

	for _, page := range pages {
		doc := s.ProcessPage(page)
		if doc == nil {
			continue
		}
		corpus.Documents = append(corpus.Documents, doc)
	}

	corpus.Stats = computeStats(corpus.Documents)

	s.logger.Info().
		Str("run_id", runID).
		Int("documents", corpus.Stats.Documents).
		Int("chunks", corpus.Stats.Chunks).
		Int("words", corpus.Stats.Words).
		Msg("Corpus built")

	return corpus
}

// ProcessPage chunks a single page, returning nil when it has no content
func (s *Service) ProcessPage(page *models.PageResult) *models.RAGDocument {
	sections := Sectionize(page.Title, page.Units)
	drafts := s.chunker.Chunk(sections)
	if len(drafts) == 0 {
		s.logger.Debug().Str("url", page.URL).Msg("Page produced no chunks, dropped from corpus")
		return nil
	}
	return buildDocument(page, drafts)
}

func computeStats(docs []*models.RAGDocument) models.CorpusStats {
	stats := models.CorpusStats{Documents: len(docs)}

	chunkWords := 0
	for _, doc := range docs {
		stats.Chunks += len(doc.Chunks)
		stats.Words += doc.WordCount
		for _, chunk := range doc.Chunks {
			chunkWords += chunk.WordCount
			stats.TokenEstimate += chunk.TokenEstimate
			if chunk.WordCount > stats.MaxChunkWords {
				stats.MaxChunkWords = chunk.WordCount
			}
		}
	}
	if stats.Chunks > 0 {
		stats.AvgChunkWords = float64(chunkWords) / float64(stats.Chunks)
	}
	return stats
}
