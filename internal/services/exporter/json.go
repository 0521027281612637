package exporter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// ForFormat returns the exporter for a configured format name
func ForFormat(format string, logger arbor.ILogger) (interfaces.Exporter, error) {
	switch format {
	case "json":
		return &JSONExporter{logger: logger}, nil
	case "jsonl":
		return &JSONLExporter{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// JSONExporter writes the whole corpus as one indented JSON document
type JSONExporter struct {
	logger arbor.ILogger
}

// Export implements interfaces.Exporter
func (e *JSONExporter) Export(corpus *models.RAGCorpus, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(corpus, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.Info().
		Str("path", path).
		Int("documents", corpus.Stats.Documents).
		Int("bytes", len(data)).
		Msg("Corpus exported")
	return nil
}

// JSONLExporter writes one JSON line per chunk, each carrying its
// document context. This is the shape most retrieval loaders ingest.
type JSONLExporter struct {
	logger arbor.ILogger
}

// chunkLine is the flattened per-chunk record
type chunkLine struct {
	models.RAGChunk
	URL    string `json:"url"`
	Title  string `json:"title"`
	Domain string `json:"domain"`
	RunID  string `json:"run_id"`
}

// Export implements interfaces.Exporter
func (e *JSONLExporter) Export(corpus *models.RAGCorpus, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)

	lines := 0
	for _, doc := range corpus.Documents {
		for _, chunk := range doc.Chunks {
			line := chunkLine{
				RAGChunk: chunk,
				URL:      doc.URL,
				Title:    doc.Title,
				Domain:   doc.Domain,
				RunID:    corpus.RunID,
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("failed to encode chunk %s: %w", chunk.ID, err)
			}
			lines++
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	e.logger.Info().
		Str("path", path).
		Int("chunks", lines).
		Msg("Corpus exported")
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}
	return nil
}
