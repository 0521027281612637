package models

import "time"

// ChunkType classifies a retrieval chunk
type ChunkType string

const (
	ChunkTypeText  ChunkType = "text"
	ChunkTypeTable ChunkType = "table"
	ChunkTypeCode  ChunkType = "code"
)

// RAGChunk is one bounded, retrieval-ready piece of a document
type RAGChunk struct {
	ID            string    `json:"id"`     // <doc_id>_<ordinal>
	DocID         string    `json:"doc_id"` // sha256(url) prefix
	Index         int       `json:"index"`  // Ordinal within the document
	Type          ChunkType `json:"type"`
	Text          string    `json:"text"`
	WordCount     int       `json:"word_count"`
	OverlapWords  int       `json:"overlap_words"` // Leading words repeated from the previous chunk
	TokenEstimate int       `json:"token_estimate"`
	SectionTitle  string    `json:"section_title,omitempty"`
	HeadingPath   []string  `json:"heading_path,omitempty"`
	Breadcrumb    string    `json:"breadcrumb,omitempty"`
}

// RAGDocument is the chunked form of one crawled page
type RAGDocument struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Domain      string     `json:"domain"`
	Depth       int        `json:"depth"`
	SectionPath []string   `json:"section_path,omitempty"`
	WordCount   int        `json:"word_count"`
	Chunks      []RAGChunk `json:"chunks"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// CorpusStats aggregates counts across a corpus
type CorpusStats struct {
	Documents     int     `json:"documents"`
	Chunks        int     `json:"chunks"`
	Words         int     `json:"words"`
	TokenEstimate int     `json:"token_estimate"`
	AvgChunkWords float64 `json:"avg_chunk_words"`
	MaxChunkWords int     `json:"max_chunk_words"`
}

// RAGCorpus is the final output of a crawl run: every crawled page chunked
// for retrieval, in crawl production order
type RAGCorpus struct {
	RunID     string         `json:"run_id"`
	SourceURL string         `json:"source_url"`
	CreatedAt time.Time      `json:"created_at"`
	Documents []*RAGDocument `json:"documents"`
	Stats     CorpusStats    `json:"stats"`
}
