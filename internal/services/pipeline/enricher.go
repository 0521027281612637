package pipeline

import (
	"net/url"
	"strings"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// tokensPerWord approximates the token count of English prose
const tokensPerWord = 1.3

// buildDocument enriches a page's chunk drafts into a retrieval-ready
// document: stable IDs, breadcrumbs and token estimates
func buildDocument(page *models.PageResult, drafts []chunkDraft) *models.RAGDocument {
	docID := common.DocumentID(page.URL)

	chunks := make([]models.RAGChunk, 0, len(drafts))
	totalWords := 0
	for i, draft := range drafts {
		chunks = append(chunks, models.RAGChunk{
			ID:            common.ChunkID(docID, i),
			DocID:         docID,
			Index:         i,
			Type:          draft.Type,
			Text:          draft.Text,
			WordCount:     draft.WordCount,
			OverlapWords:  draft.OverlapWords,
			TokenEstimate: estimateTokens(draft.WordCount),
			SectionTitle:  draft.SectionTitle,
			HeadingPath:   draft.HeadingPath,
			Breadcrumb:    breadcrumb(page.Title, draft.HeadingPath),
		})
		totalWords += draft.WordCount - draft.OverlapWords
	}

	return &models.RAGDocument{
		ID:          docID,
		URL:         page.URL,
		Title:       page.Title,
		Domain:      domainOf(page.URL),
		Depth:       page.Depth,
		SectionPath: page.SectionPath,
		WordCount:   totalWords,
		Chunks:      chunks,
		FetchedAt:   page.FetchedAt,
	}
}

// estimateTokens converts a word count to an approximate token count
func estimateTokens(words int) int {
	return int(float64(words) * tokensPerWord)
}

// breadcrumb renders the page title and heading path as a single
// navigable string
func breadcrumb(title string, headingPath []string) string {
	parts := make([]string, 0, len(headingPath)+1)
	if title != "" {
		parts = append(parts, title)
	}
	for _, h := range headingPath {
		if h != "" && h != title {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, " > ")
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
