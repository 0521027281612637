package pipeline

import (
	"strings"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// chunkDraft is a chunk before document-level enrichment
type chunkDraft struct {
	Type         models.ChunkType
	Text         string
	WordCount    int
	OverlapWords int
	SectionTitle string
	HeadingPath  []string
}

// Chunker splits sectioned content into bounded chunks. Text accumulates
// toward the target word count and never exceeds the maximum; consecutive
// text chunks within one run share a leading overlap. Tables and code
// blocks are emitted verbatim as standalone chunks, and overlap never
// crosses their boundaries: dropping each chunk's leading overlap words
// and concatenating reconstructs the section text exactly.
type Chunker struct {
	target  int
	max     int
	overlap int
}

// NewChunker creates a chunker from pipeline settings
func NewChunker(cfg *common.PipelineConfig) *Chunker {
	return &Chunker{
		target:  cfg.TargetChunkWords,
		max:     cfg.MaxChunkWords,
		overlap: cfg.OverlapWords,
	}
}

// Chunk converts sections into drafts in document order
func (c *Chunker) Chunk(sections []section) []chunkDraft {
	var drafts []chunkDraft

	for i := range sections {
		sec := &sections[i]
		var run []string

		flushRun := func() {
			if len(run) > 0 {
				drafts = append(drafts, c.emitRun(run, sec)...)
				run = nil
			}
		}

		for _, unit := range sec.Units {
			switch unit.Type {
			case models.UnitTypeText:
				run = append(run, strings.Fields(unit.Text)...)
			case models.UnitTypeTable, models.UnitTypeCode:
				flushRun()
				drafts = append(drafts, chunkDraft{
					Type:         chunkType(unit.Type),
					Text:         unit.Text,
					WordCount:    WordCount(unit.Text),
					SectionTitle: sec.Title,
					HeadingPath:  sec.HeadingPath,
				})
			}
		}
		flushRun()
	}

	return drafts
}

// emitRun slices one uninterrupted text run into chunks. Every word of
// the run appears in exactly one chunk body; overlap words are repeated
// at the head of the following chunk and counted in OverlapWords.
func (c *Chunker) emitRun(words []string, sec *section) []chunkDraft {
	var drafts []chunkDraft
	var prevTail []string

	start := 0
	for start < len(words) {
		overlap := prevTail
		budget := c.max - len(overlap)

		take := c.target
		if len(words)-start <= budget {
			take = len(words) - start
		} else if take > budget {
			take = budget
		}

		body := words[start : start+take]
		chunkWords := make([]string, 0, len(overlap)+len(body))
		chunkWords = append(chunkWords, overlap...)
		chunkWords = append(chunkWords, body...)

		drafts = append(drafts, chunkDraft{
			Type:         models.ChunkTypeText,
			Text:         strings.Join(chunkWords, " "),
			WordCount:    len(chunkWords),
			OverlapWords: len(overlap),
			SectionTitle: sec.Title,
			HeadingPath:  sec.HeadingPath,
		})

		prevTail = tailWords(chunkWords, c.overlap)
		start += take
	}

	return drafts
}

// tailWords returns the last n words, or all of them when fewer exist
func tailWords(words []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if len(words) <= n {
		return append([]string(nil), words...)
	}
	return append([]string(nil), words[len(words)-n:]...)
}

func chunkType(t models.UnitType) models.ChunkType {
	if t == models.UnitTypeCode {
		return models.ChunkTypeCode
	}
	return models.ChunkTypeTable
}
