package pipeline

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// wordsSeq returns n distinct numbered words so reconstruction checks
// cannot pass by accident
func wordsSeq(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func textSection(title string, texts ...string) section {
	sec := section{Title: title, HeadingPath: []string{title}}
	for _, t := range texts {
		sec.Units = append(sec.Units, models.ContentUnit{Type: models.UnitTypeText, Text: t})
	}
	return sec
}

func defaultChunker() *Chunker {
	return NewChunker(&common.PipelineConfig{
		TargetChunkWords: 400,
		MaxChunkWords:    600,
		OverlapWords:     40,
	})
}

func TestShortRunSingleChunk(t *testing.T) {
	drafts := defaultChunker().Chunk([]section{textSection("Intro", wordsSeq(120))})

	require.Len(t, drafts, 1)
	assert.Equal(t, models.ChunkTypeText, drafts[0].Type)
	assert.Equal(t, 120, drafts[0].WordCount)
	assert.Zero(t, drafts[0].OverlapWords)
	assert.Equal(t, "Intro", drafts[0].SectionTitle)
}

func TestLongRunSplitsAtTarget(t *testing.T) {
	drafts := defaultChunker().Chunk([]section{textSection("Body", wordsSeq(1000))})

	require.Len(t, drafts, 3)

	// 400 + (40 overlap + 400) + (40 overlap + 200)
	assert.Equal(t, 400, drafts[0].WordCount)
	assert.Zero(t, drafts[0].OverlapWords)
	assert.Equal(t, 440, drafts[1].WordCount)
	assert.Equal(t, 40, drafts[1].OverlapWords)
	assert.Equal(t, 240, drafts[2].WordCount)
	assert.Equal(t, 40, drafts[2].OverlapWords)
}

func TestChunksNeverExceedMax(t *testing.T) {
	c := defaultChunker()
	for _, n := range []int{1, 399, 400, 401, 600, 601, 999, 1000, 5000} {
		for _, d := range c.Chunk([]section{textSection("S", wordsSeq(n))}) {
			assert.LessOrEqual(t, d.WordCount, 600, "chunk exceeded max for run of %d words", n)
		}
	}
}

func TestOverlapIsExactTailOfPreviousChunk(t *testing.T) {
	drafts := defaultChunker().Chunk([]section{textSection("Body", wordsSeq(900))})
	require.Greater(t, len(drafts), 1)

	for i := 1; i < len(drafts); i++ {
		prev := strings.Fields(drafts[i-1].Text)
		cur := strings.Fields(drafts[i].Text)
		n := drafts[i].OverlapWords
		require.Equal(t, 40, n)
		assert.Equal(t, prev[len(prev)-n:], cur[:n],
			"chunk %d must open with the previous chunk's tail", i)
	}
}

func TestRoundTripReconstruction(t *testing.T) {
	original := wordsSeq(1537)
	drafts := defaultChunker().Chunk([]section{textSection("Body", original)})

	var rebuilt []string
	for _, d := range drafts {
		words := strings.Fields(d.Text)
		rebuilt = append(rebuilt, words[d.OverlapWords:]...)
	}
	assert.Equal(t, original, strings.Join(rebuilt, " "),
		"dropping each chunk's leading overlap must reconstruct the run exactly")
}

func TestRemainderStaysWithFinalChunk(t *testing.T) {
	// 450 words fit within max (600), so a single oversized-by-target
	// chunk is preferred over a tiny trailing one
	drafts := defaultChunker().Chunk([]section{textSection("Body", wordsSeq(450))})

	require.Len(t, drafts, 1)
	assert.Equal(t, 450, drafts[0].WordCount)
}

func TestTableAndCodeAreStandaloneChunks(t *testing.T) {
	tableText := "| a | b |\n| 1 | 2 |"
	codeText := "func main() {\n\tfmt.Println(\"hi\")\n}"

	sec := section{
		Title:       "Reference",
		HeadingPath: []string{"Reference"},
		Units: []models.ContentUnit{
			{Type: models.UnitTypeText, Text: wordsSeq(50)},
			{Type: models.UnitTypeTable, Text: tableText},
			{Type: models.UnitTypeText, Text: wordsSeq(30)},
			{Type: models.UnitTypeCode, Text: codeText},
		},
	}

	drafts := defaultChunker().Chunk([]section{sec})
	require.Len(t, drafts, 4)

	assert.Equal(t, models.ChunkTypeText, drafts[0].Type)
	assert.Equal(t, models.ChunkTypeTable, drafts[1].Type)
	assert.Equal(t, tableText, drafts[1].Text, "table layout must be preserved verbatim")
	assert.Equal(t, models.ChunkTypeText, drafts[2].Type)
	assert.Equal(t, models.ChunkTypeCode, drafts[3].Type)
	assert.Equal(t, codeText, drafts[3].Text)

	// Overlap never crosses a table or code boundary
	assert.Zero(t, drafts[2].OverlapWords)
}

func TestRunsDoNotCrossSections(t *testing.T) {
	drafts := defaultChunker().Chunk([]section{
		textSection("First", wordsSeq(30)),
		textSection("Second", wordsSeq(30)),
	})

	require.Len(t, drafts, 2)
	assert.Equal(t, "First", drafts[0].SectionTitle)
	assert.Equal(t, "Second", drafts[1].SectionTitle)
	assert.Zero(t, drafts[1].OverlapWords, "overlap must not leak across sections")
}

func TestEmptySectionsYieldNothing(t *testing.T) {
	drafts := defaultChunker().Chunk([]section{
		{Title: "Empty"},
	})
	assert.Empty(t, drafts)
}
