package prepare

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_ShortContentIsSingleChunk(t *testing.T) {
	content := strings.Repeat("x", 100)
	chunks := Chunk(content)
	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0])
}

func TestChunk_ExactlyMaxSizeIsSingleChunk(t *testing.T) {
	content := strings.Repeat("x", maxSingleChunkSize)
	chunks := Chunk(content)
	require.Len(t, chunks, 1)
}

func TestChunk_LongContentSplitsWithOverlap(t *testing.T) {
	// Long plain-text run with no preferred break characters anywhere,
	// so every cut falls back to the raw target/overlap arithmetic.
	content := strings.Repeat("x", maxSingleChunkSize+1000)
	chunks := Chunk(content)
	require.Greater(t, len(chunks), 1)

	// Reassembling the chunks (respecting overlap) must reproduce the
	// original content exactly — no gaps, no duplication beyond overlap.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[chunkOverlap:])
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestChunk_PrefersParagraphBreak(t *testing.T) {
	// Build content where a "\n\n" sits inside the back-shift window so
	// the cut lands right after it instead of at the raw target offset.
	first := strings.Repeat("a", 3500) + "\n\n" + strings.Repeat("b", 100)
	content := first + strings.Repeat("c", maxSingleChunkSize)
	chunks := Chunk(content)
	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasSuffix(chunks[0], "\n\n"))
}

func TestContentHash_Deterministic(t *testing.T) {
	h1 := ContentHash("hello")
	h2 := ContentHash("hello")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

func TestContentHash_DiffersOnContent(t *testing.T) {
	assert.NotEqual(t, ContentHash("hello"), ContentHash("world"))
}
