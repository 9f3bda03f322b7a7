package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/types"
)

func TestFallbackChunker(t *testing.T) {
	t.Run("small document becomes one chunk", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 500, ChunkOverlap: 50})
		doc := types.NewDocument("notes.txt", "just a few lines\nof plain text\n")

		chunks, err := c.Chunk(doc)
		require.NoError(t, err)
		require.Len(t, chunks, 1)

		chunk := chunks[0]
		assert.Equal(t, "text", chunk.Metadata.ChunkType)
		assert.Equal(t, "fallback", chunk.Metadata.ParsingMethod)
		assert.Equal(t, "txt", chunk.Metadata.FileType)
		assert.Equal(t, 1, chunk.Metadata.LineStart)
		assert.Equal(t, 0, chunk.Index)
		assert.Equal(t, 1, chunk.TotalChunks)
	})

	t.Run("empty and whitespace-only input yields nothing", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 500, ChunkOverlap: 50})
		for _, content := range []string{"", "   \n\t\n  "} {
			chunks, err := c.Chunk(types.NewDocument("empty.txt", content))
			assert.NoError(t, err)
			assert.Empty(t, chunks)
		}
	})

	t.Run("splits on paragraph breaks first", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 120, ChunkOverlap: 10})
		paragraph := strings.Repeat("word ", 16) // 80 chars
		doc := types.NewDocument("doc.md", paragraph+"\n\n"+paragraph+"\n\n"+paragraph)

		chunks, err := c.Chunk(doc)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Content), 120)
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, 3, chunk.TotalChunks)
		}
		// Line positions advance across the paragraph gaps.
		assert.Equal(t, 1, chunks[0].Metadata.LineStart)
		assert.Greater(t, chunks[1].Metadata.LineStart, chunks[0].Metadata.LineStart)
		assert.Greater(t, chunks[2].Metadata.LineStart, chunks[1].Metadata.LineStart)
	})

	t.Run("descends to line splits when paragraphs stay oversized", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 100, ChunkOverlap: 10})
		// One giant paragraph with many short lines: no "\n\n" cut works.
		doc := types.NewDocument("big.txt", strings.Repeat("a line of text in a long run\n", 20))

		chunks, err := c.Chunk(doc)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Content), 100)
		}
	})

	t.Run("never fails on garbage", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 200, ChunkOverlap: 20})
		garbage := "\x00\x01\x02 %$@!~ \xff\xfe binary-ish \x00 payload"
		chunks, err := c.Chunk(types.NewDocument("blob.bin", garbage))
		assert.NoError(t, err)
		assert.NotEmpty(t, chunks)
	})

	t.Run("flags documentation-looking text", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 500, ChunkOverlap: 50})
		chunks, err := c.Chunk(types.NewDocument("readme.txt", "## Heading\nSome prose."))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.True(t, chunks[0].Metadata.ContainsDocumentation)
	})

	t.Run("language tag follows the extension", func(t *testing.T) {
		c := NewFallbackChunker(config.Sizing{MaxChunkSize: 500, ChunkOverlap: 50})
		chunks, err := c.Chunk(types.NewDocument("script.py", "print(1)\n"))
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "python", chunks[0].Metadata.Language)
	})
}
