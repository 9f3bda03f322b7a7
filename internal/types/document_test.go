package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunkStableIDs(t *testing.T) {
	meta := ChunkMetadata{SourceID: "src/app.py", FilePath: "src/app.py", LineStart: 1, LineEnd: 10}

	a := NewChunk("def main():\n    pass\n", meta)
	b := NewChunk("def main():\n    pass\n", meta)
	assert.Equal(t, a.ID, b.ID, "identical input must produce identical IDs")
	assert.Len(t, a.ID, 16)
	assert.Equal(t, len(a.Content), a.Size)

	c := NewChunk("def main():\n    return 1\n", meta)
	assert.NotEqual(t, a.ID, c.ID, "different content, different ID")

	meta2 := meta
	meta2.LineStart = 5
	d := NewChunk("def main():\n    pass\n", meta2)
	assert.NotEqual(t, a.ID, d.ID, "same content at a different position is a different chunk")
}

func TestMergedMetadata(t *testing.T) {
	chunk := NewChunk("class Foo {}", ChunkMetadata{
		SourceID:      "lib/foo.cs",
		FilePath:      "lib/foo.cs",
		FileType:      "cs",
		ChunkType:     "class",
		Language:      "csharp",
		SymbolName:    "Foo",
		LineStart:     3,
		LineEnd:       3,
		ParsingMethod: "advanced_csharp",
	})
	chunk.DocMetadata = map[string]any{"repo": "demo", "chunk_type": "should-lose"}
	chunk.Index = 1
	chunk.TotalChunks = 4

	merged := chunk.MergedMetadata()
	assert.Equal(t, "class", merged["chunk_type"], "chunk fields win over document metadata")
	assert.Equal(t, "demo", merged["repo"])
	assert.Equal(t, "Foo", merged["symbol_name"])
	assert.Equal(t, 1, merged["chunk_index"])
	assert.Equal(t, 4, merged["total_chunks"])
	assert.Equal(t, 3, merged["line_start"])

	_, hasParent := merged["parent_symbol"]
	assert.False(t, hasParent, "empty optional fields stay out of the map")

	// The returned map is a copy.
	merged["language"] = "mutated"
	assert.Equal(t, "csharp", chunk.Metadata.Language)
}

func TestMergedMetadataOmitsUnknownLines(t *testing.T) {
	chunk := NewChunk("text", ChunkMetadata{SourceID: "a.txt", ChunkType: "text"})
	merged := chunk.MergedMetadata()
	_, ok := merged["line_start"]
	assert.False(t, ok)
}

func TestMetadataKeysSorted(t *testing.T) {
	chunk := NewChunk("x", ChunkMetadata{SourceID: "a.py", SymbolName: "x", LineStart: 1, LineEnd: 1})
	keys := chunk.MetadataKeys()
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1], keys[i], "keys must be sorted")
	}
}

func TestFinalizeChunks(t *testing.T) {
	chunks := []Chunk{
		NewChunk("a", ChunkMetadata{SourceID: "f", LineStart: 1, LineEnd: 1}),
		NewChunk("b", ChunkMetadata{SourceID: "f", LineStart: 2, LineEnd: 2}),
		NewChunk("c", ChunkMetadata{SourceID: "f", LineStart: 3, LineEnd: 3}),
	}
	finalized := FinalizeChunks(chunks)
	for i, c := range finalized {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, 3, c.TotalChunks)
	}

	assert.Empty(t, FinalizeChunks(nil))
}
