package types

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Document is one source file handed to the chunking core: raw text plus
// whatever metadata the ingestion side attached. The core never mutates it.
type Document struct {
	SourceID string // stable identifier, usually the file path or a content hash
	FilePath string
	Content  string
	Metadata map[string]any
}

// NewDocument builds a document with a derived source id when none is known.
func NewDocument(filePath, content string) Document {
	return Document{
		SourceID: filePath,
		FilePath: filePath,
		Content:  content,
	}
}

// ChunkMetadata describes where a chunk came from and what it holds.
type ChunkMetadata struct {
	SourceID              string
	FilePath              string
	FileType              string
	ChunkType             string
	Language              string
	SymbolName            string
	ParentSymbol          string
	LineStart             int // 1-based, 0 when unknown
	LineEnd               int
	ContainsDocumentation bool

	// ParsingMethod names the tier that produced the chunk
	// ("advanced_csharp", "gofast_javascript", "fallback", ...).
	ParsingMethod string

	// Extra carries free-form facts: symbol counts, generics/decorator
	// flags, element type lists.
	Extra map[string]any
}

// SetExtra records a free-form metadata fact.
func (m *ChunkMetadata) SetExtra(key string, value any) {
	if m.Extra == nil {
		m.Extra = make(map[string]any)
	}
	m.Extra[key] = value
}

// Chunk is the final output unit: a bounded slice of source text with the
// union of the document's metadata and the chunk's own. Chunks are created
// once per chunking pass and are immutable afterwards.
type Chunk struct {
	ID          string
	Content     string
	Metadata    ChunkMetadata
	DocMetadata map[string]any // copied from the input document

	Index       int // position within the file's chunk sequence
	TotalChunks int
	Size        int // len(Content)
}

// NewChunk stamps a chunk with its content-derived fields. Index and
// TotalChunks are filled by the chunker once the full sequence is known.
func NewChunk(content string, meta ChunkMetadata) Chunk {
	return Chunk{
		ID:       chunkID(meta.SourceID, meta.LineStart, meta.LineEnd, content),
		Content:  content,
		Metadata: meta,
		Size:     len(content),
	}
}

// chunkID derives a stable identifier from the chunk's origin and content.
// Two chunking passes over identical input produce identical IDs.
func chunkID(sourceID string, lineStart, lineEnd int, content string) string {
	h := xxhash.New()
	_, _ = h.WriteString(sourceID)
	_, _ = h.WriteString(fmt.Sprintf(":%d:%d:", lineStart, lineEnd))
	_, _ = h.WriteString(content)
	return fmt.Sprintf("%016x", h.Sum64())
}

// MergedMetadata returns the document metadata unioned with the chunk
// metadata fields, chunk fields winning on key collisions. The map is
// freshly allocated; mutating it does not affect the chunk.
func (c *Chunk) MergedMetadata() map[string]any {
	merged := make(map[string]any, len(c.DocMetadata)+16)
	for k, v := range c.DocMetadata {
		merged[k] = v
	}
	merged["source_id"] = c.Metadata.SourceID
	merged["file_path"] = c.Metadata.FilePath
	merged["file_type"] = c.Metadata.FileType
	merged["chunk_type"] = c.Metadata.ChunkType
	merged["language"] = c.Metadata.Language
	merged["parsing_method"] = c.Metadata.ParsingMethod
	merged["contains_documentation"] = c.Metadata.ContainsDocumentation
	merged["chunk_index"] = c.Index
	merged["total_chunks"] = c.TotalChunks
	merged["chunk_size"] = c.Size
	if c.Metadata.SymbolName != "" {
		merged["symbol_name"] = c.Metadata.SymbolName
	}
	if c.Metadata.ParentSymbol != "" {
		merged["parent_symbol"] = c.Metadata.ParentSymbol
	}
	if c.Metadata.LineStart > 0 {
		merged["line_start"] = c.Metadata.LineStart
		merged["line_end"] = c.Metadata.LineEnd
	}
	for k, v := range c.Metadata.Extra {
		merged[k] = v
	}
	return merged
}

// MetadataKeys returns the merged metadata keys in sorted order.
// Deterministic output keeps batch logs and tests stable.
func (c *Chunk) MetadataKeys() []string {
	merged := c.MergedMetadata()
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FinalizeChunks stamps chunk_index/total_chunks across one file's output.
// Chunk order within a file is source order and must stay stable.
func FinalizeChunks(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}
