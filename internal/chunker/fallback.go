package chunker

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/parser"
	"github.com/standardbeagle/codechunk/internal/types"
)

// FallbackChunker is the terminal tier: language-agnostic text splitting
// along a prioritized separator ladder. It accepts any input and never
// fails; empty input yields an empty list.
type FallbackChunker struct {
	BaseChunker
}

// separators is the split preference order: paragraph break, line break,
// word break, then raw characters.
var separators = []string{"\n\n", "\n", " ", ""}

// NewFallbackChunker builds the terminal tier with the given budget.
func NewFallbackChunker(sizing config.Sizing) *FallbackChunker {
	return &FallbackChunker{BaseChunker: NewBaseChunker(sizing)}
}

// Name identifies the strategy.
func (c *FallbackChunker) Name() string {
	return "fallback"
}

// Chunk splits the document text under the size/overlap budget. The
// language tag is guessed purely from the file extension.
func (c *FallbackChunker) Chunk(doc types.Document) ([]types.Chunk, error) {
	content, _ := c.CleanContent(doc.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	debug.LogChunk("fallback chunking %s (%d bytes)\n", doc.FilePath, len(content))

	language := parser.LanguageFromExtension(filepath.Ext(doc.FilePath))
	pieces := c.splitRecursive(content, separators)

	chunks := make([]types.Chunk, 0, len(pieces))
	line := 1
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			line += countNewlines(piece)
			continue
		}
		meta := types.ChunkMetadata{
			SourceID:              doc.SourceID,
			FilePath:              doc.FilePath,
			FileType:              fileType(doc.FilePath),
			ChunkType:             "text",
			Language:              language,
			LineStart:             line,
			LineEnd:               line + countNewlines(piece),
			ContainsDocumentation: looksLikeDocumentation(piece),
			ParsingMethod:         "fallback",
		}
		chunks = append(chunks, newDocChunk(piece, doc, meta))
		line += countNewlines(piece)
	}
	return types.FinalizeChunks(chunks), nil
}

// splitRecursive splits text on the first separator that produces pieces
// within budget, descending the ladder for pieces that stay oversized.
func (c *FallbackChunker) splitRecursive(text string, ladder []string) []string {
	if len(text) <= c.MaxChunkSize {
		return []string{text}
	}
	if len(ladder) == 0 {
		var out []string
		for _, piece := range c.SplitOversized(text) {
			out = append(out, piece.text)
		}
		return out
	}

	separator := ladder[0]
	if separator == "" {
		var out []string
		for _, piece := range c.SplitOversized(text) {
			out = append(out, piece.text)
		}
		return out
	}

	parts := strings.Split(text, separator)
	if len(parts) == 1 {
		return c.splitRecursive(text, ladder[1:])
	}

	var out []string
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, buf.String())
			buf.Reset()
		}
	}
	for _, part := range parts {
		segment := part + separator
		if buf.Len()+len(segment) > c.MaxChunkSize {
			flush()
		}
		if len(segment) > c.MaxChunkSize {
			out = append(out, c.splitRecursive(part, ladder[1:])...)
			continue
		}
		buf.WriteString(segment)
	}
	flush()

	// Strip the trailing separator appended to the final piece.
	if n := len(out); n > 0 {
		out[n-1] = strings.TrimSuffix(out[n-1], separator)
	}
	return out
}
