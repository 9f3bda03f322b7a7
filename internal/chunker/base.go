// Package chunker turns parsed source files into retrieval-sized chunks.
// Each language chunker sits on a tier chain: grammar-based extraction
// first, a degraded language-specific parser second, and the generic text
// splitter last. Escalation down the chain is silent; callers only see a
// different parsing method tag in the chunk metadata.
package chunker

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/types"
)

// Chunker is one strategy for splitting a document.
type Chunker interface {
	// Chunk splits the document. Implementations never fail on malformed
	// source; errors are reserved for genuinely unusable inputs.
	Chunk(doc types.Document) ([]types.Chunk, error)
	// Name identifies the strategy in logs and metadata.
	Name() string
}

// BaseChunker carries the size and overlap budget plus the text primitives
// every concrete chunker shares.
type BaseChunker struct {
	MaxChunkSize int
	ChunkOverlap int
}

// NewBaseChunker builds the shared policy, applying defaults for
// non-positive values.
func NewBaseChunker(sizing config.Sizing) BaseChunker {
	b := BaseChunker{MaxChunkSize: sizing.MaxChunkSize, ChunkOverlap: sizing.ChunkOverlap}
	if b.MaxChunkSize <= 0 {
		b.MaxChunkSize = config.DefaultMaxChunkSize
	}
	if b.ChunkOverlap < 0 || b.ChunkOverlap >= b.MaxChunkSize {
		b.ChunkOverlap = config.DefaultChunkOverlap
	}
	return b
}

// CleanContent removes NUL bytes, normalizes line endings to \n, and
// right-trims each line. A warning string comes back non-empty when
// normalization discarded more than 20% of the input, which usually means
// binary or corrupt content.
func (b *BaseChunker) CleanContent(content string) (string, string) {
	original := len(content)
	content = strings.ReplaceAll(content, "\x00", "")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	cleaned := strings.Join(lines, "\n")

	warning := ""
	if original > 0 {
		lost := original - len(cleaned)
		if lost*5 > original {
			warning = fmt.Sprintf("content cleaning discarded %d of %d bytes, input may be binary", lost, original)
			debug.LogChunk("%s\n", warning)
		}
	}
	return cleaned, warning
}

// splitPiece is one slice of an oversized text with its offset in the
// original, so callers can recover line numbers.
type splitPiece struct {
	text   string
	offset int
}

// SplitOversized cuts text exceeding MaxChunkSize into pieces, preferring
// the last newline inside the trailing overlap window before the limit and
// falling back to a hard cut. Consecutive pieces share up to ChunkOverlap
// characters of context. Last resort only: element-aware splitting runs
// first.
func (b *BaseChunker) SplitOversized(text string) []splitPiece {
	if len(text) <= b.MaxChunkSize {
		return []splitPiece{{text: text}}
	}

	var pieces []splitPiece
	start := 0
	for start < len(text) {
		end := start + b.MaxChunkSize
		if end >= len(text) {
			pieces = append(pieces, splitPiece{text: text[start:], offset: start})
			break
		}
		cut := end
		windowStart := end - b.ChunkOverlap
		if windowStart < start {
			windowStart = start
		}
		if nl := strings.LastIndex(text[windowStart:end], "\n"); nl >= 0 {
			cut = windowStart + nl + 1
		}
		if cut <= start {
			cut = end
		}
		pieces = append(pieces, splitPiece{text: text[start:cut], offset: start})

		next := cut - b.ChunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return pieces
}

func countNewlines(text string) int {
	return strings.Count(text, "\n")
}

// docPatterns are the documentation markers the fallback tiers sniff for
// when no extractor ran.
var docPatterns = []string{"///", "/**", `"""`, "'''", "##", "# ", "//!", "=begin"}

// looksLikeDocumentation reports whether the text carries a common
// doc-comment marker at the start of any line.
func looksLikeDocumentation(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, pattern := range docPatterns {
			if strings.HasPrefix(trimmed, pattern) {
				return true
			}
		}
	}
	return false
}
