package chunker

import (
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/parser"
	"github.com/standardbeagle/codechunk/internal/types"
)

// CSharpChunker chunks C# sources through the grammar tier, falling back
// to generic text splitting when parsing is unusable.
type CSharpChunker struct {
	BaseChunker
	parser      *parser.AdvancedParser
	fallback    *FallbackChunker
	useAdvanced bool
}

// NewCSharpChunker builds the C# tier chain from config.
func NewCSharpChunker(cfg *config.Config) *CSharpChunker {
	sizing := cfg.SizingFor("csharp")
	return &CSharpChunker{
		BaseChunker: NewBaseChunker(sizing),
		parser:      parser.NewAdvancedParser(parser.NewCSharpExtractor(), cfg),
		fallback:    NewFallbackChunker(sizing),
		useAdvanced: cfg.Chunking.UseAdvancedParsing,
	}
}

// Name identifies the strategy.
func (c *CSharpChunker) Name() string {
	return "csharp"
}

// Chunk parses and groups the document, escalating to the fallback tier
// on parse failure, timeout, or an empty element forest.
func (c *CSharpChunker) Chunk(doc types.Document) ([]types.Chunk, error) {
	content, _ := c.CleanContent(doc.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	doc.Content = content

	if c.useAdvanced {
		result := c.parser.Parse([]byte(content), doc.FilePath)
		if result.Success && !result.FallbackRequired && len(result.Elements) > 0 {
			groups := groupElements(result.Elements, c.MaxChunkSize)
			return c.chunksFromGroups(groups, doc, "csharp", result.Parser), nil
		}
		debug.LogChunk("csharp parse degraded for %s (errors=%v), using fallback\n", doc.FilePath, result.Errors)
	}
	return c.fallback.Chunk(doc)
}
