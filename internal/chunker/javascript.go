package chunker

import (
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/parser"
	"github.com/standardbeagle/codechunk/internal/types"
)

// JavaScriptChunker chunks JavaScript through a three-tier chain: the
// tree-sitter grammar first, the pure-Go go-fAST parser second, generic
// text splitting last.
type JavaScriptChunker struct {
	BaseChunker
	parser      *parser.AdvancedParser
	gofast      *parser.GoFastExtractor
	fallback    *FallbackChunker
	useAdvanced bool
}

// NewJavaScriptChunker builds the JavaScript tier chain from config.
func NewJavaScriptChunker(cfg *config.Config) *JavaScriptChunker {
	sizing := cfg.SizingFor("javascript")
	return &JavaScriptChunker{
		BaseChunker: NewBaseChunker(sizing),
		parser:      parser.NewAdvancedParser(parser.NewJavaScriptExtractor(), cfg),
		gofast:      parser.NewGoFastExtractor(),
		fallback:    NewFallbackChunker(sizing),
		useAdvanced: cfg.Chunking.UseAdvancedParsing,
	}
}

// Name identifies the strategy.
func (c *JavaScriptChunker) Name() string {
	return "javascript"
}

// Chunk tries each tier in order and returns the first usable result.
func (c *JavaScriptChunker) Chunk(doc types.Document) ([]types.Chunk, error) {
	content, _ := c.CleanContent(doc.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	doc.Content = content

	if c.useAdvanced {
		result := c.parser.Parse([]byte(content), doc.FilePath)
		if result.Success && !result.FallbackRequired && len(result.Elements) > 0 {
			groups := groupElements(result.Elements, c.MaxChunkSize)
			return c.chunksFromGroups(groups, doc, "javascript", result.Parser), nil
		}
		debug.LogChunk("javascript grammar tier degraded for %s, trying go-fast\n", doc.FilePath)

		if elements, err := c.gofast.ExtractSource([]byte(content)); err == nil && len(elements) > 0 {
			groups := groupElements(elements, c.MaxChunkSize)
			return c.chunksFromGroups(groups, doc, "javascript", "gofast_javascript"), nil
		}
	}
	return c.fallback.Chunk(doc)
}
