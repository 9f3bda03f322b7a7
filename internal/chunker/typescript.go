package chunker

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/parser"
	"github.com/standardbeagle/codechunk/internal/types"
)

// TypeScriptChunker chunks TypeScript and TSX sources. Grammar failure
// escalates to the JavaScript chunker, which carries its own go-fast and
// text tiers, so the full chain is TS grammar, JS grammar, go-fast, text.
type TypeScriptChunker struct {
	BaseChunker
	tsParser    *parser.AdvancedParser
	tsxParser   *parser.AdvancedParser
	javascript  *JavaScriptChunker
	useAdvanced bool
}

// NewTypeScriptChunker builds the TypeScript tier chain from config.
func NewTypeScriptChunker(cfg *config.Config) *TypeScriptChunker {
	sizing := cfg.SizingFor("typescript")
	return &TypeScriptChunker{
		BaseChunker: NewBaseChunker(sizing),
		tsParser:    parser.NewAdvancedParser(parser.NewTypeScriptExtractor(), cfg),
		tsxParser:   parser.NewAdvancedParserForLanguage(parser.NewTypeScriptExtractor(), "tsx", cfg),
		javascript:  NewJavaScriptChunker(cfg),
		useAdvanced: cfg.Chunking.UseAdvancedParsing,
	}
}

// Name identifies the strategy.
func (c *TypeScriptChunker) Name() string {
	return "typescript"
}

// Chunk parses with the TypeScript (or TSX) grammar and groups the result,
// delegating the whole document to the JavaScript chain when the grammar
// tier is unusable.
func (c *TypeScriptChunker) Chunk(doc types.Document) ([]types.Chunk, error) {
	content, _ := c.CleanContent(doc.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	doc.Content = content

	if c.useAdvanced {
		p := c.tsParser
		if filepath.Ext(doc.FilePath) == ".tsx" {
			p = c.tsxParser
		}
		result := p.Parse([]byte(content), doc.FilePath)
		if result.Success && !result.FallbackRequired && len(result.Elements) > 0 {
			groups := groupElements(result.Elements, c.MaxChunkSize)
			return c.chunksFromGroups(groups, doc, "typescript", result.Parser), nil
		}
		debug.LogChunk("typescript grammar tier degraded for %s, delegating to javascript\n", doc.FilePath)
	}
	return c.javascript.Chunk(doc)
}
