package chunker

import (
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/parser"
	"github.com/standardbeagle/codechunk/internal/types"
)

// PythonChunker chunks Python through the grammar tier, degrading to the
// line-oriented regex scanner on syntax errors, then to generic text
// splitting.
type PythonChunker struct {
	BaseChunker
	parser      *parser.AdvancedParser
	scanner     *parser.PythonRegexExtractor
	fallback    *FallbackChunker
	useAdvanced bool
}

// NewPythonChunker builds the Python tier chain from config.
func NewPythonChunker(cfg *config.Config) *PythonChunker {
	sizing := cfg.SizingFor("python")
	return &PythonChunker{
		BaseChunker: NewBaseChunker(sizing),
		parser:      parser.NewAdvancedParser(parser.NewPythonExtractor(), cfg),
		scanner:     parser.NewPythonRegexExtractor(),
		fallback:    NewFallbackChunker(sizing),
		useAdvanced: cfg.Chunking.UseAdvancedParsing,
	}
}

// Name identifies the strategy.
func (c *PythonChunker) Name() string {
	return "python"
}

// Chunk tries the grammar tier, then the regex scanner, then text
// splitting. The scanner sacrifices span precision for availability.
func (c *PythonChunker) Chunk(doc types.Document) ([]types.Chunk, error) {
	content, _ := c.CleanContent(doc.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	doc.Content = content

	if c.useAdvanced {
		result := c.parser.Parse([]byte(content), doc.FilePath)
		if result.Success && !result.FallbackRequired && len(result.Elements) > 0 {
			groups := groupElements(result.Elements, c.MaxChunkSize)
			return c.chunksFromGroups(groups, doc, "python", result.Parser), nil
		}
		debug.LogChunk("python grammar tier degraded for %s, trying regex scanner\n", doc.FilePath)

		if elements := c.scanner.ExtractSource([]byte(content)); len(elements) > 0 {
			groups := groupElements(elements, c.MaxChunkSize)
			return c.chunksFromGroups(groups, doc, "python", "regex_python"), nil
		}
	}
	return c.fallback.Chunk(doc)
}
