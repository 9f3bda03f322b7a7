package chunker

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/parser"
	"github.com/standardbeagle/codechunk/internal/tokens"
	"github.com/standardbeagle/codechunk/internal/types"
)

// TreeSitterChunker is the broad-coverage strategy: it walks block
// boundaries recovered by per-language queries and greedily packs them
// into chunks measured in estimated model tokens rather than characters.
// Languages without a boundary query get the same greedy algorithm over
// raw lines.
type TreeSitterChunker struct {
	BaseChunker
	boundaries *parser.BoundaryParser
}

// NewTreeSitterChunker builds the chunker; MaxChunkSize is interpreted as
// a token budget here.
func NewTreeSitterChunker(sizing config.Sizing) *TreeSitterChunker {
	return &TreeSitterChunker{
		BaseChunker: NewBaseChunker(sizing),
		boundaries:  parser.NewBoundaryParser(),
	}
}

// Name identifies the strategy.
func (c *TreeSitterChunker) Name() string {
	return "treesitter"
}

// segment is one stretch of the file: a boundary block or the gap text
// between blocks.
type segment struct {
	text      string
	startLine int
	endLine   int
	kind      string
	symbol    string
}

// Chunk packs boundary blocks into token-budgeted chunks. Boundary or
// symbol extraction failure routes to the raw-line variant, never to an
// error.
func (c *TreeSitterChunker) Chunk(doc types.Document) ([]types.Chunk, error) {
	content, _ := c.CleanContent(doc.Content)
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	doc.Content = content

	language := parser.LanguageFromExtension(filepath.Ext(doc.FilePath))
	if language == "" || !c.boundaries.Supports(language) {
		return c.chunkLines(doc, language), nil
	}
	bounds, err := c.boundaries.Boundaries(language, []byte(content))
	if err != nil || len(bounds) == 0 {
		debug.LogChunk("boundary extraction unavailable for %s (%v), using raw lines\n", doc.FilePath, err)
		return c.chunkLines(doc, language), nil
	}

	lines := strings.Split(content, "\n")
	segments := buildSegments(lines, topLevelBlocks(bounds))

	var chunks []types.Chunk
	var current []segment
	currentTokens := 0
	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, c.segmentChunk(current, bounds, doc, language))
		current = nil
		currentTokens = 0
	}
	for _, seg := range segments {
		segTokens := tokens.Estimate(seg.text)
		if currentTokens+segTokens > c.MaxChunkSize && currentTokens > 0 {
			flush()
		}
		if segTokens > c.MaxChunkSize {
			flush()
			chunks = append(chunks, c.lineChunksFor(doc, language, strings.Split(seg.text, "\n"), seg.startLine, bounds)...)
			continue
		}
		current = append(current, seg)
		currentTokens += segTokens
	}
	flush()
	return types.FinalizeChunks(chunks), nil
}

// segmentChunk materializes one run of segments, tagging every symbol whose
// full line range falls inside the chunk.
func (c *TreeSitterChunker) segmentChunk(run []segment, bounds []parser.Boundary, doc types.Document, language string) types.Chunk {
	var texts []string
	chunkType := "text"
	symbolName := ""
	for _, seg := range run {
		texts = append(texts, seg.text)
		if chunkType == "text" && seg.kind != "" {
			chunkType = seg.kind
			symbolName = seg.symbol
		}
	}
	content := strings.Join(texts, "\n")
	lineStart, lineEnd := run[0].startLine, run[len(run)-1].endLine

	meta := types.ChunkMetadata{
		SourceID:              doc.SourceID,
		FilePath:              doc.FilePath,
		FileType:              fileType(doc.FilePath),
		ChunkType:             chunkType,
		Language:              language,
		SymbolName:            symbolName,
		LineStart:             lineStart,
		LineEnd:               lineEnd,
		ContainsDocumentation: looksLikeDocumentation(content),
		ParsingMethod:         "treesitter",
	}
	if symbols := symbolsInRange(bounds, lineStart, lineEnd); len(symbols) > 0 {
		meta.SetExtra("symbols", symbols)
	}
	meta.SetExtra("token_count", tokens.Estimate(content))
	return newDocChunk(content, doc, meta)
}

// chunkLines is the raw-line variant: greedy token accumulation with the
// character overlap translated into a proportional line count.
func (c *TreeSitterChunker) chunkLines(doc types.Document, language string) []types.Chunk {
	lines := strings.Split(doc.Content, "\n")
	chunks := c.lineChunksFor(doc, language, lines, 1, nil)
	return types.FinalizeChunks(chunks)
}

func (c *TreeSitterChunker) lineChunksFor(doc types.Document, language string, lines []string, firstLine int, bounds []parser.Boundary) []types.Chunk {
	overlapLines := c.overlapLineCount(lines)

	var chunks []types.Chunk
	start := 0
	for start < len(lines) {
		end := start
		total := 0
		for end < len(lines) {
			lineTokens := tokens.Estimate(lines[end]) + 1
			if total+lineTokens > c.MaxChunkSize && total > 0 {
				break
			}
			total += lineTokens
			end++
		}
		if end == start {
			end = start + 1
		}
		content := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(content) != "" {
			lineStart := firstLine + start
			lineEnd := firstLine + end - 1
			meta := types.ChunkMetadata{
				SourceID:              doc.SourceID,
				FilePath:              doc.FilePath,
				FileType:              fileType(doc.FilePath),
				ChunkType:             "text",
				Language:              language,
				LineStart:             lineStart,
				LineEnd:               lineEnd,
				ContainsDocumentation: looksLikeDocumentation(content),
				ParsingMethod:         "treesitter_lines",
			}
			if symbols := symbolsInRange(bounds, lineStart, lineEnd); len(symbols) > 0 {
				meta.SetExtra("symbols", symbols)
			}
			meta.SetExtra("token_count", tokens.Estimate(content))
			chunks = append(chunks, newDocChunk(content, doc, meta))
		}
		if end >= len(lines) {
			break
		}
		next := end - overlapLines
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// overlapLineCount converts the character overlap budget into lines using
// the file's average line length.
func (c *TreeSitterChunker) overlapLineCount(lines []string) int {
	if c.ChunkOverlap <= 0 || len(lines) == 0 {
		return 0
	}
	total := 0
	for _, line := range lines {
		total += len(line) + 1
	}
	avg := total / len(lines)
	if avg < 1 {
		avg = 1
	}
	overlap := c.ChunkOverlap / avg
	if overlap >= len(lines) {
		overlap = len(lines) - 1
	}
	return overlap
}

// topLevelBlocks drops boundaries nested inside an earlier block, leaving
// the outermost blocks in source order.
func topLevelBlocks(bounds []parser.Boundary) []parser.Boundary {
	var blocks []parser.Boundary
	lastEnd := -1
	for _, b := range bounds {
		if b.StartByte < lastEnd {
			continue
		}
		blocks = append(blocks, b)
		lastEnd = b.EndByte
	}
	return blocks
}

// buildSegments covers the whole file: each top-level block is one segment
// and the text between blocks becomes gap segments.
func buildSegments(lines []string, blocks []parser.Boundary) []segment {
	var segments []segment
	cursor := 1
	appendGap := func(from, to int) {
		if to < from {
			return
		}
		text := strings.Join(lines[from-1:to], "\n")
		if strings.TrimSpace(text) == "" {
			return
		}
		segments = append(segments, segment{text: text, startLine: from, endLine: to})
	}
	for _, block := range blocks {
		if block.StartLine > len(lines) {
			break
		}
		appendGap(cursor, block.StartLine-1)
		end := block.EndLine
		if end > len(lines) {
			end = len(lines)
		}
		segments = append(segments, segment{
			text:      strings.Join(lines[block.StartLine-1:end], "\n"),
			startLine: block.StartLine,
			endLine:   end,
			kind:      block.Kind,
			symbol:    block.Name,
		})
		cursor = end + 1
	}
	appendGap(cursor, len(lines))
	return segments
}

// symbolsInRange lists named boundaries fully contained in the line range.
func symbolsInRange(bounds []parser.Boundary, lineStart, lineEnd int) []string {
	var symbols []string
	seen := make(map[string]bool)
	for _, b := range bounds {
		if b.Name == "" || b.StartLine < lineStart || b.EndLine > lineEnd {
			continue
		}
		if !seen[b.Name] {
			seen[b.Name] = true
			symbols = append(symbols, b.Name)
		}
	}
	return symbols
}
