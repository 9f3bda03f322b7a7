package chunker

import (
	"strings"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/types"
)

// groupKind classifies the running group during the single grouping pass.
type groupKind int

const (
	groupNone groupKind = iota
	groupImports
	groupLeaves
)

// elementGroup is an ordered run of elements destined for one chunk
// (or more, when the run still exceeds the size budget).
type elementGroup struct {
	elements []*types.SemanticElement
	kind     groupKind
}

func (g *elementGroup) add(element *types.SemanticElement) {
	g.elements = append(g.elements, element)
}

func (g *elementGroup) empty() bool {
	return len(g.elements) == 0
}

// size estimates the concatenated content length including separators.
func (g *elementGroup) size() int {
	total := 0
	for _, element := range g.elements {
		total += len(element.Content) + 2
	}
	return total
}

// groupElements runs the single grouping pass over elements in source
// order:
//  1. import-like elements coalesce until a non-import appears;
//  2. containers close the current group and stand alone;
//  3. namespaces flatten - a substantial header becomes its own group and
//     each nested container groups independently;
//  4. leaves accumulate until the group reaches the fill ratio of the
//     budget;
//  5. comments attach to a small current group instead of standing alone.
func groupElements(elements []*types.SemanticElement, maxChunkSize int) []elementGroup {
	var groups []elementGroup
	current := elementGroup{}

	flush := func() {
		if !current.empty() {
			groups = append(groups, current)
		}
		current = elementGroup{}
	}

	for _, element := range elements {
		switch {
		case element.Type.IsImportLike():
			if current.kind != groupImports {
				flush()
				current.kind = groupImports
			}
			current.add(element)

		case element.Type == types.ElementNamespace || element.Type == types.ElementModule:
			flush()
			groups = append(groups, flattenNamespace(element, maxChunkSize)...)

		case element.Type.IsContainer():
			flush()
			groups = append(groups, elementGroup{elements: []*types.SemanticElement{element}})

		case element.Type == types.ElementComment || element.Type == types.ElementDocumentation:
			if current.empty() || len(current.elements) > 2 || current.kind == groupImports {
				flush()
				current.kind = groupLeaves
			}
			current.add(element)

		default:
			if current.kind == groupImports {
				flush()
			}
			current.kind = groupLeaves
			current.add(element)
			if float64(current.size()) > float64(maxChunkSize)*config.GroupFillRatio {
				flush()
			}
		}
	}
	flush()
	return groups
}

// flattenNamespace expands a namespace element into groups: the header
// only when substantial, then the namespace's children grouped by the same
// pass. Chunk granularity stays independent of source nesting depth.
func flattenNamespace(namespace *types.SemanticElement, maxChunkSize int) []elementGroup {
	var groups []elementGroup
	if len(strings.TrimSpace(namespace.Content)) > config.NamespaceHeaderMinChars {
		groups = append(groups, elementGroup{elements: []*types.SemanticElement{namespace}})
	}
	groups = append(groups, groupElements(namespace.Children, maxChunkSize)...)
	return groups
}

// chunksFromGroups materializes the groups into chunks for one document.
// A group over budget splits first along its own element boundaries, then,
// for a single element still over budget, via the character splitter.
func (b *BaseChunker) chunksFromGroups(groups []elementGroup, doc types.Document, language, parsingMethod string) []types.Chunk {
	var chunks []types.Chunk
	for _, group := range groups {
		chunks = append(chunks, b.chunksFromGroup(group, doc, language, parsingMethod)...)
	}
	return types.FinalizeChunks(chunks)
}

func (b *BaseChunker) chunksFromGroup(group elementGroup, doc types.Document, language, parsingMethod string) []types.Chunk {
	if group.empty() {
		return nil
	}
	content := joinElements(group.elements)
	if len(content) <= b.MaxChunkSize {
		meta := b.groupMetadata(group.elements, doc, language, parsingMethod)
		return []types.Chunk{newDocChunk(content, doc, meta)}
	}

	// Element-boundary split: partition the run greedily, never re-merging
	// elements once separated.
	var chunks []types.Chunk
	var run []*types.SemanticElement
	runSize := 0
	flushRun := func() {
		if len(run) == 0 {
			return
		}
		meta := b.groupMetadata(run, doc, language, parsingMethod)
		chunks = append(chunks, newDocChunk(joinElements(run), doc, meta))
		run = nil
		runSize = 0
	}
	for _, element := range group.elements {
		need := len(element.Content) + 2
		if runSize+need > b.MaxChunkSize && runSize > 0 {
			flushRun()
		}
		if len(element.Content) > b.MaxChunkSize {
			flushRun()
			chunks = append(chunks, b.splitElement(element, doc, language, parsingMethod)...)
			continue
		}
		run = append(run, element)
		runSize += need
	}
	flushRun()
	return chunks
}

// splitElement applies the character splitter to a single element larger
// than the budget, recovering per-piece line ranges from split offsets.
func (b *BaseChunker) splitElement(element *types.SemanticElement, doc types.Document, language, parsingMethod string) []types.Chunk {
	pieces := b.SplitOversized(element.Content)
	var chunks []types.Chunk
	for _, piece := range pieces {
		meta := b.groupMetadata([]*types.SemanticElement{element}, doc, language, parsingMethod)
		linesBefore := countNewlines(element.Content[:piece.offset])
		meta.LineStart = element.Position.StartLine + linesBefore
		meta.LineEnd = meta.LineStart + countNewlines(piece.text)
		meta.SetExtra("split", true)
		chunks = append(chunks, newDocChunk(piece.text, doc, meta))
	}
	return chunks
}

// newDocChunk stamps a chunk and attaches the document's metadata.
func newDocChunk(content string, doc types.Document, meta types.ChunkMetadata) types.Chunk {
	chunk := types.NewChunk(content, meta)
	chunk.DocMetadata = doc.Metadata
	return chunk
}

// groupMetadata derives chunk metadata from a group: type and symbol from
// the primary element, line span as the min/max across members.
func (b *BaseChunker) groupMetadata(elements []*types.SemanticElement, doc types.Document, language, parsingMethod string) types.ChunkMetadata {
	primary := elements[0]
	meta := types.ChunkMetadata{
		SourceID:      doc.SourceID,
		FilePath:      doc.FilePath,
		FileType:      fileType(doc.FilePath),
		ChunkType:     string(primary.Type),
		Language:      language,
		SymbolName:    primary.Name,
		ParentSymbol:  primary.ParentName,
		ParsingMethod: parsingMethod,
	}

	lineStart, lineEnd := primary.Position.StartLine, primary.Position.EndLine
	containsDocs := false
	elementTypes := make([]string, 0, len(elements))
	count := 0
	for _, element := range elements {
		if element.Position.StartLine > 0 && (lineStart == 0 || element.Position.StartLine < lineStart) {
			lineStart = element.Position.StartLine
		}
		if element.Position.EndLine > lineEnd {
			lineEnd = element.Position.EndLine
		}
		element.Walk(func(e *types.SemanticElement) bool {
			count++
			if e.HasDocumentation() {
				containsDocs = true
			}
			return true
		})
		elementTypes = append(elementTypes, string(element.Type))
	}
	meta.LineStart = lineStart
	meta.LineEnd = lineEnd
	meta.ContainsDocumentation = containsDocs
	meta.SetExtra("element_types", elementTypes)
	meta.SetExtra("semantic_elements", count)
	return meta
}

// joinElements concatenates element contents with a blank line separator.
func joinElements(elements []*types.SemanticElement) string {
	parts := make([]string, 0, len(elements))
	for _, element := range elements {
		if element.Content != "" {
			parts = append(parts, element.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// fileType is the extension without its dot.
func fileType(path string) string {
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return ""
}
