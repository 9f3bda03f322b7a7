package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/types"
)

func element(elemType types.ElementType, name, content string, startLine, endLine int) *types.SemanticElement {
	return &types.SemanticElement{
		Type:    elemType,
		Name:    name,
		Content: content,
		Position: types.SemanticPosition{
			StartLine: startLine, StartColumn: 1,
			EndLine: endLine, EndColumn: 1,
		},
	}
}

func TestGroupElements(t *testing.T) {
	t.Run("imports coalesce until a non-import", func(t *testing.T) {
		elements := []*types.SemanticElement{
			element(types.ElementImport, "os", "import os", 1, 1),
			element(types.ElementImport, "sys", "import sys", 2, 2),
			element(types.ElementImport, "json", "import json", 3, 3),
			element(types.ElementFunction, "main", "def main():\n    pass", 5, 6),
		}
		groups := groupElements(elements, 2000)
		require.Len(t, groups, 2)
		assert.Len(t, groups[0].elements, 3)
		assert.Len(t, groups[1].elements, 1)
	})

	t.Run("containers stand alone", func(t *testing.T) {
		elements := []*types.SemanticElement{
			element(types.ElementFunction, "a", "def a(): pass", 1, 1),
			element(types.ElementClass, "Widget", "class Widget:\n    pass", 3, 4),
			element(types.ElementFunction, "b", "def b(): pass", 6, 6),
		}
		groups := groupElements(elements, 2000)
		require.Len(t, groups, 3)
		assert.Equal(t, "Widget", groups[1].elements[0].Name)
	})

	t.Run("short namespace header vanishes, children group independently", func(t *testing.T) {
		ns := element(types.ElementNamespace, "App", "namespace App", 1, 20)
		ns.AddChild(element(types.ElementClass, "First", "public class First { }", 3, 8))
		ns.AddChild(element(types.ElementClass, "Second", "public class Second { }", 10, 18))

		groups := groupElements([]*types.SemanticElement{ns}, 2000)
		require.Len(t, groups, 2)
		assert.Equal(t, "First", groups[0].elements[0].Name)
		assert.Equal(t, "Second", groups[1].elements[0].Name)
	})

	t.Run("substantial namespace header gets its own group", func(t *testing.T) {
		header := "namespace Billing.Services.Internal.Reporting.Pipeline"
		require.Greater(t, len(header), config.NamespaceHeaderMinChars)

		ns := element(types.ElementNamespace, "Billing.Services.Internal.Reporting.Pipeline", header, 1, 20)
		ns.AddChild(element(types.ElementClass, "Report", "public class Report { }", 3, 10))

		groups := groupElements([]*types.SemanticElement{ns}, 2000)
		require.Len(t, groups, 2)
		assert.Equal(t, types.ElementNamespace, groups[0].elements[0].Type)
		assert.Equal(t, "Report", groups[1].elements[0].Name)
	})

	t.Run("comments attach to a small current group", func(t *testing.T) {
		elements := []*types.SemanticElement{
			element(types.ElementFunction, "setup", "def setup(): pass", 1, 1),
			element(types.ElementComment, "", "# wiring note", 2, 2),
			element(types.ElementFunction, "teardown", "def teardown(): pass", 3, 3),
		}
		groups := groupElements(elements, 2000)
		require.Len(t, groups, 1)
		assert.Len(t, groups[0].elements, 3)
	})

	t.Run("comment after imports opens a fresh group", func(t *testing.T) {
		elements := []*types.SemanticElement{
			element(types.ElementImport, "os", "import os", 1, 1),
			element(types.ElementComment, "", "# section marker", 3, 3),
		}
		groups := groupElements(elements, 2000)
		require.Len(t, groups, 2)
		assert.Equal(t, types.ElementImport, groups[0].elements[0].Type)
		assert.Equal(t, types.ElementComment, groups[1].elements[0].Type)
	})

	t.Run("leaves flush at the fill ratio", func(t *testing.T) {
		// Each function is ~300 chars; at a 1000 budget the group closes
		// once its estimated size crosses 800.
		var elements []*types.SemanticElement
		body := strings.Repeat("x", 280)
		for i := 0; i < 6; i++ {
			name := fmt.Sprintf("f%d", i)
			elements = append(elements, element(types.ElementFunction, name,
				"def "+name+"():\n    "+body, i*4+1, i*4+2))
		}
		groups := groupElements(elements, 1000)
		require.Greater(t, len(groups), 1)
		for _, group := range groups {
			assert.LessOrEqual(t, len(group.elements), 3)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, groupElements(nil, 2000))
	})
}

func TestChunksFromGroups(t *testing.T) {
	doc := types.NewDocument("lib.py", "placeholder")
	b := NewBaseChunker(config.Sizing{MaxChunkSize: 200, ChunkOverlap: 20})

	t.Run("group within budget is one chunk", func(t *testing.T) {
		group := elementGroup{elements: []*types.SemanticElement{
			element(types.ElementImport, "os", "import os", 1, 1),
			element(types.ElementImport, "sys", "import sys", 2, 2),
		}}
		chunks := b.chunksFromGroups([]elementGroup{group}, doc, "python", "advanced_python")
		require.Len(t, chunks, 1)

		chunk := chunks[0]
		assert.Equal(t, "import os\n\nimport sys", chunk.Content)
		assert.Equal(t, "import", chunk.Metadata.ChunkType)
		assert.Equal(t, "python", chunk.Metadata.Language)
		assert.Equal(t, "advanced_python", chunk.Metadata.ParsingMethod)
		assert.Equal(t, 1, chunk.Metadata.LineStart)
		assert.Equal(t, 2, chunk.Metadata.LineEnd)
		assert.Equal(t, []string{"import", "import"}, chunk.Metadata.Extra["element_types"])
		assert.Equal(t, 2, chunk.Metadata.Extra["semantic_elements"])
	})

	t.Run("oversized group splits on element boundaries", func(t *testing.T) {
		var members []*types.SemanticElement
		for i := 0; i < 3; i++ {
			name := fmt.Sprintf("v%d", i)
			members = append(members, element(types.ElementVariable, name,
				name+" = "+strings.Repeat("1", 110), i+1, i+1))
		}
		group := elementGroup{elements: members}
		chunks := b.chunksFromGroups([]elementGroup{group}, doc, "python", "advanced_python")
		require.Len(t, chunks, 3)
		for i, chunk := range chunks {
			assert.Equal(t, fmt.Sprintf("v%d", i), chunk.Metadata.SymbolName)
			assert.NotContains(t, chunk.Metadata.Extra, "split")
		}
	})

	t.Run("single oversized element falls to the character splitter", func(t *testing.T) {
		content := "def big():\n" + strings.Repeat("    line = line + 1\n", 30)
		elem := element(types.ElementFunction, "big", content, 10, 40)
		group := elementGroup{elements: []*types.SemanticElement{elem}}

		chunks := b.chunksFromGroups([]elementGroup{group}, doc, "python", "advanced_python")
		require.Greater(t, len(chunks), 1)
		for i, chunk := range chunks {
			assert.Equal(t, "function", chunk.Metadata.ChunkType)
			assert.Equal(t, "big", chunk.Metadata.SymbolName)
			assert.Equal(t, true, chunk.Metadata.Extra["split"])
			assert.GreaterOrEqual(t, chunk.Metadata.LineStart, 10)
			if i > 0 {
				assert.Greater(t, chunk.Metadata.LineStart, chunks[i-1].Metadata.LineStart)
			}
		}
	})

	t.Run("documentation anywhere in the group is flagged", func(t *testing.T) {
		documented := element(types.ElementFunction, "helper", "def helper(): pass", 1, 1)
		documented.Documentation = "Returns nothing."
		plain := element(types.ElementFunction, "other", "def other(): pass", 3, 3)

		chunks := b.chunksFromGroups([]elementGroup{
			{elements: []*types.SemanticElement{documented}},
			{elements: []*types.SemanticElement{plain}},
		}, doc, "python", "advanced_python")
		require.Len(t, chunks, 2)
		assert.True(t, chunks[0].Metadata.ContainsDocumentation)
		assert.False(t, chunks[1].Metadata.ContainsDocumentation)
	})

	t.Run("sequence numbering covers all groups", func(t *testing.T) {
		groups := []elementGroup{
			{elements: []*types.SemanticElement{element(types.ElementFunction, "a", "def a(): pass", 1, 1)}},
			{elements: []*types.SemanticElement{element(types.ElementFunction, "b", "def b(): pass", 3, 3)}},
		}
		chunks := b.chunksFromGroups(groups, doc, "python", "advanced_python")
		require.Len(t, chunks, 2)
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, 2, chunk.TotalChunks)
		}
	})
}
