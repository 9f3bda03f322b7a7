package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementTypeClassification(t *testing.T) {
	t.Run("containers", func(t *testing.T) {
		assert.True(t, ElementClass.IsContainer())
		assert.True(t, ElementInterface.IsContainer())
		assert.True(t, ElementStruct.IsContainer())
		assert.True(t, ElementEnum.IsContainer())
		assert.False(t, ElementFunction.IsContainer())
		assert.False(t, ElementNamespace.IsContainer(), "namespaces flatten, they do not isolate")
	})

	t.Run("import-like", func(t *testing.T) {
		assert.True(t, ElementImport.IsImportLike())
		assert.True(t, ElementUsing.IsImportLike())
		assert.False(t, ElementExport.IsImportLike())
	})

	t.Run("requires name", func(t *testing.T) {
		assert.True(t, ElementClass.RequiresName())
		assert.False(t, ElementContent.RequiresName())
		assert.False(t, ElementComment.RequiresName())
	})
}

func TestSemanticPositionValid(t *testing.T) {
	valid := SemanticPosition{StartLine: 1, EndLine: 3, StartColumn: 1, EndColumn: 2, StartByte: 0, EndByte: 40}
	assert.True(t, valid.Valid())
	assert.Equal(t, 3, valid.LineCount())

	assert.False(t, SemanticPosition{StartLine: 5, EndLine: 3}.Valid(), "end before start")
	assert.False(t, SemanticPosition{StartLine: -1}.Valid(), "negative line")
	assert.False(t, SemanticPosition{StartLine: 2, EndLine: 2, StartColumn: 10, EndColumn: 4}.Valid(), "columns inverted on one line")
}

func TestSemanticElementTree(t *testing.T) {
	class := &SemanticElement{Name: "Calculator", Type: ElementClass}
	method := &SemanticElement{Name: "Add", Type: ElementMethod}
	nested := &SemanticElement{Name: "helper", Type: ElementFunction}

	class.AddChild(method)
	method.AddChild(nested)

	assert.Equal(t, "Calculator", method.ParentName)
	assert.Equal(t, "Calculator.Add", method.FullName())
	assert.Equal(t, "Calculator.Add.helper", nested.FullName())

	var visited []string
	class.Walk(func(e *SemanticElement) bool {
		visited = append(visited, e.Name)
		return true
	})
	assert.Equal(t, []string{"Calculator", "Add", "helper"}, visited)

	// Early termination stops descent.
	var count int
	class.Walk(func(e *SemanticElement) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestHasDocumentation(t *testing.T) {
	parent := &SemanticElement{Name: "Service", Type: ElementClass}
	child := &SemanticElement{Name: "Run", Type: ElementMethod}
	parent.AddChild(child)

	assert.False(t, parent.HasDocumentation())

	child.Documentation = "/// Runs the service."
	assert.True(t, parent.HasDocumentation(), "documentation on a descendant counts")

	child.Documentation = "   "
	assert.False(t, parent.HasDocumentation(), "whitespace-only documentation does not count")
}

func TestElementModifiersAndExtra(t *testing.T) {
	el := &SemanticElement{Name: "Fetch", Type: ElementMethod, Modifiers: []AccessModifier{ModifierPublic, ModifierAsync}}
	assert.True(t, el.HasModifier(ModifierAsync))
	assert.False(t, el.HasModifier(ModifierStatic))

	el.SetExtra("is_generator", true)
	require.NotNil(t, el.Extra)
	assert.Equal(t, true, el.Extra["is_generator"])
}

func TestParseResult(t *testing.T) {
	result := NewParseResult("advanced_csharp")
	assert.True(t, result.Success)
	assert.Equal(t, "advanced_csharp", result.Parser)

	result.AddWarning("partial extraction")
	assert.True(t, result.Success, "warnings do not fail the result")

	result.AddError("parser panic")
	assert.False(t, result.Success)
	assert.Len(t, result.Errors, 1)

	root := &SemanticElement{Name: "A", Type: ElementClass}
	root.AddChild(&SemanticElement{Name: "B", Type: ElementMethod})
	result.Elements = []*SemanticElement{root}
	assert.Equal(t, 2, result.ElementCount())
}
