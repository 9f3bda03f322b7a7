package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/types"
)

func TestAdvancedParserBounds(t *testing.T) {
	t.Run("oversized input routes to fallback", func(t *testing.T) {
		cfg := config.Default()
		cfg.Parser.MaxFileSizeMB = 1
		parser := NewAdvancedParser(NewPythonExtractor(), cfg)

		big := strings.Repeat("x = 1\n", 400000) // well past 1MB
		result := parser.Parse([]byte(big), "big.py")
		assert.True(t, result.FallbackRequired)
		assert.NotEmpty(t, result.Warnings)
		assert.Empty(t, result.Elements)
	})

	t.Run("element cap truncates with a warning", func(t *testing.T) {
		cfg := config.Default()
		cfg.Parser.MaxElementsPerFile = 3
		parser := NewAdvancedParser(NewPythonExtractor(), cfg)

		var b strings.Builder
		for i := 0; i < 10; i++ {
			b.WriteString("def f")
			b.WriteByte(byte('0' + i))
			b.WriteString("():\n    pass\n\n")
		}
		result := parser.Parse([]byte(b.String()), "many.py")
		require.True(t, result.Success)
		assert.LessOrEqual(t, result.ElementCount(), 3)
		assert.NotEmpty(t, result.Warnings)
	})

	t.Run("error recovery disabled forces fallback", func(t *testing.T) {
		cfg := config.Default()
		cfg.Parser.ErrorRecovery = false
		parser := NewAdvancedParser(NewCSharpExtractor(), cfg)

		result := parser.Parse([]byte("public class Broken {"), "broken.cs")
		assert.True(t, result.FallbackRequired)
	})

	t.Run("stats accumulate", func(t *testing.T) {
		parser := newTestParser(t, NewPythonExtractor())
		parser.Parse([]byte("x = 1\n"), "a.py")
		parser.Parse([]byte("y = 2\n"), "b.py")

		stats := parser.Stats()
		assert.Equal(t, 2, stats.Parses)
		assert.GreaterOrEqual(t, stats.TotalElapsed, time.Duration(0))
		assert.GreaterOrEqual(t, stats.AverageLatency(), time.Duration(0))

		parser.ResetStats()
		assert.Equal(t, 0, parser.Stats().Parses)
	})

	t.Run("empty source yields no elements", func(t *testing.T) {
		parser := newTestParser(t, NewPythonExtractor())
		result := parser.Parse([]byte(""), "empty.py")
		assert.True(t, result.Success)
		assert.False(t, result.FallbackRequired)
		assert.Empty(t, result.Elements)
	})
}

func TestCountLines(t *testing.T) {
	assert.Equal(t, 0, countLines(nil))
	assert.Equal(t, 1, countLines([]byte("one line")))
	assert.Equal(t, 1, countLines([]byte("one line\n")))
	assert.Equal(t, 2, countLines([]byte("a\nb")))
	assert.Equal(t, 2, countLines([]byte("a\nb\n")))
}

func TestTruncateForest(t *testing.T) {
	mk := func(name string, children int) *types.SemanticElement {
		el := &types.SemanticElement{Name: name, Type: types.ElementClass}
		for i := 0; i < children; i++ {
			el.AddChild(&types.SemanticElement{Name: name + "-child", Type: types.ElementMethod})
		}
		return el
	}
	forest := []*types.SemanticElement{mk("a", 1), mk("b", 2), mk("c", 0)}

	kept := truncateForest(forest, 2)
	require.Len(t, kept, 1, "b would exceed the cap, truncation stops before it")
	assert.Equal(t, "a", kept[0].Name)

	kept = truncateForest(forest, 10)
	assert.Len(t, kept, 3)
}

func TestWalkContextDepthCap(t *testing.T) {
	ctx := newWalkContext(2)
	require.NoError(t, ctx.Enter("a"))
	require.NoError(t, ctx.Enter("b"))
	assert.Equal(t, "a.b", ctx.ParentPath())
	assert.ErrorIs(t, ctx.Enter("c"), errDepthExceeded)
	ctx.Leave("c")
	ctx.Leave("b")
	assert.Equal(t, "a", ctx.ParentPath())
}

func TestNormalizeComment(t *testing.T) {
	assert.Equal(t, "Adds two numbers.", normalizeComment("/// Adds two numbers."))
	assert.Equal(t, "First\nSecond", normalizeComment("/**\n * First\n * Second\n */"))
	assert.Equal(t, "Shell style", normalizeComment("# Shell style"))
	assert.Equal(t, "", normalizeComment("   "))
}

func TestLanguageFromExtension(t *testing.T) {
	assert.Equal(t, "javascript", LanguageFromExtension(".js"))
	assert.Equal(t, "javascript", LanguageFromExtension(".mjs"))
	assert.Equal(t, "typescript", LanguageFromExtension(".ts"))
	assert.Equal(t, "tsx", LanguageFromExtension(".tsx"))
	assert.Equal(t, "python", LanguageFromExtension(".py"))
	assert.Equal(t, "csharp", LanguageFromExtension(".cs"))
	assert.Equal(t, "cpp", LanguageFromExtension(".h"))
	assert.Equal(t, "", LanguageFromExtension(".txt"))
}
