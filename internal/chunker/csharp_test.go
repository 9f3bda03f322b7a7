package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/types"
)

func TestCSharpChunker(t *testing.T) {
	source := `using System;
using System.Collections.Generic;
using System.Linq;

namespace Billing
{
    /// <summary>Computes invoice totals.</summary>
    public class InvoiceCalculator
    {
        public decimal Total(List<decimal> lines)
        {
            return lines.Sum();
        }
    }

    public class InvoiceFormatter
    {
        public string Format(decimal total)
        {
            return total.ToString();
        }
    }
}
`
	c := NewCSharpChunker(config.Default())
	doc := types.NewDocument("Billing/Invoice.cs", source)

	chunks, err := c.Chunk(doc)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	t.Run("using directives coalesce into one chunk", func(t *testing.T) {
		usings := chunks[0]
		assert.Equal(t, "using", usings.Metadata.ChunkType)
		assert.Contains(t, usings.Content, "using System;")
		assert.Contains(t, usings.Content, "using System.Linq;")
		assert.Equal(t, 1, usings.Metadata.LineStart)
		assert.Equal(t, 3, usings.Metadata.LineEnd)
		assert.False(t, usings.Metadata.ContainsDocumentation)
	})

	t.Run("short namespace header produces no chunk of its own", func(t *testing.T) {
		for _, chunk := range chunks {
			assert.NotEqual(t, "namespace", chunk.Metadata.ChunkType)
		}
	})

	t.Run("each class is its own chunk", func(t *testing.T) {
		calculator := chunks[1]
		assert.Equal(t, "class", calculator.Metadata.ChunkType)
		assert.Equal(t, "InvoiceCalculator", calculator.Metadata.SymbolName)
		assert.Equal(t, "Billing", calculator.Metadata.ParentSymbol)
		assert.Equal(t, "advanced_csharp", calculator.Metadata.ParsingMethod)
		assert.Equal(t, "csharp", calculator.Metadata.Language)
		assert.Equal(t, "cs", calculator.Metadata.FileType)

		formatter := chunks[2]
		assert.Equal(t, "class", formatter.Metadata.ChunkType)
		assert.Equal(t, "InvoiceFormatter", formatter.Metadata.SymbolName)
	})

	t.Run("only the documented class is flagged", func(t *testing.T) {
		assert.True(t, chunks[1].Metadata.ContainsDocumentation)
		assert.False(t, chunks[2].Metadata.ContainsDocumentation)
	})

	t.Run("sequence numbering is complete", func(t *testing.T) {
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, 3, chunk.TotalChunks)
			assert.Equal(t, len(chunk.Content), chunk.Size)
		}
	})

	t.Run("chunk ids are stable across runs", func(t *testing.T) {
		again, err := NewCSharpChunker(config.Default()).Chunk(doc)
		require.NoError(t, err)
		require.Len(t, again, len(chunks))
		for i := range chunks {
			assert.Equal(t, chunks[i].ID, again[i].ID)
		}
	})
}

func TestCSharpChunkerNamespaceHeader(t *testing.T) {
	source := `namespace Billing.Services.Internal.Reporting.Pipeline.Exports
{
    public class Report
    {
    }
}
`
	chunks, err := NewCSharpChunker(config.Default()).Chunk(types.NewDocument("Report.cs", source))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "namespace", chunks[0].Metadata.ChunkType)
	assert.Equal(t, "class", chunks[1].Metadata.ChunkType)
	assert.Equal(t, "Report", chunks[1].Metadata.SymbolName)
}

func TestCSharpChunkerTiers(t *testing.T) {
	t.Run("advanced parsing disabled routes to the text splitter", func(t *testing.T) {
		cfg := config.Default()
		cfg.Chunking.UseAdvancedParsing = false
		chunks, err := NewCSharpChunker(cfg).Chunk(types.NewDocument("Program.cs", "public class A { }\n"))
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.Equal(t, "fallback", chunks[0].Metadata.ParsingMethod)
	})

	t.Run("empty document yields nothing", func(t *testing.T) {
		chunks, err := NewCSharpChunker(config.Default()).Chunk(types.NewDocument("Empty.cs", "   \n"))
		assert.NoError(t, err)
		assert.Empty(t, chunks)
	})
}
