package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Chunking.UseAdvancedParsing)
	assert.True(t, cfg.Chunking.ExtractDocumentation)
	assert.False(t, cfg.Chunking.StrictValidation, "strict validation is opt-in")
	assert.True(t, cfg.Parser.ErrorRecovery)
	assert.NotEmpty(t, cfg.Exclude, "default exclusions should cover build artifacts")
	require.NoError(t, cfg.Validate())
}

func TestSizingForFallbackChain(t *testing.T) {
	cfg := Default()

	t.Run("tuned language entry", func(t *testing.T) {
		s := cfg.SizingFor("python")
		assert.Equal(t, 1500, s.MaxChunkSize)
		assert.Equal(t, 100, s.ChunkOverlap)
	})

	t.Run("package defaults for unknown language", func(t *testing.T) {
		s := cfg.SizingFor("cobol")
		assert.Equal(t, DefaultMaxChunkSize, s.MaxChunkSize)
		assert.Equal(t, DefaultChunkOverlap, s.ChunkOverlap)
	})

	t.Run("config defaults beat package defaults", func(t *testing.T) {
		cfg := Default()
		cfg.Defaults = Sizing{MaxChunkSize: 900, ChunkOverlap: 30}
		s := cfg.SizingFor("cobol")
		assert.Equal(t, 900, s.MaxChunkSize)

		// Tuned entries still win over the override.
		assert.Equal(t, 2000, cfg.SizingFor("csharp").MaxChunkSize)
	})
}

func TestParseKDL(t *testing.T) {
	content := `
project {
    root "."
    name "demo"
}

chunking {
    use_advanced_parsing true
    extract_documentation false
    strict_validation true
}

parser {
    max_file_size_mb 5
    max_elements_per_file 500
}

language "python" {
    max_chunk_size 1200
    chunk_overlap 60
}

language "ruby" {
    max_chunk_size 1000
}

include "src/**/*.py" "lib/**/*.cs"
exclude "**/generated/**"
`
	cfg, err := ParseKDL(content)
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Project.Name)
	assert.False(t, cfg.Chunking.ExtractDocumentation)
	assert.True(t, cfg.Chunking.StrictValidation)
	assert.Equal(t, 5, cfg.Parser.MaxFileSizeMB)
	assert.Equal(t, 500, cfg.Parser.MaxElementsPerFile)

	py := cfg.SizingFor("python")
	assert.Equal(t, 1200, py.MaxChunkSize)
	assert.Equal(t, 60, py.ChunkOverlap)

	// New language inherits defaults for unset keys.
	rb := cfg.SizingFor("ruby")
	assert.Equal(t, 1000, rb.MaxChunkSize)
	assert.Equal(t, DefaultChunkOverlap, rb.ChunkOverlap)

	assert.Equal(t, []string{"src/**/*.py", "lib/**/*.cs"}, cfg.Include)
	assert.Equal(t, []string{"**/generated/**"}, cfg.Exclude, "explicit exclude replaces the defaults")
}

func TestParseKDLInvalid(t *testing.T) {
	_, err := ParseKDL(`language "python" {`)
	assert.Error(t, err)
}

func TestParseKDLEmptyKeepsDefaults(t *testing.T) {
	cfg, err := ParseKDL("")
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.SizingFor("python").MaxChunkSize)
	assert.True(t, cfg.Chunking.UseAdvancedParsing)
}

func TestValidate(t *testing.T) {
	t.Run("rejects zero file size", func(t *testing.T) {
		cfg := Default()
		cfg.Parser.MaxFileSizeMB = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects undersized chunks", func(t *testing.T) {
		cfg := Default()
		cfg.Languages["python"] = Sizing{MaxChunkSize: 50, ChunkOverlap: 10}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects overlap at or above max", func(t *testing.T) {
		cfg := Default()
		cfg.Languages["python"] = Sizing{MaxChunkSize: 500, ChunkOverlap: 500}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty root", func(t *testing.T) {
		cfg := Default()
		cfg.Project.Root = ""
		assert.Error(t, cfg.Validate())
	})
}
