package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/codechunk/internal/types"
)

// Default chunk sizing constants, tuned per language. Values are characters.
const (
	DefaultMaxChunkSize = 2000
	DefaultChunkOverlap = 100

	// GroupFillRatio is how full a leaf group may get before it closes.
	// Containers ignore it - they always stand alone.
	GroupFillRatio = 0.8

	// NamespaceHeaderMinChars is the smallest namespace/module header worth
	// emitting as its own chunk when the container is flattened.
	NamespaceHeaderMinChars = 50
)

type Config struct {
	Version  int
	Project  Project
	Chunking Chunking
	Parser   Parser
	// Defaults overrides the built-in size/overlap budget for languages
	// without a tuned entry. Zero means use the package constants.
	Defaults Sizing
	// Languages overrides chunk sizing per language key ("python", "csharp",
	// "javascript", "typescript"). Missing entries use built-in defaults.
	Languages map[string]Sizing
	Include   []string
	Exclude   []string
}

type Project struct {
	Root string
	Name string
}

// Sizing is the per-chunker size/overlap budget in characters.
type Sizing struct {
	MaxChunkSize int
	ChunkOverlap int
}

type Chunking struct {
	UseAdvancedParsing   bool // grammar-based extraction before fallbacks
	ExtractDocumentation bool // associate doc comments with elements
	ExtractAttributes    bool // decorators/attributes into typed fields
	ExtractGenerics      bool // generic parameter lists

	StrictValidation bool // content/position mismatch forces tier escalation
	// StrictValidation default is false: mismatches are logged as warnings
	// only, matching the advisory behavior downstream consumers expect.
}

type Parser struct {
	MaxFileSizeMB         int // inputs above this go straight to fallback
	GrammarLoadTimeoutSec int
	MaxParseTimeSec       int
	MaxElementsPerFile    int
	MaxRecursionDepth     int
	ErrorRecovery         bool // continue with partial extraction on syntax errors
}

// Default returns the built-in configuration.
func Default() *Config {
	root, _ := os.Getwd()
	if root == "" {
		root = "."
	}
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Chunking: Chunking{
			UseAdvancedParsing:   true,
			ExtractDocumentation: true,
			ExtractAttributes:    true,
			ExtractGenerics:      true,
		},
		Parser: Parser{
			MaxFileSizeMB:         int(types.DefaultMaxFileSize / (1024 * 1024)),
			GrammarLoadTimeoutSec: int(types.DefaultGrammarLoadTimeout.Seconds()),
			MaxParseTimeSec:       int(types.DefaultParseTimeout.Seconds()),
			MaxElementsPerFile:    types.DefaultMaxElementsPerFile,
			MaxRecursionDepth:     types.DefaultMaxRecursionDepth,
			ErrorRecovery:         true,
		},
		Languages: map[string]Sizing{
			"python":     {MaxChunkSize: 1500, ChunkOverlap: 100},
			"csharp":     {MaxChunkSize: 2000, ChunkOverlap: 50},
			"typescript": {MaxChunkSize: 1800, ChunkOverlap: 75},
			"javascript": {MaxChunkSize: 2000, ChunkOverlap: 100},
		},
		Include: []string{},
		Exclude: getDefaultExclusions(),
	}
}

// SizingFor returns the chunk sizing for a language, falling back to the
// package defaults for languages without a tuned entry.
func (c *Config) SizingFor(language string) Sizing {
	if s, ok := c.Languages[language]; ok {
		return s
	}
	if c.Defaults.MaxChunkSize > 0 {
		return c.Defaults
	}
	return Sizing{MaxChunkSize: DefaultMaxChunkSize, ChunkOverlap: DefaultChunkOverlap}
}

// Load reads configuration from the given path, falling back to defaults
// when the file does not exist.
func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads config the way the CLI does: a global ~/.codechunk.kdl
// base (if present) overridden by the project-level file.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	var cfg *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			cfg = globalCfg
		}
	}

	if path != "" && filepath.Base(path) != ConfigFileName {
		searchDir = filepath.Dir(path)
	}
	projectCfg, err := LoadKDL(searchDir)
	if err != nil {
		return nil, err
	}
	if projectCfg != nil {
		cfg = projectCfg
	}
	if cfg == nil {
		cfg = Default()
	}
	if rootDir != "" {
		absRoot, err := filepath.Abs(rootDir)
		if err == nil {
			cfg.Project.Root = absRoot
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getDefaultExclusions() []string {
	return []string{
		// Hidden directories (catch-all for dot directories)
		"**/.*/**",

		// Package managers & dependencies
		"**/node_modules/**",
		"**/vendor/**",
		"**/bower_components/**",
		"**/venv/**",
		"**/.venv/**",
		"**/site-packages/**",
		"**/Pods/**",

		// Build artifacts & output
		"**/dist/**",
		"**/build/**",
		"**/out/**",
		"**/target/**",
		"**/bin/**",
		"**/obj/**",
		"**/*.min.js",
		"**/*.min.css",
		"**/*.bundle.js",

		// Python compiled files
		"**/__pycache__/**",
		"**/*.pyc",
		"**/*.egg-info/**",
		"**/.pytest_cache/**",
		"**/.mypy_cache/**",

		// Editor temp files
		"**/*.swp",
		"**/*~",
		"**/*.tmp",
		"**/*.bak",

		// Coverage & test artifacts
		"**/coverage/**",
		"**/.nyc_output/**",
		"**/htmlcov/**",
		"**/.tox/**",

		// Logs & caches
		"**/logs/**",
		"**/*.log",
		"**/.cache/**",
		"**/.next/**",
		"**/.nuxt/**",
	}
}
