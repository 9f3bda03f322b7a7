package config

import (
	"errors"
	"fmt"

	ccerrors "github.com/standardbeagle/codechunk/internal/errors"
)

// Validate checks the configuration and repairs obviously broken values
// where a safe default exists.
func (c *Config) Validate() error {
	if err := validateParser(&c.Parser); err != nil {
		return ccerrors.NewConfigError("parser", "", err)
	}

	for lang, sizing := range c.Languages {
		if err := validateSizing(sizing); err != nil {
			return ccerrors.NewConfigError("language."+lang, "", err)
		}
	}

	if c.Project.Root == "" {
		return ccerrors.NewConfigError("project.root", "", errors.New("project root cannot be empty"))
	}

	return nil
}

func validateParser(p *Parser) error {
	if p.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MaxFileSizeMB must be positive, got %d", p.MaxFileSizeMB)
	}
	if p.MaxFileSizeMB > 100 {
		return fmt.Errorf("MaxFileSizeMB should not exceed 100, got %d", p.MaxFileSizeMB)
	}
	if p.GrammarLoadTimeoutSec <= 0 {
		return fmt.Errorf("GrammarLoadTimeoutSec must be positive, got %d", p.GrammarLoadTimeoutSec)
	}
	if p.MaxParseTimeSec <= 0 {
		return fmt.Errorf("MaxParseTimeSec must be positive, got %d", p.MaxParseTimeSec)
	}
	if p.MaxElementsPerFile <= 0 {
		return fmt.Errorf("MaxElementsPerFile must be positive, got %d", p.MaxElementsPerFile)
	}
	if p.MaxRecursionDepth < 10 {
		return fmt.Errorf("MaxRecursionDepth must be at least 10, got %d", p.MaxRecursionDepth)
	}
	return nil
}

func validateSizing(s Sizing) error {
	if s.MaxChunkSize < 100 {
		return fmt.Errorf("MaxChunkSize must be at least 100 characters, got %d", s.MaxChunkSize)
	}
	if s.ChunkOverlap < 0 {
		return fmt.Errorf("ChunkOverlap cannot be negative, got %d", s.ChunkOverlap)
	}
	if s.ChunkOverlap >= s.MaxChunkSize {
		return fmt.Errorf("ChunkOverlap (%d) must be smaller than MaxChunkSize (%d)", s.ChunkOverlap, s.MaxChunkSize)
	}
	return nil
}
