package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the chunking pipeline
type ErrorType string

const (
	// Parsing errors
	ErrorTypeParse    ErrorType = "parse"
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeFallback ErrorType = "fallback"

	// File errors
	ErrorTypeFileTooLarge ErrorType = "file_too_large"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ParsingError is the base error for grammar or runtime parse failures.
type ParsingError struct {
	Type       ErrorType
	FilePath   string
	Parser     string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

// NewParsingError creates a parse error with context.
func NewParsingError(parser, path string, err error) *ParsingError {
	return &ParsingError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Parser:     parser,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithPosition adds source position information to the error.
func (e *ParsingError) WithPosition(line, column int) *ParsingError {
	e.Line = line
	e.Column = column
	return e
}

// Error implements the error interface
func (e *ParsingError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s parse failed at %s:%d:%d: %v", e.Parser, e.FilePath, e.Line, e.Column, e.Underlying)
	}
	if e.FilePath != "" {
		return fmt.Sprintf("%s parse failed for %s: %v", e.Parser, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s parse failed: %v", e.Parser, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ParsingError) Unwrap() error {
	return e.Underlying
}

// FallbackError signals "escalate to the next tier". It is a routing
// signal, not a fatal condition: every tier boundary catches it and
// retries exactly one tier down.
type FallbackError struct {
	Parser     string
	Reason     string
	Underlying error
}

// NewFallbackError creates an explicit tier-escalation signal.
func NewFallbackError(parser, reason string, err error) *FallbackError {
	return &FallbackError{Parser: parser, Reason: reason, Underlying: err}
}

// Error implements the error interface
func (e *FallbackError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s requires fallback (%s): %v", e.Parser, e.Reason, e.Underlying)
	}
	return fmt.Sprintf("%s requires fallback: %s", e.Parser, e.Reason)
}

// Unwrap returns the underlying error
func (e *FallbackError) Unwrap() error {
	return e.Underlying
}

// TimeoutError reports that grammar load or parse exceeded its deadline.
// Timeouts route to the next tier the same way FallbackError does.
type TimeoutError struct {
	Parser   string
	Phase    string // "grammar_load" or "parse"
	FilePath string
	Deadline time.Duration
}

// NewTimeoutError creates a deadline-expiry error for the given phase.
func NewTimeoutError(parser, phase, path string, deadline time.Duration) *TimeoutError {
	return &TimeoutError{Parser: parser, Phase: phase, FilePath: path, Deadline: deadline}
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s timed out after %s for %s", e.Parser, e.Phase, e.Deadline, e.FilePath)
}

// FileTooLargeError reports input above the configured parse size cap.
type FileTooLargeError struct {
	FilePath string
	Size     int64
	Limit    int64
}

// Error implements the error interface
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, above the %d byte parse limit", e.FilePath, e.Size, e.Limit)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError aggregates per-file failures across a batch without aborting it.
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// RequiresFallback reports whether err is a tier-escalation signal:
// an explicit FallbackError, a timeout, or an oversized file.
func RequiresFallback(err error) bool {
	if err == nil {
		return false
	}
	var fb *FallbackError
	if errors.As(err, &fb) {
		return true
	}
	var to *TimeoutError
	if errors.As(err, &to) {
		return true
	}
	var big *FileTooLargeError
	return errors.As(err, &big)
}
