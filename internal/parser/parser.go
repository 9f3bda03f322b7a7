package parser

import (
	"fmt"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	ccerrors "github.com/standardbeagle/codechunk/internal/errors"
	"github.com/standardbeagle/codechunk/internal/types"
)

// Extractor walks a parsed grammar tree and produces the semantic element
// forest for one language. Implementations are stateless between calls;
// traversal state lives in the per-call extraction context.
type Extractor interface {
	// Language returns the extractor's language key ("csharp", "python", ...).
	Language() string

	// Extract walks the tree's top-level declarations. Errors returned
	// here are routing signals: the parser converts them into a
	// fallback-required result, never a crash.
	Extract(root *tree_sitter.Node, source []byte, opts ExtractOptions) ([]*types.SemanticElement, error)
}

// ExtractOptions carries the per-parse extraction toggles and bounds.
type ExtractOptions struct {
	MaxDepth      int
	Documentation bool
	Attributes    bool
	Generics      bool
}

// Stats tracks per-instance parse statistics for observability.
// Not synchronized: concurrent use of one parser instance requires
// external locking or per-goroutine instances.
type Stats struct {
	Parses       int
	Failures     int
	TotalElapsed time.Duration
}

// AverageLatency returns the mean parse duration, zero when unused.
func (s Stats) AverageLatency() time.Duration {
	if s.Parses == 0 {
		return 0
	}
	return s.TotalElapsed / time.Duration(s.Parses)
}

// AdvancedParser wraps one language's grammar parser with size bounds,
// deadlines, element caps, and post-hoc validation. Parse never panics
// or returns an error: every failure mode is represented in the result.
type AdvancedParser struct {
	language  string
	grammar   func() *tree_sitter.Language
	extractor Extractor

	limits config.Parser
	opts   ExtractOptions
	strict bool // content/position mismatch forces fallback

	parser *tree_sitter.Parser // lazily initialized under the load deadline
	stats  Stats
}

// NewAdvancedParser builds a parser for the extractor's language using the
// registered grammar and the configured limits.
func NewAdvancedParser(extractor Extractor, cfg *config.Config) *AdvancedParser {
	return NewAdvancedParserForLanguage(extractor, extractor.Language(), cfg)
}

// NewAdvancedParserForLanguage binds an extractor to a different grammar
// key. The TSX grammar reuses the TypeScript extractor this way.
func NewAdvancedParserForLanguage(extractor Extractor, language string, cfg *config.Config) *AdvancedParser {
	return &AdvancedParser{
		language:  language,
		grammar:   grammarFor(language),
		extractor: extractor,
		limits:    cfg.Parser,
		opts: ExtractOptions{
			MaxDepth:      cfg.Parser.MaxRecursionDepth,
			Documentation: cfg.Chunking.ExtractDocumentation,
			Attributes:    cfg.Chunking.ExtractAttributes,
			Generics:      cfg.Chunking.ExtractGenerics,
		},
		strict: cfg.Chunking.StrictValidation,
	}
}

// Language returns the parser's language key.
func (p *AdvancedParser) Language() string {
	return p.language
}

// Stats returns a copy of the parser's running statistics.
func (p *AdvancedParser) Stats() Stats {
	return p.stats
}

// ResetStats clears the running statistics.
func (p *AdvancedParser) ResetStats() {
	p.stats = Stats{}
}

// Parse parses source and extracts its semantic element forest. The result
// always comes back non-nil; on any failure it carries FallbackRequired so
// the caller can route to the next tier.
func (p *AdvancedParser) Parse(source []byte, filePath string) (result *types.ParseResult) {
	start := time.Now()
	result = types.NewParseResult("advanced_" + p.language)
	result.SourceBytes = len(source)
	result.SourceLines = countLines(source)

	// Last line of defense: tree-sitter runs through CGO and a crash there
	// must become a fallback signal, not a process abort.
	defer func() {
		if r := recover(); r != nil {
			debug.LogParse("PANIC parsing %s with %s: %v\n", filePath, p.language, r)
			result.AddError(fmt.Sprintf("parser panic: %v", r))
			result.FallbackRequired = true
		}
		result.Elapsed = time.Since(start)
		p.stats.Parses++
		p.stats.TotalElapsed += result.Elapsed
		if !result.Success || result.FallbackRequired {
			p.stats.Failures++
		}
	}()

	maxBytes := int64(p.limits.MaxFileSizeMB) * 1024 * 1024
	if int64(len(source)) > maxBytes {
		err := &ccerrors.FileTooLargeError{FilePath: filePath, Size: int64(len(source)), Limit: maxBytes}
		result.AddWarning(err.Error())
		result.FallbackRequired = true
		return result
	}

	if err := p.ensureGrammar(); err != nil {
		result.AddWarning(fmt.Sprintf("grammar unavailable for %s: %v", p.language, err))
		result.FallbackRequired = true
		return result
	}

	// Tree-sitter's C core mutates input buffers via CGO. Copy once here
	// so callers keep their content immutable.
	buffer := make([]byte, len(source))
	copy(buffer, source)

	tree, err := p.parseWithDeadline(buffer, filePath)
	if err != nil {
		result.AddWarning(err.Error())
		result.FallbackRequired = true
		return result
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if !p.limits.ErrorRecovery {
			result.AddWarning(fmt.Sprintf("syntax errors in %s, error recovery disabled", filePath))
			result.FallbackRequired = true
			return result
		}
		// Partial extraction: one malformed region must not discard the
		// whole file's contribution.
		result.AddWarning(fmt.Sprintf("syntax errors in %s, continuing with partial extraction", filePath))
	}

	elements, err := p.extractor.Extract(root, buffer, p.opts)
	if err != nil {
		debug.LogParse("extraction failed for %s: %v\n", filePath, err)
		result.AddWarning(fmt.Sprintf("extraction failed: %v", err))
		result.FallbackRequired = true
		return result
	}

	if over := countForest(elements) - p.limits.MaxElementsPerFile; over > 0 {
		elements = truncateForest(elements, p.limits.MaxElementsPerFile)
		result.AddWarning(fmt.Sprintf("element cap reached, dropped %d elements", over))
	}

	if !p.validateElements(elements, buffer, result) && p.strict {
		result.FallbackRequired = true
		return result
	}

	result.Elements = elements
	return result
}

// ensureGrammar loads the language grammar on a worker goroutine, blocking
// at most the configured deadline. Grammar loading happens once per
// parser instance.
func (p *AdvancedParser) ensureGrammar() error {
	if p.parser != nil {
		return nil
	}
	if p.grammar == nil {
		return fmt.Errorf("no grammar registered for %s", p.language)
	}

	type loaded struct {
		parser *tree_sitter.Parser
		err    error
	}
	ch := make(chan loaded, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- loaded{err: fmt.Errorf("grammar load panic: %v", r)}
			}
		}()
		ts := tree_sitter.NewParser()
		if err := ts.SetLanguage(p.grammar()); err != nil {
			ch <- loaded{err: err}
			return
		}
		ch <- loaded{parser: ts}
	}()

	deadline := time.Duration(p.limits.GrammarLoadTimeoutSec) * time.Second
	select {
	case l := <-ch:
		if l.err != nil {
			return l.err
		}
		p.parser = l.parser
		return nil
	case <-time.After(deadline):
		// The worker is abandoned, not cancelled; if it finishes later the
		// buffered channel keeps it from blocking forever.
		return ccerrors.NewTimeoutError(p.language, "grammar_load", "", deadline)
	}
}

// parseWithDeadline runs the grammar parse on a worker goroutine and joins
// with a deadline. On expiry the worker is abandoned and a timeout error
// returns; timeout is a routing signal, not a fatal condition.
func (p *AdvancedParser) parseWithDeadline(buffer []byte, filePath string) (*tree_sitter.Tree, error) {
	type parsed struct {
		tree *tree_sitter.Tree
		err  error
	}
	ch := make(chan parsed, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- parsed{err: fmt.Errorf("parse panic: %v", r)}
			}
		}()
		tree := p.parser.Parse(buffer, nil)
		if tree == nil {
			ch <- parsed{err: fmt.Errorf("parse produced no tree")}
			return
		}
		ch <- parsed{tree: tree}
	}()

	deadline := time.Duration(p.limits.MaxParseTimeSec) * time.Second
	select {
	case r := <-ch:
		return r.tree, r.err
	case <-time.After(deadline):
		return nil, ccerrors.NewTimeoutError(p.language, "parse", filePath, deadline)
	}
}

// validateElements checks extracted positions against the source bounds and,
// advisorily, whether content matches the text implied by the byte span.
// Mismatches are logged as warnings; the return value reports cleanliness
// so strict mode can escalate.
func (p *AdvancedParser) validateElements(elements []*types.SemanticElement, source []byte, result *types.ParseResult) bool {
	lines := countLines(source)
	clean := true
	for _, root := range elements {
		root.Walk(func(e *types.SemanticElement) bool {
			pos := e.Position
			if !pos.Valid() || pos.EndByte > len(source) || pos.EndLine >= lines+1 {
				result.AddWarning(fmt.Sprintf("element %q has out-of-bounds position %+v", e.Name, pos))
				clean = false
				return true
			}
			// Namespace and module elements hold header text only, so their
			// content is narrower than the byte span on purpose.
			if e.Type == types.ElementNamespace || e.Type == types.ElementModule {
				return true
			}
			if pos.EndByte <= len(source) && e.Content != "" {
				span := string(source[pos.StartByte:pos.EndByte])
				if span != e.Content {
					result.AddWarning(fmt.Sprintf("element %q content does not match its byte span", e.Name))
					clean = false
				}
			}
			return true
		})
	}
	return clean
}

// countForest returns the total element count including children.
func countForest(elements []*types.SemanticElement) int {
	count := 0
	for _, el := range elements {
		el.Walk(func(*types.SemanticElement) bool {
			count++
			return true
		})
	}
	return count
}

// truncateForest keeps the first max elements in source order, counting
// children, and drops the rest.
func truncateForest(elements []*types.SemanticElement, max int) []*types.SemanticElement {
	kept := make([]*types.SemanticElement, 0, len(elements))
	remaining := max
	for _, el := range elements {
		size := countForest([]*types.SemanticElement{el})
		if size > remaining {
			break
		}
		kept = append(kept, el)
		remaining -= size
	}
	return kept
}

// countLines counts newline-terminated lines plus a trailing partial line.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	lines := 1
	for _, b := range source {
		if b == '\n' {
			lines++
		}
	}
	if source[len(source)-1] == '\n' {
		lines--
	}
	return lines
}
