package types

import (
	"strings"
	"time"
)

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 10 * 1024 * 1024 // 10MB per file - standard limit for parsing
	// Rationale: Prevents memory exhaustion from large
	// generated files while covering 99.9% of source files.
	// Larger files are routed straight to the fallback chunker.

	// Extraction limits
	DefaultMaxElementsPerFile = 1000 // Maximum semantic elements extracted per file
	// Rationale: Bounds memory on pathological or generated
	// input. Extraction truncates with a warning past the cap.

	DefaultMaxRecursionDepth = 200 // Maximum tree traversal depth
	// Rationale: Deeply nested or adversarial input must not
	// blow the goroutine stack; past the cap the parse is
	// routed to the next fallback tier.

	// Parse deadlines
	DefaultGrammarLoadTimeout = 10 * time.Second
	DefaultParseTimeout       = 30 * time.Second
)

// ElementType classifies one extracted semantic element.
type ElementType string

const (
	ElementImport        ElementType = "import"
	ElementUsing         ElementType = "using"
	ElementExport        ElementType = "export"
	ElementNamespace     ElementType = "namespace"
	ElementModule        ElementType = "module"
	ElementClass         ElementType = "class"
	ElementInterface     ElementType = "interface"
	ElementStruct        ElementType = "struct"
	ElementEnum          ElementType = "enum"
	ElementTypeAlias     ElementType = "type_alias"
	ElementFunction      ElementType = "function"
	ElementMethod        ElementType = "method"
	ElementConstructor   ElementType = "constructor"
	ElementProperty      ElementType = "property"
	ElementField         ElementType = "field"
	ElementVariable      ElementType = "variable"
	ElementConstant      ElementType = "constant"
	ElementDecorator     ElementType = "decorator"
	ElementAttribute     ElementType = "attribute"
	ElementComment       ElementType = "comment"
	ElementDocumentation ElementType = "documentation"
	ElementContent       ElementType = "content"
	ElementOther         ElementType = "other"
)

// IsContainer reports whether the element type is a structural container
// that owns nested declarations.
func (t ElementType) IsContainer() bool {
	switch t {
	case ElementClass, ElementInterface, ElementStruct, ElementEnum:
		return true
	}
	return false
}

// IsImportLike reports whether the element type coalesces into import groups.
func (t ElementType) IsImportLike() bool {
	return t == ElementImport || t == ElementUsing
}

// RequiresName reports whether elements of this type must carry a name.
func (t ElementType) RequiresName() bool {
	return t != ElementContent && t != ElementComment
}

// AccessModifier is one access or behavior modifier attached to an element.
type AccessModifier string

const (
	ModifierPublic    AccessModifier = "public"
	ModifierPrivate   AccessModifier = "private"
	ModifierProtected AccessModifier = "protected"
	ModifierInternal  AccessModifier = "internal"
	ModifierStatic    AccessModifier = "static"
	ModifierAbstract  AccessModifier = "abstract"
	ModifierVirtual   AccessModifier = "virtual"
	ModifierOverride  AccessModifier = "override"
	ModifierReadonly  AccessModifier = "readonly"
	ModifierAsync     AccessModifier = "async"
)

// SemanticPosition locates an element within its source file.
// Lines and columns are one-based, byte offsets index the raw content.
type SemanticPosition struct {
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
	StartByte   int
	EndByte     int
}

// Valid checks the position invariants: non-negative, start before end,
// and on a single line start column before end column.
func (p SemanticPosition) Valid() bool {
	if p.StartLine < 0 || p.StartColumn < 0 || p.StartByte < 0 {
		return false
	}
	if p.EndLine < p.StartLine || p.EndByte < p.StartByte {
		return false
	}
	if p.StartLine == p.EndLine && p.EndColumn < p.StartColumn {
		return false
	}
	return true
}

// LineCount returns the number of source lines the position spans.
func (p SemanticPosition) LineCount() int {
	return p.EndLine - p.StartLine + 1
}

// Parameter describes one declared parameter of a function-like element.
type Parameter struct {
	Name     string
	Type     string
	Default  string
	Optional bool
}

// SemanticElement is one extracted structural unit: a class, function,
// import block, namespace header, and so on. Elements form a tree - a
// parent exclusively owns its children.
type SemanticElement struct {
	Name       string
	Type       ElementType
	Position   SemanticPosition
	Content    string
	Signature  string
	ParentName string // qualified path of the enclosing container, "" at top level

	Children []*SemanticElement

	Modifiers     []AccessModifier
	ReturnType    string
	Parameters    []Parameter
	GenericParams []string
	Documentation string
	Decorators    []string
	Attributes    []string

	// Extra holds language-specific facts (is_async, base_types, ...)
	// that do not warrant widening the shared schema.
	Extra map[string]any
}

// FullName joins the parent chain with the element's own name.
func (e *SemanticElement) FullName() string {
	if e.ParentName == "" {
		return e.Name
	}
	return e.ParentName + "." + e.Name
}

// AddChild attaches a child element and stamps its parent path.
func (e *SemanticElement) AddChild(child *SemanticElement) {
	child.ParentName = e.FullName()
	e.Children = append(e.Children, child)
}

// HasModifier reports whether the element carries the given modifier.
func (e *SemanticElement) HasModifier(m AccessModifier) bool {
	for _, mod := range e.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// SetExtra records a language-specific fact on the element.
func (e *SemanticElement) SetExtra(key string, value any) {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
}

// HasDocumentation reports whether the element or any descendant carries
// extracted documentation text.
func (e *SemanticElement) HasDocumentation() bool {
	if strings.TrimSpace(e.Documentation) != "" {
		return true
	}
	for _, child := range e.Children {
		if child.HasDocumentation() {
			return true
		}
	}
	return false
}

// Walk visits the element and its descendants depth-first in source order.
// Traversal stops early if fn returns false.
func (e *SemanticElement) Walk(fn func(*SemanticElement) bool) bool {
	if !fn(e) {
		return false
	}
	for _, child := range e.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

// ParseResult carries everything a parse produced, including failures.
// Parsing never raises: errors are recorded here and flip Success.
type ParseResult struct {
	Elements []*SemanticElement
	Success  bool
	Errors   []string
	Warnings []string

	// FallbackRequired routes the caller to the next tier. It is set for
	// oversized input, deadline expiry, unrecovered syntax errors, and
	// any unexpected extraction failure. Never fatal on its own.
	FallbackRequired bool

	Parser      string // identifier of the parser that produced the result
	Elapsed     time.Duration
	SourceBytes int
	SourceLines int

	// Tree optionally references the raw grammar tree for callers that
	// need node-level access. Owned by the parser, nil after Close.
	Tree any
}

// NewParseResult returns an empty successful result for the named parser.
func NewParseResult(parser string) *ParseResult {
	return &ParseResult{Success: true, Parser: parser}
}

// AddError records an error and marks the result failed.
func (r *ParseResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// AddWarning records a warning without affecting success.
func (r *ParseResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// ElementCount returns the total number of elements including children.
func (r *ParseResult) ElementCount() int {
	count := 0
	for _, el := range r.Elements {
		el.Walk(func(*SemanticElement) bool {
			count++
			return true
		})
	}
	return count
}
