package parser

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Boundary is a structural block recovered by a boundary query: a function,
// class, or other declaration with its span. Boundary parsing is coarser
// than semantic extraction and covers languages that only need
// token-budgeted chunking, not full element trees.
type Boundary struct {
	Kind      string
	Name      string
	StartLine int
	EndLine   int
	StartByte int
	EndByte   int
}

// BoundaryParser runs per-language tree-sitter queries to find block
// boundaries and symbol names. Parsers and queries initialize lazily on
// first use of each language.
type BoundaryParser struct {
	mu      sync.Mutex
	parsers map[string]*tree_sitter.Parser
	queries map[string]*tree_sitter.Query
}

// NewBoundaryParser creates an empty parser registry.
func NewBoundaryParser() *BoundaryParser {
	return &BoundaryParser{
		parsers: make(map[string]*tree_sitter.Parser),
		queries: make(map[string]*tree_sitter.Query),
	}
}

// boundaryQueries maps each language to its block boundary query.
var boundaryQueries = map[string]string{
	"javascript": `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (variable_declarator
            name: (identifier) @function.name
            value: [(arrow_function) (function_expression) (generator_function)]) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (identifier) @class.name) @class
        (import_statement source: (string) @import.source) @import
    `,
	"typescript": `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (type_identifier) @class.name) @class
        (interface_declaration name: (type_identifier) @interface.name) @interface
        (type_alias_declaration name: (type_identifier) @type.name) @type
        (enum_declaration name: (identifier) @enum.name) @enum
        (import_statement source: (string) @import.source) @import
    `,
	"python": `
        (function_definition name: (identifier) @function.name) @function
        (class_definition name: (identifier) @class.name) @class
        (import_statement) @import
        (import_from_statement) @import
    `,
	"csharp": `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (struct_declaration name: (identifier) @struct.name) @struct
        (enum_declaration name: (identifier) @enum.name) @enum
        (property_declaration name: (identifier) @property.name) @property
        (using_directive (qualified_name) @using.name) @import
        (using_directive (identifier) @using.name) @import
        (namespace_declaration name: (qualified_name) @namespace.name) @namespace
        (namespace_declaration name: (identifier) @namespace.name) @namespace
    `,
	"go": `
        (function_declaration name: (identifier) @function.name) @function
        (method_declaration name: (field_identifier) @method.name) @method
        (type_declaration (type_spec name: (type_identifier) @type.name)) @type
        (import_spec path: (interpreted_string_literal) @import.path) @import
    `,
	"java": `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (record_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (enum_declaration name: (identifier) @enum.name) @enum
        (import_declaration) @import
    `,
	"cpp": `
        (function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
        (class_specifier name: (type_identifier) @class.name) @class
        (struct_specifier name: (type_identifier) @struct.name) @struct
        (enum_specifier name: (type_identifier) @enum.name) @enum
        (namespace_definition) @namespace
        (preproc_include) @import
        (using_declaration) @import
    `,
	"rust": `
        (function_item name: (identifier) @function.name) @function
        (struct_item name: (type_identifier) @struct.name) @struct
        (enum_item name: (type_identifier) @enum.name) @enum
        (trait_item name: (type_identifier) @interface.name) @interface
        (impl_item) @class
        (mod_item name: (identifier) @namespace.name) @namespace
        (use_declaration) @import
    `,
	"php": `
        (class_declaration name: (name) @class.name) @class
        (interface_declaration name: (name) @interface.name) @interface
        (trait_declaration name: (name) @trait.name) @trait
        (enum_declaration name: (name) @enum.name) @enum
        (function_definition name: (name) @function.name) @function
        (method_declaration name: (name) @method.name) @method
        (namespace_definition name: (namespace_name) @namespace.name) @namespace
        (namespace_use_declaration) @import
    `,
	"zig": `
        (function_declaration (identifier) @function.name) @function
        (variable_declaration
          (identifier) @struct.name
          (struct_declaration) @struct)
        (variable_declaration
          (identifier) @struct.name
          (union_declaration) @struct)
    `,
}

func init() {
	// tsx shares the TypeScript boundary query.
	boundaryQueries["tsx"] = boundaryQueries["typescript"]
}

// Supports reports whether a boundary query exists for the language.
func (p *BoundaryParser) Supports(language string) bool {
	_, ok := boundaryQueries[language]
	return ok && grammarFor(language) != nil
}

// Boundaries parses the source and returns its block boundaries ordered by
// start byte. Nested boundaries are retained; callers choose the level they
// need by kind.
func (p *BoundaryParser) Boundaries(language string, source []byte) ([]Boundary, error) {
	parser, query, err := p.setupLanguage(language)
	if err != nil {
		return nil, err
	}

	// tree-sitter reads through CGO; keep a private copy.
	buf := make([]byte, len(source))
	copy(buf, source)

	p.mu.Lock()
	tree := parser.Parse(buf, nil)
	p.mu.Unlock()
	if tree == nil {
		return nil, fmt.Errorf("parse returned no tree for %s", language)
	}
	defer tree.Close()

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()
	matches := qc.Matches(query, tree.RootNode(), buf)
	captureNames := query.CaptureNames()

	var boundaries []Boundary
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		var boundary *Boundary
		name := ""
		for _, capture := range match.Captures {
			captureName := captureNames[capture.Index]
			if strings.Contains(captureName, ".") {
				text := string(buf[capture.Node.StartByte():capture.Node.EndByte()])
				name = strings.Trim(text, `"'`)
				continue
			}
			node := capture.Node
			boundary = &Boundary{
				Kind:      captureName,
				StartLine: int(node.StartPosition().Row) + 1,
				EndLine:   int(node.EndPosition().Row) + 1,
				StartByte: int(node.StartByte()),
				EndByte:   int(node.EndByte()),
			}
		}
		if boundary != nil {
			boundary.Name = name
			boundaries = append(boundaries, *boundary)
		}
	}

	sort.Slice(boundaries, func(i, j int) bool {
		if boundaries[i].StartByte != boundaries[j].StartByte {
			return boundaries[i].StartByte < boundaries[j].StartByte
		}
		return boundaries[i].EndByte > boundaries[j].EndByte
	})
	return boundaries, nil
}

// setupLanguage lazily builds the parser and compiled query for a language.
func (p *BoundaryParser) setupLanguage(language string) (*tree_sitter.Parser, *tree_sitter.Query, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if parser, ok := p.parsers[language]; ok {
		return parser, p.queries[language], nil
	}
	queryStr, ok := boundaryQueries[language]
	if !ok {
		return nil, nil, fmt.Errorf("no boundary query for language %q", language)
	}
	loader := grammarFor(language)
	if loader == nil {
		return nil, nil, fmt.Errorf("no grammar for language %q", language)
	}
	grammar := loader()

	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(grammar); err != nil {
		return nil, nil, fmt.Errorf("set language %s: %w", language, err)
	}
	query, _ := tree_sitter.NewQuery(grammar, queryStr)
	// The binding can return a typed nil error, so check the query itself.
	if query == nil {
		return nil, nil, fmt.Errorf("boundary query failed to compile for %s", language)
	}
	p.parsers[language] = parser
	p.queries[language] = query
	return parser, query, nil
}

// Close releases all parsers and compiled queries.
func (p *BoundaryParser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, parser := range p.parsers {
		parser.Close()
	}
	for _, query := range p.queries {
		query.Close()
	}
	p.parsers = make(map[string]*tree_sitter.Parser)
	p.queries = make(map[string]*tree_sitter.Query)
}
