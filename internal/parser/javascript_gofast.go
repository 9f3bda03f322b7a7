package parser

import (
	"sort"
	"strings"

	"github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"

	ccerrors "github.com/standardbeagle/codechunk/internal/errors"
	"github.com/standardbeagle/codechunk/internal/types"
)

// GoFastExtractor is the degraded JavaScript tier. It parses with go-fAST,
// a pure-Go ES parser, when the tree-sitter grammar is unavailable or the
// tree-sitter parse required fallback. go-fAST does not understand ES6
// modules or TypeScript syntax, so its errors propagate and route the file
// to the line-based fallback chunker.
//
// go-fAST reports only start offsets, so element end positions are
// approximated: each top-level element extends to the start of the next
// one, and the last extends to end of file.
type GoFastExtractor struct{}

// NewGoFastExtractor creates the go-fAST based extractor.
func NewGoFastExtractor() *GoFastExtractor {
	return &GoFastExtractor{}
}

// Language returns the extractor's language key.
func (e *GoFastExtractor) Language() string {
	return "javascript"
}

// ExtractSource parses the source and extracts declaration elements.
func (e *GoFastExtractor) ExtractSource(source []byte) ([]*types.SemanticElement, error) {
	content := string(source)
	program, err := parser.ParseFile(content)
	if err != nil {
		return nil, ccerrors.NewFallbackError("gofast_javascript", "parse failed", err)
	}

	lines := newLineIndex(content)
	var elements []*types.SemanticElement
	for _, stmt := range program.Body {
		if element := e.visitStatement(stmt.Stmt, lines); element != nil {
			elements = append(elements, element)
		}
	}
	approximateSpans(elements, lines)
	for _, element := range elements {
		clampChildSpans(element, lines)
	}
	return elements, nil
}

// clampChildSpans keeps approximated child spans inside their parent.
func clampChildSpans(parent *types.SemanticElement, idx *lineIndex) {
	for _, child := range parent.Children {
		if child.Position.EndLine > parent.Position.EndLine {
			child.Position.EndLine = parent.Position.EndLine
			if child.Position.StartLine <= child.Position.EndLine {
				child.Content = strings.Join(idx.lines[child.Position.StartLine-1:child.Position.EndLine], "\n")
				child.Position.EndByte = child.Position.StartByte + len(child.Content)
			}
		}
		clampChildSpans(child, idx)
	}
}

func (e *GoFastExtractor) visitStatement(stmt ast.Stmt, lines *lineIndex) *types.SemanticElement {
	switch s := stmt.(type) {
	case *ast.FunctionDeclaration:
		if s.Function == nil || s.Function.Name == nil {
			return nil
		}
		element := &types.SemanticElement{
			Name:     s.Function.Name.Name,
			Type:     types.ElementFunction,
			Position: lines.positionAt(int(s.Function.Function)),
		}
		if s.Function.Async {
			element.Modifiers = append(element.Modifiers, types.ModifierAsync)
		}
		if s.Function.Generator {
			element.SetExtra("is_generator", true)
		}
		return element

	case *ast.ClassDeclaration:
		if s.Class == nil || s.Class.Name == nil {
			return nil
		}
		element := &types.SemanticElement{
			Name:     s.Class.Name.Name,
			Type:     types.ElementClass,
			Position: lines.positionAt(int(s.Class.Class)),
		}
		for _, member := range s.Class.Body {
			if child := e.visitClassElement(member.Element, element.Name, lines); child != nil {
				element.AddChild(child)
			}
		}
		approximateSpans(element.Children, lines)
		return element

	case *ast.VariableDeclaration:
		for _, decl := range s.List {
			if decl.Target == nil || decl.Target.Target == nil {
				continue
			}
			name := bindingName(decl.Target.Target)
			if name == "" {
				continue
			}
			if decl.Initializer != nil && decl.Initializer.Expr != nil {
				switch init := decl.Initializer.Expr.(type) {
				case *ast.FunctionLiteral:
					element := &types.SemanticElement{
						Name:     name,
						Type:     types.ElementFunction,
						Position: lines.positionAt(int(s.Idx)),
					}
					if init.Async {
						element.Modifiers = append(element.Modifiers, types.ModifierAsync)
					}
					if init.Generator {
						element.SetExtra("is_generator", true)
					}
					return element
				case *ast.ArrowFunctionLiteral:
					element := &types.SemanticElement{
						Name:     name,
						Type:     types.ElementFunction,
						Position: lines.positionAt(int(s.Idx)),
					}
					if init.Async {
						element.Modifiers = append(element.Modifiers, types.ModifierAsync)
					}
					return element
				}
			}
			elementType := types.ElementVariable
			if s.Token.String() == "const" {
				elementType = types.ElementConstant
			}
			return &types.SemanticElement{
				Name:     name,
				Type:     elementType,
				Position: lines.positionAt(int(s.Idx)),
			}
		}
	}
	return nil
}

func (e *GoFastExtractor) visitClassElement(element ast.Element, parentName string, lines *lineIndex) *types.SemanticElement {
	switch member := element.(type) {
	case *ast.MethodDefinition:
		if member.Key == nil || member.Key.Expr == nil || member.Body == nil {
			return nil
		}
		name := keyName(member.Key.Expr)
		if name == "" {
			return nil
		}
		elementType := types.ElementMethod
		if name == "constructor" {
			elementType = types.ElementConstructor
		}
		child := &types.SemanticElement{
			Name:       name,
			Type:       elementType,
			Position:   lines.positionAt(int(member.Idx)),
			ParentName: parentName,
		}
		if member.Body.Async {
			child.Modifiers = append(child.Modifiers, types.ModifierAsync)
		}
		if member.Body.Generator {
			child.SetExtra("is_generator", true)
		}
		if member.Static {
			child.Modifiers = append(child.Modifiers, types.ModifierStatic)
		}
		if kind := string(member.Kind); kind != "" && kind != "method" {
			child.SetExtra("accessor", kind)
		}
		return child

	case *ast.FieldDefinition:
		if member.Key == nil || member.Key.Expr == nil {
			return nil
		}
		name := keyName(member.Key.Expr)
		if name == "" {
			return nil
		}
		child := &types.SemanticElement{
			Name:       name,
			Type:       types.ElementField,
			Position:   lines.positionAt(int(member.Idx)),
			ParentName: parentName,
		}
		if member.Static {
			child.Modifiers = append(child.Modifiers, types.ModifierStatic)
		}
		return child
	}
	return nil
}

func bindingName(target ast.Target) string {
	if ident, ok := target.(*ast.Identifier); ok {
		return ident.Name
	}
	return ""
}

func keyName(expr ast.Expr) string {
	switch key := expr.(type) {
	case *ast.Identifier:
		return key.Name
	case *ast.PrivateIdentifier:
		if key.Identifier != nil {
			return "#" + key.Identifier.Name
		}
	case *ast.StringLiteral:
		return key.Value
	}
	return ""
}

// lineIndex maps byte offsets to line numbers and carries the source lines
// for span reconstruction.
type lineIndex struct {
	starts []int
	lines  []string
}

func newLineIndex(content string) *lineIndex {
	idx := &lineIndex{starts: []int{0}, lines: strings.Split(content, "\n")}
	for i, r := range content {
		if r == '\n' {
			idx.starts = append(idx.starts, i+1)
		}
	}
	return idx
}

// lineAt returns the 1-based line containing the byte offset.
func (idx *lineIndex) lineAt(offset int) int {
	n := sort.Search(len(idx.starts), func(i int) bool { return idx.starts[i] > offset })
	return n
}

func (idx *lineIndex) positionAt(offset int) types.SemanticPosition {
	line := idx.lineAt(offset)
	column := offset - idx.starts[line-1] + 1
	return types.SemanticPosition{
		StartLine:   line,
		EndLine:     line,
		StartColumn: column,
		StartByte:   offset,
		EndByte:     offset,
	}
}

// approximateSpans stretches each element's end to the line before the next
// sibling starts, then rebuilds content from the covered lines.
func approximateSpans(elements []*types.SemanticElement, idx *lineIndex) {
	for i, element := range elements {
		endLine := len(idx.lines)
		if i+1 < len(elements) {
			endLine = elements[i+1].Position.StartLine - 1
		}
		if endLine < element.Position.StartLine {
			endLine = element.Position.StartLine
		}
		// Trim trailing blank lines from the span.
		for endLine > element.Position.StartLine && strings.TrimSpace(idx.lines[endLine-1]) == "" {
			endLine--
		}
		element.Position.EndLine = endLine
		element.Content = strings.Join(idx.lines[element.Position.StartLine-1:endLine], "\n")
		element.Position.EndByte = element.Position.StartByte + len(element.Content)
	}
}
