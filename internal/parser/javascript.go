package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codechunk/internal/types"
)

// JavaScriptExtractor walks tree-sitter-javascript trees. It handles
// function and class declarations in all their forms, including arrow
// functions bound through variable declarators, plus ES module and
// CommonJS import/export surfaces.
type JavaScriptExtractor struct {
	handlers map[string]jsHandler
}

type jsHandler func(e *JavaScriptExtractor, node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error)

// NewJavaScriptExtractor builds the extractor with its node-kind dispatch table.
func NewJavaScriptExtractor() *JavaScriptExtractor {
	e := &JavaScriptExtractor{}
	e.handlers = map[string]jsHandler{
		"import_statement":               (*JavaScriptExtractor).extractImport,
		"export_statement":               (*JavaScriptExtractor).extractExport,
		"function_declaration":           (*JavaScriptExtractor).extractFunction,
		"generator_function_declaration": (*JavaScriptExtractor).extractFunction,
		"class_declaration":              (*JavaScriptExtractor).extractClass,
		"lexical_declaration":            (*JavaScriptExtractor).extractVariable,
		"variable_declaration":           (*JavaScriptExtractor).extractVariable,
		"expression_statement":           (*JavaScriptExtractor).extractExpression,
	}
	return e
}

// Language returns the extractor's language key.
func (e *JavaScriptExtractor) Language() string {
	return "javascript"
}

// Extract walks the program's top-level statements.
func (e *JavaScriptExtractor) Extract(root *tree_sitter.Node, source []byte, opts ExtractOptions) ([]*types.SemanticElement, error) {
	ctx := newWalkContext(opts.MaxDepth)
	return e.extractScope(root, source, ctx, opts)
}

func (e *JavaScriptExtractor) extractScope(scope *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) ([]*types.SemanticElement, error) {
	var elements []*types.SemanticElement
	for _, child := range namedChildren(scope) {
		handler, ok := e.handlers[child.Kind()]
		if !ok {
			continue
		}
		element, err := handler(e, child, source, ctx, opts)
		if err != nil {
			return nil, err
		}
		if element != nil {
			elements = append(elements, element)
		}
	}
	return elements, nil
}

func (e *JavaScriptExtractor) extractImport(node *tree_sitter.Node, source []byte, ctx *walkContext, _ ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "source", source)
	name = strings.Trim(name, `"'`+"`")
	return &types.SemanticElement{
		Name:       name,
		Type:       types.ElementImport,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}, nil
}

// extractExport unwraps the exported declaration when one is present so an
// exported class or function keeps its own element type; bare re-exports
// become export elements.
func (e *JavaScriptExtractor) extractExport(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		if handler, ok := e.handlers[decl.Kind()]; ok {
			element, err := handler(e, decl, source, ctx, opts)
			if err != nil || element == nil {
				return element, err
			}
			// Keep the full export statement text and span.
			element.Content = nodeText(node, source)
			element.Position = nodePosition(node)
			element.SetExtra("exported", true)
			e.attachDocumentation(element, node, source, opts)
			return element, nil
		}
	}
	element := &types.SemanticElement{
		Type:       types.ElementExport,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	if src := fieldText(node, "source", source); src != "" {
		element.Name = strings.Trim(src, `"'`+"`")
	}
	return element, nil
}

func (e *JavaScriptExtractor) extractFunction(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementFunction,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		Signature:  declarationHeader(node, source),
		ParentName: ctx.ParentPath(),
		Parameters: jsParameters(node, source),
	}
	if node.Kind() == "generator_function_declaration" {
		element.SetExtra("is_generator", true)
	}
	if strings.HasPrefix(strings.TrimSpace(nodeText(node, source)), "async") {
		element.Modifiers = append(element.Modifiers, types.ModifierAsync)
	}
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

func (e *JavaScriptExtractor) extractClass(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)
	element := &types.SemanticElement{
		Name:       name,
		Type:       types.ElementClass,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	if heritage := firstChildOfKind(node, "class_heritage"); heritage != nil {
		base := strings.TrimSpace(strings.TrimPrefix(nodeText(heritage, source), "extends"))
		element.SetExtra("base_types", []string{base})
	}
	e.attachDocumentation(element, node, source, opts)

	if body := node.ChildByFieldName("body"); body != nil {
		if err := ctx.Enter(name); err != nil {
			return nil, err
		}
		for _, member := range namedChildren(body) {
			var child *types.SemanticElement
			var err error
			switch member.Kind() {
			case "method_definition":
				child, err = e.extractMethod(member, source, ctx, opts)
			case "field_definition":
				child, err = e.extractClassField(member, source, ctx, opts)
			}
			if err != nil {
				ctx.Leave(name)
				return nil, err
			}
			if child != nil {
				element.AddChild(child)
			}
		}
		ctx.Leave(name)
	}
	return element, nil
}

func (e *JavaScriptExtractor) extractMethod(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)
	elementType := types.ElementMethod
	if name == "constructor" {
		elementType = types.ElementConstructor
	}
	element := &types.SemanticElement{
		Name:       name,
		Type:       elementType,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		Signature:  declarationHeader(node, source),
		ParentName: ctx.ParentPath(),
		Parameters: jsParameters(node, source),
	}
	header := element.Signature
	if strings.Contains(header, "async ") || strings.HasPrefix(header, "async") {
		element.Modifiers = append(element.Modifiers, types.ModifierAsync)
	}
	if strings.HasPrefix(header, "static") {
		element.Modifiers = append(element.Modifiers, types.ModifierStatic)
	}
	if strings.HasPrefix(header, "get ") || strings.Contains(header, " get ") {
		element.SetExtra("accessor", "get")
	} else if strings.HasPrefix(header, "set ") || strings.Contains(header, " set ") {
		element.SetExtra("accessor", "set")
	}
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

func (e *JavaScriptExtractor) extractClassField(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "property", source),
		Type:       types.ElementField,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	if strings.HasPrefix(strings.TrimSpace(nodeText(node, source)), "static") {
		element.Modifiers = append(element.Modifiers, types.ModifierStatic)
	}
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

// extractVariable emits const/let/var declarations. A declarator whose value
// is a function expression or arrow function is promoted to a function
// element so `const f = () => {}` chunks like `function f() {}`.
func (e *JavaScriptExtractor) extractVariable(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	declarator := firstChildOfKind(node, "variable_declarator")
	if declarator == nil {
		return nil, nil
	}
	name := fieldText(declarator, "name", source)
	elementType := types.ElementVariable
	if strings.HasPrefix(nodeText(node, source), "const") {
		elementType = types.ElementConstant
	}

	if value := declarator.ChildByFieldName("value"); value != nil {
		switch value.Kind() {
		case "arrow_function", "function_expression", "generator_function":
			element := &types.SemanticElement{
				Name:       name,
				Type:       types.ElementFunction,
				Position:   nodePosition(node),
				Content:    nodeText(node, source),
				Signature:  declarationHeader(value, source),
				ParentName: ctx.ParentPath(),
				Parameters: jsParameters(value, source),
			}
			if strings.HasPrefix(strings.TrimSpace(nodeText(value, source)), "async") {
				element.Modifiers = append(element.Modifiers, types.ModifierAsync)
			}
			e.attachDocumentation(element, node, source, opts)
			return element, nil
		}
	}

	element := &types.SemanticElement{
		Name:       name,
		Type:       elementType,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

// extractExpression covers CommonJS surfaces: `module.exports = ...` and
// `exports.name = ...` assignments become export elements. Other
// expression statements are skipped.
func (e *JavaScriptExtractor) extractExpression(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	assignment := firstChildOfKind(node, "assignment_expression")
	if assignment == nil {
		return nil, nil
	}
	left := fieldText(assignment, "left", source)
	if left != "module.exports" && !strings.HasPrefix(left, "module.exports.") && !strings.HasPrefix(left, "exports.") {
		return nil, nil
	}
	element := &types.SemanticElement{
		Name:       left,
		Type:       types.ElementExport,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

// attachDocumentation associates the JSDoc block immediately preceding a
// declaration.
func (e *JavaScriptExtractor) attachDocumentation(element *types.SemanticElement, node *tree_sitter.Node, source []byte, opts ExtractOptions) {
	if !opts.Documentation || element.Documentation != "" {
		return
	}
	comments := precedingComments(node, source, func(text string) bool {
		return strings.HasPrefix(strings.TrimSpace(text), "/**")
	})
	if len(comments) > 0 {
		element.Documentation = normalizeCommentBlock(comments)
	}
}

// jsParameters extracts a function's formal parameters, including defaults
// and rest parameters.
func jsParameters(node *tree_sitter.Node, source []byte) []types.Parameter {
	list := node.ChildByFieldName("parameters")
	if list == nil {
		// Arrow functions with a single bare parameter.
		if p := node.ChildByFieldName("parameter"); p != nil {
			return []types.Parameter{{Name: nodeText(p, source)}}
		}
		return nil
	}
	var params []types.Parameter
	for _, p := range namedChildren(list) {
		switch p.Kind() {
		case "identifier":
			params = append(params, types.Parameter{Name: nodeText(p, source)})
		case "assignment_pattern":
			params = append(params, types.Parameter{
				Name:     fieldText(p, "left", source),
				Default:  fieldText(p, "right", source),
				Optional: true,
			})
		case "rest_pattern":
			params = append(params, types.Parameter{Name: nodeText(p, source)})
		case "object_pattern", "array_pattern":
			params = append(params, types.Parameter{Name: nodeText(p, source)})
		case "required_parameter", "optional_parameter":
			// TypeScript grammar parameter wrappers share this walker.
			param := types.Parameter{Name: fieldText(p, "pattern", source)}
			if t := p.ChildByFieldName("type"); t != nil {
				param.Type = strings.TrimSpace(strings.TrimPrefix(nodeText(t, source), ":"))
			}
			if def := fieldText(p, "value", source); def != "" {
				param.Default = def
				param.Optional = true
			}
			if p.Kind() == "optional_parameter" {
				param.Optional = true
			}
			params = append(params, param)
		}
	}
	return params
}
