package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codechunk/internal/types"
)

// TypeScriptExtractor handles tree-sitter-typescript trees. It owns the
// TypeScript-only surfaces (interfaces, type aliases, enums, namespaces,
// ambient modules, abstract classes, decorators) and delegates everything
// JavaScript-shaped to an embedded JavaScriptExtractor rather than
// inheriting from it.
type TypeScriptExtractor struct {
	js       *JavaScriptExtractor
	handlers map[string]tsHandler
}

type tsHandler func(e *TypeScriptExtractor, node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error)

// NewTypeScriptExtractor builds the extractor and its delegate.
func NewTypeScriptExtractor() *TypeScriptExtractor {
	e := &TypeScriptExtractor{js: NewJavaScriptExtractor()}
	e.handlers = map[string]tsHandler{
		"interface_declaration":      (*TypeScriptExtractor).extractInterface,
		"type_alias_declaration":     (*TypeScriptExtractor).extractTypeAlias,
		"enum_declaration":           (*TypeScriptExtractor).extractEnum,
		"internal_module":            (*TypeScriptExtractor).extractNamespace,
		"module":                     (*TypeScriptExtractor).extractNamespace,
		"ambient_declaration":        (*TypeScriptExtractor).extractAmbient,
		"class_declaration":          (*TypeScriptExtractor).extractClass,
		"abstract_class_declaration": (*TypeScriptExtractor).extractClass,
		"export_statement":           (*TypeScriptExtractor).extractExport,
		"import_alias":               (*TypeScriptExtractor).extractImportAlias,
	}
	return e
}

// Language returns the extractor's language key.
func (e *TypeScriptExtractor) Language() string {
	return "typescript"
}

// Extract walks the program's top-level statements. TypeScript-specific
// node kinds dispatch through this extractor's table; everything else
// falls through to the JavaScript delegate.
func (e *TypeScriptExtractor) Extract(root *tree_sitter.Node, source []byte, opts ExtractOptions) ([]*types.SemanticElement, error) {
	ctx := newWalkContext(opts.MaxDepth)
	return e.extractScope(root, source, ctx, opts)
}

func (e *TypeScriptExtractor) extractScope(scope *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) ([]*types.SemanticElement, error) {
	var elements []*types.SemanticElement
	for _, child := range namedChildren(scope) {
		element, err := e.extractNode(child, source, ctx, opts)
		if err != nil {
			return nil, err
		}
		if element != nil {
			elements = append(elements, element)
		}
	}
	return elements, nil
}

func (e *TypeScriptExtractor) extractNode(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	if handler, ok := e.handlers[node.Kind()]; ok {
		return handler(e, node, source, ctx, opts)
	}
	if handler, ok := e.js.handlers[node.Kind()]; ok {
		return handler(e.js, node, source, ctx, opts)
	}
	return nil, nil
}

func (e *TypeScriptExtractor) extractInterface(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementInterface,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	e.attachGenerics(element, node, source, opts)
	if heritage := firstChildOfKind(node, "extends_type_clause"); heritage != nil {
		var bases []string
		for _, base := range namedChildren(heritage) {
			bases = append(bases, nodeText(base, source))
		}
		element.SetExtra("base_types", bases)
	}
	e.js.attachDocumentation(element, node, source, opts)
	return element, nil
}

func (e *TypeScriptExtractor) extractTypeAlias(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementTypeAlias,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	e.attachGenerics(element, node, source, opts)
	e.js.attachDocumentation(element, node, source, opts)
	return element, nil
}

func (e *TypeScriptExtractor) extractEnum(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementEnum,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	if strings.HasPrefix(strings.TrimSpace(nodeText(node, source)), "const") {
		element.SetExtra("is_const_enum", true)
	}
	e.js.attachDocumentation(element, node, source, opts)
	return element, nil
}

// extractNamespace covers `namespace N {}` and ambient `declare module "m"`
// blocks. Members are attached as children so the chunker can flatten
// nested namespaces.
func (e *TypeScriptExtractor) extractNamespace(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)
	elementType := types.ElementNamespace
	if strings.HasPrefix(name, `"`) || strings.HasPrefix(name, "'") {
		name = strings.Trim(name, `"'`)
		elementType = types.ElementModule
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		body = firstChildOfKind(node, "statement_block")
	}

	element := &types.SemanticElement{
		Name:       name,
		Type:       elementType,
		Position:   nodePosition(node),
		Content:    namespaceHeader(node, body, source),
		ParentName: ctx.ParentPath(),
	}
	e.js.attachDocumentation(element, node, source, opts)

	if body != nil {
		if err := ctx.Enter(name); err != nil {
			return nil, err
		}
		children, err := e.extractScope(body, source, ctx, opts)
		ctx.Leave(name)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			element.AddChild(child)
		}
	}
	return element, nil
}

// extractAmbient unwraps `declare ...` statements and marks the inner
// element as ambient.
func (e *TypeScriptExtractor) extractAmbient(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	for _, child := range namedChildren(node) {
		element, err := e.extractNode(child, source, ctx, opts)
		if err != nil || element == nil {
			continue
		}
		element.Content = nodeText(node, source)
		element.Position = nodePosition(node)
		element.SetExtra("ambient", true)
		return element, err
	}
	return &types.SemanticElement{
		Type:       types.ElementOther,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}, nil
}

// extractClass extends the JavaScript class walk with TypeScript member
// kinds, accessibility modifiers, implements clauses, and decorators.
func (e *TypeScriptExtractor) extractClass(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)
	element := &types.SemanticElement{
		Name:       name,
		Type:       types.ElementClass,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
	if node.Kind() == "abstract_class_declaration" {
		element.Modifiers = append(element.Modifiers, types.ModifierAbstract)
	}
	e.attachGenerics(element, node, source, opts)
	e.attachDecorators(element, node, source, opts)
	if heritage := firstChildOfKind(node, "class_heritage"); heritage != nil {
		var bases, implemented []string
		if ext := firstChildOfKind(heritage, "extends_clause"); ext != nil {
			for _, base := range namedChildren(ext) {
				bases = append(bases, nodeText(base, source))
			}
		}
		if impl := firstChildOfKind(heritage, "implements_clause"); impl != nil {
			for _, iface := range namedChildren(impl) {
				implemented = append(implemented, nodeText(iface, source))
			}
		}
		if len(bases) > 0 {
			element.SetExtra("base_types", bases)
		}
		if len(implemented) > 0 {
			element.SetExtra("implements", implemented)
		}
	}
	e.js.attachDocumentation(element, node, source, opts)

	if body := node.ChildByFieldName("body"); body != nil {
		if err := ctx.Enter(name); err != nil {
			return nil, err
		}
		for _, member := range namedChildren(body) {
			child, err := e.extractClassMember(member, source, ctx, opts)
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

func (e *TypeScriptExtractor) extractClassMember(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	switch node.Kind() {
	case "method_definition":
		child, err := e.js.extractMethod(node, source, ctx, opts)
		if err != nil || child == nil {
			return child, err
		}
		e.applyAccessibility(child, node, source)
		e.attachDecorators(child, node, source, opts)
		if ret := node.ChildByFieldName("return_type"); ret != nil {
			child.ReturnType = strings.TrimSpace(strings.TrimPrefix(nodeText(ret, source), ":"))
		}
		return child, nil
	case "abstract_method_signature", "method_signature":
		child := &types.SemanticElement{
			Name:       fieldText(node, "name", source),
			Type:       types.ElementMethod,
			Position:   nodePosition(node),
			Content:    nodeText(node, source),
			Signature:  strings.TrimSpace(nodeText(node, source)),
			ParentName: ctx.ParentPath(),
			Parameters: jsParameters(node, source),
		}
		if node.Kind() == "abstract_method_signature" {
			child.Modifiers = append(child.Modifiers, types.ModifierAbstract)
		}
		e.applyAccessibility(child, node, source)
		e.js.attachDocumentation(child, node, source, opts)
		return child, nil
	case "public_field_definition":
		child := &types.SemanticElement{
			Name:       fieldText(node, "name", source),
			Type:       types.ElementField,
			Position:   nodePosition(node),
			Content:    nodeText(node, source),
			ParentName: ctx.ParentPath(),
		}
		if t := node.ChildByFieldName("type"); t != nil {
			child.ReturnType = strings.TrimSpace(strings.TrimPrefix(nodeText(t, source), ":"))
		}
		e.applyAccessibility(child, node, source)
		e.attachDecorators(child, node, source, opts)
		e.js.attachDocumentation(child, node, source, opts)
		return child, nil
	case "field_definition":
		return e.js.extractClassField(node, source, ctx, opts)
	}
	return nil, nil
}

// extractExport handles exported TypeScript declarations before deferring
// to the JavaScript export handler.
func (e *TypeScriptExtractor) extractExport(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		if handler, ok := e.handlers[decl.Kind()]; ok && decl.Kind() != "export_statement" {
			element, err := handler(e, decl, source, ctx, opts)
			if err != nil || element == nil {
				return element, err
			}
			element.Content = nodeText(node, source)
			element.Position = nodePosition(node)
			element.SetExtra("exported", true)
			return element, nil
		}
	}
	return e.js.extractExport(node, source, ctx, opts)
}

func (e *TypeScriptExtractor) extractImportAlias(node *tree_sitter.Node, source []byte, ctx *walkContext, _ ExtractOptions) (*types.SemanticElement, error) {
	return &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementImport,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}, nil
}

// applyAccessibility maps TypeScript accessibility_modifier tokens plus
// static/readonly keywords onto the modifier set.
func (e *TypeScriptExtractor) applyAccessibility(element *types.SemanticElement, node *tree_sitter.Node, source []byte) {
	if mod := firstChildOfKind(node, "accessibility_modifier"); mod != nil {
		switch nodeText(mod, source) {
		case "public":
			element.Modifiers = append(element.Modifiers, types.ModifierPublic)
		case "private":
			element.Modifiers = append(element.Modifiers, types.ModifierPrivate)
		case "protected":
			element.Modifiers = append(element.Modifiers, types.ModifierProtected)
		}
	}
	header := element.Signature
	if header == "" {
		header = element.Content
	}
	if strings.Contains(header, "readonly ") && !element.HasModifier(types.ModifierReadonly) {
		element.Modifiers = append(element.Modifiers, types.ModifierReadonly)
	}
	if strings.HasPrefix(strings.TrimSpace(header), "static") && !element.HasModifier(types.ModifierStatic) {
		element.Modifiers = append(element.Modifiers, types.ModifierStatic)
	}
}

// attachDecorators collects @decorator nodes hanging off a declaration.
func (e *TypeScriptExtractor) attachDecorators(element *types.SemanticElement, node *tree_sitter.Node, source []byte, opts ExtractOptions) {
	if !opts.Attributes {
		return
	}
	for _, dec := range childrenOfKind(node, "decorator") {
		element.Decorators = append(element.Decorators, nodeText(dec, source))
	}
	// Decorators on exported classes sit on the export statement.
	if parent := node.Parent(); parent != nil && parent.Kind() == "export_statement" {
		for _, dec := range childrenOfKind(parent, "decorator") {
			element.Decorators = append(element.Decorators, nodeText(dec, source))
		}
	}
}

// attachGenerics collects type parameter names.
func (e *TypeScriptExtractor) attachGenerics(element *types.SemanticElement, node *tree_sitter.Node, source []byte, opts ExtractOptions) {
	if !opts.Generics {
		return
	}
	if params := node.ChildByFieldName("type_parameters"); params != nil {
		for _, param := range namedChildren(params) {
			element.GenericParams = append(element.GenericParams, nodeText(param, source))
		}
	} else if params := firstChildOfKind(node, "type_parameters"); params != nil {
		for _, param := range namedChildren(params) {
			element.GenericParams = append(element.GenericParams, nodeText(param, source))
		}
	}
}
