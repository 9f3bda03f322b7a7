package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codechunk/internal/types"
)

// CSharpExtractor walks tree-sitter-c-sharp trees. Namespaces become their
// own header elements with nested declarations attached as children, so the
// chunker can flatten deeply nested files into per-container chunks.
type CSharpExtractor struct {
	handlers map[string]csharpHandler
}

type csharpHandler func(e *CSharpExtractor, node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error)

// NewCSharpExtractor builds the extractor with its node-kind dispatch table.
func NewCSharpExtractor() *CSharpExtractor {
	e := &CSharpExtractor{}
	e.handlers = map[string]csharpHandler{
		"using_directive":                     (*CSharpExtractor).extractUsing,
		"namespace_declaration":               (*CSharpExtractor).extractNamespace,
		"file_scoped_namespace_declaration":   (*CSharpExtractor).extractFileScopedNamespace,
		"class_declaration":                   (*CSharpExtractor).extractTypeDeclaration,
		"interface_declaration":               (*CSharpExtractor).extractTypeDeclaration,
		"struct_declaration":                  (*CSharpExtractor).extractTypeDeclaration,
		"record_declaration":                  (*CSharpExtractor).extractTypeDeclaration,
		"enum_declaration":                    (*CSharpExtractor).extractEnum,
		"method_declaration":                  (*CSharpExtractor).extractMethod,
		"constructor_declaration":             (*CSharpExtractor).extractConstructor,
		"property_declaration":                (*CSharpExtractor).extractProperty,
		"field_declaration":                   (*CSharpExtractor).extractField,
		"event_field_declaration":             (*CSharpExtractor).extractField,
		"delegate_declaration":                (*CSharpExtractor).extractDelegate,
		"global_statement":                    (*CSharpExtractor).extractGlobalStatement,
	}
	return e
}

// Language returns the extractor's language key.
func (e *CSharpExtractor) Language() string {
	return "csharp"
}

// Extract walks the compilation unit's top-level declarations.
func (e *CSharpExtractor) Extract(root *tree_sitter.Node, source []byte, opts ExtractOptions) ([]*types.SemanticElement, error) {
	ctx := newWalkContext(opts.MaxDepth)
	return e.extractScope(root, source, ctx, opts)
}

// extractScope dispatches each named child of a container body through the
// handler table, skipping node kinds with no semantic mapping.
func (e *CSharpExtractor) extractScope(scope *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) ([]*types.SemanticElement, error) {
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

func (e *CSharpExtractor) extractUsing(node *tree_sitter.Node, source []byte, ctx *walkContext, _ ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)
	if name == "" {
		// Older grammar revisions expose the namespace as a plain child.
		if q := firstChildOfKind(node, "qualified_name"); q != nil {
			name = nodeText(q, source)
		} else if id := firstChildOfKind(node, "identifier"); id != nil {
			name = nodeText(id, source)
		}
	}
	return &types.SemanticElement{
		Name:       name,
		Type:       types.ElementUsing,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}, nil
}

func (e *CSharpExtractor) extractNamespace(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)
	body := node.ChildByFieldName("body")

	element := &types.SemanticElement{
		Name:       name,
		Type:       types.ElementNamespace,
		Position:   nodePosition(node),
		Content:    namespaceHeader(node, body, source),
		ParentName: ctx.ParentPath(),
	}
	e.attachDocumentation(element, node, source, opts)

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

// extractFileScopedNamespace handles `namespace Foo;` declarations whose
// members are siblings inside the same node rather than a body block.
func (e *CSharpExtractor) extractFileScopedNamespace(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)

	element := &types.SemanticElement{
		Name:       name,
		Type:       types.ElementNamespace,
		Position:   nodePosition(node),
		ParentName: ctx.ParentPath(),
	}
	// Header is the declaration line itself.
	firstLine := nodeText(node, source)
	if idx := strings.Index(firstLine, "\n"); idx >= 0 {
		firstLine = firstLine[:idx]
	}
	element.Content = strings.TrimSpace(firstLine)
	e.attachDocumentation(element, node, source, opts)

	if err := ctx.Enter(name); err != nil {
		return nil, err
	}
	children, err := e.extractScope(node, source, ctx, opts)
	ctx.Leave(name)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		element.AddChild(child)
	}
	return element, nil
}

// extractTypeDeclaration handles class, interface, struct, and record
// declarations, recursing into their member bodies.
func (e *CSharpExtractor) extractTypeDeclaration(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := fieldText(node, "name", source)

	var elementType types.ElementType
	switch node.Kind() {
	case "interface_declaration":
		elementType = types.ElementInterface
	case "struct_declaration":
		elementType = types.ElementStruct
	default:
		elementType = types.ElementClass
	}

	element := &types.SemanticElement{
		Name:       name,
		Type:       elementType,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
	}
	if node.Kind() == "record_declaration" {
		element.SetExtra("is_record", true)
	}
	e.attachDocumentation(element, node, source, opts)
	e.attachAttributes(element, node, source, opts)
	e.attachGenerics(element, node, source, opts)
	if bases := firstChildOfKind(node, "base_list"); bases != nil {
		var baseTypes []string
		for _, base := range namedChildren(bases) {
			baseTypes = append(baseTypes, nodeText(base, source))
		}
		element.SetExtra("base_types", baseTypes)
	}

	if body := node.ChildByFieldName("body"); body != nil {
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

func (e *CSharpExtractor) extractEnum(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementEnum,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
	}
	e.attachDocumentation(element, node, source, opts)
	e.attachAttributes(element, node, source, opts)
	return element, nil
}

func (e *CSharpExtractor) extractMethod(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementMethod,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		Signature:  declarationHeader(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
		ReturnType: fieldText(node, "returns", source),
		Parameters: csharpParameters(node, source),
	}
	if element.ReturnType == "" {
		element.ReturnType = fieldText(node, "type", source)
	}
	if element.HasModifier(types.ModifierAsync) {
		element.SetExtra("is_async", true)
	}
	e.attachDocumentation(element, node, source, opts)
	e.attachAttributes(element, node, source, opts)
	e.attachGenerics(element, node, source, opts)
	return element, nil
}

func (e *CSharpExtractor) extractConstructor(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementConstructor,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		Signature:  declarationHeader(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
		Parameters: csharpParameters(node, source),
	}
	e.attachDocumentation(element, node, source, opts)
	e.attachAttributes(element, node, source, opts)
	return element, nil
}

func (e *CSharpExtractor) extractProperty(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementProperty,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
		ReturnType: fieldText(node, "type", source),
	}
	e.attachDocumentation(element, node, source, opts)
	e.attachAttributes(element, node, source, opts)
	return element, nil
}

func (e *CSharpExtractor) extractField(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	name := ""
	fieldType := ""
	if decl := firstChildOfKind(node, "variable_declaration"); decl != nil {
		fieldType = fieldText(decl, "type", source)
		if declarator := firstChildOfKind(decl, "variable_declarator"); declarator != nil {
			if id := firstChildOfKind(declarator, "identifier"); id != nil {
				name = nodeText(id, source)
			}
		}
	}

	element := &types.SemanticElement{
		Name:       name,
		Type:       types.ElementField,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
		ReturnType: fieldType,
	}
	if node.Kind() == "event_field_declaration" {
		element.SetExtra("is_event", true)
	}
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

func (e *CSharpExtractor) extractDelegate(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	element := &types.SemanticElement{
		Name:       fieldText(node, "name", source),
		Type:       types.ElementTypeAlias,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
		Modifiers:  csharpModifiers(node, source),
		Parameters: csharpParameters(node, source),
	}
	element.SetExtra("is_delegate", true)
	e.attachDocumentation(element, node, source, opts)
	return element, nil
}

// extractGlobalStatement covers top-level statements in modern C# programs.
func (e *CSharpExtractor) extractGlobalStatement(node *tree_sitter.Node, source []byte, ctx *walkContext, _ ExtractOptions) (*types.SemanticElement, error) {
	return &types.SemanticElement{
		Type:       types.ElementContent,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}, nil
}

// attachDocumentation associates the XML doc comment block immediately
// preceding a declaration (triple-slash or /** */ style).
func (e *CSharpExtractor) attachDocumentation(element *types.SemanticElement, node *tree_sitter.Node, source []byte, opts ExtractOptions) {
	if !opts.Documentation {
		return
	}
	comments := precedingComments(node, source, func(text string) bool {
		trimmed := strings.TrimSpace(text)
		return strings.HasPrefix(trimmed, "///") || strings.HasPrefix(trimmed, "/**")
	})
	if len(comments) > 0 {
		element.Documentation = normalizeCommentBlock(comments)
	}
}

// attachAttributes collects [Attribute] lists into the element.
func (e *CSharpExtractor) attachAttributes(element *types.SemanticElement, node *tree_sitter.Node, source []byte, opts ExtractOptions) {
	if !opts.Attributes {
		return
	}
	for _, list := range childrenOfKind(node, "attribute_list") {
		for _, attr := range childrenOfKind(list, "attribute") {
			element.Attributes = append(element.Attributes, nodeText(attr, source))
		}
	}
}

// attachGenerics collects the declaration's type parameter names.
func (e *CSharpExtractor) attachGenerics(element *types.SemanticElement, node *tree_sitter.Node, source []byte, opts ExtractOptions) {
	if !opts.Generics {
		return
	}
	if params := firstChildOfKind(node, "type_parameter_list"); params != nil {
		for _, param := range childrenOfKind(params, "type_parameter") {
			element.GenericParams = append(element.GenericParams, nodeText(param, source))
		}
	}
}

// csharpModifiers maps the declaration's modifier tokens onto the shared
// AccessModifier set, dropping language-idiosyncratic ones.
func csharpModifiers(node *tree_sitter.Node, source []byte) []types.AccessModifier {
	var modifiers []types.AccessModifier
	for _, mod := range childrenOfKind(node, "modifier") {
		switch nodeText(mod, source) {
		case "public":
			modifiers = append(modifiers, types.ModifierPublic)
		case "private":
			modifiers = append(modifiers, types.ModifierPrivate)
		case "protected":
			modifiers = append(modifiers, types.ModifierProtected)
		case "internal":
			modifiers = append(modifiers, types.ModifierInternal)
		case "static":
			modifiers = append(modifiers, types.ModifierStatic)
		case "abstract":
			modifiers = append(modifiers, types.ModifierAbstract)
		case "virtual":
			modifiers = append(modifiers, types.ModifierVirtual)
		case "override":
			modifiers = append(modifiers, types.ModifierOverride)
		case "readonly":
			modifiers = append(modifiers, types.ModifierReadonly)
		case "async":
			modifiers = append(modifiers, types.ModifierAsync)
		}
	}
	return modifiers
}

// csharpParameters extracts the declaration's parameter list.
func csharpParameters(node *tree_sitter.Node, source []byte) []types.Parameter {
	list := node.ChildByFieldName("parameters")
	if list == nil {
		list = firstChildOfKind(node, "parameter_list")
	}
	if list == nil {
		return nil
	}
	var params []types.Parameter
	for _, p := range childrenOfKind(list, "parameter") {
		param := types.Parameter{
			Name: fieldText(p, "name", source),
			Type: fieldText(p, "type", source),
		}
		if def := firstChildOfKind(p, "equals_value_clause"); def != nil {
			param.Default = strings.TrimSpace(strings.TrimPrefix(nodeText(def, source), "="))
			param.Optional = true
		}
		params = append(params, param)
	}
	return params
}

// namespaceHeader returns the container text before its body block.
func namespaceHeader(node, body *tree_sitter.Node, source []byte) string {
	if body == nil {
		return strings.TrimSpace(nodeText(node, source))
	}
	start, end := int(node.StartByte()), int(body.StartByte())
	if start >= end || end > len(source) {
		return strings.TrimSpace(nodeText(node, source))
	}
	return strings.TrimSpace(string(source[start:end]))
}

// declarationHeader returns a declaration's text up to its body, serving
// as the signature string.
func declarationHeader(node *tree_sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil {
		body = firstChildOfKind(node, "block")
	}
	if body == nil {
		body = firstChildOfKind(node, "arrow_expression_clause")
	}
	if body == nil {
		text := nodeText(node, source)
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}
	start, end := int(node.StartByte()), int(body.StartByte())
	if start >= end || end > len(source) {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}
