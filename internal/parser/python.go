package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codechunk/internal/types"
)

// PythonExtractor walks tree-sitter-python trees. Consecutive import
// statements coalesce into a single element, docstrings attach to their
// definition rather than to a preceding comment, and decorated definitions
// unwrap with the decorator list preserved.
type PythonExtractor struct{}

// NewPythonExtractor creates the Python extractor.
func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{}
}

// Language returns the extractor's language key.
func (e *PythonExtractor) Language() string {
	return "python"
}

// Extract walks the module's top-level statements.
func (e *PythonExtractor) Extract(root *tree_sitter.Node, source []byte, opts ExtractOptions) ([]*types.SemanticElement, error) {
	ctx := newWalkContext(opts.MaxDepth)
	var elements []*types.SemanticElement

	children := namedChildren(root)
	for i := 0; i < len(children); i++ {
		node := children[i]
		switch node.Kind() {
		case "import_statement", "import_from_statement", "future_import_statement":
			// Coalesce the run of consecutive imports into one element.
			j := i
			for j+1 < len(children) && isImportKind(children[j+1].Kind()) &&
				int(children[j+1].StartPosition().Row) <= int(children[j].EndPosition().Row)+1 {
				j++
			}
			elements = append(elements, importGroup(children[i:j+1], source))
			i = j
		case "expression_statement":
			if i == 0 {
				if doc := docstringText(node, source); doc != "" {
					elements = append(elements, &types.SemanticElement{
						Type:     types.ElementDocumentation,
						Position: nodePosition(node),
						Content:  nodeText(node, source),
					})
					continue
				}
			}
			if element := e.extractAssignment(node, source, ctx); element != nil {
				elements = append(elements, element)
			}
		default:
			element, err := e.extractDefinition(node, source, ctx, opts)
			if err != nil {
				return nil, err
			}
			if element != nil {
				elements = append(elements, element)
			}
		}
	}
	return elements, nil
}

func isImportKind(kind string) bool {
	return kind == "import_statement" || kind == "import_from_statement" || kind == "future_import_statement"
}

// importGroup merges a run of import statements into one import element
// spanning all of them.
func importGroup(nodes []*tree_sitter.Node, source []byte) *types.SemanticElement {
	first, last := nodes[0], nodes[len(nodes)-1]
	start, end := int(first.StartByte()), int(last.EndByte())
	position := nodePosition(first)
	endPos := nodePosition(last)
	position.EndLine = endPos.EndLine
	position.EndColumn = endPos.EndColumn
	position.EndByte = endPos.EndByte

	var names []string
	for _, node := range nodes {
		for _, child := range namedChildren(node) {
			switch child.Kind() {
			case "dotted_name", "aliased_import", "relative_import":
				names = append(names, nodeText(child, source))
			}
		}
	}
	return &types.SemanticElement{
		Name:     strings.Join(names, ", "),
		Type:     types.ElementImport,
		Position: position,
		Content:  string(source[start:end]),
	}
}

// extractDefinition dispatches class, function, and decorated definitions.
func (e *PythonExtractor) extractDefinition(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	switch node.Kind() {
	case "class_definition":
		return e.extractClass(node, source, ctx, opts, nil)
	case "function_definition":
		return e.extractFunction(node, source, ctx, opts, nil)
	case "decorated_definition":
		return e.extractDecorated(node, source, ctx, opts)
	}
	return nil, nil
}

func (e *PythonExtractor) extractDecorated(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions) (*types.SemanticElement, error) {
	var decorators []string
	if opts.Attributes {
		for _, dec := range childrenOfKind(node, "decorator") {
			decorators = append(decorators, nodeText(dec, source))
		}
	}
	definition := node.ChildByFieldName("definition")
	if definition == nil {
		return nil, nil
	}

	var element *types.SemanticElement
	var err error
	switch definition.Kind() {
	case "class_definition":
		element, err = e.extractClass(definition, source, ctx, opts, node)
	case "function_definition":
		element, err = e.extractFunction(definition, source, ctx, opts, node)
	}
	if err != nil || element == nil {
		return element, err
	}
	element.Decorators = decorators
	return element, nil
}

// extractClass builds the class element with methods and nested classes as
// children. When the class came wrapped in a decorated_definition, span
// covers the decorators too.
func (e *PythonExtractor) extractClass(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions, wrapper *tree_sitter.Node) (*types.SemanticElement, error) {
	span := node
	if wrapper != nil {
		span = wrapper
	}
	name := fieldText(node, "name", source)
	element := &types.SemanticElement{
		Name:       name,
		Type:       types.ElementClass,
		Position:   nodePosition(span),
		Content:    nodeText(span, source),
		ParentName: ctx.ParentPath(),
	}
	if bases := node.ChildByFieldName("superclasses"); bases != nil {
		var baseTypes []string
		for _, base := range namedChildren(bases) {
			baseTypes = append(baseTypes, nodeText(base, source))
		}
		element.SetExtra("base_types", baseTypes)
	}

	body := node.ChildByFieldName("body")
	if body != nil {
		if opts.Documentation {
			element.Documentation = bodyDocstring(body, source)
		}
		if err := ctx.Enter(name); err != nil {
			return nil, err
		}
		for _, member := range namedChildren(body) {
			child, err := e.extractDefinition(member, source, ctx, opts)
			if err != nil {
				ctx.Leave(name)
				return nil, err
			}
			if child != nil {
				child.Type = promoteToMethod(child.Type)
				element.AddChild(child)
			}
		}
		ctx.Leave(name)
	}
	return element, nil
}

func promoteToMethod(elementType types.ElementType) types.ElementType {
	if elementType == types.ElementFunction {
		return types.ElementMethod
	}
	return elementType
}

func (e *PythonExtractor) extractFunction(node *tree_sitter.Node, source []byte, ctx *walkContext, opts ExtractOptions, wrapper *tree_sitter.Node) (*types.SemanticElement, error) {
	span := node
	if wrapper != nil {
		span = wrapper
	}
	name := fieldText(node, "name", source)
	elementType := types.ElementFunction
	if name == "__init__" {
		elementType = types.ElementConstructor
	}
	element := &types.SemanticElement{
		Name:       name,
		Type:       elementType,
		Position:   nodePosition(span),
		Content:    nodeText(span, source),
		Signature:  pythonSignature(node, source),
		ParentName: ctx.ParentPath(),
		Parameters: pythonParameters(node, source),
		ReturnType: strings.TrimSpace(fieldText(node, "return_type", source)),
	}
	if strings.HasPrefix(strings.TrimSpace(nodeText(node, source)), "async ") {
		element.Modifiers = append(element.Modifiers, types.ModifierAsync)
		element.SetExtra("is_async", true)
	}
	if opts.Documentation {
		if body := node.ChildByFieldName("body"); body != nil {
			element.Documentation = bodyDocstring(body, source)
		}
	}
	return element, nil
}

func (e *PythonExtractor) extractAssignment(node *tree_sitter.Node, source []byte, ctx *walkContext) *types.SemanticElement {
	assignment := firstChildOfKind(node, "assignment")
	if assignment == nil {
		return nil
	}
	left := assignment.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		return nil
	}
	name := nodeText(left, source)
	elementType := types.ElementVariable
	// SCREAMING_CASE names are constants by convention.
	if name == strings.ToUpper(name) && strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		elementType = types.ElementConstant
	}
	return &types.SemanticElement{
		Name:       name,
		Type:       elementType,
		Position:   nodePosition(node),
		Content:    nodeText(node, source),
		ParentName: ctx.ParentPath(),
	}
}

// pythonSignature is the def line up to the colon.
func pythonSignature(node *tree_sitter.Node, source []byte) string {
	body := node.ChildByFieldName("body")
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
	return strings.TrimSuffix(strings.TrimSpace(string(source[start:end])), ":")
}

func pythonParameters(node *tree_sitter.Node, source []byte) []types.Parameter {
	list := node.ChildByFieldName("parameters")
	if list == nil {
		return nil
	}
	var params []types.Parameter
	for _, p := range namedChildren(list) {
		switch p.Kind() {
		case "identifier":
			params = append(params, types.Parameter{Name: nodeText(p, source)})
		case "typed_parameter":
			param := types.Parameter{Type: strings.TrimSpace(fieldText(p, "type", source))}
			if len(namedChildren(p)) > 0 {
				param.Name = nodeText(namedChildren(p)[0], source)
			}
			params = append(params, param)
		case "default_parameter", "typed_default_parameter":
			params = append(params, types.Parameter{
				Name:     fieldText(p, "name", source),
				Type:     strings.TrimSpace(fieldText(p, "type", source)),
				Default:  fieldText(p, "value", source),
				Optional: true,
			})
		case "list_splat_pattern", "dictionary_splat_pattern":
			params = append(params, types.Parameter{Name: nodeText(p, source)})
		}
	}
	return params
}

// docstringText returns the string literal when the expression statement is
// a bare string, empty otherwise.
func docstringText(node *tree_sitter.Node, source []byte) string {
	str := firstChildOfKind(node, "string")
	if str == nil {
		return ""
	}
	return stripPythonQuotes(nodeText(str, source))
}

// bodyDocstring returns the docstring of a definition body when its first
// statement is a bare string literal.
func bodyDocstring(body *tree_sitter.Node, source []byte) string {
	children := namedChildren(body)
	if len(children) == 0 || children[0].Kind() != "expression_statement" {
		return ""
	}
	return docstringText(children[0], source)
}

func stripPythonQuotes(text string) string {
	for _, quote := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(text, quote) && strings.HasSuffix(text, quote) && len(text) >= 2*len(quote) {
			return strings.TrimSpace(text[len(quote) : len(text)-len(quote)])
		}
	}
	return strings.TrimSpace(text)
}
