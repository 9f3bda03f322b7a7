package parser

import (
	"errors"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/codechunk/internal/types"
)

// errDepthExceeded aborts a traversal that went past the recursion cap.
// The parser converts it into a fallback-required result.
var errDepthExceeded = errors.New("tree traversal depth cap exceeded")

// walkContext threads traversal state through recursive extraction:
// the qualified container path and the depth bound.
type walkContext struct {
	parents  []string
	depth    int
	maxDepth int
}

func newWalkContext(maxDepth int) *walkContext {
	return &walkContext{maxDepth: maxDepth}
}

// Enter descends one level, optionally pushing a container name.
// Returns errDepthExceeded past the cap; callers must propagate it.
func (w *walkContext) Enter(containerName string) error {
	w.depth++
	if w.depth > w.maxDepth {
		return errDepthExceeded
	}
	if containerName != "" {
		w.parents = append(w.parents, containerName)
	}
	return nil
}

// Leave ascends one level, popping the container name if one was pushed.
func (w *walkContext) Leave(containerName string) {
	w.depth--
	if containerName != "" && len(w.parents) > 0 {
		w.parents = w.parents[:len(w.parents)-1]
	}
}

// ParentPath returns the dotted qualified path of the enclosing containers.
func (w *walkContext) ParentPath() string {
	return strings.Join(w.parents, ".")
}

// nodeText returns the source text a node spans.
func nodeText(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := int(node.StartByte()), int(node.EndByte())
	if start < 0 || end > len(source) || start > end {
		return ""
	}
	return string(source[start:end])
}

// nodePosition converts a node's span into a SemanticPosition.
func nodePosition(node *tree_sitter.Node) types.SemanticPosition {
	start := node.StartPosition()
	end := node.EndPosition()
	return types.SemanticPosition{
		StartLine:   int(start.Row) + 1,
		EndLine:     int(end.Row) + 1,
		StartColumn: int(start.Column) + 1,
		EndColumn:   int(end.Column) + 1,
		StartByte:   int(node.StartByte()),
		EndByte:     int(node.EndByte()),
	}
}

// namedChildren returns a node's named children in order.
func namedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	count := int(node.NamedChildCount())
	children := make([]*tree_sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.NamedChild(uint(i)); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// allChildren returns every child including anonymous tokens.
func allChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	count := int(node.ChildCount())
	children := make([]*tree_sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		if child := node.Child(uint(i)); child != nil {
			children = append(children, child)
		}
	}
	return children
}

// firstChildOfKind returns the first direct child with the given kind.
func firstChildOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for _, child := range allChildren(node) {
		if child.Kind() == kind {
			return child
		}
	}
	return nil
}

// childrenOfKind returns all direct children with the given kind.
func childrenOfKind(node *tree_sitter.Node, kind string) []*tree_sitter.Node {
	var matched []*tree_sitter.Node
	for _, child := range allChildren(node) {
		if child.Kind() == kind {
			matched = append(matched, child)
		}
	}
	return matched
}

// fieldText returns the text of a node's named field, "" when absent.
func fieldText(node *tree_sitter.Node, field string, source []byte) string {
	return nodeText(node.ChildByFieldName(field), source)
}

// precedingComments collects consecutive comment siblings immediately above
// a node, newest last, stopping at the first non-comment sibling or a blank
// gap of more than one line. matches filters by the language's doc-comment
// convention; pass nil to accept every comment.
func precedingComments(node *tree_sitter.Node, source []byte, matches func(string) bool) []string {
	var comments []string
	expectLine := int(node.StartPosition().Row)
	for sibling := node.PrevNamedSibling(); sibling != nil; sibling = sibling.PrevNamedSibling() {
		if sibling.Kind() != "comment" {
			break
		}
		endLine := int(sibling.EndPosition().Row)
		if expectLine-endLine > 1 {
			break // blank gap: the comment belongs to something else
		}
		text := nodeText(sibling, source)
		if matches != nil && !matches(text) {
			break
		}
		comments = append([]string{text}, comments...)
		expectLine = int(sibling.StartPosition().Row)
	}
	return comments
}

// normalizeComment strips comment markers and collapses a raw comment block
// into plain documentation lines.
func normalizeComment(raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "///"):
			line = strings.TrimSpace(strings.TrimPrefix(line, "///"))
		case strings.HasPrefix(line, "//"):
			line = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		case strings.HasPrefix(line, "/**"):
			line = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "/**"), "*/"))
		case strings.HasPrefix(line, "/*"):
			line = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, "/*"), "*/"))
		case strings.HasPrefix(line, "*/"):
			line = ""
		case strings.HasPrefix(line, "*"):
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		case strings.HasPrefix(line, "#"):
			line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// normalizeCommentBlock normalizes and joins several raw comments.
func normalizeCommentBlock(raw []string) string {
	parts := make([]string, 0, len(raw))
	for _, r := range raw {
		if normalized := normalizeComment(r); normalized != "" {
			parts = append(parts, normalized)
		}
	}
	return strings.Join(parts, "\n")
}
