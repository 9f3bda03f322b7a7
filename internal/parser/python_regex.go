package parser

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/codechunk/internal/types"
)

// PythonRegexExtractor is the degraded Python tier, a line-oriented scanner
// used when the tree-sitter grammar is unavailable or parsing required
// fallback. Element spans are recovered from indentation: a definition ends
// at the first non-blank line indented at or below its own level.
type PythonRegexExtractor struct {
	classPattern     *regexp.Regexp
	functionPattern  *regexp.Regexp
	importPattern    *regexp.Regexp
	decoratorPattern *regexp.Regexp
	assignPattern    *regexp.Regexp
}

// NewPythonRegexExtractor creates the scanner with its compiled patterns.
func NewPythonRegexExtractor() *PythonRegexExtractor {
	return &PythonRegexExtractor{
		classPattern:     regexp.MustCompile(`^(\s*)class\s+(\w+)(?:\s*\(([^)]*)\))?\s*:`),
		functionPattern:  regexp.MustCompile(`^(\s*)(async\s+)?def\s+(\w+)\s*\(`),
		importPattern:    regexp.MustCompile(`^(?:import\s+\S|from\s+\S+\s+import\s)`),
		decoratorPattern: regexp.MustCompile(`^(\s*)@\w`),
		assignPattern:    regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\s*(?::[^=]+)?=`),
	}
}

// Language returns the extractor's language key.
func (e *PythonRegexExtractor) Language() string {
	return "python"
}

// ExtractSource scans the source line by line and recovers top-level
// definitions with approximate spans.
func (e *PythonRegexExtractor) ExtractSource(source []byte) []*types.SemanticElement {
	lines := strings.Split(string(source), "\n")
	var elements []*types.SemanticElement
	var currentClass *types.SemanticElement
	currentClassIndent := 0
	pendingDecoratorLine := 0

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNumber := i + 1

		if e.decoratorPattern.MatchString(line) {
			if pendingDecoratorLine == 0 {
				pendingDecoratorLine = lineNumber
			}
			continue
		}

		if e.importPattern.MatchString(line) {
			// Coalesce the run of consecutive import lines.
			j := i
			for j+1 < len(lines) && e.importPattern.MatchString(lines[j+1]) {
				j++
			}
			elements = append(elements, &types.SemanticElement{
				Type: types.ElementImport,
				Position: types.SemanticPosition{
					StartLine: lineNumber,
					EndLine:   j + 1,
				},
				Content: strings.Join(lines[i:j+1], "\n"),
			})
			i = j
			pendingDecoratorLine = 0
			continue
		}

		if match := e.classPattern.FindStringSubmatch(line); match != nil {
			indent := len(match[1])
			startLine := lineNumber
			if pendingDecoratorLine > 0 {
				startLine = pendingDecoratorLine
				pendingDecoratorLine = 0
			}
			endLine := blockEnd(lines, i, indent)
			element := &types.SemanticElement{
				Name: match[2],
				Type: types.ElementClass,
				Position: types.SemanticPosition{
					StartLine: startLine,
					EndLine:   endLine,
				},
				Content: strings.Join(lines[startLine-1:endLine], "\n"),
			}
			if match[3] != "" {
				element.SetExtra("base_types", splitAndTrim(match[3]))
			}
			if indent == 0 {
				elements = append(elements, element)
				currentClass = element
				currentClassIndent = indent
			} else if currentClass != nil {
				element.ParentName = currentClass.Name
				currentClass.AddChild(element)
			}
			continue
		}

		if match := e.functionPattern.FindStringSubmatch(line); match != nil {
			indent := len(match[1])
			startLine := lineNumber
			if pendingDecoratorLine > 0 {
				startLine = pendingDecoratorLine
				pendingDecoratorLine = 0
			}
			if currentClass != nil && indent <= currentClassIndent {
				currentClass = nil
			}
			endLine := blockEnd(lines, i, indent)
			elementType := types.ElementFunction
			if currentClass != nil {
				elementType = types.ElementMethod
				if match[3] == "__init__" {
					elementType = types.ElementConstructor
				}
			}
			element := &types.SemanticElement{
				Name: match[3],
				Type: elementType,
				Position: types.SemanticPosition{
					StartLine: startLine,
					EndLine:   endLine,
				},
				Content:   strings.Join(lines[startLine-1:endLine], "\n"),
				Signature: strings.TrimSuffix(strings.TrimSpace(line), ":"),
			}
			if match[2] != "" {
				element.Modifiers = append(element.Modifiers, types.ModifierAsync)
			}
			if currentClass != nil {
				element.ParentName = currentClass.Name
				currentClass.AddChild(element)
			} else if indent == 0 {
				elements = append(elements, element)
			}
			continue
		}

		if match := e.assignPattern.FindStringSubmatch(line); match != nil {
			elements = append(elements, &types.SemanticElement{
				Name: match[1],
				Type: types.ElementConstant,
				Position: types.SemanticPosition{
					StartLine: lineNumber,
					EndLine:   lineNumber,
				},
				Content: line,
			})
		}
		pendingDecoratorLine = 0

		if currentClass != nil && strings.TrimSpace(line) != "" && indentOf(line) <= currentClassIndent && !e.classPattern.MatchString(line) {
			currentClass = nil
		}
	}
	return elements
}

// blockEnd returns the 1-based last line of the suite starting at defLine,
// scanning until a non-blank line indented at or below the definition.
func blockEnd(lines []string, defLine, indent int) int {
	end := defLine + 1
	for i := defLine + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		if indentOf(lines[i]) <= indent {
			break
		}
		end = i + 1
	}
	return end
}

func indentOf(line string) int {
	count := 0
	for _, r := range line {
		switch r {
		case ' ':
			count++
		case '\t':
			count += 8
		default:
			return count
		}
	}
	return count
}

func splitAndTrim(list string) []string {
	var parts []string
	for _, part := range strings.Split(list, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
