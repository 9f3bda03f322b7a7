package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// ConfigFileName is the project-level configuration file.
const ConfigFileName = ".codechunk.kdl"

// LoadKDL attempts to load configuration from a .codechunk.kdl file in the
// given directory. Returns (nil, nil) when no file exists.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, ConfigFileName)

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %v", ConfigFileName, err)
	}

	cfg, err := ParseKDL(string(content))
	if err != nil {
		return nil, err
	}

	// Resolve the project root relative to the config file's directory.
	if cfg != nil && cfg.Project.Root != "" && !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	} else if cfg != nil && cfg.Project.Root == "" {
		if absRoot, err := filepath.Abs(dir); err == nil {
			cfg.Project.Root = absRoot
		}
	}

	return cfg, nil
}

// ParseKDL parses the KDL configuration document over the built-in defaults.
func ParseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children { // project { root "." name "foo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "chunking":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "use_advanced_parsing":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.UseAdvancedParsing = b
					}
				case "extract_documentation":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.ExtractDocumentation = b
					}
				case "extract_attributes":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.ExtractAttributes = b
					}
				case "extract_generics":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.ExtractGenerics = b
					}
				case "strict_validation":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Chunking.StrictValidation = b
					}
				}
			}
		case "parser":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_file_size_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parser.MaxFileSizeMB = v
					}
				case "grammar_load_timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parser.GrammarLoadTimeoutSec = v
					}
				case "max_parse_time_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parser.MaxParseTimeSec = v
					}
				case "max_elements_per_file":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parser.MaxElementsPerFile = v
					}
				case "max_recursion_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Parser.MaxRecursionDepth = v
					}
				case "error_recovery":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Parser.ErrorRecovery = b
					}
				}
			}
		case "language":
			// language "python" { max_chunk_size 1500; chunk_overlap 100 }
			lang, ok := firstStringArg(n)
			if !ok {
				continue
			}
			sizing := cfg.SizingFor(lang)
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_chunk_size":
					if v, ok := firstIntArg(cn); ok {
						sizing.MaxChunkSize = v
					}
				case "chunk_overlap":
					if v, ok := firstIntArg(cn); ok {
						sizing.ChunkOverlap = v
					}
				}
			}
			if cfg.Languages == nil {
				cfg.Languages = make(map[string]Sizing)
			}
			cfg.Languages[lang] = sizing
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			// Replace default exclusions if exclude block is present
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return cfg, nil
}

// Helper functions leveraging the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format like exclude { "pattern" }: strings are child nodes
	// whose node name is the string value.
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
