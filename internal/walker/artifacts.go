// Build artifact detection from language-specific manifest files.
// Output directories declared in package.json, tsconfig.json, Cargo.toml,
// or pyproject.toml become walker exclusions so generated code is never
// chunked.

package walker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DetectOutputDirectories scans the project root's manifest files and
// returns glob exclusion patterns for declared build output directories.
func DetectOutputDirectories(projectRoot string) []string {
	var patterns []string
	patterns = append(patterns, jsOutputs(projectRoot)...)
	patterns = append(patterns, cargoOutputs(projectRoot)...)
	patterns = append(patterns, pythonOutputs(projectRoot)...)
	return patterns
}

func jsOutputs(root string) []string {
	var patterns []string

	if pkg := readJSON(filepath.Join(root, "package.json")); pkg != nil {
		if scripts, ok := pkg["scripts"].(map[string]any); ok {
			for _, script := range scripts {
				scriptStr, ok := script.(string)
				if !ok {
					continue
				}
				parts := strings.Fields(scriptStr)
				for i, part := range parts {
					if (part == "--outDir" || part == "-outDir") && i+1 < len(parts) {
						outDir := strings.Trim(parts[i+1], `"'`)
						patterns = append(patterns, "**/"+outDir+"/**")
					}
				}
			}
		}
		if build, ok := pkg["build"].(map[string]any); ok {
			if outDir, ok := build["outDir"].(string); ok {
				patterns = append(patterns, "**/"+outDir+"/**")
			}
		}
	}

	if tsconfig := readJSON(filepath.Join(root, "tsconfig.json")); tsconfig != nil {
		if opts, ok := tsconfig["compilerOptions"].(map[string]any); ok {
			if outDir, ok := opts["outDir"].(string); ok {
				patterns = append(patterns, "**/"+strings.TrimPrefix(outDir, "./")+"/**")
			}
		}
	}
	return patterns
}

func cargoOutputs(root string) []string {
	cargo := readTOML(filepath.Join(root, "Cargo.toml"))
	if cargo == nil {
		return nil
	}
	var patterns []string
	if profile, ok := cargo["profile"].(map[string]any); ok {
		if release, ok := profile["release"].(map[string]any); ok {
			if targetDir, ok := release["target-dir"].(string); ok {
				patterns = append(patterns, "**/"+targetDir+"/**")
			}
		}
	}
	return patterns
}

func pythonOutputs(root string) []string {
	pyproject := readTOML(filepath.Join(root, "pyproject.toml"))
	if pyproject == nil {
		return nil
	}
	var patterns []string
	if tool, ok := pyproject["tool"].(map[string]any); ok {
		if poetry, ok := tool["poetry"].(map[string]any); ok {
			if build, ok := poetry["build"].(map[string]any); ok {
				if targetDir, ok := build["target-dir"].(string); ok {
					patterns = append(patterns, "**/"+targetDir+"/**")
				}
			}
		}
	}
	return patterns
}

func readJSON(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m map[string]any
	if json.Unmarshal(data, &m) != nil {
		return nil
	}
	return m
}

func readTOML(path string) map[string]any {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m map[string]any
	if toml.Unmarshal(data, &m) != nil {
		return nil
	}
	return m
}
