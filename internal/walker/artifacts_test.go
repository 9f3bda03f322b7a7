package walker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectOutputDirectories(t *testing.T) {
	t.Run("package.json script outDir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", `{
  "name": "app",
  "scripts": {
    "build": "tsc --outDir dist-es2020",
    "test": "vitest"
  }
}`)
		patterns := DetectOutputDirectories(root)
		assert.Contains(t, patterns, "**/dist-es2020/**")
	})

	t.Run("tsconfig compilerOptions outDir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "tsconfig.json", `{
  "compilerOptions": {
    "outDir": "./compiled",
    "strict": true
  }
}`)
		patterns := DetectOutputDirectories(root)
		assert.Contains(t, patterns, "**/compiled/**")
	})

	t.Run("cargo release target-dir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "Cargo.toml", `[package]
name = "ring"
version = "0.1.0"

[profile.release]
target-dir = "artifacts"
`)
		patterns := DetectOutputDirectories(root)
		assert.Contains(t, patterns, "**/artifacts/**")
	})

	t.Run("pyproject poetry build target-dir", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "pyproject.toml", `[tool.poetry]
name = "pkg"

[tool.poetry.build]
target-dir = "wheelhouse"
`)
		patterns := DetectOutputDirectories(root)
		assert.Contains(t, patterns, "**/wheelhouse/**")
	})

	t.Run("empty project yields nothing", func(t *testing.T) {
		assert.Empty(t, DetectOutputDirectories(t.TempDir()))
	})

	t.Run("malformed manifests are ignored", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "package.json", "{not json")
		writeFile(t, root, "Cargo.toml", "= broken =")
		assert.Empty(t, DetectOutputDirectories(root))
	})

	t.Run("detected directories feed walker exclusions", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, root, "tsconfig.json", `{"compilerOptions": {"outDir": "./gen"}}`)
		writeFile(t, root, "gen/index.js", "// generated\n")
		writeFile(t, root, "src/index.ts", "export {};\n")

		w := newTestWalker(t, root, []string{"**/*.ts", "**/*.js", "**/*.json"})
		docs, err := w.Walk()
		assert.NoError(t, err)
		for _, doc := range docs {
			assert.NotEqual(t, "gen/index.js", doc.FilePath)
		}
	})
}
