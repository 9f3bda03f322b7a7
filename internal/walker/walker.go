// Package walker discovers chunkable source files under a project root,
// honoring include/exclude glob patterns and skipping binary content.
package walker

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/types"
)

// Walker scans a directory tree and loads matching files as documents.
type Walker struct {
	root    string
	include []string
	exclude []string
	maxSize int64
}

// New builds a walker from config. Build-artifact output directories
// detected from the project's manifest files join the exclusion list.
func New(cfg *config.Config) *Walker {
	exclude := append([]string{}, cfg.Exclude...)
	exclude = append(exclude, DetectOutputDirectories(cfg.Project.Root)...)
	return &Walker{
		root:    cfg.Project.Root,
		include: cfg.Include,
		exclude: dedupe(exclude),
		maxSize: int64(cfg.Parser.MaxFileSizeMB) * 1024 * 1024,
	}
}

// Walk returns documents for every matching file under the root, in
// deterministic path order. Unreadable files are logged and skipped.
func (w *Walker) Walk() ([]types.Document, error) {
	var docs []types.Document
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			debug.LogWalk("skip %s: %v\n", path, err)
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if w.excluded(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !w.Matches(rel) {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Size() > w.maxSize {
			debug.LogWalk("skip %s: %d bytes over limit\n", rel, info.Size())
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			debug.LogWalk("skip %s: %v\n", rel, readErr)
			return nil
		}
		if isBinary(content) {
			debug.LogWalk("skip %s: binary content\n", rel)
			return nil
		}
		docs = append(docs, types.Document{
			SourceID: rel,
			FilePath: rel,
			Content:  string(content),
		})
		return nil
	})
	return docs, err
}

// Matches reports whether a root-relative path passes the include and
// exclude patterns.
func (w *Walker) Matches(rel string) bool {
	if w.excluded(rel) {
		return false
	}
	if len(w.include) == 0 {
		return true
	}
	for _, pattern := range w.include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		// Directory patterns like **/node_modules/** should also match the
		// directory entry itself.
		if strings.HasSuffix(pattern, "/**") {
			if matched, err := doublestar.Match(strings.TrimSuffix(pattern, "/**"), strings.TrimSuffix(rel, "/")); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// isBinary sniffs the first kilobyte for NUL bytes.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	return bytes.IndexByte(probe, 0) >= 0
}

func dedupe(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
