package chunker

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/codechunk/internal/config"
	"github.com/standardbeagle/codechunk/internal/debug"
	"github.com/standardbeagle/codechunk/internal/types"
)

// ChunkingFactory maps file extensions to chunker instances with a
// FallbackChunker as the universal catch-all. The registry supports live
// size reconfiguration; batch processing tolerates per-file failures.
type ChunkingFactory struct {
	mu       sync.RWMutex
	cfg      *config.Config
	chunkers map[string]Chunker
	fallback *FallbackChunker
}

// NewChunkingFactory builds the registry with the default extension map.
func NewChunkingFactory(cfg *config.Config) *ChunkingFactory {
	f := &ChunkingFactory{cfg: cfg}
	f.rebuild()
	return f
}

// rebuild constructs chunker instances from the current config.
// Callers hold the write lock or have exclusive access.
func (f *ChunkingFactory) rebuild() {
	f.chunkers = buildChunkers(f.cfg)
	f.fallback = NewFallbackChunker(f.cfg.SizingFor(""))
}

// buildChunkers creates one chunker set. Chunker instances carry
// unsynchronized parser state, so concurrent batch workers build their own
// set instead of sharing one.
func buildChunkers(cfg *config.Config) map[string]Chunker {
	chunkers := make(map[string]Chunker)

	csharp := NewCSharpChunker(cfg)
	chunkers[".cs"] = csharp

	javascript := NewJavaScriptChunker(cfg)
	for _, ext := range []string{".js", ".jsx", ".mjs", ".cjs"} {
		chunkers[ext] = javascript
	}

	typescript := NewTypeScriptChunker(cfg)
	chunkers[".ts"] = typescript
	chunkers[".tsx"] = typescript

	python := NewPythonChunker(cfg)
	chunkers[".py"] = python
	chunkers[".pyw"] = python

	treesitter := NewTreeSitterChunker(cfg.SizingFor(""))
	for _, ext := range []string{".go", ".java", ".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".rs", ".php", ".phtml", ".zig"} {
		chunkers[ext] = treesitter
	}
	return chunkers
}

// Register installs or replaces the chunker for an extension.
func (f *ChunkingFactory) Register(ext string, chunker Chunker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkers[strings.ToLower(ext)] = chunker
}

// ChunkerFor returns the chunker responsible for a path, falling back to
// the generic text splitter for unknown extensions.
func (f *ChunkingFactory) ChunkerFor(path string) Chunker {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if chunker, ok := f.chunkers[strings.ToLower(filepath.Ext(path))]; ok {
		return chunker
	}
	return f.fallback
}

// ChunkDocument chunks one document. A chunker error or panic routes the
// document through the fallback tier; the caller always gets a result.
func (f *ChunkingFactory) ChunkDocument(doc types.Document) (chunks []types.Chunk, err error) {
	chunker := f.ChunkerFor(doc.FilePath)
	defer func() {
		if r := recover(); r != nil {
			debug.LogFactory("chunker %s panicked on %s: %v, using fallback\n", chunker.Name(), doc.FilePath, r)
			chunks, err = f.fallback.Chunk(doc)
		}
	}()

	chunks, err = chunker.Chunk(doc)
	if err != nil {
		debug.LogFactory("chunker %s failed on %s: %v, using fallback\n", chunker.Name(), doc.FilePath, err)
		return f.fallback.Chunk(doc)
	}
	return chunks, nil
}

// ChunkDocuments processes documents in order, continuing past per-file
// failures. Failures come back as batch-level warnings, one per file.
func (f *ChunkingFactory) ChunkDocuments(docs []types.Document) ([]types.Chunk, []string) {
	var chunks []types.Chunk
	var warnings []string
	for _, doc := range docs {
		produced, err := f.ChunkDocument(doc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", doc.FilePath, err))
			continue
		}
		chunks = append(chunks, produced...)
	}
	return chunks, warnings
}

// ChunkDocumentsConcurrent fans documents out across workers, each with
// its own chunker set since parser statistics are not synchronized.
// Chunk order within one file stays stable; cross-file order follows the
// input order of the batch.
func (f *ChunkingFactory) ChunkDocumentsConcurrent(ctx context.Context, docs []types.Document, workers int) ([]types.Chunk, []string, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	f.mu.RLock()
	cfg := f.cfg
	f.mu.RUnlock()

	results := make([][]types.Chunk, len(docs))
	warnings := make([]string, len(docs))
	jobs := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			worker := &ChunkingFactory{cfg: cfg}
			worker.rebuild()
			for idx := range jobs {
				doc := docs[idx]
				chunks, err := worker.ChunkDocument(doc)
				if err != nil {
					warnings[idx] = fmt.Sprintf("%s: %v", doc.FilePath, err)
					continue
				}
				results[idx] = chunks
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for i := range docs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var chunks []types.Chunk
	var batchWarnings []string
	for i := range docs {
		chunks = append(chunks, results[i]...)
		if warnings[i] != "" {
			batchWarnings = append(batchWarnings, warnings[i])
		}
	}
	return chunks, batchWarnings, nil
}

// SupportedExtensions lists the registered extensions in sorted order.
func (f *ChunkingFactory) SupportedExtensions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	exts := make([]string, 0, len(f.chunkers))
	for ext := range f.chunkers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExtensionMap returns extension to strategy-name pairs for introspection.
func (f *ChunkingFactory) ExtensionMap() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m := make(map[string]string, len(f.chunkers))
	for ext, chunker := range f.chunkers {
		m[ext] = chunker.Name()
	}
	return m
}

// SetDefaultSizes reconfigures the default size/overlap budget and rebuilds
// the registry. Registered custom chunkers are replaced by the defaults.
func (f *ChunkingFactory) SetDefaultSizes(maxChunkSize, chunkOverlap int) error {
	if maxChunkSize < 100 {
		return fmt.Errorf("max chunk size %d too small", maxChunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= maxChunkSize {
		return fmt.Errorf("chunk overlap %d out of range for size %d", chunkOverlap, maxChunkSize)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg := *f.cfg
	cfg.Defaults = config.Sizing{MaxChunkSize: maxChunkSize, ChunkOverlap: chunkOverlap}
	f.cfg = &cfg
	f.rebuild()
	return nil
}
