package walker

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codechunk/internal/config"
)

// batchCollector records onChange batches for assertion.
type batchCollector struct {
	mu      sync.Mutex
	batches [][]string
	signal  chan struct{}
}

func newBatchCollector() *batchCollector {
	return &batchCollector{signal: make(chan struct{}, 16)}
}

func (c *batchCollector) onChange(paths []string) {
	c.mu.Lock()
	c.batches = append(c.batches, paths)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *batchCollector) wait(t *testing.T) []string {
	t.Helper()
	select {
	case <-c.signal:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batches[len(c.batches)-1]
}

func startTestWatcher(t *testing.T, root string) (*Watcher, *batchCollector) {
	t.Helper()
	cfg := config.Default()
	cfg.Project.Root = root
	cfg.Include = []string{"**/*.py"}

	collector := newBatchCollector()
	watcher, err := NewWatcher(New(cfg), 50*time.Millisecond, collector.onChange)
	require.NoError(t, err)
	require.NoError(t, watcher.Start(context.Background()))
	t.Cleanup(func() { _ = watcher.Stop() })
	return watcher, collector
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	_, collector := startTestWatcher(t, root)

	writeFile(t, root, "job.py", "print('v1')\n")
	batch := collector.wait(t)
	assert.Equal(t, []string{"job.py"}, batch)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	_, collector := startTestWatcher(t, root)

	// A burst of writes inside the debounce window collapses to one batch
	// with each path at most once.
	for i := 0; i < 5; i++ {
		writeFile(t, root, "hot.py", "print('edit')\n")
		writeFile(t, root, "cold.py", "print('other')\n")
	}
	batch := collector.wait(t)
	assert.Equal(t, []string{"cold.py", "hot.py"}, batch)
}

func TestWatcherIgnoresNonMatching(t *testing.T) {
	root := t.TempDir()
	_, collector := startTestWatcher(t, root)

	writeFile(t, root, "notes.txt", "ignored\n")
	writeFile(t, root, "kept.py", "print('kept')\n")

	batch := collector.wait(t)
	assert.Equal(t, []string{"kept.py"}, batch)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	_, collector := startTestWatcher(t, root)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	// Give the watcher a moment to register the new directory before
	// writing into it.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, root, "pkg/mod.py", "print('new dir')\n")

	batch := collector.wait(t)
	assert.Contains(t, batch, "pkg/mod.py")
}

func TestWatcherStop(t *testing.T) {
	root := t.TempDir()
	watcher, _ := startTestWatcher(t, root)
	assert.NoError(t, watcher.Stop())
	// Stop is idempotent enough for cleanup to run again.
}

func TestNewWatcherDefaultsDebounce(t *testing.T) {
	cfg := config.Default()
	cfg.Project.Root = t.TempDir()
	watcher, err := NewWatcher(New(cfg), 0, func([]string) {})
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, watcher.debounce)
	assert.NoError(t, watcher.Stop())
}
