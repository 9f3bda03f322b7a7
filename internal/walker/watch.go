package walker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/codechunk/internal/debug"
)

// Watcher reports batches of changed files under the walker's root.
// Events are debounced so a burst of saves produces one callback, and
// each path is delivered at most once per batch.
type Watcher struct {
	walker   *Walker
	fs       *fsnotify.Watcher
	debounce time.Duration
	onChange func(paths []string)

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher builds a watcher over the walker's root. onChange receives
// root-relative paths of files that changed and still match the walker's
// patterns.
func NewWatcher(w *Walker, debounce time.Duration, onChange func(paths []string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		walker:   w,
		fs:       fsw,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]bool),
	}, nil
}

// Start adds watches for every non-excluded directory and begins
// processing events until the context is cancelled or Stop is called.
func (fw *Watcher) Start(ctx context.Context) error {
	ctx, fw.cancel = context.WithCancel(ctx)

	if err := fw.addWatches(fw.walker.root); err != nil {
		return fmt.Errorf("failed to add watches under %s: %w", fw.walker.root, err)
	}

	fw.wg.Add(1)
	go fw.processEvents(ctx)

	debug.LogWalk("watcher started for %s\n", fw.walker.root)
	return nil
}

// Stop tears the watcher down and waits for the event goroutine to exit.
// Events pending in the debounce window are dropped.
func (fw *Watcher) Stop() error {
	if fw.cancel != nil {
		fw.cancel()
	}
	err := fw.fs.Close()
	fw.wg.Wait()

	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	return err
}

// addWatches walks the tree registering every directory that is not
// excluded. Symlink cycles are broken by tracking resolved paths.
func (fw *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return nil
		}
		if visited[realPath] {
			return filepath.SkipDir
		}
		visited[realPath] = true

		if rel := fw.rel(path); rel != "." && fw.walker.excluded(rel+"/") {
			return filepath.SkipDir
		}

		if err := fw.fs.Add(path); err != nil {
			debug.LogWalk("watch add failed for %s: %v\n", path, err)
		}
		return nil
	})
}

func (fw *Watcher) processEvents(ctx context.Context) {
	defer fw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.fs.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.fs.Errors:
			if !ok {
				return
			}
			debug.LogWalk("watcher error: %v\n", err)
		}
	}
}

func (fw *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return // removed before we could look at it
	}

	if info.IsDir() {
		// New directories need their own watch to see files inside them.
		if event.Op&fsnotify.Create != 0 {
			rel := fw.rel(event.Name)
			if rel == "." || !fw.walker.excluded(rel+"/") {
				if err := fw.fs.Add(event.Name); err != nil {
					debug.LogWalk("watch add failed for %s: %v\n", event.Name, err)
				}
			}
		}
		return
	}

	rel := fw.rel(event.Name)
	if !fw.walker.Matches(rel) {
		return
	}
	if fw.walker.maxSize > 0 && info.Size() > fw.walker.maxSize {
		return
	}

	fw.mu.Lock()
	fw.pending[rel] = true
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.flush)
	fw.mu.Unlock()
}

func (fw *Watcher) flush() {
	fw.mu.Lock()
	pending := fw.pending
	fw.pending = make(map[string]bool)
	fw.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	debug.LogWalk("flushing %d changed files\n", len(paths))
	fw.onChange(paths)
}

func (fw *Watcher) rel(path string) string {
	rel, err := filepath.Rel(fw.walker.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
