// Package watcher ingests resume files dropped into a watched folder.
// A first-level subdirectory names the namespace its files go to; files
// in the root use the default namespace.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rescout-labs/rescout/internal/core/domain"
	"github.com/rescout-labs/rescout/internal/core/ports/driving"
	"github.com/rescout-labs/rescout/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before submission,
// so half-written files are not picked up mid-copy.
const DefaultDebounce = 500 * time.Millisecond

// Watcher submits dropped files to the ingestion pipeline.
type Watcher struct {
	ingest           driving.IngestService
	root             string
	defaultNamespace string
	allowedExts      map[string]bool
	debounce         time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a file is submitted.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithAllowedExtensions restricts which files are picked up. Others are
// skipped with a warning.
func WithAllowedExtensions(exts []string) Option {
	return func(w *Watcher) {
		w.allowedExts = make(map[string]bool, len(exts))
		for _, ext := range exts {
			w.allowedExts[strings.ToLower(ext)] = true
		}
	}
}

// New creates a watcher over the root directory.
func New(ingest driving.IngestService, root, defaultNamespace string, opts ...Option) *Watcher {
	w := &Watcher{
		ingest:           ingest,
		root:             root,
		defaultNamespace: defaultNamespace,
		debounce:         DefaultDebounce,
		pending:          make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Run watches until the context is cancelled. The root and its
// first-level subdirectories are watched; new subdirectories are picked
// up as they appear.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("read watch dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			if err := fw.Add(filepath.Join(w.root, entry.Name())); err != nil {
				logger.Warn("Watch subdirectory %s: %v", entry.Name(), err)
			}
		}
	}

	logger.Info("Watching %s for dropped resumes", w.root)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}

			info, err := os.Stat(event.Name)
			if err != nil {
				continue
			}
			if info.IsDir() {
				// New namespace directory: watch it too.
				if filepath.Dir(event.Name) == w.root {
					if err := fw.Add(event.Name); err != nil {
						logger.Warn("Watch new subdirectory %s: %v", event.Name, err)
					}
				}
				continue
			}
			w.schedule(ctx, event.Name)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// schedule (re)arms the debounce timer for a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	ext := strings.ToLower(filepath.Ext(path))
	if w.allowedExts != nil && !w.allowedExts[ext] {
		logger.Warn("Skipping %s: unsupported extension %q", filepath.Base(path), ext)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.submit(ctx, path)
	})
}

// submit reads a quiesced file and hands it to the pipeline.
func (w *Watcher) submit(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Read dropped file %s: %v", path, err)
		return
	}

	documentID, _, err := w.ingest.Submit(ctx, domain.UploadRequest{
		Namespace: w.namespaceFor(path),
		Filename:  filepath.Base(path),
		Data:      data,
	})
	if err != nil {
		logger.Warn("Ingest dropped file %s: %v", path, err)
		return
	}
	logger.Info("Watcher submitted %s as document %s", filepath.Base(path), documentID)
}

// namespaceFor derives the namespace from the file's position under
// the watch root.
func (w *Watcher) namespaceFor(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return w.defaultNamespace
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return w.defaultNamespace
}

// drain stops pending timers and waits for in-flight submissions.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, timer := range w.pending {
		if timer.Stop() {
			w.wg.Done()
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()
	w.wg.Wait()
}
