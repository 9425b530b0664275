// Package watcher triggers index maintenance when files under the knowledge
// base root change. Events are coalesced per knowledge base.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 2 * time.Second

// Watcher watches a knowledge base root and calls onChange with the name of
// each knowledge base whose files changed, once per quiet period.
type Watcher struct {
	root     string
	ignore   []string
	onChange func(kb string)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	pending  map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before onChange fires. Non-positive values keep the default.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore excludes paths (and everything below them) from triggering
// updates. The index directory belongs here when it lives under the root.
func WithIgnore(paths ...string) WatcherOption {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// NewWatcher creates a watcher for root.
func NewWatcher(root string, onChange func(kb string), opts ...WatcherOption) *Watcher {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	w := &Watcher{
		root:     filepath.Clean(root),
		onChange: onChange,
		debounce: defaultDebounce,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start adds watches for the root and every visible directory below it, then
// processes events until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.root, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	if err := w.addTreeLocked(w.root); err != nil {
		_ = w.watcher.Close()
		w.watcher = nil
		w.started = false
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	w.logger.Debug("watcher started", zap.String("root", w.root), zap.Duration("debounce", w.debounce))
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	w.mu.Lock()
	events, errs := w.watcher.Events, w.watcher.Errors
	w.mu.Unlock()
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	kb, ok := w.knowledgeBaseFor(ev.Name)
	if !ok {
		return
	}
	w.logger.Debug("watcher event",
		zap.String("op", ev.Op.String()),
		zap.String("path", ev.Name),
		zap.String("knowledge_base", kb))

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.mu.Lock()
			if w.watcher != nil {
				if err := w.addTreeLocked(ev.Name); err != nil {
					w.logger.Warn("watcher failed to add directory", zap.String("path", ev.Name), zap.Error(err))
				}
			}
			w.mu.Unlock()
		}
	}
	w.schedule(kb)
}

// knowledgeBaseFor maps a path to the knowledge base containing it. Paths
// outside the root, hidden paths, ignored paths and plain files at the top
// level are not part of any knowledge base.
func (w *Watcher) knowledgeBaseFor(path string) (string, bool) {
	clean := filepath.Clean(path)
	for _, ig := range w.ignore {
		if clean == ig || inDir(ig, clean) {
			return "", false
		}
	}
	if !inDir(w.root, clean) {
		return "", false
	}
	rel, err := filepath.Rel(w.root, clean)
	if err != nil || rel == "." {
		return "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, p := range parts {
		if strings.HasPrefix(p, ".") {
			return "", false
		}
	}
	if len(parts) == 1 {
		info, err := os.Stat(clean)
		if err != nil || !info.IsDir() {
			return "", false
		}
	}
	return parts[0], true
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w *Watcher) schedule(kb string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if t, ok := w.pending[kb]; ok {
		t.Stop()
	}
	w.pending[kb] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, kb)
		w.mu.Unlock()
		w.logger.Debug("watcher updating knowledge base", zap.String("knowledge_base", kb))
		if w.onChange != nil {
			w.onChange(kb)
		}
	})
}

// addTreeLocked watches dir and its visible subdirectories. w.mu must be held.
func (w *Watcher) addTreeLocked(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (strings.HasPrefix(d.Name(), ".") || w.ignored(path)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if path == ig || inDir(ig, path) {
			return true
		}
	}
	return false
}

// Pending returns the knowledge bases with an update scheduled.
func (w *Watcher) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	kbs := make([]string, 0, len(w.pending))
	for kb := range w.pending {
		kbs = append(kbs, kb)
	}
	return kbs
}

// Stop stops the watcher and drops any scheduled updates.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for kb, t := range w.pending {
		t.Stop()
		delete(w.pending, kb)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
