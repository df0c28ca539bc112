// Package watcher re-triggers audits when their inputs change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lance13c/auditor/internal/logging"
)

// ErrRunning is returned by Run when the watcher is already running.
var ErrRunning = errors.New("watcher is already running")

// Config tunes what is watched and how long to wait for quiet.
type Config struct {
	Debounce   time.Duration `yaml:"debounce"`
	Ignore     []string      `yaml:"ignore"`
	Extensions []string      `yaml:"extensions"`
}

// DefaultConfig ignores dependency, build and report directories and only
// reacts to web sources and data files.
func DefaultConfig() Config {
	return Config{
		Debounce: 500 * time.Millisecond,
		Ignore: []string{
			"node_modules/**", "dist/**", "build/**", ".next/**",
			"coverage/**", "qa-reports/**",
			"*.log", "*.tmp",
		},
		Extensions: []string{
			".js", ".jsx", ".ts", ".tsx", ".html", ".css",
			".yaml", ".yml", ".json",
		},
	}
}

// Watcher batches filesystem changes and hands each batch to a callback
// once nothing has changed for the debounce period.
type Watcher struct {
	fs       *fsnotify.Watcher
	filter   *pathFilter
	debounce time.Duration
	onChange func([]string) error

	mu      sync.Mutex
	running bool
	batch   map[string]struct{}
}

// New creates a watcher over root, which may be empty to watch only the
// files passed to Watch.
func New(root string, cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultConfig().Debounce
	}
	if root != "" {
		if root, err = filepath.Abs(root); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return &Watcher{
		fs:       fsw,
		filter:   newPathFilter(root, cfg.Ignore, cfg.Extensions),
		debounce: cfg.Debounce,
		batch:    map[string]struct{}{},
	}, nil
}

// Watch adds a single file. Its directory is watched so editors that save
// by replacing the file are still seen, and it bypasses every filter.
func (w *Watcher) Watch(file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", file, err)
	}
	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", file, err)
	}
	w.mu.Lock()
	w.filter.explicit[abs] = true
	w.mu.Unlock()
	return nil
}

// OnChange sets the batch callback. Its errors are logged only.
func (w *Watcher) OnChange(fn func(changed []string) error) {
	w.onChange = fn
}

// Running reports whether Run is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Run blocks until ctx is done and returns ctx.Err().
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrRunning
	}
	w.running = true
	w.mu.Unlock()
	defer w.Close()

	if w.filter.root != "" {
		if err := w.addTree(); err != nil {
			return fmt.Errorf("failed to watch %s: %w", w.filter.root, err)
		}
	}

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	logging.Info("watching for changes (debounce %v)", w.debounce)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.wanted(ev) {
				continue
			}
			w.mu.Lock()
			w.batch[ev.Name] = struct{}{}
			w.mu.Unlock()
			quiet.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			logging.Warn("file watcher error: %v", err)

		case <-quiet.C:
			w.flush()
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fs.Close()
	if w.running {
		w.running = false
		logging.Debug("file watcher stopped")
	}
}

func (w *Watcher) wanted(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.filter.accept(ev.Name)
}

func (w *Watcher) addTree() error {
	return filepath.WalkDir(w.filter.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if w.filter.skipDir(p) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(p); err != nil {
			logging.Warn("could not watch directory %s: %v", p, err)
		}
		return nil
	})
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.batch))
	for p := range w.batch {
		changed = append(changed, p)
	}
	w.batch = map[string]struct{}{}
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	logging.Info("%d file(s) changed: %v", len(changed), changed)
	if w.onChange == nil {
		return
	}
	if err := w.onChange(changed); err != nil {
		logging.Error("change callback failed: %v", err)
	}
}
