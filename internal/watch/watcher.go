// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when the Go sources of a directory tree
// change. Bursts of events, such as an editor saving through a temp file or
// a branch switch, are coalesced into one call after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watcher already running")

	// sourcePatterns select the files whose changes can alter type-checking
	// results or the checker's own settings.
	sourcePatterns = []string{"**/*.go", "**/go.mod", "**/go.sum", "**/*.cue", "**/*.toml"}

	// skippedDirs are never descended into. testdata holds fixtures the go
	// command ignores, vendor is managed by go mod.
	skippedDirs = []string{".git", ".hg", ".svn", "node_modules", "vendor", "testdata"}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the root of the watched tree. Empty means the working directory.
		Dir string
		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration
		// OnChange receives the changed paths relative to Dir, sorted. Errors
		// are logged and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		// Logger receives watcher diagnostics. Optional.
		Logger *log.Logger
	}

	// Watcher monitors a tree of Go sources.
	Watcher struct {
		cfg    Config
		dir    string
		fsw    *fsnotify.Watcher
		logger *log.Logger

		mu      sync.Mutex
		started bool
		pending map[string]struct{}
	}
)

// New resolves cfg.Dir and registers every directory below it.
func New(cfg Config) (*Watcher, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %q: %w", dir, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{cfg: cfg, dir: abs, fsw: fsw, logger: logger, pending: make(map[string]struct{})}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled. OnChange never runs
// concurrently with itself: changes that arrive while it runs are delivered
// in the next call.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.started = true
	w.mu.Unlock()
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Debug("closing watcher", "err", err)
		}
	}()

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if !w.record(evt) {
				continue
			}
			timer.Reset(w.cfg.Debounce)

		case <-timer.C:
			w.fire(ctx)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatalWatchError(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

// record adds a relevant event to the pending set and reports whether it was
// relevant. New directories are watched as they appear.
func (w *Watcher) record(evt fsnotify.Event) bool {
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if isSkippedDir(info.Name()) {
				return false
			}
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "dir", evt.Name, "err", err)
			}
			return false
		}
	}
	if evt.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.dir, evt.Name)
	if err != nil || !IsSource(rel) {
		return false
	}
	w.mu.Lock()
	w.pending[filepath.ToSlash(rel)] = struct{}{}
	w.mu.Unlock()
	return true
}

func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for p := range w.pending {
		changed = append(changed, p)
	}
	clear(w.pending)
	w.mu.Unlock()

	if len(changed) == 0 || ctx.Err() != nil || w.cfg.OnChange == nil {
		return
	}
	slices.Sort(changed)
	w.logger.Debug("sources changed", "files", changed)
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("re-run failed", "err", err)
	}
}

// addTree watches root and every directory below it that is not skipped.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("skipping unreadable path", "path", p, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && isSkippedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add %q: %w", p, err)
		}
		return nil
	})
}

// IsSource reports whether the slash- or OS-separated relative path names a
// file whose change should trigger a re-run.
func IsSource(rel string) bool {
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return false
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if isSkippedDir(path.Base(dir)) {
			return false
		}
	}
	for _, pat := range sourcePatterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func isSkippedDir(name string) bool {
	return slices.Contains(skippedDirs, name) || (len(name) > 1 && name[0] == '.')
}
