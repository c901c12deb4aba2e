// Package watch reports debounced changes to files below a directory tree.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/reglet-dev/autoslice/internal/application/ports"
)

// Handler receives debounced change events. It is called from the watcher
// goroutine and must not block for long.
type Handler func(ctx context.Context, event ports.ChangeEvent)

// Watcher watches a directory tree recursively for files with one extension.
// Bursts of events for the same path are collapsed: the handler sees a path
// once it has been quiet for the debounce delay, classified as an update if
// the file exists at that point and as a removal otherwise.
type Watcher struct {
	name     string
	root     string
	ext      string
	exclude  []string
	debounce time.Duration
	known    map[string]struct{}
	ready    chan struct{}
}

// New creates a watcher for files ending in ext below root. Directories in
// exclude, and everything below them, are ignored.
func New(name, root, ext string, debounce time.Duration, exclude ...string) *Watcher {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	w := &Watcher{
		name:     name,
		root:     filepath.Clean(root),
		ext:      ext,
		debounce: debounce,
		known:    make(map[string]struct{}),
		ready:    make(chan struct{}),
	}
	for _, dir := range exclude {
		w.exclude = append(w.exclude, filepath.Clean(dir))
	}
	return w
}

// Ready is closed once the initial tree has been registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. The handler is never called concurrently.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create %s watcher: %w", w.name, err)
	}
	defer func() {
		if err := fsw.Close(); err != nil {
			slog.Warn("failed to close watcher", "watcher", w.name, "error", err)
		}
	}()

	deb := newDebouncer(w.debounce)
	defer deb.stop()

	if err := w.addTree(fsw, w.root, nil); err != nil {
		return err
	}
	close(w.ready)
	slog.InfoContext(ctx, "watching for changes", "watcher", w.name, "root", w.root, "files", len(w.known))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, deb, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				slog.ErrorContext(ctx, "watch events lost, changes may be missed", "watcher", w.name)
				continue
			}
			slog.WarnContext(ctx, "watch error", "watcher", w.name, "error", err)
		case path := <-deb.fired():
			handle(ctx, w.classify(path))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, deb *debouncer, event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if w.excluded(path) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			// Files moved in with the directory produce no events of their own.
			if err := w.addTree(fsw, path, deb.touch); err != nil {
				slog.Warn("failed to watch new directory", "watcher", w.name, "path", path, "error", err)
			}
			return
		}
		if w.matches(path) {
			deb.touch(path)
		}
	case event.Has(fsnotify.Write):
		if w.matches(path) {
			deb.touch(path)
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if w.matches(path) {
			deb.touch(path)
		}
		// A directory that went away takes its files with it.
		prefix := path + string(filepath.Separator)
		for known := range w.known {
			if strings.HasPrefix(known, prefix) {
				deb.touch(known)
			}
		}
	}
}

// classify turns a quiet path into an event, keeping the known-file set current.
func (w *Watcher) classify(path string) ports.ChangeEvent {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		w.known[path] = struct{}{}
		return ports.ChangeEvent{Kind: ports.ChangeUpdate, Path: path}
	}
	delete(w.known, path)
	return ports.ChangeEvent{Kind: ports.ChangeRemove, Path: path}
}

// addTree registers every directory below dir. Matching files are recorded,
// and passed to found when it is non-nil.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, found func(string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != dir && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("failed to walk %s: %w", path, err)
		}
		if d.IsDir() {
			if w.excluded(path) {
				return filepath.SkipDir
			}
			if err := fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}
		if !w.matches(path) {
			return nil
		}
		w.known[path] = struct{}{}
		if found != nil {
			found(path)
		}
		return nil
	})
}

func (w *Watcher) matches(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, w.ext) && !strings.HasPrefix(name, ".")
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
