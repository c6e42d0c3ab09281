// Package watcher turns fsnotify events on the site directories into
// ports.WatchEvent values.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent
	logger    ports.Logger

	mu        sync.RWMutex
	dirRoots  []string
	fileRoots map[string]bool
	stopOnce  sync.Once
}

// NewWatcher creates a watcher. logger receives fsnotify errors and may be nil.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(domain.ErrWatcherFailed, err.Error())
	}
	return &Watcher{
		fsWatcher: fsw,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		logger:    logger,
		fileRoots: make(map[string]bool),
	}, nil
}

// Start watches every root and begins forwarding events. Roots that do not
// exist are skipped.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	w.mu.Lock()
	for _, root := range roots {
		root = filepath.Clean(root)
		info, err := os.Stat(root)
		if err != nil {
			continue
		}
		if info.IsDir() {
			w.dirRoots = append(w.dirRoots, root)
			for dir := range walkDirs(root) {
				if err := w.fsWatcher.Add(dir); err != nil {
					w.mu.Unlock()
					return zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "path", dir)
				}
			}
			continue
		}
		w.fileRoots[root] = true
		if err := w.fsWatcher.Add(filepath.Dir(root)); err != nil {
			w.mu.Unlock()
			return zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "path", root)
		}
	}
	w.mu.Unlock()

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// walkDirs yields root and every directory below it that is not skipped.
func walkDirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && domain.Skipped(d.Name()) {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.emit(ctx, event) {
				return
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Error(zerr.Wrap(err, "file watcher error"))
			}
		}
	}
}

// emit forwards event and, for a new directory, starts watching it and
// reports the files it already holds. It returns false once ctx is done.
func (w *Watcher) emit(ctx context.Context, event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)
	if !w.relevant(path) {
		return true
	}

	op, ok := convertOp(event.Op)
	if !ok {
		return true
	}

	if op == ports.OpCreate {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if domain.Skipped(info.Name()) {
				return true
			}
			return w.addTree(ctx, path)
		}
	}

	return w.send(ctx, ports.WatchEvent{Path: path, Operation: op})
}

func (w *Watcher) addTree(ctx context.Context, dir string) bool {
	for d := range walkDirs(dir) {
		_ = w.fsWatcher.Add(d)
	}
	var files []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // vanished while walking
		}
		if d.IsDir() && path != dir && domain.Skipped(d.Name()) {
			return fs.SkipDir
		}
		if d.Type().IsRegular() && !domain.Skipped(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	for _, f := range files {
		if !w.send(ctx, ports.WatchEvent{Path: f, Operation: ports.OpCreate}) {
			return false
		}
	}
	return true
}

func (w *Watcher) send(ctx context.Context, ev ports.WatchEvent) bool {
	select {
	case w.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// relevant reports whether path lies below a directory root or is a file root.
func (w *Watcher) relevant(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.fileRoots[path] {
		return true
	}
	for _, root := range w.dirRoots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// convertOp maps an fsnotify op to a watch op. A rename reports the old name
// going away; the new name arrives as its own create.
func convertOp(op fsnotify.Op) (ports.WatchOp, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.OpRemove, true
	case op.Has(fsnotify.Create):
		return ports.OpCreate, true
	case op.Has(fsnotify.Write):
		return ports.OpWrite, true
	default:
		return 0, false
	}
}
