package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/runwatch/logging"
	"github.com/sirupsen/logrus"
)

// Watcher delivers recursive notifications for a directory tree. fsnotify
// watches single directories, so every directory is registered on its own
// and new ones are picked up as they appear.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	skip    func(abs string) bool
	logger  *logrus.Entry
	watched map[string]struct{}
}

// NewWatcher registers root and all directories below it. skip, when set,
// prunes directories (for example ignored ones) from registration.
func NewWatcher(root string, skip func(abs string) bool) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    filepath.Clean(root),
		fsw:     fsw,
		skip:    skip,
		logger:  logging.NewLogger("watch"),
		watched: make(map[string]struct{}),
	}
	if err := w.fsw.Add(w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	w.watched[w.root] = struct{}{}
	w.addTree(w.root, nil)
	return w, nil
}

// Watched returns the number of registered directories.
func (w *Watcher) Watched() int { return len(w.watched) }

// addTree registers every directory under dir. When emit is set, files found
// during the walk are reported as created; they may have been written before
// their directory's watch existed.
func (w *Watcher) addTree(dir string, emit func(Event)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			if emit != nil {
				emit(Event{Kind: Created, Path: path})
			}
			return nil
		}
		if path != w.root && w.skip != nil && w.skip(path) {
			return filepath.SkipDir
		}
		if _, ok := w.watched[path]; ok {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.WithError(err).WithField("dir", path).Warn("Failed to watch directory")
			return nil
		}
		w.watched[path] = struct{}{}
		return nil
	})
}

// Run delivers events to handle until ctx is cancelled. handle runs on the
// watcher goroutine.
func (w *Watcher) Run(ctx context.Context, handle func(Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.dispatch(event, handle)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("File watcher error")
		}
	}
}

func (w *Watcher) dispatch(event fsnotify.Event, handle func(Event)) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			handle(Event{Kind: Created, Path: path, IsDir: true})
			if w.skip == nil || !w.skip(path) {
				w.addTree(path, handle)
			}
			return
		}
		handle(Event{Kind: Created, Path: path})

	case event.Has(fsnotify.Write):
		handle(Event{Kind: Modified, Path: path})

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		_, wasDir := w.watched[path]
		if wasDir {
			delete(w.watched, path)
		}
		handle(Event{Kind: Deleted, Path: path, IsDir: wasDir})
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
