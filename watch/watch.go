// Package watch invalidates file-backed cache entries when the files change
// on disk.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a registered callback once when a watched file is written,
// created, removed or renamed. Callbacks are one-shot: a producer that
// reloads the file registers again.
//
// Parent directories are watched rather than the files themselves, so
// editors that replace a file by renaming a temporary over it are seen.
type Watcher struct {
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu    sync.Mutex
	files map[string]func()
	dirs  map[string]int

	cancel context.CancelFunc
	done   chan struct{}
}

// New starts a watcher. Errors reported by the OS are logged to logger,
// which may be nil.
func New(logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:     fsw,
		logger: logger,
		files:  make(map[string]func()),
		dirs:   make(map[string]int),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.processEvents(ctx)
	return w, nil
}

// Watch registers invalidate to run the next time path changes. A later
// registration for the same path replaces the earlier one.
func (w *Watcher) Watch(path string, invalidate func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[abs]; !ok {
		if w.dirs[dir] == 0 {
			if err := w.fs.Add(dir); err != nil {
				return err
			}
		}
		w.dirs[dir]++
	}
	w.files[abs] = invalidate
	return nil
}

// Unwatch drops the registration for path, if any.
func (w *Watcher) Unwatch(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	_, ok := w.files[abs]
	w.release(abs)
	w.mu.Unlock()
	if ok {
		w.logger.Debug("watch: unwatched", "path", abs)
	}
}

// Len returns the number of files with a pending registration.
func (w *Watcher) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.files)
}

// release removes abs and stops watching its directory when unused.
// Caller must hold w.mu.
func (w *Watcher) release(abs string) {
	if _, ok := w.files[abs]; !ok {
		return
	}
	delete(w.files, abs)

	dir := filepath.Dir(abs)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.fs.Remove(dir)
	}
}

// Close stops the watcher. Pending callbacks are dropped.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.fs.Close()
	<-w.done
	return err
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			w.fire(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch: file system error", "err", err)
		}
	}
}

func (w *Watcher) fire(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	w.mu.Lock()
	invalidate, ok := w.files[abs]
	w.release(abs)
	w.mu.Unlock()

	if ok {
		w.logger.Debug("watch: invalidated", "path", abs)
		invalidate()
	}
}

func relevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}
