// Package watch re-runs the processing pipeline when the solver rewrites
// its output files. Events are debounced per path because solvers rewrite
// result files in bursts.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher monitors a set of files and invokes a callback after changes.
type Watcher struct {
	mu      sync.Mutex
	fs      *fsnotify.Watcher
	files   map[string]bool // absolute paths to react to
	last    map[string]time.Time
	dirs    []string
	deb     time.Duration
	onEvent func(path string)
	log     *zap.Logger

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New creates a watcher for the given files. onEvent runs on the watcher
// goroutine after each debounced change.
func New(files []string, debounce time.Duration, onEvent func(path string), log *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fs:      fs,
		files:   make(map[string]bool, len(files)),
		last:    make(map[string]time.Time),
		deb:     debounce,
		onEvent: onEvent,
		log:     log,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	seen := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fs.Close()
			return nil, err
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch parent directories: editors and solvers replace files rather
	// than writing them in place, which drops per-file watches.
	for _, dir := range w.dirs {
		if err := w.fs.Add(dir); err != nil {
			w.log.Warn("watch failed", zap.String("dir", dir), zap.Error(err))
		} else {
			w.log.Debug("watching", zap.String("dir", dir))
		}
	}

	go w.run(ctx)
	return nil
}

// Stop terminates the event loop and releases the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.fs.Close(); err != nil {
		w.log.Warn("close watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil || !w.files[abs] {
		return
	}

	now := time.Now()
	w.mu.Lock()
	if last, ok := w.last[abs]; ok && now.Sub(last) < w.deb {
		w.mu.Unlock()
		return
	}
	w.last[abs] = now
	w.mu.Unlock()

	w.log.Info("input changed", zap.String("path", abs))
	w.onEvent(abs)
}
