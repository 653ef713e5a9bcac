package manifest

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/giantswarm/patternhost/pkg/logging"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a manifest file whenever it changes on disk.
//
// The containing directory is watched rather than the file itself so that
// editors replacing the file via rename are picked up. Bursts of events are
// debounced into a single reload.
type Watcher struct {
	mu sync.Mutex

	path     string
	debounce time.Duration

	watcher *fsnotify.Watcher
	timer   *time.Timer
	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher for the manifest at path.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
	}
}

// Start begins watching. onChange receives every successfully parsed
// manifest; parse failures are logged and the previous manifest stays in
// effect.
func (w *Watcher) Start(ctx context.Context, onChange func(Manifest)) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	go w.processEvents(ctx, watcher, stopCh, onChange)

	logging.Info("ManifestWatcher", "Watching %s for pattern changes", w.path)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher, stopCh chan struct{}, onChange func(Manifest)) {
	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ManifestWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleFsEvent(event fsnotify.Event, onChange func(Manifest)) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.schedule(onChange)
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule(onChange func(Manifest)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		running := w.running
		w.timer = nil
		w.mu.Unlock()
		if !running {
			return
		}

		m, err := Load(w.path)
		if err != nil {
			logging.Warn("ManifestWatcher", "Ignoring manifest change: %v", err)
			return
		}
		logging.Debug("ManifestWatcher", "Manifest reloaded: %d patterns", len(m.Patterns))
		onChange(m)
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	var err error
	if w.watcher != nil {
		if err = w.watcher.Close(); err != nil {
			logging.Error("ManifestWatcher", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info("ManifestWatcher", "Stopped watching %s", w.path)
	return err
}
