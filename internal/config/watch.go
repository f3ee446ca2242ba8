package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file when its modification time changes. It
// listens for filesystem events on the file's directory and also polls, so
// it keeps working where notifications are unavailable. Callbacks run on
// the watcher goroutine.
type Watcher struct {
	path          string
	checkInterval time.Duration

	mu       sync.Mutex
	modTime  time.Time
	stopCh   chan struct{}
	onChange func(*Config)
	onError  func(error)
}

// NewWatcher creates a watcher for path. A missing file is treated as
// having a zero modification time, so creating it later triggers a reload.
func NewWatcher(path string, checkInterval time.Duration) *Watcher {
	w := &Watcher{
		path:          path,
		checkInterval: checkInterval,
	}
	w.modTime = w.currentModTime()
	return w
}

// OnChange sets the callback invoked with the reloaded config.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// OnError sets the callback invoked when a changed file fails to load.
func (w *Watcher) OnError(callback func(error)) {
	w.mu.Lock()
	w.onError = callback
	w.mu.Unlock()
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.watchLoop(stop)
}

// Stop stops the watching goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *Watcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	if fw, err := fsnotify.NewWatcher(); err == nil {
		defer fw.Close()
		// Editors often replace the file, so watch the directory.
		if err := fw.Add(filepath.Dir(w.path)); err == nil {
			events, errs = fw.Events, fw.Errors
		}
	}
	target := filepath.Clean(w.path)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.Check()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.Check()
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.reportError(err)
		}
	}
}

// Check reloads the file if it changed since the last check and reports
// whether a reload was attempted.
func (w *Watcher) Check() bool {
	mt := w.currentModTime()

	w.mu.Lock()
	if mt.Equal(w.modTime) {
		w.mu.Unlock()
		return false
	}
	w.modTime = mt
	onChange, onError := w.onChange, w.onError
	w.mu.Unlock()

	cfg, err := Load(w.path)
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return true
	}
	if onChange != nil {
		onChange(cfg)
	}
	return true
}

func (w *Watcher) currentModTime() time.Time {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func (w *Watcher) reportError(err error) {
	w.mu.Lock()
	onError := w.onError
	w.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}
