package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce groups the bursts of events an atomic save produces
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a session when its store file changes on disk
type Watcher struct {
	session  *Session
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(version int)
	logger   *zap.Logger
	stopCh   chan struct{}
	done     chan struct{}
}

// Watch creates a watcher for the session's store. onReload runs after
// every reload with the new graph version; it may be nil.
func (s *Session) Watch(debounce time.Duration, onReload func(version int)) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Atomic saves replace the file, so watch its directory rather than the file.
	dir := filepath.Dir(s.store.Path())
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch store directory: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		session:  s,
		watcher:  watcher,
		debounce: debounce,
		onReload: onReload,
		logger:   s.logger.Named("watcher"),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Store watcher started", zap.String("path", w.session.Path()))
}

// Stop stops watching and waits for the loop to exit
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	<-w.done
	w.logger.Info("Store watcher stopped")
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	base := filepath.Base(w.session.Path())
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-timer.C:
			w.handleChange()
		}
	}
}

func (w *Watcher) handleChange() {
	reloaded, err := w.session.reloadIfChanged(context.Background())
	if err != nil {
		w.logger.Error("Failed to reload store, keeping current graph", zap.Error(err))
		return
	}
	if !reloaded {
		return
	}

	version := w.session.Version()
	w.logger.Info("Store reloaded", zap.Int("version", version))
	if w.onReload != nil {
		w.onReload(version)
	}
}
