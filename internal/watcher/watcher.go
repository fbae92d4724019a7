// Package watcher watches a brag document for edits made outside brag and
// runs a callback once the edits settle.
//
// It backs `brag watch`, which adopts bullets typed by hand into the index.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the document must be quiet before OnChange runs.
const DefaultDebounce = 300 * time.Millisecond

const minPollInterval = time.Millisecond

// Watcher monitors one document file.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func() error
	logger   *zap.Logger

	fsWatcher *fsnotify.Watcher
	mu        sync.Mutex
	pendingAt time.Time // zero when nothing is pending
}

// Config holds configuration options for the Watcher.
type Config struct {
	// Path is the document file. Its directory must exist.
	Path     string
	Debounce time.Duration
	// OnChange runs after the document changed and stayed quiet for Debounce.
	OnChange func() error
	Logger   *zap.Logger
}

// New creates a Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("document path is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     filepath.Clean(cfg.Path),
		debounce: debounce,
		onChange: cfg.OnChange,
		logger:   logger,
	}, nil
}

// Start watches until the context is cancelled.
//
// The directory is watched rather than the file because editors and atomic
// writers replace the file, which ends a watch on the file itself.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching document", zap.String("path", w.path))

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("document event", zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pendingAt = time.Now()
	w.mu.Unlock()
}

// pollInterval is how often pending changes are checked: a quarter of the
// debounce, never below minPollInterval.
func pollInterval(debounce time.Duration) time.Duration {
	return max(debounce/4, minPollInterval)
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(pollInterval(w.debounce))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending runs the callback once the last event is older than the
// debounce delay.
func (w *Watcher) processPending() {
	w.mu.Lock()
	ready := !w.pendingAt.IsZero() && time.Since(w.pendingAt) >= w.debounce
	if ready {
		w.pendingAt = time.Time{}
	}
	w.mu.Unlock()

	if !ready {
		return
	}
	if err := w.onChange(); err != nil {
		w.logger.Warn("handle document change", zap.String("path", w.path), zap.Error(err))
	}
}
