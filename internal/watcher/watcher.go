// Package watcher re-runs a sync whenever the roster file changes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/meridianops/rostersync/internal/logger"
)

// debounceWindow coalesces the burst of events editors emit for a
// single save into one callback.
const debounceWindow = 2 * time.Second

// Watcher invokes a callback when the watched roster file is written.
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
}

// New creates a watcher for the roster at path.
func New(path string, onChange func()) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve roster path: %w", err)
	}
	return &Watcher{path: abs, onChange: onChange, debounce: debounceWindow}, nil
}

// Run watches until the context is cancelled. The roster's directory is
// watched rather than the file itself so atomic save-and-rename editors
// do not break the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch roster directory: %w", err)
	}

	logger.Info("watching %s for changes", w.path)

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("watcher: %s %s", event.Op, event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case <-pending:
			logger.Info("roster changed, re-syncing")
			w.onChange()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)
		}
	}
}
