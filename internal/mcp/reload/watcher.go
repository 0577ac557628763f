// Package reload watches a configuration file for changes and invokes a
// callback after a debounce window, so editors that save via
// write-temp-then-rename don't trigger a storm of reloads.
package reload

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long Watch waits after the last relevant event
// before invoking onChange.
const defaultDebounce = 300 * time.Millisecond

// Watcher monitors a single file and calls onChange when it is written
// or replaced.
type Watcher struct {
	path     string
	onChange func() error
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a file watcher for path. onChange is invoked (after
// debouncing) whenever the file is written or atomically replaced.
func NewWatcher(path string, onChange func() error) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		logger:   slog.Default(),
		debounce: defaultDebounce,
	}
}

// SetLogger overrides the default logger.
func (w *Watcher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		w.logger = logger
	}
}

// SetDebounce overrides the default debounce window.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Watch blocks until ctx is cancelled or the underlying fsnotify watcher
// errors out closing its event channel.
//
// The parent directory is watched rather than the file itself: most
// editors save atomically (write a temp file, then rename it over the
// target), and a rename-over event is only visible on the directory,
// not on a handle to the old inode.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	w.logger.Info("watching mcp config for changes", "path", w.path)

	var debounceTimer *time.Timer
	var debounceChan <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping mcp config watcher")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.logger.Debug("mcp config file changed", "event", event.Op.String())
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.NewTimer(w.debounce)
				debounceChan = debounceTimer.C
			}

		case <-debounceChan:
			w.logger.Info("mcp config change detected, reloading")
			if err := w.onChange(); err != nil {
				w.logger.Error("mcp reload failed", "error", err)
			}
			debounceChan = nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("mcp config watcher error", "error", err)
		}
	}
}
