package settings

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watch reloads the settings file at path whenever it changes and calls fn
// with each version that loads and validates. A broken edit is logged and
// skipped, so the caller keeps running on the last good settings. Watch
// blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself because
// editors commonly replace the file with a rename.
func Watch(ctx context.Context, path string, logger *slog.Logger, fn func(*Settings)) error {
	if fn == nil {
		return ErrWatchCallbackRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "settings-watcher")

	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}
	logger.Info("watching settings", "path", path)

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(DefaultDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(DefaultDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("settings watcher stopped")
			return nil

		case <-reloadCh:
			s, err := Load(path)
			if err != nil {
				logger.Warn("keeping previous settings", "path", path, "err", err)
				continue
			}
			logger.Info("settings reloaded", "path", path)
			fn(s)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("settings watcher error", "err", watchErr)
		}
	}
}
