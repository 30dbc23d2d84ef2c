package ingestion

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounce is how long a changed file must stay quiet before it is
// re-ingested.
const WatchDebounce = 200 * time.Millisecond

// WatchVault keeps the repository in sync with the vault at root until ctx
// is cancelled. Created and written files are re-parsed; removed and
// renamed files lose their tasks. New directories are watched as they
// appear. Call IngestVault first; WatchVault only applies changes.
func (in *Ingester) WatchVault(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	in.logger.Info("watching vault", "root", root)

	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time
	schedule := func(rel string) {
		pending[rel] = struct{}{}
		if flushTimer == nil {
			flushTimer = time.NewTimer(WatchDebounce)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(WatchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			in.logger.Info("vault watcher stopped")
			return nil

		case <-flushCh:
			paths := make([]string, 0, len(pending))
			for rel := range pending {
				paths = append(paths, rel)
			}
			clear(pending)
			slices.Sort(paths)
			for _, rel := range paths {
				if _, err := in.IngestFile(ctx, root, rel); err != nil {
					in.logger.Warn("re-ingest failed", "path", rel, "err", err)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if hiddenDir(root, ev.Name) {
						continue
					}
					if err := addDirsRecursive(w, ev.Name); err != nil {
						in.logger.Warn("watch new dir failed", "path", ev.Name, "err", err)
						continue
					}
					in.scheduleDir(root, ev.Name, schedule)
					continue
				}
			}
			if !in.matches(ev.Name) || hiddenDir(root, filepath.Dir(ev.Name)) {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule(filepath.ToSlash(rel))
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			in.logger.Error("vault watcher error", "err", watchErr)
		}
	}
}

// scheduleDir queues the matching files of a directory that appeared while
// watching, since their Create events may have fired before it was added.
func (in *Ingester) scheduleDir(root, dir string, schedule func(string)) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !in.matches(d.Name()) {
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil {
			schedule(filepath.ToSlash(rel))
		}
		return nil
	})
}

// hiddenDir reports whether dir is, or lies in, a hidden directory under root.
func hiddenDir(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.Add(p)
	})
}
