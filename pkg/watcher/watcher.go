// Package watcher provides optional live filesystem watching for the base
// directories, complementing the periodic and on-demand re-scans. Events are
// coalesced over a short quiet period before triggering targeted re-scans.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/manager"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

const (
	// coalescingWindow is the quiet period over which raw notifications are
	// batched before triggering re-scans.
	coalescingWindow = 500 * time.Millisecond
)

// Watcher watches the manager's base directories for changes and keeps the
// index current by scheduling re-scans through the manager.
type Watcher struct {
	// manager is the indexer being kept current.
	manager *manager.Manager
	// watcher is the underlying filesystem notification watcher.
	watcher *fsnotify.Watcher
	// logger is the watcher's logger.
	logger *logging.Logger
	// done is closed when the event loop has exited.
	done chan struct{}
}

// New creates and starts a watcher over the manager's base directories.
func New(mgr *manager.Manager, logger *logging.Logger) (*Watcher, error) {
	// Create the underlying watcher.
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "unable to create filesystem watcher")
	}

	// Create the watcher.
	result := &Watcher{
		manager: mgr,
		watcher: notifier,
		logger:  logger,
		done:    make(chan struct{}),
	}

	// Establish recursive watches on every base directory.
	for _, basePath := range mgr.BasePaths() {
		if err := result.watchTree(basePath); err != nil {
			notifier.Close()
			return nil, err
		}
	}

	// Start the event loop.
	go result.run()

	// Success.
	return result, nil
}

// Stop shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
}

// watchTree registers watches on the specified directory and all of its
// subdirectories. Directories that disappear mid-walk are skipped.
func (w *Watcher) watchTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errors.Wrap(err, "unable to walk directory")
		}
		if !entry.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "unable to watch %s", path)
		}
		return nil
	})
}

// run is the watcher's event loop. Raw notifications are coalesced over a
// short quiet period into a set of dirty relative paths and a pending
// full-reconcile flag, which are then dispatched to the manager.
func (w *Watcher) run() {
	defer close(w.done)

	// dirty tracks relative directory paths awaiting a re-scan. fullRefresh
	// records that a deletion or rename was seen, which only a full reconcile
	// can reflect in the index.
	dirty := make(map[string]bool)
	fullRefresh := false

	// flush is armed while there are pending notifications.
	var flush <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				fullRefresh = true
			} else {
				if event.Op&fsnotify.Create != 0 {
					// New directories need their own watches. Errors are
					// tolerable: a re-scan will still pick the content up.
					if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
						if err := w.watchTree(event.Name); err != nil {
							w.logger.Warnf("unable to watch new directory: %v", err)
						}
					}
				}
				if relPath, ok := w.relativize(filepath.Dir(event.Name)); ok {
					dirty[relPath] = true
				}
			}
			flush = time.After(coalescingWindow)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warnf("filesystem watch error: %v", err)
		case <-flush:
			w.dispatch(dirty, fullRefresh)
			dirty = make(map[string]bool)
			fullRefresh = false
			flush = nil
		}
	}
}

// relativize converts an absolute path under one of the watched bases into a
// relative path.
func (w *Watcher) relativize(path string) (string, bool) {
	for _, basePath := range w.manager.BasePaths() {
		if path == basePath {
			return paths.Root, true
		}
		prefix := basePath + string(filepath.Separator)
		if len(path) > len(prefix) && path[:len(prefix)] == prefix {
			return path[len(prefix):], true
		}
	}
	return "", false
}

// dispatch schedules re-scans for a coalesced batch of notifications.
func (w *Watcher) dispatch(dirty map[string]bool, fullRefresh bool) {
	// A full reconcile subsumes any targeted re-scan.
	if fullRefresh {
		w.logger.Debug("watch batch requires full reconcile")
		w.manager.Refresh()
		return
	}
	for relPath := range dirty {
		w.logger.Debugf("watch batch re-scan: %s", relPath)
		if ok, message := w.manager.RefreshPath(relPath); !ok {
			w.logger.Warnf("unable to re-scan %s: %s", relPath, message)
		}
	}
}
