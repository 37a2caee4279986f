package manager

import (
	"database/sql"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

// runSerialized schedules the specified mutation on the scheduler worker and
// waits for it to complete, preserving the rule that at most one index
// mutation runs at a time while still letting callers observe the result.
func (m *Manager) runSerialized(name string, mutate func()) bool {
	done := make(chan struct{})
	scheduled := m.scheduler.Schedule(name, func() {
		defer close(done)
		m.clearFSOCache()
		mutate()
	})
	if !scheduled {
		return false
	}
	<-done
	return true
}

// Remove removes the specified indexed path from disk and from the index,
// emitting deletion events for the entire subtree (children before parents).
func (m *Manager) Remove(path string) (bool, string) {
	relPath, ok := m.validate(path)
	if !ok || relPath == paths.Root {
		return false, fmt.Sprintf("Invalid path: %s", path)
	}
	row, err := m.lookup(relPath)
	if err != nil {
		return false, fmt.Sprintf("Remove failed: %v", err)
	}
	if row == nil {
		return false, fmt.Sprintf("Path not found: %s", relPath)
	}

	var success bool
	var message string
	if !m.runSerialized("remove "+relPath, func() {
		success, message = m.removeFSO(relPath, row)
	}) {
		return false, "Remove could not be scheduled"
	}
	return success, message
}

// removeFSO performs the removal on the scheduler worker. On any filesystem
// or database failure it schedules a full reconcile and reports the error.
func (m *Manager) removeFSO(relPath string, row *entryRow) (bool, string) {
	absPath := filepath.Join(row.basePath, relPath)
	isDir := row.entryType == fs.TypeDirectory

	// Synthesise deletion events for the subtree, children before parents.
	var pending []*events.Event
	if isDir {
		walkErr := filepath.WalkDir(absPath, func(path string, entry iofs.DirEntry, err error) error {
			if err != nil {
				m.logger.Warnf("removal walk error at %s: %v", path, err)
				return nil
			}
			entryRel, err := filepath.Rel(row.basePath, path)
			if err != nil {
				return nil
			}
			pending = append(pending, events.Deleted(entryRel, entry.IsDir()))
			return nil
		})
		if walkErr != nil {
			return m.removalFailed(relPath, walkErr)
		}
		// The walk emits parents first; deletion events go out in reverse.
		for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
			pending[i], pending[j] = pending[j], pending[i]
		}
	} else {
		pending = append(pending, events.FileDeleted(relPath))
	}

	// Remove from disk.
	var removeErr error
	if isDir {
		removeErr = os.RemoveAll(absPath)
	} else {
		removeErr = os.Remove(absPath)
	}
	if removeErr != nil {
		return m.removalFailed(relPath, removeErr)
	}

	// Delete the matching index rows. For directories this covers the whole
	// subtree; wildcards in the path are escaped.
	err := m.store.Transaction(func(tx *sql.Tx) error {
		if isDir {
			_, err := tx.Exec(
				`delete from fsentries where path = ? or path like ? escape '\'`,
				relPath, escapeLike(relPath)+string(filepath.Separator)+"%",
			)
			return errors.Wrap(err, "unable to delete index subtree")
		}
		_, err := tx.Exec("delete from fsentries where path = ?", relPath)
		return errors.Wrap(err, "unable to delete index entry")
	})
	if err != nil {
		return m.removalFailed(relPath, err)
	}

	// Enqueue the collected deletion events.
	if err := m.queue.AddMany(pending); err != nil {
		return m.removalFailed(relPath, err)
	}
	return true, ""
}

// removalFailed logs a removal failure, schedules a full reconcile to restore
// index consistency, and produces the failure result.
func (m *Manager) removalFailed(relPath string, err error) (bool, string) {
	m.logger.Errorf("removal of %s failed: %+v", relPath, err)
	m.Refresh()
	return false, fmt.Sprintf("Remove failed: %v", err)
}
