package manager

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

// updateDB scans the subtree rooted at the specified relative path under
// every configured base, reconciling the index against disk and emitting
// change events in walk order (parents before children).
func (m *Manager) updateDB(srcRel string) {
	for i := range m.basePaths {
		m.updateBase(i, srcRel)
	}
}

// updateBase scans a single base path.
func (m *Manager) updateBase(base int, srcRel string) {
	basePath := m.basePaths[base]
	root := filepath.Join(basePath, srcRel)
	if _, err := os.Lstat(root); err != nil {
		if srcRel != paths.Root {
			m.logger.Debugf("skipping scan of %s under %s: %v", srcRel, basePath, err)
		}
		return
	}

	// The rel_path to id cache lets children resolve their parent id without
	// a database round-trip.
	dirIDs := newFIFOCache(dirCacheCapacity)

	walkErr := filepath.WalkDir(root, func(path string, entry iofs.DirEntry, err error) error {
		if err != nil {
			// A single-entry failure is logged and skipped; the scan
			// continues.
			m.logger.Warnf("scan error at %s: %v", path, err)
			return nil
		}

		// Never index the base path itself or symbolic links.
		if path == basePath {
			return nil
		}
		if entry.Type()&iofs.ModeSymlink != 0 {
			return nil
		}

		relPath, err := filepath.Rel(basePath, path)
		if err != nil {
			return nil
		}

		// Skip blacklisted paths, including everything below a blacklisted
		// directory.
		if m.blacklist.Match(relPath) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Bundles never appear in the index; they're unpacked by the
		// extraction pass instead.
		if m.extractors[base].IsBundle(relPath) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			m.logger.Warnf("unable to stat %s: %v", path, err)
			return nil
		}

		if err := m.reconcileEntry(fs.FromInfo(basePath, relPath, info), dirIDs); err != nil {
			m.logger.Warnf("unable to reconcile %s: %v", relPath, err)
		}
		return nil
	})
	if walkErr != nil {
		m.logger.Errorf("scan of %s failed: %+v", root, walkErr)
	}
}

// reconcileEntry reconciles a single stat result against the index, emitting
// a created or modified event as appropriate.
func (m *Manager) reconcileEntry(object *fs.Object, dirIDs *fifoCache) error {
	row, err := m.lookup(object.RelPath)
	if err != nil {
		return err
	}

	if row == nil {
		// New entry: insert and emit a created event.
		parentID := m.resolveParentID(object.RelPath, dirIDs)
		id, err := m.insertEntry(object, parentID)
		if err != nil {
			return err
		}
		if object.IsDir() {
			dirIDs.put(object.RelPath, id)
		}
		return m.queue.Add(events.Created(object.RelPath, object.IsDir()))
	}

	// Existing entry: keep directories warm in the cache and update in place
	// when the stat differs.
	if object.IsDir() {
		dirIDs.put(object.RelPath, row.id)
	}
	if object.Equal(row.object()) {
		return nil
	}
	if err := m.updateEntry(row.id, object); err != nil {
		return err
	}
	return m.queue.Add(events.Modified(object.RelPath, object.IsDir()))
}

// resolveParentID resolves the id of the entry's parent directory, consulting
// the scan cache before the database. The virtual root has id 0.
func (m *Manager) resolveParentID(relPath string, dirIDs *fifoCache) int64 {
	parentRel := filepath.Dir(relPath)
	if parentRel == paths.Root {
		return 0
	}
	if cached, ok := dirIDs.get(parentRel); ok {
		return cached.(int64)
	}
	var id int64
	err := m.store.DB().QueryRow(
		"select id from fsentries where path = ? and type = ?",
		parentRel, fs.TypeDirectory,
	).Scan(&id)
	if err != nil {
		return 0
	}
	dirIDs.put(parentRel, id)
	return id
}

// insertEntry inserts a new index row for the specified object, returning the
// assigned id.
func (m *Manager) insertEntry(object *fs.Object, parentID int64) (int64, error) {
	result, err := m.store.DB().Exec(
		`insert into fsentries
		 (parent_id, type, name, size, create_time, modify_time, path, base_path)
		 values (?, ?, ?, ?, ?, ?, ?, ?)`,
		parentID, object.Type(), object.Name, object.Size,
		fs.Timestamp(object.CreateDate), fs.Timestamp(object.ModifyDate),
		object.RelPath, object.BasePath,
	)
	if err != nil {
		return 0, errors.Wrap(err, "unable to insert index entry")
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "unable to determine inserted id")
	}
	return id, nil
}

// updateEntry updates an index row in place, keeping its id and parent.
func (m *Manager) updateEntry(id int64, object *fs.Object) error {
	_, err := m.store.DB().Exec(
		`update fsentries
		 set type = ?, name = ?, size = ?, create_time = ?, modify_time = ?, base_path = ?
		 where id = ?`,
		object.Type(), object.Name, object.Size,
		fs.Timestamp(object.CreateDate), fs.Timestamp(object.ModifyDate),
		object.BasePath, id,
	)
	return errors.Wrap(err, "unable to update index entry")
}

// lastOpTime reads the wall-clock time of the last successful scan
// completion. Values in the future are clamped to 0 to guard against system
// clock rewinds.
func (m *Manager) lastOpTime() float64 {
	var opTime float64
	err := m.store.DB().QueryRow("select op_time from dbmgr_stats limit 1").Scan(&opTime)
	if err != nil {
		m.logger.Warnf("unable to read last operation time: %v", err)
		return 0
	}
	if opTime > fs.Timestamp(time.Now()) {
		return 0
	}
	return opTime
}

// setOpTime records the wall-clock time of a successful scan completion.
func (m *Manager) setOpTime(completed time.Time) {
	if _, err := m.store.DB().Exec(
		"update dbmgr_stats set op_time = ?", fs.Timestamp(completed),
	); err != nil {
		m.logger.Warnf("unable to record operation time: %v", err)
	}
}
