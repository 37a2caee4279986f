package manager

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/paths"
)

// pruneBatchSize is the number of stale rows deleted per transaction.
const pruneBatchSize = 1000

// refreshDB performs a full reconcile: prune stale index rows, unpack any
// delivered bundles, then scan every base path from its root. The operation
// time is recorded only on full success.
func (m *Manager) refreshDB() {
	started := time.Now()
	if last := m.lastOpTime(); last > 0 {
		m.logger.Debugf("last successful scan completed at %s",
			fs.FromTimestamp(last).Format(time.RFC3339))
	}

	if err := m.pruneDB(); err != nil {
		m.logger.Errorf("prune failed: %+v", err)
		return
	}
	m.extractBundles()
	m.updateDB(paths.Root)

	m.setOpTime(time.Now())
	m.logger.Infof("refresh completed in %s", time.Since(started).Round(time.Millisecond))
}

// staleEntry pairs a stale index path with its deletion event.
type staleEntry struct {
	path  string
	event *events.Event
}

// pruneDB removes index rows whose base is no longer configured, whose path
// no longer exists on disk, or which have become blacklisted. Rows are
// visited children-first so that deletion events are emitted for children
// before their parents.
func (m *Manager) pruneDB() error {
	configured := make(map[string]bool, len(m.basePaths))
	for _, basePath := range m.basePaths {
		configured[basePath] = true
	}

	// Collect the stale rows.
	rows, err := m.store.DB().Query(
		"select path, type, base_path from fsentries order by path desc",
	)
	if err != nil {
		return errors.Wrap(err, "unable to stream index entries")
	}
	var stale []staleEntry
	for rows.Next() {
		var path, basePath string
		var entryType int
		if err := rows.Scan(&path, &entryType, &basePath); err != nil {
			rows.Close()
			return errors.Wrap(err, "unable to scan index entry")
		}
		remove := !configured[basePath] || m.blacklist.Match(path)
		if !remove {
			if _, err := os.Lstat(filepath.Join(basePath, path)); err != nil {
				remove = true
			}
		}
		if remove {
			stale = append(stale, staleEntry{
				path:  path,
				event: events.Deleted(path, entryType == fs.TypeDirectory),
			})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "unable to iterate index entries")
	}

	// Flush in batches: delete rows, then enqueue the deletion events. Events
	// are only enqueued once the rows are gone from the index.
	for len(stale) > 0 {
		batch := stale
		if len(batch) > pruneBatchSize {
			batch = batch[:pruneBatchSize]
		}
		stale = stale[len(batch):]
		if err := m.flushPrune(batch); err != nil {
			return err
		}
	}
	return nil
}

// flushPrune deletes one batch of stale rows and enqueues their deletion
// events.
func (m *Manager) flushPrune(batch []staleEntry) error {
	err := m.store.Transaction(func(tx *sql.Tx) error {
		statement, err := tx.Prepare("delete from fsentries where path = ?")
		if err != nil {
			return errors.Wrap(err, "unable to prepare delete")
		}
		defer statement.Close()
		for _, entry := range batch {
			if _, err := statement.Exec(entry.path); err != nil {
				return errors.Wrap(err, "unable to delete index entry")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	batchEvents := make([]*events.Event, len(batch))
	for i, entry := range batch {
		batchEvents[i] = entry.event
	}
	return m.queue.AddMany(batchEvents)
}

// extractBundles walks the bundles directory under each base and unpacks
// every recognised bundle into its base.
func (m *Manager) extractBundles() {
	for i, basePath := range m.basePaths {
		extractor := m.extractors[i]
		bundlesDir := filepath.Join(basePath, extractor.BundlesDir())
		entries, err := os.ReadDir(bundlesDir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			relPath := filepath.Join(extractor.BundlesDir(), entry.Name())
			if !extractor.IsBundle(relPath) {
				continue
			}
			if ok, extracted := extractor.Extract(relPath); ok {
				m.logger.Infof("extracted bundle %s (%d entries)", relPath, len(extracted))
			}
		}
	}
}
