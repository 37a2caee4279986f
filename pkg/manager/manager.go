// Package manager implements the indexing and reconciliation engine that
// keeps the database mirror of the base paths consistent with the live trees
// and serves queries over it.
package manager

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/bundles"
	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/fs"
	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/paths"
	"github.com/Othernet-Project/fsal/pkg/scheduler"
	"github.com/Othernet-Project/fsal/pkg/store"
)

const (
	// dirCacheCapacity bounds the rel_path to id cache used to resolve
	// parent ids during scans.
	dirCacheCapacity = 1024
	// fsoCacheCapacity bounds the rel_path to object cache used by GetFSO.
	fsoCacheCapacity = 1024
)

// Manager owns the index: it scans and prunes the base paths, serves queries
// over the indexed mirror, performs mutating operations, and emits change
// events. Queries run on caller goroutines; every index mutation is
// serialised through the scheduler's single worker.
type Manager struct {
	// basePaths is the ordered list of indexed base directories. The first
	// entry is the primary base used for path validation; the last entry is
	// the default transfer destination.
	basePaths []string
	// blacklist identifies excluded paths.
	blacklist *paths.Blacklist
	// store is the index database.
	store *store.Store
	// queue is the change-event queue.
	queue *events.Queue
	// extractors are the per-base bundle extractors, parallel to basePaths.
	extractors []*bundles.Extractor
	// scheduler serialises index mutations.
	scheduler *scheduler.Scheduler
	// logger is the manager's logger.
	logger *logging.Logger
	// fsoLock guards fsoCache.
	fsoLock sync.Mutex
	// fsoCache caches GetFSO lookups. It is cleared before every scheduled
	// mutation so readers only ever observe committed state.
	fsoCache *fifoCache
}

// New creates a manager over the specified store and queue.
func New(config *configuration.Configuration, st *store.Store, queue *events.Queue, sched *scheduler.Scheduler, logger *logging.Logger) (*Manager, error) {
	// Normalise base paths.
	basePaths := make([]string, 0, len(config.FSAL.BasePaths))
	for _, basePath := range config.FSAL.BasePaths {
		if !filepath.IsAbs(basePath) {
			return nil, errors.Errorf("base path is not absolute: %s", basePath)
		}
		basePaths = append(basePaths, filepath.Clean(basePath))
	}
	if len(basePaths) == 0 {
		return nil, errors.New("no base paths configured")
	}

	// Compile the blacklist.
	blacklist, err := paths.CompileBlacklist(config.FSAL.Blacklist)
	if err != nil {
		return nil, err
	}

	// Create the per-base bundle extractors.
	extractors := make([]*bundles.Extractor, len(basePaths))
	for i, basePath := range basePaths {
		extractors[i] = bundles.NewExtractor(basePath, config.Bundles, logger.Sublogger("bundles"))
	}

	// Create the manager.
	return &Manager{
		basePaths:  basePaths,
		blacklist:  blacklist,
		store:      st,
		queue:      queue,
		extractors: extractors,
		scheduler:  sched,
		logger:     logger,
		fsoCache:   newFIFOCache(fsoCacheCapacity),
	}, nil
}

// Start launches the scheduler worker and schedules the initial full
// reconcile.
func (m *Manager) Start() {
	m.scheduler.Start()
	m.Refresh()
}

// Stop waits for any in-flight index mutation to complete and stops the
// scheduler.
func (m *Manager) Stop() {
	m.scheduler.Stop()
}

// BasePaths returns the configured base paths.
func (m *Manager) BasePaths() []string {
	return m.basePaths
}

// primaryBase returns the base path used for validation.
func (m *Manager) primaryBase() string {
	return m.basePaths[0]
}

// destinationBase returns the base path used as the transfer destination.
func (m *Manager) destinationBase() string {
	return m.basePaths[len(m.basePaths)-1]
}

// validate validates a user-supplied path and returns its canonical relative
// form.
func (m *Manager) validate(path string) (string, bool) {
	return paths.ValidateInternal(m.primaryBase(), path)
}

// lookup fetches the index row for the specified relative path, returning
// nil when the path isn't indexed.
func (m *Manager) lookup(relPath string) (*entryRow, error) {
	row, err := scanEntry(m.store.DB().QueryRow(
		"select "+entryColumns+" from fsentries where path = ?", relPath,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "unable to look up index entry")
	}
	return row, nil
}

// indexed checks whether the specified relative path is present in the index.
// The virtual root is considered indexed.
func (m *Manager) indexed(relPath string) bool {
	if relPath == paths.Root {
		return true
	}
	row, err := m.lookup(relPath)
	if err != nil {
		m.logger.Errorf("index lookup failed for %s: %v", relPath, err)
		return false
	}
	return row != nil
}

// clearFSOCache drops all cached GetFSO results. Invoked before every
// scheduled mutation.
func (m *Manager) clearFSOCache() {
	m.fsoLock.Lock()
	defer m.fsoLock.Unlock()
	m.fsoCache.clear()
}

// ListDir returns the indexed listing of the specified directory. The first
// return value is false when the path isn't indexed or isn't a directory.
func (m *Manager) ListDir(path string) (bool, []*fs.Object) {
	relPath, ok := m.validate(path)
	if !ok {
		return false, nil
	}

	// Resolve the parent id: the virtual root is id 0.
	var parentID int64
	if relPath != paths.Root {
		row, err := m.lookup(relPath)
		if err != nil {
			m.logger.Errorf("list_dir lookup failed for %s: %v", relPath, err)
			return false, nil
		}
		if row == nil || row.entryType != fs.TypeDirectory {
			return false, nil
		}
		parentID = row.id
	}

	// Fetch the children.
	rows, err := m.store.DB().Query(
		"select "+entryColumns+" from fsentries where parent_id = ? order by name",
		parentID,
	)
	if err != nil {
		m.logger.Errorf("list_dir query failed for %s: %v", relPath, err)
		return false, nil
	}
	defer rows.Close()

	var result []*fs.Object
	for rows.Next() {
		row, err := scanEntry(rows)
		if err != nil {
			m.logger.Errorf("list_dir scan failed for %s: %v", relPath, err)
			return false, nil
		}
		result = append(result, row.object())
	}
	if err := rows.Err(); err != nil {
		m.logger.Errorf("list_dir iteration failed for %s: %v", relPath, err)
		return false, nil
	}
	return true, result
}

// GetFSO resolves the specified path through the index, returning nil when
// the path is invalid or unknown.
func (m *Manager) GetFSO(path string) *fs.Object {
	relPath, ok := m.validate(path)
	if !ok || relPath == paths.Root {
		return nil
	}

	// Check the cache.
	m.fsoLock.Lock()
	if cached, ok := m.fsoCache.get(relPath); ok {
		m.fsoLock.Unlock()
		return cached.(*fs.Object)
	}
	m.fsoLock.Unlock()

	// Fall back to the index.
	row, err := m.lookup(relPath)
	if err != nil {
		m.logger.Errorf("get_fso lookup failed for %s: %v", relPath, err)
		return nil
	}
	if row == nil {
		return nil
	}
	object := row.object()

	// Populate the cache.
	m.fsoLock.Lock()
	m.fsoCache.put(relPath, object)
	m.fsoLock.Unlock()

	return object
}

// Exists checks whether the specified path exists. By default the index is
// consulted; when unindexed is true, the filesystem is checked across all
// base paths instead.
func (m *Manager) Exists(path string, unindexed bool) bool {
	relPath, ok := m.validate(path)
	if !ok {
		return false
	}
	if unindexed {
		for _, basePath := range m.basePaths {
			if _, err := os.Lstat(filepath.Join(basePath, relPath)); err == nil {
				return true
			}
		}
		return false
	}
	return m.indexed(relPath)
}

// IsDir checks whether the specified path is an indexed directory. The
// virtual root is a directory.
func (m *Manager) IsDir(path string) bool {
	relPath, ok := m.validate(path)
	if !ok {
		return false
	}
	if relPath == paths.Root {
		return true
	}
	row, err := m.lookup(relPath)
	if err != nil || row == nil {
		return false
	}
	return row.entryType == fs.TypeDirectory
}

// IsFile checks whether the specified path is an indexed file.
func (m *Manager) IsFile(path string) bool {
	relPath, ok := m.validate(path)
	if !ok || relPath == paths.Root {
		return false
	}
	row, err := m.lookup(relPath)
	if err != nil || row == nil {
		return false
	}
	return row.entryType == fs.TypeFile
}

// Search looks up entries matching the specified query. If the query itself
// identifies an indexed directory, its listing is returned with is_match
// true. Otherwise the query is split into keywords matched disjunctively
// against entry names, with is_match false.
func (m *Manager) Search(query string, wholeWords bool, excludes []string) (bool, []*fs.Object) {
	// A query naming an indexed directory returns its listing.
	if relPath, ok := m.validate(query); ok && relPath != paths.Root {
		if row, err := m.lookup(relPath); err == nil && row != nil && row.entryType == fs.TypeDirectory {
			_, listing := m.ListDir(query)
			return true, listing
		}
	}

	// Split the query into keywords and build a disjunctive LIKE filter over
	// names. Wildcards in keywords are escaped with a backslash.
	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return false, nil
	}
	var conditions []string
	var arguments []interface{}
	for _, keyword := range keywords {
		if wholeWords {
			conditions = append(conditions, `name like ? escape '\'`)
			arguments = append(arguments, escapeLike(keyword))
		} else {
			conditions = append(conditions, `lower(name) like ? escape '\'`)
			arguments = append(arguments, "%"+escapeLike(strings.ToLower(keyword))+"%")
		}
	}
	statement := "select " + entryColumns + " from fsentries where " +
		strings.Join(conditions, " or ") + " order by path"

	// Build the exclusion filter: an anchored alternation of the escaped
	// filename patterns.
	var exclude *regexp.Regexp
	if len(excludes) > 0 {
		escaped := make([]string, len(excludes))
		for i, pattern := range excludes {
			escaped[i] = strings.ReplaceAll(pattern, ".", `\.`)
		}
		compiled, err := regexp.Compile("^(" + strings.Join(escaped, "|") + ")$")
		if err != nil {
			m.logger.Warnf("ignoring invalid search excludes: %v", err)
		} else {
			exclude = compiled
		}
	}

	// Run the query.
	rows, err := m.store.DB().Query(statement, arguments...)
	if err != nil {
		m.logger.Errorf("search query failed: %v", err)
		return false, nil
	}
	defer rows.Close()

	var result []*fs.Object
	for rows.Next() {
		row, err := scanEntry(rows)
		if err != nil {
			m.logger.Errorf("search scan failed: %v", err)
			return false, nil
		}
		if exclude != nil && exclude.MatchString(row.name) {
			continue
		}
		result = append(result, row.object())
	}
	if err := rows.Err(); err != nil {
		m.logger.Errorf("search iteration failed: %v", err)
	}
	return false, result
}

// PathSize computes the total size in bytes of the files under the specified
// indexed path.
func (m *Manager) PathSize(path string) (int64, bool, string) {
	relPath, ok := m.validate(path)
	if !ok {
		return 0, false, fmt.Sprintf("Invalid path: %s", path)
	}

	// The virtual root covers every file in the index.
	if relPath == paths.Root {
		var size int64
		err := m.store.DB().QueryRow(
			"select coalesce(sum(size), 0) from fsentries where type = ?", fs.TypeFile,
		).Scan(&size)
		if err != nil {
			return 0, false, fmt.Sprintf("Size query failed: %v", err)
		}
		return size, true, ""
	}

	row, err := m.lookup(relPath)
	if err != nil {
		return 0, false, fmt.Sprintf("Size query failed: %v", err)
	}
	if row == nil {
		return 0, false, fmt.Sprintf("Path not found: %s", relPath)
	}
	if row.entryType == fs.TypeFile {
		return row.size, true, ""
	}
	var size int64
	err = m.store.DB().QueryRow(
		`select coalesce(sum(size), 0) from fsentries where type = ? and path like ? escape '\'`,
		fs.TypeFile, escapeLike(relPath)+string(filepath.Separator)+"%",
	).Scan(&size)
	if err != nil {
		return 0, false, fmt.Sprintf("Size query failed: %v", err)
	}
	return size, true, ""
}

// GetChanges returns up to limit pending change events without removing
// them.
func (m *Manager) GetChanges(limit int) ([]*events.Event, error) {
	return m.queue.Peek(limit)
}

// ConfirmChanges drains up to limit of the oldest pending change events,
// acknowledging a preceding GetChanges.
func (m *Manager) ConfirmChanges(limit int) error {
	_, err := m.queue.Drain(limit)
	return err
}

// Refresh schedules a full reconcile of all base paths.
func (m *Manager) Refresh() {
	m.scheduler.Schedule("refresh", func() {
		m.clearFSOCache()
		m.refreshDB()
	})
}

// RefreshPath schedules an asynchronous re-scan rooted at the specified
// indexed path.
func (m *Manager) RefreshPath(path string) (bool, string) {
	relPath, ok := m.validate(path)
	if !ok {
		return false, fmt.Sprintf("Invalid path: %s", path)
	}
	m.scheduleUpdate(relPath)
	return true, ""
}

// scheduleUpdate schedules a scan rooted at the specified relative path.
func (m *Manager) scheduleUpdate(relPath string) {
	m.scheduler.Schedule("update "+relPath, func() {
		m.clearFSOCache()
		m.updateDB(relPath)
	})
}

// deepestIndexedParent ascends from the specified relative path until it
// finds an indexed path, falling back to the virtual root (which is always
// considered indexed). It is used to choose the smallest subtree that safely
// contains a change.
func (m *Manager) deepestIndexedParent(relPath string) string {
	for relPath != paths.Root {
		if m.indexed(relPath) {
			return relPath
		}
		relPath = filepath.Dir(relPath)
	}
	return paths.Root
}
