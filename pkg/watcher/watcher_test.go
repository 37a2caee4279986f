package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/manager"
	"github.com/Othernet-Project/fsal/pkg/scheduler"
	"github.com/Othernet-Project/fsal/pkg/store"
)

// testWatcher spins up a manager with a running watcher over a fresh base
// directory.
func testWatcher(t *testing.T) (*manager.Manager, string) {
	t.Helper()
	config := &configuration.Configuration{}
	config.FSAL.BasePaths = []string{filepath.Join(t.TempDir(), "content")}
	config.Bundles.BundlesDir = "bundles"
	config.Bundles.BundlesExts = []string{"zip"}
	config.Database.Name = filepath.Join(t.TempDir(), "fsal.db")
	require.NoError(t, os.MkdirAll(config.FSAL.BasePaths[0], 0700))

	st, err := store.Open(config.Database, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	queue := events.NewQueue(st, nil)
	sched := scheduler.New(nil)
	mgr, err := manager.New(config, st, queue, sched, nil)
	require.NoError(t, err)
	mgr.Start()
	t.Cleanup(mgr.Stop)

	watcher, err := New(mgr, nil)
	require.NoError(t, err)
	t.Cleanup(watcher.Stop)

	return mgr, config.FSAL.BasePaths[0]
}

// awaitIndexed polls until the index reflects the specified path.
func awaitIndexed(t *testing.T, mgr *manager.Manager, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mgr.Exists(path, false)
	}, 5*time.Second, 20*time.Millisecond)
}

// TestWatcherIndexesNewFile tests that a created file is picked up without an
// explicit refresh.
func TestWatcherIndexesNewFile(t *testing.T) {
	mgr, basePath := testWatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(basePath, "appeared"), []byte("x"), 0600))
	awaitIndexed(t, mgr, "/appeared")
}

// TestWatcherFollowsNewDirectories tests that content created inside a new
// directory is picked up, which requires the watcher to extend its watches.
func TestWatcherFollowsNewDirectories(t *testing.T) {
	mgr, basePath := testWatcher(t)

	// Create a directory, wait for it to land, then create a file inside it.
	require.NoError(t, os.MkdirAll(filepath.Join(basePath, "fresh"), 0700))
	awaitIndexed(t, mgr, "/fresh")
	require.NoError(t, os.WriteFile(filepath.Join(basePath, "fresh", "inner"), []byte("x"), 0600))
	awaitIndexed(t, mgr, "/fresh/inner")
}

// TestWatcherReflectsDeletion tests that deleting a file eventually removes
// it from the index.
func TestWatcherReflectsDeletion(t *testing.T) {
	mgr, basePath := testWatcher(t)
	require.NoError(t, os.WriteFile(filepath.Join(basePath, "doomed"), []byte("x"), 0600))
	awaitIndexed(t, mgr, "/doomed")

	require.NoError(t, os.Remove(filepath.Join(basePath, "doomed")))
	require.Eventually(t, func() bool {
		return !mgr.Exists("/doomed", false)
	}, 5*time.Second, 20*time.Millisecond)
}
