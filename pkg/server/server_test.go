package server

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Othernet-Project/fsal/pkg/client"
	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/events"
	"github.com/Othernet-Project/fsal/pkg/manager"
	"github.com/Othernet-Project/fsal/pkg/protocol"
	"github.com/Othernet-Project/fsal/pkg/scheduler"
	"github.com/Othernet-Project/fsal/pkg/store"
)

// testDaemon spins up a full daemon stack (store, queue, scheduler, manager,
// server) over a fresh base directory and returns a connected client, the
// base path, and the socket path.
func testDaemon(t *testing.T) (*client.Client, string, string) {
	t.Helper()

	// Build the configuration.
	config := &configuration.Configuration{}
	config.FSAL.BasePaths = []string{filepath.Join(t.TempDir(), "content")}
	config.Bundles.BundlesDir = "bundles"
	config.Bundles.BundlesExts = []string{"zip"}
	config.Database.Name = filepath.Join(t.TempDir(), "fsal.db")
	require.NoError(t, os.MkdirAll(config.FSAL.BasePaths[0], 0700))

	// Assemble the stack.
	st, err := store.Open(config.Database, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	queue := events.NewQueue(st, nil)
	sched := scheduler.New(nil)
	mgr, err := manager.New(config, st, queue, sched, nil)
	require.NoError(t, err)
	mgr.Start()
	t.Cleanup(mgr.Stop)

	// Serve on a socket in a temporary directory.
	socketPath := filepath.Join(t.TempDir(), "fsal.socket")
	srv, err := New(socketPath, mgr, nil)
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(srv.Close)

	return client.New(socketPath), config.FSAL.BasePaths[0], socketPath
}

// awaitIndexed polls until the daemon's index reflects the specified path.
func awaitIndexed(t *testing.T, c *client.Client, path string) {
	t.Helper()
	require.Eventually(t, func() bool {
		exists, err := c.Exists(path, false)
		return err == nil && exists
	}, 5*time.Second, 10*time.Millisecond)
}

// TestEndToEnd exercises the full request cycle over a real socket: index
// content, query it, mutate it, and consume the change feed.
func TestEndToEnd(t *testing.T) {
	c, basePath, _ := testDaemon(t)

	// Stage content and request a re-scan.
	require.NoError(t, os.MkdirAll(filepath.Join(basePath, "docs"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(basePath, "docs", "readme"), []byte("hello"), 0600))
	require.NoError(t, c.Refresh())
	awaitIndexed(t, c, "/docs/readme")

	// List the root.
	listedBase, objects, err := c.ListDir("/")
	require.NoError(t, err)
	require.Equal(t, basePath, listedBase)
	require.Len(t, objects, 1)
	require.Equal(t, "docs", objects[0].RelPath)
	require.True(t, objects[0].IsDir())

	// Query predicates.
	isDir, err := c.IsDir("/docs")
	require.NoError(t, err)
	require.True(t, isDir)
	isFile, err := c.IsFile("/docs/readme")
	require.NoError(t, err)
	require.True(t, isFile)

	// Resolve an object.
	object, err := c.GetFSO("/docs/readme")
	require.NoError(t, err)
	require.Equal(t, int64(5), object.Size)
	require.Equal(t, basePath, object.BasePath)

	// Search for it.
	isMatch, _, results, err := c.Search("readme", false, nil)
	require.NoError(t, err)
	require.False(t, isMatch)
	require.Len(t, results, 1)

	// Size it up.
	size, err := c.GetPathSize("/docs")
	require.NoError(t, err)
	require.Equal(t, int64(5), size)

	// Enumerate base paths.
	basePaths, err := c.ListBasePaths()
	require.NoError(t, err)
	require.Equal(t, []string{basePath}, basePaths)

	// Consume the change feed: two creations, then acknowledge them.
	pending, err := c.GetChanges(100)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, events.TypeCreated, pending[0].Type)
	require.NoError(t, c.ConfirmChanges(len(pending)))
	pending, err = c.GetChanges(100)
	require.NoError(t, err)
	require.Empty(t, pending)

	// Remove the subtree.
	require.NoError(t, c.Remove("/docs"))
	exists, err := c.Exists("/docs", false)
	require.NoError(t, err)
	require.False(t, exists)
	_, err = os.Lstat(filepath.Join(basePath, "docs"))
	require.True(t, os.IsNotExist(err))
}

// TestTransferOverSocket tests the transfer operation end to end.
func TestTransferOverSocket(t *testing.T) {
	c, basePath, _ := testDaemon(t)

	external := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(external, []byte("data"), 0600))
	require.NoError(t, c.Transfer(external, "/"))
	awaitIndexed(t, c, "/payload")

	// The file moved into the base.
	content, err := os.ReadFile(filepath.Join(basePath, "payload"))
	require.NoError(t, err)
	require.Equal(t, "data", string(content))

	// A bad transfer surfaces the daemon's error message.
	err = c.Transfer("relative/source", "/")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid source path")
}

// TestListDirFailure tests that listing an unknown directory produces a bare
// failure.
func TestListDirFailure(t *testing.T) {
	c, _, _ := testDaemon(t)
	_, _, err := c.ListDir("/missing")
	require.Error(t, err)
}

// TestMalformedRequestClosesConnection tests that a malformed request closes
// the connection without a response.
func TestMalformedRequestClosesConnection(t *testing.T) {
	_, _, socketPath := testDaemon(t)
	require.False(t, rawExchange(t, socketPath, []byte("not xml")))
}

// TestUnknownCommand tests that unknown command types yield no response.
func TestUnknownCommand(t *testing.T) {
	_, _, socketPath := testDaemon(t)
	message := protocol.BuildRequest("frobnicate", nil)
	require.False(t, rawExchange(t, socketPath, message))
}

// rawExchange sends a raw message to the specified socket and reports whether
// any response arrived before the connection closed.
func rawExchange(t *testing.T, socketPath string, message []byte) bool {
	t.Helper()
	connection, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer connection.Close()
	require.NoError(t, protocol.WriteMessage(connection, message))
	connection.SetReadDeadline(time.Now().Add(2 * time.Second))
	buffer := make([]byte, 1)
	_, err = connection.Read(buffer)
	return err == nil
}
