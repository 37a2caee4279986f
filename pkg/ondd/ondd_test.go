package ondd

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Othernet-Project/fsal/pkg/protocol"
)

// fakeSource serves a single canned notification response on a Unix socket.
func fakeSource(t *testing.T, response string) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "ondd.socket")
	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })
	go func() {
		for {
			connection, err := listener.Accept()
			if err != nil {
				return
			}
			go func() {
				defer connection.Close()
				if _, err := protocol.ReadMessage(bufio.NewReader(connection)); err != nil {
					return
				}
				protocol.WriteMessage(connection, []byte(response))
			}()
		}
	}()
	return socketPath
}

// TestListenerDispatch tests that polled file_complete notifications reach
// the handler with other types filtered out.
func TestListenerDispatch(t *testing.T) {
	socketPath := fakeSource(t, `<response><events>`+
		`<event><type>file_complete</type><path>downloads/pack.zip</path></event>`+
		`<event><type>transfer_progress</type><path>downloads/partial</path></event>`+
		`<event><type>file_complete</type><path>downloads/readme</path></event>`+
		`</events></response>`)

	// Start a listener and capture the first dispatched batch.
	batches := make(chan []Notification, 1)
	listener := NewListener(socketPath, func(batch []Notification) {
		select {
		case batches <- batch:
		default:
		}
	}, nil)
	listener.Start()
	defer listener.Stop()

	select {
	case batch := <-batches:
		require.Len(t, batch, 2)
		require.Equal(t, "downloads/pack.zip", batch[0].Path)
		require.Equal(t, "downloads/readme", batch[1].Path)
		for _, notification := range batch {
			require.Equal(t, "file_complete", notification.Type)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no notification batch dispatched")
	}
}

// TestListenerSurvivesUnreachableSource tests that an unreachable source
// doesn't terminate the listener.
func TestListenerSurvivesUnreachableSource(t *testing.T) {
	listener := NewListener(filepath.Join(t.TempDir(), "missing.socket"), func([]Notification) {
		t.Error("handler invoked with no source")
	}, nil)
	listener.Start()

	// The listener stops cleanly despite the poll failure.
	time.Sleep(50 * time.Millisecond)
	listener.Stop()
}

// TestParseNotifications tests decoding of notification documents.
func TestParseNotifications(t *testing.T) {
	// A bare events document works.
	notifications, err := parseNotifications([]byte(
		`<events><event><type>file_complete</type><path>a</path></event></events>`,
	))
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	// An empty events container yields nothing.
	notifications, err = parseNotifications([]byte(`<events></events>`))
	require.NoError(t, err)
	require.Empty(t, notifications)

	// Unexpected documents are rejected.
	_, err = parseNotifications([]byte(`<status>ok</status>`))
	require.Error(t, err)
	_, err = parseNotifications([]byte(`garbage`))
	require.Error(t, err)
}
