package events

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/store"
)

// testQueue creates a queue on a fresh database.
func testQueue(t *testing.T) *Queue {
	t.Helper()
	st, err := store.Open(configuration.Database{
		Name: filepath.Join(t.TempDir(), "fsal.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewQueue(st, nil)
}

// TestQueueOrdering tests that events come back in enqueue order with
// ascending ids.
func TestQueueOrdering(t *testing.T) {
	queue := testQueue(t)

	// Enqueue a mix of single and batched events.
	require.NoError(t, queue.Add(DirCreated("docs")))
	require.NoError(t, queue.AddMany([]*Event{
		FileCreated("docs/readme"),
		FileModified("docs/readme"),
		FileDeleted("docs/readme"),
	}))

	// Peek them all back.
	pending, err := queue.Peek(10)
	require.NoError(t, err)
	require.Len(t, pending, 4)
	require.Equal(t, "docs", pending[0].Src)
	require.True(t, pending[0].Dir)
	require.Equal(t, TypeCreated, pending[1].Type)
	require.Equal(t, TypeModified, pending[2].Type)
	require.Equal(t, TypeDeleted, pending[3].Type)
	for i := 1; i < len(pending); i++ {
		require.Greater(t, pending[i].ID, pending[i-1].ID)
	}
}

// TestQueuePeekNonDestructive tests that peeking doesn't remove events.
func TestQueuePeekNonDestructive(t *testing.T) {
	queue := testQueue(t)
	require.NoError(t, queue.Add(FileCreated("docs/readme")))

	// Peek twice and verify that the event persists.
	for i := 0; i < 2; i++ {
		pending, err := queue.Peek(10)
		require.NoError(t, err)
		require.Len(t, pending, 1)
	}
}

// TestQueueDrain tests the peek/acknowledge cycle: only drained events
// disappear, and events enqueued after a peek survive the acknowledgement.
func TestQueueDrain(t *testing.T) {
	queue := testQueue(t)
	require.NoError(t, queue.AddMany([]*Event{
		FileCreated("one"),
		FileCreated("two"),
		FileCreated("three"),
	}))

	// Peek the first two.
	pending, err := queue.Peek(2)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// A new event arrives before the acknowledgement.
	require.NoError(t, queue.Add(FileCreated("four")))

	// Acknowledge the peeked batch.
	drained, err := queue.Drain(2)
	require.NoError(t, err)
	require.Equal(t, 2, drained)

	// The unpeeked and late events remain, in order.
	pending, err = queue.Peek(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "three", pending[0].Src)
	require.Equal(t, "four", pending[1].Src)
}

// TestQueueDefaultLimit tests that non-positive limits fall back to the
// default.
func TestQueueDefaultLimit(t *testing.T) {
	queue := testQueue(t)
	batch := make([]*Event, DefaultLimit+10)
	for i := range batch {
		batch[i] = FileCreated("entry")
	}
	require.NoError(t, queue.AddMany(batch))

	pending, err := queue.Peek(0)
	require.NoError(t, err)
	require.Len(t, pending, DefaultLimit)

	drained, err := queue.Drain(-1)
	require.NoError(t, err)
	require.Equal(t, DefaultLimit, drained)
}

// TestQueueAddManyEmpty tests that an empty batch is a no-op.
func TestQueueAddManyEmpty(t *testing.T) {
	queue := testQueue(t)
	require.NoError(t, queue.AddMany(nil))
	pending, err := queue.Peek(10)
	require.NoError(t, err)
	require.Empty(t, pending)
}
