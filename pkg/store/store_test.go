package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/Othernet-Project/fsal/pkg/configuration"
)

// testStore opens a store on a fresh database file.
func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(configuration.Database{
		Backend: "sqlite",
		Name:    filepath.Join(t.TempDir(), "fsal.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// TestOpenMigrates tests that opening a fresh database creates the full
// schema.
func TestOpenMigrates(t *testing.T) {
	store := testStore(t)

	// Verify that all expected tables exist.
	for _, table := range []string{"fsentries", "events", "dbmgr_stats", "migrations"} {
		var name string
		err := store.DB().QueryRow(
			"select name from sqlite_master where type = 'table' and name = ?", table,
		).Scan(&name)
		require.NoErrorf(t, err, "table %s missing", table)
	}

	// The stats table carries its seed row.
	var opTime float64
	require.NoError(t, store.DB().QueryRow("select op_time from dbmgr_stats").Scan(&opTime))
	require.Zero(t, opTime)
}

// TestOpenIdempotent tests that reopening an existing database doesn't reapply
// migrations.
func TestOpenIdempotent(t *testing.T) {
	name := filepath.Join(t.TempDir(), "fsal.db")

	// Open, write a row, and close.
	store, err := Open(configuration.Database{Name: name}, nil)
	require.NoError(t, err)
	_, err = store.DB().Exec(
		"insert into fsentries (parent_id, type, name, size, create_time, modify_time, path, base_path) "+
			"values (0, 1, 'docs', 0, 0, 0, 'docs', '/srv/content')",
	)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopen and verify that the row survived.
	store, err = Open(configuration.Database{Name: name}, nil)
	require.NoError(t, err)
	defer store.Close()
	var count int
	require.NoError(t, store.DB().QueryRow("select count(*) from fsentries").Scan(&count))
	require.Equal(t, 1, count)
}

// TestOpenRejectsBackend tests that unsupported backends are rejected.
func TestOpenRejectsBackend(t *testing.T) {
	_, err := Open(configuration.Database{Backend: "postgres", Name: "ignored"}, nil)
	require.Error(t, err)
}

// TestTransaction tests commit and rollback behavior.
func TestTransaction(t *testing.T) {
	store := testStore(t)

	// A successful callback commits.
	require.NoError(t, store.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec("insert into events (type, src, is_dir) values ('created', 'docs', 1)")
		return err
	}))
	var count int
	require.NoError(t, store.DB().QueryRow("select count(*) from events").Scan(&count))
	require.Equal(t, 1, count)

	// A failing callback rolls back.
	failure := errors.New("callback failure")
	err := store.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("insert into events (type, src, is_dir) values ('created', 'more', 0)"); err != nil {
			return err
		}
		return failure
	})
	require.Equal(t, failure, err)
	require.NoError(t, store.DB().QueryRow("select count(*) from events").Scan(&count))
	require.Equal(t, 1, count)
}
