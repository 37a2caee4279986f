// Package store provides the SQLite-backed persistence layer shared by the
// index and the change-event queue.
package store

import (
	"database/sql"

	"github.com/pkg/errors"

	_ "modernc.org/sqlite"

	"github.com/Othernet-Project/fsal/pkg/configuration"
	"github.com/Othernet-Project/fsal/pkg/logging"
)

// Store wraps the index database connection. It exposes parameterised
// execution and explicit transactions; all schema management happens on open.
type Store struct {
	// db is the underlying database handle.
	db *sql.DB
	// logger is the store's logger.
	logger *logging.Logger
}

// Open opens (creating if necessary) the database described by the specified
// configuration and applies any pending migrations.
func Open(configuration configuration.Database, logger *logging.Logger) (*Store, error) {
	// Only the sqlite backend is supported.
	if configuration.Backend != "" && configuration.Backend != "sqlite" {
		return nil, errors.Errorf("unsupported database backend: %s", configuration.Backend)
	}

	// Open the database. Writes are serialised by the scheduler, so a single
	// connection with a busy timeout is sufficient and avoids lock contention
	// between readers and the writer. LIKE is made case-sensitive so that
	// case-insensitive matching can be performed explicitly via lower().
	dsn := "file:" + configuration.Name +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=case_sensitive_like(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "unable to open database")
	}

	// Create the store.
	result := &Store{
		db:     db,
		logger: logger,
	}

	// Apply migrations.
	if err := result.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "unable to apply migrations")
	}

	// Success.
	return result, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Transaction runs the specified callback inside a transaction, committing if
// the callback succeeds and rolling back if it fails.
func (s *Store) Transaction(callback func(*sql.Tx) error) error {
	// Begin the transaction.
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}

	// Run the callback, rolling back on failure.
	if err := callback(tx); err != nil {
		tx.Rollback()
		return err
	}

	// Commit.
	return errors.Wrap(tx.Commit(), "unable to commit transaction")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
