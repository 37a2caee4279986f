package store

import (
	"database/sql"
	"embed"
	"sort"

	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// migrate applies any pending migrations in lexical filename order. Applied
// migrations are tracked in a bookkeeping table by filename.
func (s *Store) migrate() error {
	// Ensure the bookkeeping table exists.
	if _, err := s.db.Exec(
		"create table if not exists migrations (filename varchar primary key not null)",
	); err != nil {
		return errors.Wrap(err, "unable to create migrations table")
	}

	// Enumerate migration files in lexical order.
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "unable to enumerate migrations")
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	// Apply each pending migration inside its own transaction.
	for _, name := range names {
		var applied int
		if err := s.db.QueryRow(
			"select count(*) from migrations where filename = ?", name,
		).Scan(&applied); err != nil {
			return errors.Wrap(err, "unable to query migration state")
		}
		if applied > 0 {
			continue
		}
		script, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return errors.Wrapf(err, "unable to read migration %s", name)
		}
		if err := s.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(script)); err != nil {
				return errors.Wrapf(err, "unable to apply migration %s", name)
			}
			if _, err := tx.Exec(
				"insert into migrations (filename) values (?)", name,
			); err != nil {
				return errors.Wrapf(err, "unable to record migration %s", name)
			}
			return nil
		}); err != nil {
			return err
		}
		s.logger.Infof("applied migration %s", name)
	}

	// Done.
	return nil
}
