package events

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/Othernet-Project/fsal/pkg/logging"
	"github.com/Othernet-Project/fsal/pkg/store"
)

// DefaultLimit is the number of events returned by Peek and removed by Drain
// when no limit is specified.
const DefaultLimit = 100

// Queue is a persistent FIFO of change events. Events are enqueued by the
// indexer and removed only by explicit client acknowledgement (Drain).
type Queue struct {
	// store is the backing store.
	store *store.Store
	// logger is the queue's logger.
	logger *logging.Logger
}

// NewQueue creates a queue on top of the specified store.
func NewQueue(store *store.Store, logger *logging.Logger) *Queue {
	return &Queue{
		store:  store,
		logger: logger,
	}
}

// Add enqueues a single event.
func (q *Queue) Add(event *Event) error {
	_, err := q.store.DB().Exec(
		"insert into events (type, src, is_dir) values (?, ?, ?)",
		string(event.Type), event.Src, event.Dir,
	)
	return errors.Wrap(err, "unable to enqueue event")
}

// AddMany enqueues the specified events in a single transaction, preserving
// their order.
func (q *Queue) AddMany(batch []*Event) error {
	if len(batch) == 0 {
		return nil
	}
	return q.store.Transaction(func(tx *sql.Tx) error {
		statement, err := tx.Prepare(
			"insert into events (type, src, is_dir) values (?, ?, ?)",
		)
		if err != nil {
			return errors.Wrap(err, "unable to prepare insert")
		}
		defer statement.Close()
		for _, event := range batch {
			if _, err := statement.Exec(string(event.Type), event.Src, event.Dir); err != nil {
				return errors.Wrap(err, "unable to enqueue event")
			}
		}
		return nil
	})
}

// Peek returns up to limit of the oldest events in ascending id order without
// removing them. A non-positive limit uses DefaultLimit.
func (q *Queue) Peek(limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := q.store.DB().Query(
		"select id, type, src, is_dir from events order by id limit ?", limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "unable to query events")
	}
	defer rows.Close()

	var result []*Event
	for rows.Next() {
		event := &Event{}
		var eventType string
		if err := rows.Scan(&event.ID, &eventType, &event.Src, &event.Dir); err != nil {
			return nil, errors.Wrap(err, "unable to scan event row")
		}
		event.Type = Type(eventType)
		result = append(result, event)
	}
	return result, errors.Wrap(rows.Err(), "unable to iterate event rows")
}

// Drain removes up to limit of the oldest events inside a single transaction
// and returns the number removed. Removal is the client's acknowledgement of
// the events returned by a preceding Peek. A non-positive limit uses
// DefaultLimit.
func (q *Queue) Drain(limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	var drained int
	err := q.store.Transaction(func(tx *sql.Tx) error {
		// Select the oldest ids.
		rows, err := tx.Query("select id from events order by id limit ?", limit)
		if err != nil {
			return errors.Wrap(err, "unable to query event ids")
		}
		var ids []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return errors.Wrap(err, "unable to scan event id")
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, "unable to iterate event ids")
		}

		// Delete them.
		statement, err := tx.Prepare("delete from events where id = ?")
		if err != nil {
			return errors.Wrap(err, "unable to prepare delete")
		}
		defer statement.Close()
		for _, id := range ids {
			if _, err := statement.Exec(id); err != nil {
				return errors.Wrap(err, "unable to delete event")
			}
		}
		drained = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	q.logger.Debugf("cleared %d events", drained)
	return drained, nil
}
