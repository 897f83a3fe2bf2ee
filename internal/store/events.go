package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event kinds recorded in the activity log.
const (
	// EventSessionStarted marks the start of a hands-free session.
	EventSessionStarted = "session_started"
	// EventSessionStopped marks the end of a hands-free session.
	EventSessionStopped = "session_stopped"
	// EventCommand marks one dispatched voice command.
	EventCommand = "command"
)

// Event represents one activity log entry.
type Event struct {
	ID        string
	Kind      string
	Username  string
	Detail    string
	CreatedAt time.Time
}

// EventRepository provides append and query operations for the activity log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record inserts a new event. The ID and timestamp are assigned here.
func (r *EventRepository) Record(kind, username, detail string) error {
	_, err := r.db.Exec(
		`INSERT INTO events (id, kind, username, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), kind, username, detail, time.Now(),
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, username, detail, created_at
		 FROM events ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ByUser returns up to limit events for one username, newest first.
func (r *EventRepository) ByUser(username string, limit int) ([]*Event, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, username, detail, created_at
		 FROM events WHERE username = ? ORDER BY created_at DESC, id LIMIT ?`,
		username, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.Kind, &e.Username, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
