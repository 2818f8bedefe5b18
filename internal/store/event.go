package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is a recorded gesture or control action.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventRepository stores gesture events.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Create inserts e, assigning an ID and timestamp when missing.
func (r *EventRepository) Create(e *Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO gesture_events (id, session_id, kind, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Kind, e.Detail, e.CreatedAt,
	)
	return err
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(limit int) ([]*Event, error) {
	return r.query(
		`SELECT id, session_id, kind, detail, created_at FROM gesture_events
		 ORDER BY created_at DESC LIMIT ?`, limit,
	)
}

// BySession returns a session's events in the order they happened.
func (r *EventRepository) BySession(sessionID string) ([]*Event, error) {
	return r.query(
		`SELECT id, session_id, kind, detail, created_at FROM gesture_events
		 WHERE session_id = ? ORDER BY created_at ASC`, sessionID,
	)
}

// CountByKind tallies a session's events per kind.
func (r *EventRepository) CountByKind(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM gesture_events WHERE session_id = ? GROUP BY kind`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

func (r *EventRepository) query(q string, args ...any) ([]*Event, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e := &Event{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
