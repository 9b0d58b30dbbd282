package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/twhispr/internal/models"
	"github.com/desertthunder/twhispr/internal/shared"
)

// ErrEventNotFound is returned by [EventRepository.Get] for an unknown id.
var ErrEventNotFound = errors.New("event not found")

// EventCriteria filters [EventRepository.List]. Zero fields match everything.
type EventCriteria struct {
	Author  string
	Kind    models.EventKind
	TrackID int64
	Limit   int // most recent N when positive
}

// EventRepository persists journal events.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record implements the engine journal by creating a copy of event.
func (r *EventRepository) Record(ctx context.Context, event models.Event) error {
	return r.Create(ctx, &event)
}

// Create inserts a new event into the database with generated ID and sequence
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	event.ID = shared.GenerateID()

	query := `
		INSERT INTO events (id, sequence, kind, author, identity, track_id, playlist, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		sequence,
		string(event.Kind),
		event.Author,
		event.Identity,
		event.TrackID,
		event.Playlist,
		event.Detail,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Get retrieves an event by ID
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	query := `
		SELECT id, kind, author, identity, track_id, playlist, detail, created_at
		FROM events
		WHERE id = ?
	`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrEventNotFound, id)
	}
	return event, err
}

// List retrieves events matching criteria, most recent first.
func (r *EventRepository) List(ctx context.Context, criteria EventCriteria) ([]models.Event, error) {
	query := `
		SELECT id, kind, author, identity, track_id, playlist, detail, created_at
		FROM events
		WHERE 1 = 1
	`

	args := []any{}

	if criteria.Author != "" {
		query += " AND author = ?"
		args = append(args, criteria.Author)
	}

	if criteria.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(criteria.Kind))
	}

	if criteria.TrackID != 0 {
		query += " AND track_id = ?"
		args = append(args, criteria.TrackID)
	}

	query += " ORDER BY sequence DESC"

	if criteria.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, criteria.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// Count returns the number of events of each kind.
func (r *EventRepository) Count(ctx context.Context) (map[models.EventKind]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := map[models.EventKind]int{}
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan event count: %w", err)
		}
		counts[models.EventKind(kind)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return counts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a [models.Event]
func scanEvent(row scanner) (*models.Event, error) {
	var (
		event models.Event
		kind  string
	)

	err := row.Scan(&event.ID, &kind, &event.Author, &event.Identity, &event.TrackID, &event.Playlist, &event.Detail, &event.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	event.Kind = models.EventKind(kind)
	return &event, nil
}
