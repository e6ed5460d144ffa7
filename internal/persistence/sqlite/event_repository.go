package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

const eventColumns = `id, event_type, owner_id, client_id, chantier_id, project_id, date_time,
	duration_minutes, title, description, location, status, recurring, notes, created_at, updated_at`

// CreateEvent inserts a calendar entry.
func (s *Store) CreateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.EventType, event.OwnerID, nullString(event.ClientID),
		nullString(event.ChantierID), nullString(event.ProjectID), encodeTimePtr(event.DateTime),
		event.DurationMinutes, event.Title, event.Description, event.Location, event.Status,
		event.Recurring, event.Notes, encodeTime(event.CreatedAt), encodeTime(event.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create event: %w", err)
	}
	return nil
}

// UpdateEvent rewrites a calendar entry.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE calendar_events SET event_type = ?, client_id = ?, date_time = ?, duration_minutes = ?,
			title = ?, description = ?, location = ?, status = ?, recurring = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		event.EventType, nullString(event.ClientID), encodeTimePtr(event.DateTime), event.DurationMinutes,
		event.Title, event.Description, event.Location, event.Status, event.Recurring, event.Notes,
		encodeTime(time.Now()), event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update event: %w", err)
	}
	return ensureAffected(result)
}

// GetEvent loads one calendar entry.
func (s *Store) GetEvent(ctx context.Context, id string) (persistence.CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns calendar entries matching the filter in chronological
// order. When a time bound is set, undated entries are excluded.
func (s *Store) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.CalendarEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_events`
	var (
		conditions []string
		args       []any
	)
	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.EventType != "" {
		conditions = append(conditions, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.From != nil {
		conditions = append(conditions, "date_time IS NOT NULL AND date_time >= ?")
		args = append(args, encodeTime(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "date_time IS NOT NULL AND date_time <= ?")
		args = append(args, encodeTime(*filter.To))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date_time IS NULL, date_time, created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list events: %w", err)
	}
	defer rows.Close()

	var events []persistence.CalendarEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteEvent removes one calendar entry.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete event: %w", err)
	}
	return ensureAffected(result)
}

// DeleteEventsForProject removes every calendar entry tied to a project.
func (s *Store) DeleteEventsForProject(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("sqlite: delete events for project: %w", err)
	}
	return nil
}

func scanEvent(row rowScanner) (persistence.CalendarEvent, error) {
	var (
		event                          persistence.CalendarEvent
		clientID, chantierID, projectID sql.NullString
		dateTime                       sql.NullString
		createdAt, updatedAt           string
	)
	err := row.Scan(
		&event.ID, &event.EventType, &event.OwnerID, &clientID, &chantierID, &projectID, &dateTime,
		&event.DurationMinutes, &event.Title, &event.Description, &event.Location, &event.Status,
		&event.Recurring, &event.Notes, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.CalendarEvent{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.CalendarEvent{}, fmt.Errorf("sqlite: scan event: %w", err)
	}
	event.ClientID = stringPtr(clientID)
	event.ChantierID = stringPtr(chantierID)
	event.ProjectID = stringPtr(projectID)
	if event.DateTime, err = decodeTimePtr(dateTime); err != nil {
		return persistence.CalendarEvent{}, fmt.Errorf("sqlite: event date_time: %w", err)
	}
	if event.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.CalendarEvent{}, fmt.Errorf("sqlite: event created_at: %w", err)
	}
	if event.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.CalendarEvent{}, fmt.Errorf("sqlite: event updated_at: %w", err)
	}
	return event, nil
}
