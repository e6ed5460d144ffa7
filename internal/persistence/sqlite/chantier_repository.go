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

const chantierColumns = `id, project_id, client_id, owner_id, month_target, status,
	date_time, duration_minutes, created_at, updated_at`

// CreateChantier inserts a work order.
func (s *Store) CreateChantier(ctx context.Context, chantier persistence.Chantier) error {
	now := time.Now().UTC()
	if chantier.CreatedAt.IsZero() {
		chantier.CreatedAt = now
	}
	chantier.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chantiers (`+chantierColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chantier.ID, chantier.ProjectID, chantier.ClientID, chantier.OwnerID,
		chantier.MonthTarget, chantier.Status, encodeTimePtr(chantier.DateTime),
		chantier.DurationMinutes, encodeTime(chantier.CreatedAt), encodeTime(chantier.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create chantier: %w", err)
	}
	return nil
}

// UpdateChantier rewrites the mutable fields of a work order.
func (s *Store) UpdateChantier(ctx context.Context, chantier persistence.Chantier) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE chantiers SET month_target = ?, status = ?, date_time = ?, duration_minutes = ?, updated_at = ?
		WHERE id = ?`,
		chantier.MonthTarget, chantier.Status, encodeTimePtr(chantier.DateTime),
		chantier.DurationMinutes, encodeTime(time.Now()), chantier.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update chantier: %w", err)
	}
	return ensureAffected(result)
}

// GetChantier loads one work order.
func (s *Store) GetChantier(ctx context.Context, id string) (persistence.Chantier, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+chantierColumns+` FROM chantiers WHERE id = ?`, id)
	return scanChantier(row)
}

// ListChantiers returns work orders matching the filter, scheduled first in
// chronological order, unscheduled last by creation.
func (s *Store) ListChantiers(ctx context.Context, filter persistence.ChantierFilter) ([]persistence.Chantier, error) {
	query := `SELECT ` + chantierColumns + ` FROM chantiers`
	var (
		conditions []string
		args       []any
	)
	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.MonthTarget != "" {
		conditions = append(conditions, "month_target = ?")
		args = append(args, filter.MonthTarget)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date_time IS NULL, date_time, created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list chantiers: %w", err)
	}
	defer rows.Close()

	var chantiers []persistence.Chantier
	for rows.Next() {
		chantier, err := scanChantier(rows)
		if err != nil {
			return nil, err
		}
		chantiers = append(chantiers, chantier)
	}
	return chantiers, rows.Err()
}

// DeleteChantier removes one work order.
func (s *Store) DeleteChantier(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chantiers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete chantier: %w", err)
	}
	return ensureAffected(result)
}

// DeleteChantiersForProject removes every work order generated for a project.
func (s *Store) DeleteChantiersForProject(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chantiers WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("sqlite: delete chantiers for project: %w", err)
	}
	return nil
}

func scanChantier(row rowScanner) (persistence.Chantier, error) {
	var (
		chantier             persistence.Chantier
		dateTime             sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&chantier.ID, &chantier.ProjectID, &chantier.ClientID, &chantier.OwnerID,
		&chantier.MonthTarget, &chantier.Status, &dateTime, &chantier.DurationMinutes,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Chantier{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Chantier{}, fmt.Errorf("sqlite: scan chantier: %w", err)
	}
	if chantier.DateTime, err = decodeTimePtr(dateTime); err != nil {
		return persistence.Chantier{}, fmt.Errorf("sqlite: chantier date_time: %w", err)
	}
	if chantier.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Chantier{}, fmt.Errorf("sqlite: chantier created_at: %w", err)
	}
	if chantier.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Chantier{}, fmt.Errorf("sqlite: chantier updated_at: %w", err)
	}
	return chantier, nil
}
