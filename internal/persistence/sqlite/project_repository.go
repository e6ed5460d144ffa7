package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

const projectColumns = `id, client_id, owner_id, title, description, type, first_month,
	duration_months, duration_minutes, status, created_at, updated_at`

// CreateProject inserts a project and its work plan in one transaction.
func (s *Store) CreateProject(ctx context.Context, project persistence.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (`+projectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			project.ID, project.ClientID, project.OwnerID, project.Title, project.Description,
			project.Type, nullString(project.FirstMonth), nullInt(project.DurationMonths),
			project.DurationMinutes, project.Status, encodeTime(project.CreatedAt), encodeTime(project.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: create project: %w", err)
		}
		return insertPlanItems(ctx, tx, project.ID, project.PlanItems)
	})
}

// UpdateProject rewrites a project and replaces its work plan.
func (s *Store) UpdateProject(ctx context.Context, project persistence.Project) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE projects SET title = ?, description = ?, type = ?, first_month = ?,
				duration_months = ?, duration_minutes = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			project.Title, project.Description, project.Type, nullString(project.FirstMonth),
			nullInt(project.DurationMonths), project.DurationMinutes, project.Status,
			encodeTime(time.Now()), project.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: update project: %w", err)
		}
		if err := ensureAffected(result); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_items WHERE project_id = ?`, project.ID); err != nil {
			return fmt.Errorf("sqlite: clear plan items: %w", err)
		}
		return insertPlanItems(ctx, tx, project.ID, project.PlanItems)
	})
}

// GetProject loads one project with its work plan.
func (s *Store) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if err != nil {
		return persistence.Project{}, err
	}
	if project.PlanItems, err = s.planItemsFor(ctx, project.ID); err != nil {
		return persistence.Project{}, err
	}
	return project, nil
}

// ListProjects returns the owner's projects, newest first, plans included.
func (s *Store) ListProjects(ctx context.Context, ownerID string) ([]persistence.Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id = ? ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list projects: %w", err)
	}
	defer rows.Close()

	var projects []persistence.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].PlanItems, err = s.planItemsFor(ctx, projects[i].ID); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// DeleteProject removes a project; chantiers, events and plan items cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete project: %w", err)
	}
	return ensureAffected(result)
}

func insertPlanItems(ctx context.Context, tx *sql.Tx, projectID string, items []persistence.PlanItem) error {
	for position, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_items (project_id, position, month, occurrences) VALUES (?, ?, ?, ?)`,
			projectID, position, item.Month, item.Occurrences,
		); err != nil {
			return fmt.Errorf("sqlite: insert plan item: %w", err)
		}
	}
	return nil
}

func (s *Store) planItemsFor(ctx context.Context, projectID string) ([]persistence.PlanItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT month, occurrences FROM plan_items WHERE project_id = ? ORDER BY position`, projectID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list plan items: %w", err)
	}
	defer rows.Close()

	var items []persistence.PlanItem
	for rows.Next() {
		var item persistence.PlanItem
		if err := rows.Scan(&item.Month, &item.Occurrences); err != nil {
			return nil, fmt.Errorf("sqlite: scan plan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanProject(row rowScanner) (persistence.Project, error) {
	var (
		project                persistence.Project
		firstMonth             sql.NullString
		durationMonths         sql.NullInt64
		createdAt, updatedAt   string
	)
	err := row.Scan(
		&project.ID, &project.ClientID, &project.OwnerID, &project.Title, &project.Description,
		&project.Type, &firstMonth, &durationMonths, &project.DurationMinutes, &project.Status,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Project{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Project{}, fmt.Errorf("sqlite: scan project: %w", err)
	}
	project.FirstMonth = stringPtr(firstMonth)
	project.DurationMonths = intPtr(durationMonths)
	if project.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Project{}, fmt.Errorf("sqlite: project created_at: %w", err)
	}
	if project.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Project{}, fmt.Errorf("sqlite: project updated_at: %w", err)
	}
	return project, nil
}
