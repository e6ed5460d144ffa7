package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

const remarkColumns = `id, client_id, owner_id, content, created_at, updated_at`

// CreateRemark inserts a remark and its image references in one transaction.
func (s *Store) CreateRemark(ctx context.Context, remark persistence.Remark) error {
	now := time.Now().UTC()
	if remark.CreatedAt.IsZero() {
		remark.CreatedAt = now
	}
	remark.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO remarks (`+remarkColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			remark.ID, remark.ClientID, remark.OwnerID, remark.Content,
			encodeTime(remark.CreatedAt), encodeTime(remark.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: create remark: %w", err)
		}
		return insertRemarkImages(ctx, tx, remark.ID, remark.Images)
	})
}

// UpdateRemark rewrites a remark and replaces its image references.
func (s *Store) UpdateRemark(ctx context.Context, remark persistence.Remark) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE remarks SET content = ?, updated_at = ? WHERE id = ?`,
			remark.Content, encodeTime(time.Now()), remark.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: update remark: %w", err)
		}
		if err := ensureAffected(result); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM remark_images WHERE remark_id = ?`, remark.ID); err != nil {
			return fmt.Errorf("sqlite: clear remark images: %w", err)
		}
		return insertRemarkImages(ctx, tx, remark.ID, remark.Images)
	})
}

// GetRemark loads one remark with its images.
func (s *Store) GetRemark(ctx context.Context, id string) (persistence.Remark, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+remarkColumns+` FROM remarks WHERE id = ?`, id)
	remark, err := scanRemark(row)
	if err != nil {
		return persistence.Remark{}, err
	}
	if remark.Images, err = s.remarkImagesFor(ctx, remark.ID); err != nil {
		return persistence.Remark{}, err
	}
	return remark, nil
}

// ListRemarksForClient returns the remarks of one client scoped to its owner,
// oldest first.
func (s *Store) ListRemarksForClient(ctx context.Context, clientID, ownerID string) ([]persistence.Remark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+remarkColumns+` FROM remarks
		WHERE client_id = ? AND owner_id = ? ORDER BY created_at, id`, clientID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list remarks: %w", err)
	}
	defer rows.Close()

	var remarks []persistence.Remark
	for rows.Next() {
		remark, err := scanRemark(rows)
		if err != nil {
			return nil, err
		}
		remarks = append(remarks, remark)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range remarks {
		if remarks[i].Images, err = s.remarkImagesFor(ctx, remarks[i].ID); err != nil {
			return nil, err
		}
	}
	return remarks, nil
}

// DeleteRemark removes a remark; its images cascade.
func (s *Store) DeleteRemark(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM remarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete remark: %w", err)
	}
	return ensureAffected(result)
}

func insertRemarkImages(ctx context.Context, tx *sql.Tx, remarkID string, images []string) error {
	for position, ref := range images {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO remark_images (remark_id, position, image_ref) VALUES (?, ?, ?)`,
			remarkID, position, ref,
		); err != nil {
			return fmt.Errorf("sqlite: insert remark image: %w", err)
		}
	}
	return nil
}

func (s *Store) remarkImagesFor(ctx context.Context, remarkID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT image_ref FROM remark_images WHERE remark_id = ? ORDER BY position`, remarkID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list remark images: %w", err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("sqlite: scan remark image: %w", err)
		}
		images = append(images, ref)
	}
	return images, rows.Err()
}

func scanRemark(row rowScanner) (persistence.Remark, error) {
	var (
		remark               persistence.Remark
		createdAt, updatedAt string
	)
	err := row.Scan(&remark.ID, &remark.ClientID, &remark.OwnerID, &remark.Content, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Remark{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Remark{}, fmt.Errorf("sqlite: scan remark: %w", err)
	}
	if remark.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Remark{}, fmt.Errorf("sqlite: remark created_at: %w", err)
	}
	if remark.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Remark{}, fmt.Errorf("sqlite: remark updated_at: %w", err)
	}
	return remark, nil
}
