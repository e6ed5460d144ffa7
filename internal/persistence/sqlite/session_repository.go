package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// CreateSession persists a new session and returns it.
func (s *Store) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.UserID, session.Token, encodeTime(session.ExpiresAt),
		encodeTime(session.CreatedAt), encodeTime(session.UpdatedAt), encodeTimePtr(session.RevokedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return persistence.Session{}, persistence.ErrAlreadyExists
		}
		return persistence.Session{}, fmt.Errorf("sqlite: create session: %w", err)
	}
	return session, nil
}

// GetSession resolves a session by its token.
func (s *Store) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
		FROM sessions WHERE token = ?`, token)
	return scanSession(row)
}

// RevokeSession marks a session revoked and returns the updated row.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ? AND revoked_at IS NULL`,
		encodeTime(revokedAt), encodeTime(revokedAt), token,
	)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: revoke session: %w", err)
	}
	if err := ensureAffected(result); err != nil {
		return persistence.Session{}, err
	}
	return s.GetSession(ctx, token)
}

// DeleteExpiredSessions removes every session that expired before the
// reference time, revoked or not.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, encodeTime(reference)); err != nil {
		return fmt.Errorf("sqlite: delete expired sessions: %w", err)
	}
	return nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session                         persistence.Session
		expiresAt, createdAt, updatedAt string
		revokedAt                       sql.NullString
	)
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &createdAt, &updatedAt, &revokedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: scan session: %w", err)
	}
	if session.ExpiresAt, err = decodeTime(expiresAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: session expires_at: %w", err)
	}
	if session.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: session created_at: %w", err)
	}
	if session.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: session updated_at: %w", err)
	}
	if session.RevokedAt, err = decodeTimePtr(revokedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("sqlite: session revoked_at: %w", err)
	}
	return session, nil
}
