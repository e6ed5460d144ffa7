package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, company,
	is_admin, status, work_start_minutes, work_end_minutes, work_days,
	end_licence_date, stripe_customer_id, stripe_subscription_id, created_at, updated_at`

// CreateUser inserts a new provider account.
func (s *Store) CreateUser(ctx context.Context, user persistence.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Company,
		user.IsAdmin, user.Status, user.WorkStartMinutes, user.WorkEndMinutes, encodeWeekdays(user.WorkDays),
		encodeTimePtr(user.EndLicenceDate), nullString(user.StripeCustomerID), nullString(user.StripeSubscriptionID),
		encodeTime(user.CreatedAt), encodeTime(user.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return persistence.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("sqlite: create user: %w", err)
	}
	return nil
}

// UpdateUser rewrites a provider account. The password hash is persisted as
// given; callers keep the previous hash when it is not being changed.
func (s *Store) UpdateUser(ctx context.Context, user persistence.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = ?, email = ?, password_hash = ?, first_name = ?, last_name = ?,
			company = ?, is_admin = ?, status = ?, work_start_minutes = ?, work_end_minutes = ?,
			work_days = ?, end_licence_date = ?, stripe_customer_id = ?, stripe_subscription_id = ?,
			updated_at = ?
		WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.Company, user.IsAdmin, user.Status, user.WorkStartMinutes, user.WorkEndMinutes,
		encodeWeekdays(user.WorkDays), encodeTimePtr(user.EndLicenceDate),
		nullString(user.StripeCustomerID), nullString(user.StripeSubscriptionID),
		encodeTime(time.Now()), user.ID,
	)
	if isUniqueViolation(err) {
		return persistence.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("sqlite: update user: %w", err)
	}
	return ensureAffected(result)
}

// GetUser loads one account by identifier.
func (s *Store) GetUser(ctx context.Context, id string) (persistence.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail loads one account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// ListUsers returns every account ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser removes an account and, via foreign keys, everything it owns.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete user: %w", err)
	}
	return ensureAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                           persistence.User
		workDays                       string
		endLicence, stripeCus, stripeSub sql.NullString
		createdAt, updatedAt           string
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Company,
		&user.IsAdmin, &user.Status, &user.WorkStartMinutes, &user.WorkEndMinutes, &workDays,
		&endLicence, &stripeCus, &stripeSub, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.User{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: scan user: %w", err)
	}

	user.WorkDays = decodeWeekdays(workDays)
	if user.EndLicenceDate, err = decodeTimePtr(endLicence); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: user end_licence_date: %w", err)
	}
	user.StripeCustomerID = stringPtr(stripeCus)
	user.StripeSubscriptionID = stringPtr(stripeSub)
	if user.CreatedAt, err = decodeTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: user created_at: %w", err)
	}
	if user.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("sqlite: user updated_at: %w", err)
	}
	return user, nil
}

func ensureAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
