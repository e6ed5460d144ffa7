package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// CreateSupportMessage appends a message to a user's support conversation.
func (s *Store) CreateSupportMessage(ctx context.Context, message persistence.SupportMessage) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO support_messages (id, user_id, from_admin, content, created_at, read_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		message.ID, message.UserID, message.FromAdmin, message.Content,
		encodeTime(message.CreatedAt), encodeTimePtr(message.ReadAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: create support message: %w", err)
	}
	return nil
}

// ListSupportMessages returns a user's conversation oldest first.
func (s *Store) ListSupportMessages(ctx context.Context, userID string) ([]persistence.SupportMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, from_admin, content, created_at, read_at
		FROM support_messages WHERE user_id = ?
		ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list support messages: %w", err)
	}
	defer rows.Close()

	var messages []persistence.SupportMessage
	for rows.Next() {
		var (
			message   persistence.SupportMessage
			createdAt string
			readAt    sql.NullString
		)
		if err := rows.Scan(&message.ID, &message.UserID, &message.FromAdmin, &message.Content, &createdAt, &readAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan support message: %w", err)
		}
		if message.CreatedAt, err = decodeTime(createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: support message created_at: %w", err)
		}
		if message.ReadAt, err = decodeTimePtr(readAt); err != nil {
			return nil, fmt.Errorf("sqlite: support message read_at: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

// MarkSupportMessagesRead marks unread messages from one side of a user's
// conversation as read.
func (s *Store) MarkSupportMessagesRead(ctx context.Context, userID string, fromAdmin bool, readAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE support_messages SET read_at = ?
		WHERE user_id = ? AND from_admin = ? AND read_at IS NULL`,
		encodeTime(readAt), userID, fromAdmin,
	)
	if err != nil {
		return fmt.Errorf("sqlite: mark support messages read: %w", err)
	}
	return nil
}
