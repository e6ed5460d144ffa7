package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// SupportService manages the message thread between a user and the support
// team. Regular users only see their own thread; admins address any user's.
type SupportService struct {
	messages    persistence.SupportMessageRepository
	idGenerator func() string
	now         func() time.Time
}

// NewSupportService wires dependencies for the support service.
func NewSupportService(messages persistence.SupportMessageRepository, idGenerator func() string, now func() time.Time) *SupportService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SupportService{messages: messages, idGenerator: idGenerator, now: now}
}

// PostMessage appends a message to a thread. A regular caller always posts to
// their own thread; an admin posting to another user's thread replies as
// support.
func (s *SupportService) PostMessage(ctx context.Context, principal Principal, targetUserID, content string) (persistence.SupportMessage, error) {
	if s == nil {
		return persistence.SupportMessage{}, fmt.Errorf("SupportService is nil")
	}
	if s.messages == nil {
		return persistence.SupportMessage{}, fmt.Errorf("support repository not configured")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		vErr := &ValidationError{}
		vErr.add("content", "le message ne peut pas être vide")
		return persistence.SupportMessage{}, vErr
	}

	userID := principal.UserID
	fromAdmin := false
	if targetUserID != "" && targetUserID != principal.UserID {
		if !principal.IsAdmin {
			return persistence.SupportMessage{}, ErrUnauthorized
		}
		userID = targetUserID
		fromAdmin = true
	}

	message := persistence.SupportMessage{
		ID:        s.idGenerator(),
		UserID:    userID,
		FromAdmin: fromAdmin,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.messages.CreateSupportMessage(ctx, message); err != nil {
		return persistence.SupportMessage{}, err
	}
	return message, nil
}

// ListMessages returns a thread oldest first and marks the other side's
// messages as read.
func (s *SupportService) ListMessages(ctx context.Context, principal Principal, targetUserID string) ([]persistence.SupportMessage, error) {
	if s == nil {
		return nil, fmt.Errorf("SupportService is nil")
	}
	if s.messages == nil {
		return nil, nil
	}

	userID := principal.UserID
	readFromAdmin := true
	if targetUserID != "" && targetUserID != principal.UserID {
		if !principal.IsAdmin {
			return nil, ErrUnauthorized
		}
		userID = targetUserID
		readFromAdmin = false
	}

	if err := s.messages.MarkSupportMessagesRead(ctx, userID, readFromAdmin, s.now()); err != nil {
		return nil, err
	}
	return s.messages.ListSupportMessages(ctx, userID)
}
