package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// RemarkService manages the free-form notes a provider keeps on their
// clients. Every operation is scoped to the calling owner.
type RemarkService struct {
	remarks     persistence.RemarkRepository
	clients     persistence.ClientRepository
	idGenerator func() string
	now         func() time.Time
}

// NewRemarkService wires dependencies for the remark service.
func NewRemarkService(remarks persistence.RemarkRepository, clients persistence.ClientRepository, idGenerator func() string, now func() time.Time) *RemarkService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RemarkService{remarks: remarks, clients: clients, idGenerator: idGenerator, now: now}
}

// AddRemark validates input and attaches a remark to one of the caller's
// clients.
func (s *RemarkService) AddRemark(ctx context.Context, principal Principal, clientID string, input RemarkInput) (persistence.Remark, error) {
	if s == nil {
		return persistence.Remark{}, fmt.Errorf("RemarkService is nil")
	}
	if s.remarks == nil {
		return persistence.Remark{}, fmt.Errorf("remark repository not configured")
	}

	normalized := normalizeRemarkInput(input)
	if vErr := validateRemarkInput(normalized); vErr.HasErrors() {
		return persistence.Remark{}, vErr
	}
	if err := s.checkClientOwned(ctx, principal, clientID); err != nil {
		return persistence.Remark{}, err
	}

	now := s.now()
	remark := persistence.Remark{
		ID:        s.idGenerator(),
		ClientID:  clientID,
		OwnerID:   principal.UserID,
		Content:   normalized.Content,
		Images:    normalized.Images,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.remarks.CreateRemark(ctx, remark); err != nil {
		return persistence.Remark{}, err
	}
	return remark, nil
}

// ListRemarks returns the remarks on one of the caller's clients, oldest
// first.
func (s *RemarkService) ListRemarks(ctx context.Context, principal Principal, clientID string) ([]persistence.Remark, error) {
	if s == nil {
		return nil, fmt.Errorf("RemarkService is nil")
	}
	if s.remarks == nil {
		return nil, nil
	}
	if err := s.checkClientOwned(ctx, principal, clientID); err != nil {
		return nil, err
	}
	return s.remarks.ListRemarksForClient(ctx, clientID, principal.UserID)
}

// UpdateRemark replaces the content and images of a remark owned by the
// caller.
func (s *RemarkService) UpdateRemark(ctx context.Context, principal Principal, remarkID string, input RemarkInput) (persistence.Remark, error) {
	if s == nil {
		return persistence.Remark{}, fmt.Errorf("RemarkService is nil")
	}
	if s.remarks == nil {
		return persistence.Remark{}, fmt.Errorf("remark repository not configured")
	}

	normalized := normalizeRemarkInput(input)
	if vErr := validateRemarkInput(normalized); vErr.HasErrors() {
		return persistence.Remark{}, vErr
	}

	existing, err := s.getOwned(ctx, principal, remarkID)
	if err != nil {
		return persistence.Remark{}, err
	}

	updated := existing
	updated.Content = normalized.Content
	updated.Images = normalized.Images
	updated.UpdatedAt = s.now()

	if err := s.remarks.UpdateRemark(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Remark{}, ErrNotFound
		}
		return persistence.Remark{}, err
	}
	return updated, nil
}

// DeleteRemark removes a remark owned by the caller.
func (s *RemarkService) DeleteRemark(ctx context.Context, principal Principal, remarkID string) error {
	if s == nil {
		return fmt.Errorf("RemarkService is nil")
	}
	if s.remarks == nil {
		return fmt.Errorf("remark repository not configured")
	}

	if _, err := s.getOwned(ctx, principal, remarkID); err != nil {
		return err
	}
	if err := s.remarks.DeleteRemark(ctx, remarkID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *RemarkService) checkClientOwned(ctx context.Context, principal Principal, clientID string) error {
	if s.clients == nil {
		return fmt.Errorf("client repository not configured")
	}
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if client.OwnerID != principal.UserID {
		return ErrNotFound
	}
	return nil
}

// getOwned loads a remark and hides other owners' records behind ErrNotFound.
func (s *RemarkService) getOwned(ctx context.Context, principal Principal, remarkID string) (persistence.Remark, error) {
	remark, err := s.remarks.GetRemark(ctx, remarkID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Remark{}, ErrNotFound
		}
		return persistence.Remark{}, err
	}
	if remark.OwnerID != principal.UserID {
		return persistence.Remark{}, ErrNotFound
	}
	return remark, nil
}

func normalizeRemarkInput(input RemarkInput) RemarkInput {
	input.Content = strings.TrimSpace(input.Content)
	images := make([]string, 0, len(input.Images))
	for _, ref := range input.Images {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			images = append(images, trimmed)
		}
	}
	input.Images = images
	return input
}

func validateRemarkInput(input RemarkInput) *ValidationError {
	vErr := &ValidationError{}
	if input.Content == "" && len(input.Images) == 0 {
		vErr.add("content", "une note ou une image est requise")
	}
	return vErr
}
