package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

var chantierStatuses = map[string]bool{
	ChantierStatusUnscheduled: true,
	ChantierStatusProposed:    true,
	ChantierStatusConfirmed:   true,
	ChantierStatusInProgress:  true,
	ChantierStatusCompleted:   true,
	ChantierStatusCancelled:   true,
}

// ChantierService exposes the lifecycle of generated work orders: listing,
// status transitions and manual re-dating.
type ChantierService struct {
	chantiers persistence.ChantierRepository
	now       func() time.Time
}

// NewChantierService wires dependencies for the chantier service.
func NewChantierService(chantiers persistence.ChantierRepository, now func() time.Time) *ChantierService {
	if now == nil {
		now = time.Now
	}
	return &ChantierService{chantiers: chantiers, now: now}
}

// ListChantiers returns the caller's work orders, optionally narrowed by
// project, client, month or status.
func (s *ChantierService) ListChantiers(ctx context.Context, principal Principal, filter persistence.ChantierFilter) ([]persistence.Chantier, error) {
	if s == nil {
		return nil, fmt.Errorf("ChantierService is nil")
	}
	if s.chantiers == nil {
		return nil, nil
	}
	filter.OwnerID = principal.UserID
	return s.chantiers.ListChantiers(ctx, filter)
}

// GetChantier returns one work order owned by the caller.
func (s *ChantierService) GetChantier(ctx context.Context, principal Principal, chantierID string) (persistence.Chantier, error) {
	if s == nil {
		return persistence.Chantier{}, fmt.Errorf("ChantierService is nil")
	}
	if s.chantiers == nil {
		return persistence.Chantier{}, fmt.Errorf("chantier repository not configured")
	}
	return s.getOwned(ctx, principal, chantierID)
}

// UpdateChantier applies a status transition or a manual re-date. A chantier
// is unscheduled exactly when it carries no date: clearing the date forces
// the unscheduled status, and dating an unscheduled chantier promotes it to
// proposed.
func (s *ChantierService) UpdateChantier(ctx context.Context, principal Principal, chantierID string, input ChantierUpdateInput) (persistence.Chantier, error) {
	if s == nil {
		return persistence.Chantier{}, fmt.Errorf("ChantierService is nil")
	}
	if s.chantiers == nil {
		return persistence.Chantier{}, fmt.Errorf("chantier repository not configured")
	}

	existing, err := s.getOwned(ctx, principal, chantierID)
	if err != nil {
		return persistence.Chantier{}, err
	}

	if input.Status == "" {
		input.Status = existing.Status
	}
	if !chantierStatuses[input.Status] {
		vErr := &ValidationError{}
		vErr.add("status", "statut de chantier invalide")
		return persistence.Chantier{}, vErr
	}
	if input.DurationMinutes <= 0 {
		input.DurationMinutes = existing.DurationMinutes
	}

	updated := existing
	updated.Status = input.Status
	updated.DateTime = input.DateTime
	updated.DurationMinutes = input.DurationMinutes
	if updated.DateTime == nil {
		updated.Status = ChantierStatusUnscheduled
	} else if updated.Status == ChantierStatusUnscheduled {
		updated.Status = ChantierStatusProposed
	}
	updated.UpdatedAt = s.now()

	if err := s.chantiers.UpdateChantier(ctx, updated); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Chantier{}, ErrNotFound
		}
		return persistence.Chantier{}, err
	}
	return updated, nil
}

// DeleteChantier removes one work order owned by the caller.
func (s *ChantierService) DeleteChantier(ctx context.Context, principal Principal, chantierID string) error {
	if s == nil {
		return fmt.Errorf("ChantierService is nil")
	}
	if s.chantiers == nil {
		return fmt.Errorf("chantier repository not configured")
	}

	if _, err := s.getOwned(ctx, principal, chantierID); err != nil {
		return err
	}
	if err := s.chantiers.DeleteChantier(ctx, chantierID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *ChantierService) getOwned(ctx context.Context, principal Principal, chantierID string) (persistence.Chantier, error) {
	chantier, err := s.chantiers.GetChantier(ctx, chantierID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Chantier{}, ErrNotFound
		}
		return persistence.Chantier{}, err
	}
	if chantier.OwnerID != principal.UserID {
		return persistence.Chantier{}, ErrNotFound
	}
	return chantier, nil
}
