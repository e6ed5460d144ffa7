package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

// ClientService orchestrates validation and persistence for a provider's clients.
type ClientService struct {
	clients     persistence.ClientRepository
	idGenerator func() string
	now         func() time.Time
}

// NewClientService wires dependencies for the client service.
func NewClientService(clients persistence.ClientRepository, idGenerator func() string, now func() time.Time) *ClientService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ClientService{clients: clients, idGenerator: idGenerator, now: now}
}

// CreateClient validates input and persists a new client for the caller.
func (s *ClientService) CreateClient(ctx context.Context, principal Principal, input ClientInput) (persistence.Client, error) {
	if s == nil {
		return persistence.Client{}, fmt.Errorf("ClientService is nil")
	}
	if s.clients == nil {
		return persistence.Client{}, fmt.Errorf("client repository not configured")
	}

	normalized := normalizeClientInput(input)
	if vErr := validateClientInput(normalized); vErr.HasErrors() {
		return persistence.Client{}, vErr
	}

	now := s.now()
	client := persistence.Client{
		ID:        s.idGenerator(),
		OwnerID:   principal.UserID,
		Name:      normalized.Name,
		Email:     normalized.Email,
		Phone:     normalized.Phone,
		Type:      normalized.Type,
		Status:    normalized.Status,
		Addresses: addressRecords(normalized.Addresses),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.clients.CreateClient(ctx, client); err != nil {
		return persistence.Client{}, err
	}
	return client, nil
}

// UpdateClient validates input and updates a client owned by the caller.
func (s *ClientService) UpdateClient(ctx context.Context, principal Principal, clientID string, input ClientInput) (persistence.Client, error) {
	if s == nil {
		return persistence.Client{}, fmt.Errorf("ClientService is nil")
	}
	if s.clients == nil {
		return persistence.Client{}, fmt.Errorf("client repository not configured")
	}

	existing, err := s.getOwned(ctx, principal, clientID)
	if err != nil {
		return persistence.Client{}, err
	}

	normalized := normalizeClientInput(input)
	if vErr := validateClientInput(normalized); vErr.HasErrors() {
		return persistence.Client{}, vErr
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Email = normalized.Email
	updated.Phone = normalized.Phone
	updated.Type = normalized.Type
	updated.Status = normalized.Status
	if normalized.Addresses != nil {
		updated.Addresses = addressRecords(normalized.Addresses)
	}
	updated.UpdatedAt = s.now()

	if err := s.clients.UpdateClient(ctx, updated); err != nil {
		return persistence.Client{}, err
	}
	return updated, nil
}

// GetClient returns one client owned by the caller.
func (s *ClientService) GetClient(ctx context.Context, principal Principal, clientID string) (persistence.Client, error) {
	if s == nil {
		return persistence.Client{}, fmt.Errorf("ClientService is nil")
	}
	if s.clients == nil {
		return persistence.Client{}, fmt.Errorf("client repository not configured")
	}
	return s.getOwned(ctx, principal, clientID)
}

// ListClients returns the caller's clients.
func (s *ClientService) ListClients(ctx context.Context, principal Principal) ([]persistence.Client, error) {
	if s == nil {
		return nil, fmt.Errorf("ClientService is nil")
	}
	if s.clients == nil {
		return nil, nil
	}
	return s.clients.ListClients(ctx, principal.UserID)
}

// DeleteClient removes a client owned by the caller.
func (s *ClientService) DeleteClient(ctx context.Context, principal Principal, clientID string) error {
	if s == nil {
		return fmt.Errorf("ClientService is nil")
	}
	if s.clients == nil {
		return fmt.Errorf("client repository not configured")
	}

	if _, err := s.getOwned(ctx, principal, clientID); err != nil {
		return err
	}
	if err := s.clients.DeleteClient(ctx, clientID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// getOwned loads a client and hides other owners' records behind ErrNotFound.
func (s *ClientService) getOwned(ctx context.Context, principal Principal, clientID string) (persistence.Client, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.Client{}, ErrNotFound
		}
		return persistence.Client{}, err
	}
	if client.OwnerID != principal.UserID {
		return persistence.Client{}, ErrNotFound
	}
	return client, nil
}

func normalizeClientInput(input ClientInput) ClientInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Type = strings.TrimSpace(input.Type)
	input.Status = strings.TrimSpace(input.Status)
	if input.Status == "" {
		input.Status = ClientStatusActif
	}
	for i := range input.Addresses {
		input.Addresses[i].Street = strings.TrimSpace(input.Addresses[i].Street)
		input.Addresses[i].City = strings.TrimSpace(input.Addresses[i].City)
		input.Addresses[i].PostalCode = strings.TrimSpace(input.Addresses[i].PostalCode)
		input.Addresses[i].Access = strings.TrimSpace(input.Addresses[i].Access)
	}
	return input
}

// addressRecords maps an address list to persistence records, keeping order.
// An empty non-nil list maps to an empty non-nil slice so callers can tell
// "clear" apart from "keep".
func addressRecords(inputs []AddressInput) []persistence.ClientAddress {
	if inputs == nil {
		return nil
	}
	addresses := make([]persistence.ClientAddress, 0, len(inputs))
	for _, input := range inputs {
		addresses = append(addresses, persistence.ClientAddress{
			Street:     input.Street,
			City:       input.City,
			PostalCode: input.PostalCode,
			Access:     input.Access,
			HasKey:     input.HasKey,
		})
	}
	return addresses
}

func validateClientInput(input ClientInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "le nom est requis")
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "l'email est invalide")
		}
	}
	if input.Type != ClientTypeParticulier && input.Type != ClientTypeProfessionnel {
		vErr.add("type", "le type doit être particulier ou professionnel")
	}
	if input.Status != ClientStatusActif && input.Status != ClientStatusInactif {
		vErr.add("status", "le statut doit être actif ou inactif")
	}

	return vErr
}
