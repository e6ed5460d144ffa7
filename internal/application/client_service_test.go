package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttelab/orgaservice/internal/testfixtures"
)

func newClientServiceEnv(t *testing.T) (*ClientService, *testfixtures.MemoryStore) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	return NewClientService(store, testfixtures.NewIDGenerator("client").NextFunc(), clock.NowFunc()), store
}

func clientInputFixture() ClientInput {
	return ClientInput{
		Name:   "Mme Moreau",
		Email:  "moreau@example.fr",
		Phone:  "0601020304",
		Type:   ClientTypeParticulier,
		Status: ClientStatusActif,
	}
}

func TestClientService_CreateClient(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("stores addresses in submitted order", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientServiceEnv(t)

		input := clientInputFixture()
		input.Addresses = []AddressInput{
			{Street: "12 rue des Lilas", City: "Lyon", PostalCode: "69003", HasKey: true},
			{Street: "4 impasse du Parc", City: "Villeurbanne", PostalCode: "69100", Access: "code 4812"},
		}

		client, err := service.CreateClient(ctx, Principal{UserID: "u1"}, input)
		if err != nil {
			t.Fatalf("CreateClient: %v", err)
		}
		if len(client.Addresses) != 2 {
			t.Fatalf("expected 2 addresses, got %d", len(client.Addresses))
		}
		if client.Addresses[0].Street != "12 rue des Lilas" || !client.Addresses[0].HasKey {
			t.Fatalf("unexpected first address: %+v", client.Addresses[0])
		}
		if client.Addresses[1].Access != "code 4812" {
			t.Fatalf("unexpected second address: %+v", client.Addresses[1])
		}
	})

	t.Run("trims address fields", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientServiceEnv(t)

		input := clientInputFixture()
		input.Addresses = []AddressInput{{Street: "  8 rue Neuve  ", City: " Paris ", PostalCode: " 75011 "}}

		client, err := service.CreateClient(ctx, Principal{UserID: "u1"}, input)
		if err != nil {
			t.Fatalf("CreateClient: %v", err)
		}
		addr := client.Addresses[0]
		if addr.Street != "8 rue Neuve" || addr.City != "Paris" || addr.PostalCode != "75011" {
			t.Fatalf("expected trimmed address, got %+v", addr)
		}
	})

	t.Run("rejects invalid input with localized errors", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientServiceEnv(t)

		_, err := service.CreateClient(ctx, Principal{UserID: "u1"}, ClientInput{Type: "entreprise"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["name"]; !ok {
			t.Fatalf("expected name error, got %+v", vErr.FieldErrors)
		}
		if _, ok := vErr.FieldErrors["type"]; !ok {
			t.Fatalf("expected type error, got %+v", vErr.FieldErrors)
		}
	})
}

func TestClientService_UpdateClientAddresses(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	principal := Principal{UserID: "u1"}

	seed := func(t *testing.T, service *ClientService) string {
		t.Helper()
		input := clientInputFixture()
		input.Addresses = []AddressInput{{Street: "12 rue des Lilas", City: "Lyon", PostalCode: "69003"}}
		client, err := service.CreateClient(ctx, principal, input)
		if err != nil {
			t.Fatalf("CreateClient: %v", err)
		}
		return client.ID
	}

	t.Run("nil address list keeps the stored addresses", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientServiceEnv(t)
		id := seed(t, service)

		input := clientInputFixture()
		input.Name = "Mme Moreau-Durand"
		updated, err := service.UpdateClient(ctx, principal, id, input)
		if err != nil {
			t.Fatalf("UpdateClient: %v", err)
		}
		if updated.Name != "Mme Moreau-Durand" {
			t.Fatalf("expected renamed client, got %q", updated.Name)
		}
		if len(updated.Addresses) != 1 || updated.Addresses[0].Street != "12 rue des Lilas" {
			t.Fatalf("expected stored addresses untouched, got %+v", updated.Addresses)
		}
	})

	t.Run("empty address list clears the stored addresses", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientServiceEnv(t)
		id := seed(t, service)

		input := clientInputFixture()
		input.Addresses = []AddressInput{}
		updated, err := service.UpdateClient(ctx, principal, id, input)
		if err != nil {
			t.Fatalf("UpdateClient: %v", err)
		}
		if len(updated.Addresses) != 0 {
			t.Fatalf("expected addresses cleared, got %+v", updated.Addresses)
		}
	})

	t.Run("non-empty list replaces the stored addresses", func(t *testing.T) {
		t.Parallel()
		service, _ := newClientServiceEnv(t)
		id := seed(t, service)

		input := clientInputFixture()
		input.Addresses = []AddressInput{{Street: "1 place Bellecour", City: "Lyon", PostalCode: "69002", HasKey: true}}
		updated, err := service.UpdateClient(ctx, principal, id, input)
		if err != nil {
			t.Fatalf("UpdateClient: %v", err)
		}
		if len(updated.Addresses) != 1 || updated.Addresses[0].Street != "1 place Bellecour" {
			t.Fatalf("expected replaced addresses, got %+v", updated.Addresses)
		}
	})
}

func TestClientService_OwnershipIsEnforced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service, _ := newClientServiceEnv(t)

	client, err := service.CreateClient(ctx, Principal{UserID: "u1"}, clientInputFixture())
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}

	if _, err := service.GetClient(ctx, Principal{UserID: "u2"}, client.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign get, got %v", err)
	}
	if _, err := service.UpdateClient(ctx, Principal{UserID: "u2"}, client.ID, clientInputFixture()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign update, got %v", err)
	}
	if err := service.DeleteClient(ctx, Principal{UserID: "u2"}, client.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
}
