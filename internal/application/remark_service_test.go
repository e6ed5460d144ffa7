package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttelab/orgaservice/internal/testfixtures"
)

func newRemarkServiceEnv(t *testing.T) (*RemarkService, *testfixtures.MemoryStore, *testfixtures.Clock) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	service := NewRemarkService(store, store, testfixtures.NewIDGenerator("remark").NextFunc(), clock.NowFunc())
	return service, store, clock
}

func seedRemarkClient(t *testing.T, store *testfixtures.MemoryStore, ownerID string) string {
	t.Helper()
	client := testfixtures.NewClientFixture(ownerID)
	if err := store.CreateClient(context.Background(), client.Client); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	return client.ID
}

func TestRemarkService_AddRemark(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("attaches a note to the caller's client", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newRemarkServiceEnv(t)
		clientID := seedRemarkClient(t, store, "u1")

		remark, err := service.AddRemark(ctx, Principal{UserID: "u1"}, clientID, RemarkInput{Content: "  Clé sous le pot de fleurs.  "})
		if err != nil {
			t.Fatalf("AddRemark: %v", err)
		}
		if remark.Content != "Clé sous le pot de fleurs." {
			t.Fatalf("expected trimmed content, got %q", remark.Content)
		}
		if remark.ClientID != clientID || remark.OwnerID != "u1" {
			t.Fatalf("unexpected remark scoping: %+v", remark)
		}
	})

	t.Run("accepts an image-only remark", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newRemarkServiceEnv(t)
		clientID := seedRemarkClient(t, store, "u1")

		remark, err := service.AddRemark(ctx, Principal{UserID: "u1"}, clientID, RemarkInput{Images: []string{"portail.jpg", "  "}})
		if err != nil {
			t.Fatalf("AddRemark: %v", err)
		}
		if len(remark.Images) != 1 || remark.Images[0] != "portail.jpg" {
			t.Fatalf("expected blank refs dropped, got %+v", remark.Images)
		}
	})

	t.Run("rejects a remark with neither content nor images", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newRemarkServiceEnv(t)
		clientID := seedRemarkClient(t, store, "u1")

		_, err := service.AddRemark(ctx, Principal{UserID: "u1"}, clientID, RemarkInput{Content: "   "})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["content"]; !ok {
			t.Fatalf("expected content error, got %+v", vErr.FieldErrors)
		}
	})

	t.Run("hides another owner's client", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newRemarkServiceEnv(t)
		clientID := seedRemarkClient(t, store, "u2")

		_, err := service.AddRemark(ctx, Principal{UserID: "u1"}, clientID, RemarkInput{Content: "coucou"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRemarkService_ListRemarks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service, store, clock := newRemarkServiceEnv(t)
	principal := Principal{UserID: "u1"}
	clientID := seedRemarkClient(t, store, "u1")

	for _, content := range []string{"Première visite.", "Portail repeint.", "Prévoir taille de la haie."} {
		if _, err := service.AddRemark(ctx, principal, clientID, RemarkInput{Content: content}); err != nil {
			t.Fatalf("AddRemark %q: %v", content, err)
		}
		clock.Advance(time.Minute)
	}

	remarks, err := service.ListRemarks(ctx, principal, clientID)
	if err != nil {
		t.Fatalf("ListRemarks: %v", err)
	}
	if len(remarks) != 3 {
		t.Fatalf("expected 3 remarks, got %d", len(remarks))
	}
	if remarks[0].Content != "Première visite." || remarks[2].Content != "Prévoir taille de la haie." {
		t.Fatalf("expected oldest-first order, got %+v", remarks)
	}

	if _, err := service.ListRemarks(ctx, Principal{UserID: "u2"}, clientID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign client, got %v", err)
	}
}

func TestRemarkService_UpdateRemark(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	principal := Principal{UserID: "u1"}

	t.Run("replaces content and images", func(t *testing.T) {
		t.Parallel()
		service, store, clock := newRemarkServiceEnv(t)
		clientID := seedRemarkClient(t, store, "u1")

		remark, err := service.AddRemark(ctx, principal, clientID, RemarkInput{Content: "Brouillon."})
		if err != nil {
			t.Fatalf("AddRemark: %v", err)
		}
		clock.Advance(time.Hour)

		updated, err := service.UpdateRemark(ctx, principal, remark.ID, RemarkInput{Content: "Version finale.", Images: []string{"jardin.jpg"}})
		if err != nil {
			t.Fatalf("UpdateRemark: %v", err)
		}
		if updated.Content != "Version finale." || len(updated.Images) != 1 {
			t.Fatalf("unexpected updated remark: %+v", updated)
		}
		if !updated.UpdatedAt.After(updated.CreatedAt) {
			t.Fatalf("expected UpdatedAt after CreatedAt, got %v / %v", updated.UpdatedAt, updated.CreatedAt)
		}
	})

	t.Run("hides another owner's remark", func(t *testing.T) {
		t.Parallel()
		service, store, _ := newRemarkServiceEnv(t)
		clientID := seedRemarkClient(t, store, "u2")

		remark, err := service.AddRemark(ctx, Principal{UserID: "u2"}, clientID, RemarkInput{Content: "Privé."})
		if err != nil {
			t.Fatalf("AddRemark: %v", err)
		}
		if _, err := service.UpdateRemark(ctx, principal, remark.ID, RemarkInput{Content: "Piraté."}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRemarkService_DeleteRemark(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	service, store, _ := newRemarkServiceEnv(t)
	principal := Principal{UserID: "u1"}
	clientID := seedRemarkClient(t, store, "u1")

	remark, err := service.AddRemark(ctx, principal, clientID, RemarkInput{Content: "À supprimer."})
	if err != nil {
		t.Fatalf("AddRemark: %v", err)
	}

	if err := service.DeleteRemark(ctx, Principal{UserID: "u2"}, remark.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if err := service.DeleteRemark(ctx, principal, remark.ID); err != nil {
		t.Fatalf("DeleteRemark: %v", err)
	}

	remarks, err := service.ListRemarks(ctx, principal, clientID)
	if err != nil {
		t.Fatalf("ListRemarks: %v", err)
	}
	if len(remarks) != 0 {
		t.Fatalf("expected no remarks left, got %+v", remarks)
	}
}
