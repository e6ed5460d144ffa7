package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ttelab/orgaservice/internal/persistence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "orgaservice.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func seedUser(t *testing.T, store *Store, id string) persistence.User {
	t.Helper()
	user := persistence.User{
		ID:               id,
		Username:         "user-" + id,
		Email:            id + "@example.fr",
		PasswordHash:     "$argon2id$v=19$m=65536,t=3,p=2$salt$hash",
		FirstName:        "Marie",
		LastName:         "Dupont",
		Status:           "actif",
		WorkStartMinutes: 7 * 60,
		WorkEndMinutes:   20 * 60,
		WorkDays:         []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
	return user
}

func seedClient(t *testing.T, store *Store, id, ownerID string) persistence.Client {
	t.Helper()
	client := persistence.Client{
		ID:      id,
		OwnerID: ownerID,
		Name:    "Client " + id,
		Type:    "particulier",
		Status:  "actif",
	}
	if err := store.CreateClient(context.Background(), client); err != nil {
		t.Fatalf("seed client %s: %v", id, err)
	}
	return client
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("round trip preserves work calendar", func(t *testing.T) {
		seedUser(t, store, "u1")
		got, err := store.GetUser(ctx, "u1")
		if err != nil {
			t.Fatalf("get user: %v", err)
		}
		if got.Email != "u1@example.fr" {
			t.Fatalf("email = %q", got.Email)
		}
		if got.WorkStartMinutes != 420 || got.WorkEndMinutes != 1200 {
			t.Fatalf("work window = %d..%d", got.WorkStartMinutes, got.WorkEndMinutes)
		}
		if len(got.WorkDays) != 5 || got.WorkDays[0] != time.Monday || got.WorkDays[4] != time.Friday {
			t.Fatalf("work days = %v", got.WorkDays)
		}
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "u1@example.fr")
		if err != nil {
			t.Fatalf("get by email: %v", err)
		}
		if got.ID != "u1" {
			t.Fatalf("id = %q", got.ID)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := persistence.User{ID: "u2", Username: "other", Email: "u1@example.fr", PasswordHash: "x", Status: "actif"}
		if err := store.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrAlreadyExists) {
			t.Fatalf("err = %v, want ErrAlreadyExists", err)
		}
	})

	t.Run("missing user maps to ErrNotFound", func(t *testing.T) {
		if _, err := store.GetUser(ctx, "absent"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestProjectRepositoryPlanItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")
	client := seedClient(t, store, "c1", owner.ID)

	firstMonth := "2026-02"
	months := 3
	project := persistence.Project{
		ID:              "p1",
		ClientID:        client.ID,
		OwnerID:         owner.ID,
		Title:           "Entretien jardin",
		Type:            "recurrent",
		FirstMonth:      &firstMonth,
		DurationMonths:  &months,
		DurationMinutes: 90,
		Status:          "en_attente",
		PlanItems: []persistence.PlanItem{
			{Month: "2026-02", Occurrences: 3},
			{Month: "2026-03", Occurrences: 1},
		},
	}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	got, err := store.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if len(got.PlanItems) != 2 {
		t.Fatalf("plan items = %d, want 2", len(got.PlanItems))
	}
	if got.PlanItems[0].Month != "2026-02" || got.PlanItems[0].Occurrences != 3 {
		t.Fatalf("first plan item = %+v", got.PlanItems[0])
	}
	if got.FirstMonth == nil || *got.FirstMonth != "2026-02" {
		t.Fatalf("first month = %v", got.FirstMonth)
	}

	t.Run("update replaces the plan", func(t *testing.T) {
		got.PlanItems = []persistence.PlanItem{{Month: "2026-04", Occurrences: 2}}
		if err := store.UpdateProject(ctx, got); err != nil {
			t.Fatalf("update project: %v", err)
		}
		updated, err := store.GetProject(ctx, "p1")
		if err != nil {
			t.Fatalf("reload project: %v", err)
		}
		if len(updated.PlanItems) != 1 || updated.PlanItems[0].Month != "2026-04" {
			t.Fatalf("plan items after update = %+v", updated.PlanItems)
		}
	})
}

func TestChantierListingAndCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")
	client := seedClient(t, store, "c1", owner.ID)
	project := persistence.Project{
		ID: "p1", ClientID: client.ID, OwnerID: owner.ID,
		Title: "Nettoyage", Type: "unique", DurationMinutes: 60, Status: "en_attente",
	}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	scheduled := time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)
	chantiers := []persistence.Chantier{
		{ID: "ch2", ProjectID: "p1", ClientID: "c1", OwnerID: owner.ID, MonthTarget: "2026-02", Status: "proposed", DateTime: &scheduled, DurationMinutes: 60},
		{ID: "ch1", ProjectID: "p1", ClientID: "c1", OwnerID: owner.ID, MonthTarget: "2026-03", Status: "unscheduled", DurationMinutes: 60},
	}
	for _, ch := range chantiers {
		if err := store.CreateChantier(ctx, ch); err != nil {
			t.Fatalf("create chantier %s: %v", ch.ID, err)
		}
	}

	t.Run("dated chantiers sort before undated", func(t *testing.T) {
		got, err := store.ListChantiers(ctx, persistence.ChantierFilter{OwnerID: owner.ID})
		if err != nil {
			t.Fatalf("list chantiers: %v", err)
		}
		if len(got) != 2 || got[0].ID != "ch2" || got[1].ID != "ch1" {
			ids := make([]string, 0, len(got))
			for _, ch := range got {
				ids = append(ids, ch.ID)
			}
			t.Fatalf("order = %v, want [ch2 ch1]", ids)
		}
	})

	t.Run("month filter", func(t *testing.T) {
		got, err := store.ListChantiers(ctx, persistence.ChantierFilter{OwnerID: owner.ID, MonthTarget: "2026-03"})
		if err != nil {
			t.Fatalf("list chantiers: %v", err)
		}
		if len(got) != 1 || got[0].ID != "ch1" {
			t.Fatalf("filtered = %+v", got)
		}
	})

	t.Run("project deletion cascades", func(t *testing.T) {
		if err := store.DeleteProject(ctx, "p1"); err != nil {
			t.Fatalf("delete project: %v", err)
		}
		got, err := store.ListChantiers(ctx, persistence.ChantierFilter{OwnerID: owner.ID})
		if err != nil {
			t.Fatalf("list chantiers: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("chantiers after cascade = %d, want 0", len(got))
		}
	})
}

func TestEventFilterBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")

	at := func(day, hour int) *time.Time {
		ts := time.Date(2026, time.February, day, hour, 0, 0, 0, time.UTC)
		return &ts
	}
	events := []persistence.CalendarEvent{
		{ID: "e1", EventType: "rdv", OwnerID: owner.ID, DateTime: at(5, 10), DurationMinutes: 60, Title: "RDV", Status: "confirme"},
		{ID: "e2", EventType: "chantier", OwnerID: owner.ID, DateTime: at(20, 14), DurationMinutes: 90, Title: "Chantier", Status: "planifie"},
		{ID: "e3", EventType: "rdv", OwnerID: owner.ID, DurationMinutes: 30, Title: "Sans date", Status: "en_attente"},
	}
	for _, ev := range events {
		if err := store.CreateEvent(ctx, ev); err != nil {
			t.Fatalf("create event %s: %v", ev.ID, err)
		}
	}

	t.Run("time window excludes undated entries", func(t *testing.T) {
		from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, time.February, 28, 23, 59, 59, 0, time.UTC)
		got, err := store.ListEvents(ctx, persistence.EventFilter{OwnerID: owner.ID, From: &from, To: &to})
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
			t.Fatalf("window list = %+v", got)
		}
	})

	t.Run("type filter", func(t *testing.T) {
		got, err := store.ListEvents(ctx, persistence.EventFilter{OwnerID: owner.ID, EventType: "chantier"})
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(got) != 1 || got[0].ID != "e2" {
			t.Fatalf("typed list = %+v", got)
		}
	})

	t.Run("no bounds returns everything", func(t *testing.T) {
		got, err := store.ListEvents(ctx, persistence.EventFilter{OwnerID: owner.ID})
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("list = %d events, want 3", len(got))
		}
	})
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")

	now := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)
	session := persistence.Session{
		ID:        "s1",
		UserID:    owner.ID,
		Token:     "token-1",
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	}
	if _, err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := store.GetSession(ctx, "token-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != owner.ID || got.RevokedAt != nil {
		t.Fatalf("session = %+v", got)
	}

	t.Run("revoke stamps the session", func(t *testing.T) {
		revoked, err := store.RevokeSession(ctx, "token-1", now.Add(time.Hour))
		if err != nil {
			t.Fatalf("revoke session: %v", err)
		}
		if revoked.RevokedAt == nil {
			t.Fatal("revoked_at not set")
		}
		if _, err := store.RevokeSession(ctx, "token-1", now.Add(2*time.Hour)); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("second revoke err = %v, want ErrNotFound", err)
		}
	})

	t.Run("expired sessions are purged", func(t *testing.T) {
		expired := persistence.Session{ID: "s2", UserID: owner.ID, Token: "token-2", ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-48 * time.Hour)}
		if _, err := store.CreateSession(ctx, expired); err != nil {
			t.Fatalf("create expired session: %v", err)
		}
		if err := store.DeleteExpiredSessions(ctx, now); err != nil {
			t.Fatalf("delete expired: %v", err)
		}
		if _, err := store.GetSession(ctx, "token-2"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expired session err = %v, want ErrNotFound", err)
		}
		if _, err := store.GetSession(ctx, "token-1"); err != nil {
			t.Fatalf("live session removed: %v", err)
		}
	})
}

func TestSupportConversation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")

	base := time.Date(2026, time.February, 15, 9, 0, 0, 0, time.UTC)
	messages := []persistence.SupportMessage{
		{ID: "m1", UserID: owner.ID, FromAdmin: false, Content: "Bonjour, j'ai un souci de planning", CreatedAt: base},
		{ID: "m2", UserID: owner.ID, FromAdmin: true, Content: "Bonjour, pouvez-vous préciser ?", CreatedAt: base.Add(time.Minute)},
	}
	for _, m := range messages {
		if err := store.CreateSupportMessage(ctx, m); err != nil {
			t.Fatalf("create message %s: %v", m.ID, err)
		}
	}

	got, err := store.ListSupportMessages(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m1" || got[1].ID != "m2" {
		t.Fatalf("conversation = %+v", got)
	}

	if err := store.MarkSupportMessagesRead(ctx, owner.ID, true, base.Add(2*time.Minute)); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	got, err = store.ListSupportMessages(ctx, owner.ID)
	if err != nil {
		t.Fatalf("reload messages: %v", err)
	}
	if got[0].ReadAt != nil {
		t.Fatal("user message should stay unread")
	}
	if got[1].ReadAt == nil {
		t.Fatal("admin message should be read")
	}
}

func TestClientAddressRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")

	client := persistence.Client{
		ID: "c1", OwnerID: owner.ID, Name: "Mme Moreau", Type: "particulier", Status: "actif",
		Addresses: []persistence.ClientAddress{
			{Street: "12 rue des Lilas", City: "Lyon", PostalCode: "69003", HasKey: true},
			{Street: "4 impasse du Parc", City: "Villeurbanne", PostalCode: "69100", Access: "code 4812"},
		},
	}
	if err := store.CreateClient(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}

	got, err := store.GetClient(ctx, "c1")
	if err != nil {
		t.Fatalf("get client: %v", err)
	}
	if len(got.Addresses) != 2 {
		t.Fatalf("addresses = %d, want 2", len(got.Addresses))
	}
	if got.Addresses[0].Street != "12 rue des Lilas" || !got.Addresses[0].HasKey {
		t.Fatalf("first address = %+v", got.Addresses[0])
	}
	if got.Addresses[1].Access != "code 4812" || got.Addresses[1].HasKey {
		t.Fatalf("second address = %+v", got.Addresses[1])
	}

	t.Run("update replaces the address list", func(t *testing.T) {
		got.Addresses = []persistence.ClientAddress{{Street: "1 place Bellecour", City: "Lyon", PostalCode: "69002"}}
		if err := store.UpdateClient(ctx, got); err != nil {
			t.Fatalf("update client: %v", err)
		}
		updated, err := store.GetClient(ctx, "c1")
		if err != nil {
			t.Fatalf("reload client: %v", err)
		}
		if len(updated.Addresses) != 1 || updated.Addresses[0].Street != "1 place Bellecour" {
			t.Fatalf("addresses after update = %+v", updated.Addresses)
		}
	})

	t.Run("list loads addresses too", func(t *testing.T) {
		clients, err := store.ListClients(ctx, owner.ID)
		if err != nil {
			t.Fatalf("list clients: %v", err)
		}
		if len(clients) != 1 || len(clients[0].Addresses) != 1 {
			t.Fatalf("listed clients = %+v", clients)
		}
	})
}

func TestRemarkRepository(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")
	other := seedUser(t, store, "u2")
	client := seedClient(t, store, "c1", owner.ID)

	base := time.Date(2026, time.February, 15, 9, 0, 0, 0, time.UTC)
	remarks := []persistence.Remark{
		{ID: "r1", ClientID: client.ID, OwnerID: owner.ID, Content: "Clé sous le pot de fleurs.", Images: []string{"portail.jpg", "jardin.jpg"}, CreatedAt: base, UpdatedAt: base},
		{ID: "r2", ClientID: client.ID, OwnerID: owner.ID, Content: "Prévoir taille de la haie.", CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)},
		{ID: "r3", ClientID: client.ID, OwnerID: other.ID, Content: "Note d'un autre compte.", CreatedAt: base, UpdatedAt: base},
	}
	for _, r := range remarks {
		if err := store.CreateRemark(ctx, r); err != nil {
			t.Fatalf("create remark %s: %v", r.ID, err)
		}
	}

	t.Run("round trip preserves image order", func(t *testing.T) {
		got, err := store.GetRemark(ctx, "r1")
		if err != nil {
			t.Fatalf("get remark: %v", err)
		}
		if len(got.Images) != 2 || got.Images[0] != "portail.jpg" || got.Images[1] != "jardin.jpg" {
			t.Fatalf("images = %v", got.Images)
		}
	})

	t.Run("list is scoped to the owner, oldest first", func(t *testing.T) {
		got, err := store.ListRemarksForClient(ctx, client.ID, owner.ID)
		if err != nil {
			t.Fatalf("list remarks: %v", err)
		}
		if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r2" {
			t.Fatalf("remarks = %+v", got)
		}
	})

	t.Run("update replaces the images", func(t *testing.T) {
		updated := remarks[0]
		updated.Content = "Clé rendue."
		updated.Images = nil
		updated.UpdatedAt = base.Add(time.Hour)
		if err := store.UpdateRemark(ctx, updated); err != nil {
			t.Fatalf("update remark: %v", err)
		}
		got, err := store.GetRemark(ctx, "r1")
		if err != nil {
			t.Fatalf("reload remark: %v", err)
		}
		if got.Content != "Clé rendue." || len(got.Images) != 0 {
			t.Fatalf("remark after update = %+v", got)
		}
	})

	t.Run("missing remark maps to ErrNotFound", func(t *testing.T) {
		if _, err := store.GetRemark(ctx, "absent"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("client deletion cascades", func(t *testing.T) {
		if err := store.DeleteClient(ctx, client.ID); err != nil {
			t.Fatalf("delete client: %v", err)
		}
		if _, err := store.GetRemark(ctx, "r1"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("remark survived cascade: %v", err)
		}
	})
}

func TestDashboardCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner := seedUser(t, store, "u1")
	other := seedUser(t, store, "u2")
	client := seedClient(t, store, "c1", owner.ID)
	seedClient(t, store, "c2", other.ID)

	project := persistence.Project{ID: "p1", ClientID: client.ID, OwnerID: owner.ID, Title: "Taille de haie", Type: "unique", DurationMinutes: 120, Status: "en_cours"}
	if err := store.CreateProject(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	for i, status := range []string{"unscheduled", "proposed", "proposed"} {
		ch := persistence.Chantier{
			ID: "ch" + string(rune('1'+i)), ProjectID: "p1", ClientID: "c1", OwnerID: owner.ID,
			Status: status, DurationMinutes: 120,
		}
		if err := store.CreateChantier(ctx, ch); err != nil {
			t.Fatalf("create chantier: %v", err)
		}
	}

	counts, err := store.CountForOwner(ctx, owner.ID)
	if err != nil {
		t.Fatalf("count for owner: %v", err)
	}
	if counts.Clients != 1 || counts.Projects != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if counts.ChantiersByStatus["proposed"] != 2 || counts.ChantiersByStatus["unscheduled"] != 1 {
		t.Fatalf("chantier counts = %+v", counts.ChantiersByStatus)
	}
}
