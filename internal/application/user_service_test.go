package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttelab/orgaservice/internal/testfixtures"
)

func plainHasher(password string) (string, error) {
	return password, nil
}

func newUserServiceEnv(t *testing.T) (*UserService, *testfixtures.MemoryStore) {
	t.Helper()
	store := testfixtures.NewMemoryStore()
	ids := testfixtures.NewIDGenerator("user")
	clock := testfixtures.NewClock(time.Time{})
	return NewUserService(store, plainHasher, plainVerifier, ids.NextFunc(), clock.NowFunc()), store
}

func TestUserService_CreateUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	admin := Principal{UserID: "admin", IsAdmin: true}

	t.Run("creates an active account with the default work calendar", func(t *testing.T) {
		t.Parallel()
		service, _ := newUserServiceEnv(t)

		user, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input: UserInput{
				Username: "jdupont",
				Email:    "JDupont@Example.FR",
				Password: "motdepasse",
			},
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if user.Email != "jdupont@example.fr" {
			t.Fatalf("expected lowercased email, got %q", user.Email)
		}
		if user.Status != UserStatusActif {
			t.Fatalf("expected default status actif, got %q", user.Status)
		}
		if user.WorkStartMinutes != 7*60 || user.WorkEndMinutes != 20*60 {
			t.Fatalf("expected 07:00-20:00 defaults, got %d-%d", user.WorkStartMinutes, user.WorkEndMinutes)
		}
		if len(user.WorkDays) != 5 || user.WorkDays[0] != time.Monday || user.WorkDays[4] != time.Friday {
			t.Fatalf("expected Monday-Friday defaults, got %v", user.WorkDays)
		}
	})

	t.Run("non admin caller is rejected", func(t *testing.T) {
		t.Parallel()
		service, _ := newUserServiceEnv(t)

		_, err := service.CreateUser(ctx, CreateUserParams{
			Principal: Principal{UserID: "u"},
			Input:     UserInput{Username: "x", Email: "x@example.fr", Password: "motdepasse"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validation failures are reported per field", func(t *testing.T) {
		t.Parallel()
		service, _ := newUserServiceEnv(t)

		_, err := service.CreateUser(ctx, CreateUserParams{
			Principal: admin,
			Input:     UserInput{Email: "pas-un-email", Password: "court", Status: "suspendu"},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"username", "email", "password", "status"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error on %q, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()
		service, _ := newUserServiceEnv(t)

		input := UserInput{Username: "jdupont", Email: "j@example.fr", Password: "motdepasse"}
		if _, err := service.CreateUser(ctx, CreateUserParams{Principal: admin, Input: input}); err != nil {
			t.Fatalf("first CreateUser: %v", err)
		}
		input.Username = "autre"
		if _, err := service.CreateUser(ctx, CreateUserParams{Principal: admin, Input: input}); !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	service, store := newUserServiceEnv(t)
	victim := testfixtures.NewUserFixture()
	if err := store.CreateUser(ctx, victim.User); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	t.Run("self delete is refused", func(t *testing.T) {
		err := service.DeleteUser(ctx, Principal{UserID: victim.ID, IsAdmin: true}, victim.ID)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("admin deletes another account", func(t *testing.T) {
		if err := service.DeleteUser(ctx, Principal{UserID: "admin", IsAdmin: true}, victim.ID); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
		if err := service.DeleteUser(ctx, Principal{UserID: "admin", IsAdmin: true}, victim.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("updates identity and work calendar", func(t *testing.T) {
		t.Parallel()
		service, store := newUserServiceEnv(t)
		user := testfixtures.NewUserFixture()
		if err := store.CreateUser(ctx, user.User); err != nil {
			t.Fatalf("seed user: %v", err)
		}

		updated, err := service.UpdateProfile(ctx, Principal{UserID: user.ID}, ProfileInput{
			FirstName:        "  Marie ",
			LastName:         "Martin",
			Company:          "Jardins Martin",
			WorkStartMinutes: 8 * 60,
			WorkEndMinutes:   18 * 60,
			WorkDays:         []time.Weekday{time.Friday, time.Monday, time.Monday},
		})
		if err != nil {
			t.Fatalf("UpdateProfile: %v", err)
		}
		if updated.FirstName != "Marie" {
			t.Fatalf("expected trimmed first name, got %q", updated.FirstName)
		}
		if len(updated.WorkDays) != 2 || updated.WorkDays[0] != time.Monday || updated.WorkDays[1] != time.Friday {
			t.Fatalf("expected deduplicated sorted work days, got %v", updated.WorkDays)
		}
	})

	t.Run("rejects an inverted work window", func(t *testing.T) {
		t.Parallel()
		service, store := newUserServiceEnv(t)
		user := testfixtures.NewUserFixture()
		if err := store.CreateUser(ctx, user.User); err != nil {
			t.Fatalf("seed user: %v", err)
		}

		_, err := service.UpdateProfile(ctx, Principal{UserID: user.ID}, ProfileInput{
			WorkStartMinutes: 18 * 60,
			WorkEndMinutes:   8 * 60,
			WorkDays:         []time.Weekday{time.Monday},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, ok := vErr.FieldErrors["work_end"]; !ok {
			t.Fatalf("expected error on work_end, got %v", vErr.FieldErrors)
		}
	})
}

func TestUserService_ChangePassword(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	service, store := newUserServiceEnv(t)
	user := testfixtures.NewUserFixture(testfixtures.WithUserPasswordHash("ancienmotdepasse"))
	if err := store.CreateUser(ctx, user.User); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	principal := Principal{UserID: user.ID}

	t.Run("wrong current password", func(t *testing.T) {
		err := service.ChangePassword(ctx, ChangePasswordParams{
			Principal:       principal,
			CurrentPassword: "faux",
			NewPassword:     "nouveaumotdepasse",
		})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("new password too short", func(t *testing.T) {
		err := service.ChangePassword(ctx, ChangePasswordParams{
			Principal:       principal,
			CurrentPassword: "ancienmotdepasse",
			NewPassword:     "court",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("valid change stores the new hash", func(t *testing.T) {
		if err := service.ChangePassword(ctx, ChangePasswordParams{
			Principal:       principal,
			CurrentPassword: "ancienmotdepasse",
			NewPassword:     "nouveaumotdepasse",
		}); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		stored, err := store.GetUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if stored.PasswordHash != "nouveaumotdepasse" {
			t.Fatalf("expected new hash to be stored, got %q", stored.PasswordHash)
		}
	})
}
