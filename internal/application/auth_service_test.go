package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ttelab/orgaservice/internal/testfixtures"
)

// plainVerifier compares the stored "hash" with the candidate directly, which
// keeps these tests free of argon2 work.
func plainVerifier(hashedPassword, password string) error {
	if hashedPassword != password {
		return errors.New("mismatch")
	}
	return nil
}

func newAuthServiceEnv(t *testing.T, opts ...testfixtures.UserOption) (*AuthService, *testfixtures.MemoryStore, *testfixtures.Clock, testfixtures.UserFixture) {
	t.Helper()

	store := testfixtures.NewMemoryStore()
	clock := testfixtures.NewClock(time.Time{})
	tokens := testfixtures.NewIDGenerator("tok")

	opts = append([]testfixtures.UserOption{testfixtures.WithUserPasswordHash("secret")}, opts...)
	user := testfixtures.NewUserFixture(opts...)
	if err := store.CreateUser(context.Background(), user.User); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	service := NewAuthService(store, store, plainVerifier, tokens.NextFunc(), clock.NowFunc(), time.Hour, nil)
	return service, store, clock, user
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid credentials issue a session", func(t *testing.T) {
		t.Parallel()
		service, store, clock, user := newAuthServiceEnv(t)

		result, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if result.User.ID != user.ID {
			t.Fatalf("expected user %q, got %q", user.ID, result.User.ID)
		}
		if result.Session.Token == "" {
			t.Fatal("expected a session token")
		}
		wantExpiry := clock.Now().Add(time.Hour)
		if !result.Session.ExpiresAt.Equal(wantExpiry) {
			t.Fatalf("expected expiry %v, got %v", wantExpiry, result.Session.ExpiresAt)
		}

		stored, err := store.GetSession(ctx, result.Session.Token)
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if stored.UserID != user.ID {
			t.Fatalf("session stored for wrong user: %q", stored.UserID)
		}
	})

	t.Run("email is trimmed and lowercased", func(t *testing.T) {
		t.Parallel()
		service, _, _, user := newAuthServiceEnv(t)

		if _, err := service.Authenticate(ctx, AuthenticateParams{Email: "  " + user.Email + "  ", Password: "secret"}); err != nil {
			t.Fatalf("Authenticate with padded email: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()
		service, _, _, user := newAuthServiceEnv(t)

		_, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "faux"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()
		service, _, _, _ := newAuthServiceEnv(t)

		_, err := service.Authenticate(ctx, AuthenticateParams{Email: "inconnu@example.fr", Password: "secret"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("inactive account", func(t *testing.T) {
		t.Parallel()
		service, _, _, user := newAuthServiceEnv(t, testfixtures.WithUserStatus(UserStatusInactif))

		_, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})

	t.Run("expired licence", func(t *testing.T) {
		t.Parallel()
		expired := testfixtures.ReferenceTime().Add(-24 * time.Hour)
		service, _, _, user := newAuthServiceEnv(t, testfixtures.WithUserLicenceEnd(expired))

		_, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid token yields the principal", func(t *testing.T) {
		t.Parallel()
		service, _, _, user := newAuthServiceEnv(t, testfixtures.WithUserAdmin(true))

		result, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}

		principal, err := service.ValidateSession(ctx, result.Session.Token)
		if err != nil {
			t.Fatalf("ValidateSession: %v", err)
		}
		if principal.UserID != user.ID || !principal.IsAdmin {
			t.Fatalf("unexpected principal %+v", principal)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		t.Parallel()
		service, _, _, _ := newAuthServiceEnv(t)

		if _, err := service.ValidateSession(ctx, "jeton-inconnu"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		service, _, clock, user := newAuthServiceEnv(t)

		result, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}

		clock.Advance(2 * time.Hour)
		if _, err := service.ValidateSession(ctx, result.Session.Token); !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		t.Parallel()
		service, _, _, user := newAuthServiceEnv(t)

		result, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if err := service.RevokeSession(ctx, result.Session.Token); err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if _, err := service.ValidateSession(ctx, result.Session.Token); !errors.Is(err, ErrSessionRevoked) {
			t.Fatalf("expected ErrSessionRevoked, got %v", err)
		}
	})

	t.Run("account disabled after login", func(t *testing.T) {
		t.Parallel()
		service, store, _, user := newAuthServiceEnv(t)

		result, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}

		disabled := user.User
		disabled.Status = UserStatusInactif
		if err := store.UpdateUser(ctx, disabled); err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
		if _, err := service.ValidateSession(ctx, result.Session.Token); !errors.Is(err, ErrAccountDisabled) {
			t.Fatalf("expected ErrAccountDisabled, got %v", err)
		}
	})
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("second revoke fails", func(t *testing.T) {
		t.Parallel()
		service, _, _, user := newAuthServiceEnv(t)

		result, err := service.Authenticate(ctx, AuthenticateParams{Email: user.Email, Password: "secret"})
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		if err := service.RevokeSession(ctx, result.Session.Token); err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if err := service.RevokeSession(ctx, result.Session.Token); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials on second revoke, got %v", err)
		}
	})

	t.Run("blank token", func(t *testing.T) {
		t.Parallel()
		service, _, _, _ := newAuthServiceEnv(t)

		if err := service.RevokeSession(ctx, "   "); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
