package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/ports"
)

func newTestStore(t *testing.T) *CredentialStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Errorf("close store: %v", closeErr)
		}
	})
	return store
}

func testCredentials() domainauth.Credentials {
	return domainauth.Credentials{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
	}
}

func TestSaveAndLoadCredentials(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Credentials(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}
	if store.IsAuthenticated(ctx) {
		t.Fatal("empty store should not report authenticated")
	}

	if err := store.SaveCredentials(ctx, testCredentials()); err != nil {
		t.Fatalf("save credentials: %v", err)
	}

	creds, err := store.Credentials(ctx)
	if err != nil {
		t.Fatalf("load credentials: %v", err)
	}
	if creds != testCredentials() {
		t.Errorf("loaded %+v, want %+v", creds, testCredentials())
	}
	if !store.IsAuthenticated(ctx) {
		t.Error("store with access token should report authenticated")
	}
}

func TestSaveCredentialsRejectsPartialSet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.SaveCredentials(ctx, domainauth.Credentials{AccessToken: "only-access"}); err == nil {
		t.Fatal("expected error saving credentials without refresh token")
	}
	if _, err := store.Credentials(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("rejected save must leave no partial state, got %v", err)
	}
}

func TestSaveCredentialsOverwritesAtomically(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.SaveCredentials(ctx, testCredentials()); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
	next := domainauth.Credentials{AccessToken: "access-2", RefreshToken: "refresh-2", TokenType: "bearer"}
	if err := store.SaveCredentials(ctx, next); err != nil {
		t.Fatalf("overwrite credentials: %v", err)
	}

	creds, err := store.Credentials(ctx)
	if err != nil {
		t.Fatalf("load credentials: %v", err)
	}
	// Both tokens must come from the same write.
	if creds.AccessToken != "access-2" || creds.RefreshToken != "refresh-2" {
		t.Errorf("mixed credential generations: %+v", creds)
	}
}

func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.User(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent user, got %v", err)
	}

	profile := domainauth.UserProfile{
		ID:       1,
		Email:    "a@b.com",
		FullName: "A",
		Role:     domainauth.RoleResearcher,
		IsActive: true,
	}
	if err := store.SaveUser(ctx, profile); err != nil {
		t.Fatalf("save user: %v", err)
	}

	got, err := store.User(ctx)
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if got != profile {
		t.Errorf("loaded %+v, want %+v", got, profile)
	}
}

func TestMalformedCachedUserReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.set(ctx, keyUser, "{not json"); err != nil {
		t.Fatalf("seed malformed user: %v", err)
	}
	if _, err := store.User(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("malformed cached user must read as absent, got %v", err)
	}
}

func TestClearIsIdempotentAndKeepsTheme(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.SaveCredentials(ctx, testCredentials()); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
	if err := store.SaveUser(ctx, domainauth.UserProfile{ID: 1, Email: "a@b.com"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	if err := store.SaveTheme(ctx, domainauth.ThemeDark); err != nil {
		t.Fatalf("save theme: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := store.Clear(ctx); err != nil {
			t.Fatalf("clear: %v", err)
		}
	}

	if store.IsAuthenticated(ctx) {
		t.Error("cleared store should not report authenticated")
	}
	if _, err := store.Credentials(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected credentials absent after clear, got %v", err)
	}
	if _, err := store.User(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected user absent after clear, got %v", err)
	}

	theme, err := store.Theme(ctx)
	if err != nil {
		t.Fatalf("theme after clear: %v", err)
	}
	if theme != domainauth.ThemeDark {
		t.Errorf("theme should survive clear, got %v", theme)
	}
}

func TestThemeAbsentAndInvalid(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Theme(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unset theme, got %v", err)
	}

	if err := store.set(ctx, keyTheme, "neon"); err != nil {
		t.Fatalf("seed invalid theme: %v", err)
	}
	if _, err := store.Theme(ctx); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("invalid persisted theme must read as absent, got %v", err)
	}
}
