package ports

// Package ports defines interfaces (hexagonal ports) for the client core.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/domain/chat"
)

// ErrNotFound is returned by stores when a key has never been written or
// its cached value cannot be decoded. Absence is an expected state, never
// a crash condition.
var ErrNotFound = errors.New("not found")

// CredentialStore persists tokens, the cached user profile, and the theme
// preference in durable storage local to the machine.
type CredentialStore interface {
	// SaveCredentials persists the token set atomically: a concurrent
	// reader observes either the full previous set or the full new one.
	SaveCredentials(ctx context.Context, creds domainauth.Credentials) error

	// SaveUser persists a serialized profile snapshot used only as a
	// restart-time seed.
	SaveUser(ctx context.Context, profile domainauth.UserProfile) error

	// Credentials returns the stored token set or ErrNotFound.
	Credentials(ctx context.Context) (domainauth.Credentials, error)

	// User returns the cached profile, or ErrNotFound when absent or
	// when the cached bytes no longer decode.
	User(ctx context.Context) (domainauth.UserProfile, error)

	// Clear removes tokens and the cached profile. Idempotent; the theme
	// preference survives.
	Clear(ctx context.Context) error

	// IsAuthenticated reports whether an access token is present. This is
	// a syntactic check only; the token may still be rejected server-side.
	IsAuthenticated(ctx context.Context) bool

	// Theme returns the persisted theme preference or ErrNotFound.
	Theme(ctx context.Context) (domainauth.Theme, error)

	// SaveTheme persists the theme preference.
	SaveTheme(ctx context.Context, theme domainauth.Theme) error
}

// AuthAPI performs authentication calls against the backend.
// Login and Refresh write through to the credential store on success.
type AuthAPI interface {
	Register(ctx context.Context, email, fullName, password string) (domainauth.UserProfile, error)
	Login(ctx context.Context, email, password string) (domainauth.Credentials, error)
	Refresh(ctx context.Context, refreshToken string) (domainauth.Credentials, error)
	CurrentUser(ctx context.Context, accessToken string) (domainauth.UserProfile, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
}

// ChatAPI generates assistant responses and reads the audit trail.
type ChatAPI interface {
	Generate(ctx context.Context, accessToken, prompt string, sessionID int64) (chat.Response, error)
	AuditLogs(ctx context.Context, accessToken string, limit int) ([]domainauth.AuditEvent, error)
}
