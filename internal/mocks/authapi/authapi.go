package authapi

// Package authapi contains simple hand-written test doubles for the client
// ports. These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/domain/chat"
	"github.com/pharmapilot/pharmapilot-cli/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialStore = (*MemoryCredentialStore)(nil)
	_ ports.AuthAPI         = (*MockAuthAPI)(nil)
	_ ports.ChatAPI         = (*MockChatAPI)(nil)
)

// MemoryCredentialStore is an in-memory credential store for unit tests.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	creds *domainauth.Credentials
	user  *domainauth.UserProfile
	theme *domainauth.Theme

	// Fail, when set, is returned by every mutating call.
	Fail error
}

// NewMemoryCredentialStore creates an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (m *MemoryCredentialStore) SaveCredentials(_ context.Context, creds domainauth.Credentials) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = &creds
	return nil
}

func (m *MemoryCredentialStore) SaveUser(_ context.Context, profile domainauth.UserProfile) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &profile
	return nil
}

func (m *MemoryCredentialStore) Credentials(_ context.Context) (domainauth.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return domainauth.Credentials{}, ports.ErrNotFound
	}
	return *m.creds, nil
}

func (m *MemoryCredentialStore) User(_ context.Context) (domainauth.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return domainauth.UserProfile{}, ports.ErrNotFound
	}
	return *m.user, nil
}

func (m *MemoryCredentialStore) Clear(_ context.Context) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	m.user = nil
	return nil
}

func (m *MemoryCredentialStore) IsAuthenticated(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds != nil && m.creds.AccessToken != ""
}

func (m *MemoryCredentialStore) Theme(_ context.Context) (domainauth.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.theme == nil {
		return "", ports.ErrNotFound
	}
	return *m.theme, nil
}

func (m *MemoryCredentialStore) SaveTheme(_ context.Context, theme domainauth.Theme) error {
	if m.Fail != nil {
		return m.Fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.theme = &theme
	return nil
}

// MockAuthAPI simulates the backend auth surface with per-call overrides
// and call counting, so tests can assert "zero network calls" paths.
type MockAuthAPI struct {
	RegisterFunc    func(ctx context.Context, email, fullName, password string) (domainauth.UserProfile, error)
	LoginFunc       func(ctx context.Context, email, password string) (domainauth.Credentials, error)
	RefreshFunc     func(ctx context.Context, refreshToken string) (domainauth.Credentials, error)
	CurrentUserFunc func(ctx context.Context, accessToken string) (domainauth.UserProfile, error)
	ResetReqFunc    func(ctx context.Context, email string) (string, error)
	ResetFunc       func(ctx context.Context, token, newPassword string) (string, error)

	// DefaultUser is returned when no override is set.
	DefaultUser domainauth.UserProfile

	mu    sync.Mutex
	calls map[string]int
}

// NewMockAuthAPI creates a MockAuthAPI with a sensible default profile.
func NewMockAuthAPI() *MockAuthAPI {
	return &MockAuthAPI{
		DefaultUser: domainauth.UserProfile{
			ID:       1,
			Email:    "mock.user@example.com",
			FullName: "Mock User",
			Role:     domainauth.RoleResearcher,
			IsActive: true,
		},
		calls: make(map[string]int),
	}
}

// Calls returns how many times the named operation was invoked.
func (m *MockAuthAPI) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockAuthAPI) count(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
}

func (m *MockAuthAPI) Register(ctx context.Context, email, fullName, password string) (domainauth.UserProfile, error) {
	m.count("register")
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, fullName, password)
	}
	user := m.DefaultUser
	user.Email = email
	user.FullName = fullName
	return user, nil
}

func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (domainauth.Credentials, error) {
	m.count("login")
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return domainauth.Credentials{
		AccessToken:  "mock-access",
		RefreshToken: "mock-refresh",
		TokenType:    "bearer",
	}, nil
}

func (m *MockAuthAPI) Refresh(ctx context.Context, refreshToken string) (domainauth.Credentials, error) {
	m.count("refresh")
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return domainauth.Credentials{
		AccessToken:  "mock-access-2",
		RefreshToken: "mock-refresh-2",
		TokenType:    "bearer",
	}, nil
}

func (m *MockAuthAPI) CurrentUser(ctx context.Context, accessToken string) (domainauth.UserProfile, error) {
	m.count("current_user")
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, accessToken)
	}
	return m.DefaultUser, nil
}

func (m *MockAuthAPI) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	m.count("request_password_reset")
	if m.ResetReqFunc != nil {
		return m.ResetReqFunc(ctx, email)
	}
	return "If this email is registered, password reset instructions have been sent.", nil
}

func (m *MockAuthAPI) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	m.count("reset_password")
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, token, newPassword)
	}
	return "Password has been reset successfully.", nil
}

// MockChatAPI simulates the assistant surface.
type MockChatAPI struct {
	GenerateFunc  func(ctx context.Context, accessToken, prompt string, sessionID int64) (chat.Response, error)
	AuditLogsFunc func(ctx context.Context, accessToken string, limit int) ([]domainauth.AuditEvent, error)
}

func (m *MockChatAPI) Generate(ctx context.Context, accessToken, prompt string, sessionID int64) (chat.Response, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, accessToken, prompt, sessionID)
	}
	return chat.Response{Content: "mock response to: " + prompt}, nil
}

func (m *MockChatAPI) AuditLogs(ctx context.Context, accessToken string, limit int) ([]domainauth.AuditEvent, error) {
	if m.AuditLogsFunc != nil {
		return m.AuditLogsFunc(ctx, accessToken, limit)
	}
	return nil, nil
}
