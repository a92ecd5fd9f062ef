package auth

// Package auth contains domain-level types for credentials and sessions.
// It is pure and free of transport/storage concerns.

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinPasswordLength is the client-side floor for passwords. The server
// enforces the same limit independently; the client fails fast before any
// network call.
const MinPasswordLength = 8

// Role represents an application's authorization role.
// Keep string form for easy persistence and JSON bodies.
// Valid values are defined as constants below.
type Role string

const (
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
	RoleViewer     Role = "viewer"
)

// Credentials is the token set issued by the backend on login or refresh.
// AccessToken and RefreshToken are persisted together or not at all.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Complete returns true when both tokens are present.
func (c Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// UserProfile is the authenticated user as returned by the backend.
// Timestamps stay in the server's ISO-8601 string form; the client never
// does arithmetic on them.
type UserProfile struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FullName  string  `json:"full_name"`
	Role      Role    `json:"role"`
	IsActive  bool    `json:"is_active"`
	LastLogin *string `json:"last_login,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

// Theme represents the display theme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle flips light to dark and anything else to light.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// AuditEvent is one entry from the backend's authentication audit trail.
type AuditEvent struct {
	ID        int64  `json:"id"`
	UserID    *int64 `json:"user_id,omitempty"`
	EventType string `json:"event_type"`
	IPAddress string `json:"ip_address,omitempty"`
	Email     string `json:"email,omitempty"`
	Details   string `json:"details,omitempty"`
	Success   bool   `json:"success"`
	CreatedAt string `json:"created_at"`
}

// TokenExpiresWithin reports whether the access token's exp claim falls
// inside the given leeway from now. The claim is read without signature
// verification; the server remains the authority on token validity, this
// only schedules proactive refreshes. Tokens that cannot be parsed or
// carry no expiry report false so callers fall through to the server.
func TokenExpiresWithin(raw string, leeway time.Duration, now time.Time) bool {
	if raw == "" || leeway <= 0 {
		return false
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Time.Before(now.Add(leeway))
}
