package config

import "time"

// AuthConfig contains token refresh configuration.
type AuthConfig struct {
	// RefreshLeeway is how close to its expiry an access token may be
	// before the client refreshes it ahead of an authenticated call.
	// Zero disables proactive refresh.
	RefreshLeeway time.Duration `env:"AUTH_REFRESH_LEEWAY" envDefault:"30s"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.RefreshLeeway < 0 {
		a.RefreshLeeway = 0
	}
}
