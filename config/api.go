package config

import (
	"strings"
	"time"
)

// APIConfig contains backend API client configuration.
type APIConfig struct {
	// BaseURL is the base URL of the PharmaPilot backend API,
	// including the version prefix.
	BaseURL string `env:"API_URL" envDefault:"http://localhost:8000/api/v1"`

	// Timeout is the per-request timeout for API calls.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if a.Timeout <= 0 {
		a.Timeout = 15 * time.Second
	}
}
