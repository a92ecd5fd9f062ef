package config

import (
	"strings"
	"time"
)

// UIConfig contains splash screen and theme configuration.
type UIConfig struct {
	// MinSplash is the minimum time the splash screen stays visible while
	// the session is being restored, independent of how fast the restore
	// completes.
	MinSplash time.Duration `env:"UI_MIN_SPLASH" envDefault:"1200ms"`

	// DefaultTheme is the theme used when no preference has been persisted.
	// Valid values: "light", "dark".
	DefaultTheme string `env:"THEME" envDefault:"light"`
}

// Sanitize applies guardrails to UI configuration values.
func (u *UIConfig) Sanitize() {
	if u.MinSplash < 0 {
		u.MinSplash = 0
	}
	u.DefaultTheme = strings.ToLower(strings.TrimSpace(u.DefaultTheme))
	if u.DefaultTheme != "light" && u.DefaultTheme != "dark" {
		u.DefaultTheme = "light"
	}
}
