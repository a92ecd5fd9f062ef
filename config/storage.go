package config

// StorageConfig contains local state storage configuration.
type StorageConfig struct {
	// StatePath is the path of the sqlite file holding cached credentials,
	// the cached user profile, and the theme preference.
	// Leave empty to use <user config dir>/pharmapilot/state.db.
	StatePath string `env:"STATE_DB_PATH" envDefault:""`
}
