package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pharmapilot/pharmapilot-cli/config"
	"github.com/pharmapilot/pharmapilot-cli/internal/adapters/httpapi"
	"github.com/pharmapilot/pharmapilot-cli/internal/adapters/sqlite"
	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/service"
)

// InitLogger initializes the structured logger.
func InitLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}

// OpenStore opens the local state database at the configured path, falling
// back to <user config dir>/pharmapilot/state.db.
func OpenStore(ctx context.Context, cfg *config.AppConfig) (*sqlite.CredentialStore, error) {
	path := cfg.Storage.StatePath
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve user config dir: %w", err)
		}
		path = filepath.Join(base, "pharmapilot", "state.db")
	}
	return sqlite.Open(ctx, path)
}

// ClientDeps groups the wired client-side dependencies.
type ClientDeps struct {
	Store      *sqlite.CredentialStore
	API        *httpapi.Client
	Controller *service.SessionController
	Gate       *service.RouteGate
}

// NewClientDeps wires the store, backend client, session controller, and
// route gate from configuration.
func NewClientDeps(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*ClientDeps, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api, err := httpapi.NewClient(httpapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Store:   store,
		Logger:  logger,
	})
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("close state store: %w", closeErr))
		}
		return nil, err
	}

	controller := service.NewSessionController(service.SessionControllerOptions{
		Store:         store,
		API:           api,
		Logger:        logger,
		RefreshLeeway: cfg.Auth.RefreshLeeway,
		DefaultTheme:  domainauth.Theme(cfg.UI.DefaultTheme),
	})

	return &ClientDeps{
		Store:      store,
		API:        api,
		Controller: controller,
		Gate:       service.NewRouteGate(controller, cfg.UI.MinSplash),
	}, nil
}

// Close releases held resources.
func (d *ClientDeps) Close() error {
	return d.Store.Close()
}
