package sqlite

// Package sqlite provides the durable local state store backing the client.
// A single-file sqlite database holds the token set, the cached user
// profile, and the theme preference as key/value rows.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/ports"
	_ "modernc.org/sqlite"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyTokenType    = "token_type"
	keyUser         = "user"
	keyTheme        = "theme"
)

const schema = `
CREATE TABLE IF NOT EXISTS state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// CredentialStore is a sqlite-backed implementation of ports.CredentialStore.
type CredentialStore struct {
	db *sql.DB
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

// Open creates the state database at path, creating parent directories and
// the schema as needed.
func Open(ctx context.Context, path string) (*CredentialStore, error) {
	if path == "" {
		return nil, errors.New("state database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	store, err := NewStore(ctx, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(err, fmt.Errorf("close state database: %w", closeErr))
		}
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing database handle, applying the schema.
func NewStore(ctx context.Context, db *sql.DB) (*CredentialStore, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply state schema: %w", err)
	}
	return &CredentialStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *CredentialStore) Close() error {
	return s.db.Close()
}

func (s *CredentialStore) SaveCredentials(ctx context.Context, creds domainauth.Credentials) error {
	if !creds.Complete() {
		return errors.New("credentials must carry both tokens")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save credentials: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	pairs := [][2]string{
		{keyAccessToken, creds.AccessToken},
		{keyRefreshToken, creds.RefreshToken},
		{keyTokenType, creds.TokenType},
	}
	for _, p := range pairs {
		if err = upsert(ctx, tx, p[0], p[1]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}
	return nil
}

func (s *CredentialStore) SaveUser(ctx context.Context, profile domainauth.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal user profile: %w", err)
	}
	return s.set(ctx, keyUser, string(data))
}

func (s *CredentialStore) Credentials(ctx context.Context) (domainauth.Credentials, error) {
	access, err := s.get(ctx, keyAccessToken)
	if err != nil {
		return domainauth.Credentials{}, err
	}
	refresh, err := s.get(ctx, keyRefreshToken)
	if err != nil {
		return domainauth.Credentials{}, err
	}
	tokenType, err := s.get(ctx, keyTokenType)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domainauth.Credentials{}, err
	}

	creds := domainauth.Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    tokenType,
	}
	if !creds.Complete() {
		return domainauth.Credentials{}, ports.ErrNotFound
	}
	return creds, nil
}

func (s *CredentialStore) User(ctx context.Context) (domainauth.UserProfile, error) {
	raw, err := s.get(ctx, keyUser)
	if err != nil {
		return domainauth.UserProfile{}, err
	}

	var profile domainauth.UserProfile
	if unmarshalErr := json.Unmarshal([]byte(raw), &profile); unmarshalErr != nil {
		// Malformed cached data reads as absent; it must never abort startup.
		return domainauth.UserProfile{}, ports.ErrNotFound
	}
	return profile, nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, key := range []string{keyAccessToken, keyRefreshToken, keyTokenType, keyUser} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

func (s *CredentialStore) IsAuthenticated(ctx context.Context) bool {
	token, err := s.get(ctx, keyAccessToken)
	return err == nil && token != ""
}

func (s *CredentialStore) Theme(ctx context.Context) (domainauth.Theme, error) {
	raw, err := s.get(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	theme := domainauth.Theme(raw)
	if theme != domainauth.ThemeLight && theme != domainauth.ThemeDark {
		return "", ports.ErrNotFound
	}
	return theme, nil
}

func (s *CredentialStore) SaveTheme(ctx context.Context, theme domainauth.Theme) error {
	return s.set(ctx, keyTheme, string(theme))
}

func (s *CredentialStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ports.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (s *CredentialStore) set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
