package httpapi

// Package httpapi is the REST client for the PharmaPilot backend. Each
// operation issues one request and normalizes the outcome into the domain
// error taxonomy; server error details come from the {"detail": ...} body
// when present.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/ports"
	"golang.org/x/sync/singleflight"
)

// Config captures the subset of backend client behaviour we need.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Store   ports.CredentialStore
	Logger  *slog.Logger
}

// Client talks to the PharmaPilot backend. Login and Refresh write their
// token sets through to the credential store; everything else is stateless.
type Client struct {
	baseURL string
	client  *http.Client
	store   ports.CredentialStore
	logger  *slog.Logger
	refresh singleflight.Group
}

var (
	_ ports.AuthAPI = (*Client)(nil)
	_ ports.ChatAPI = (*Client)(nil)
)

// NewClient builds a backend client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("credential store is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: baseURL,
		client:  hc,
		store:   cfg.Store,
		logger:  logger,
	}, nil
}

// doJSON issues one request and decodes a 2xx response into out (out may
// be nil). Non-2xx responses become an *auth.Error carrying the HTTP
// status and the server detail or the per-operation fallback message.
func (c *Client) doJSON(ctx context.Context, method, path, bearer string, payload, out any, fallback string) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domainauth.WrapError(domainauth.KindNetworkFailure,
			"Could not reach the PharmaPilot server", err)
	}
	defer closeBody(resp, c.logger)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp, fallback)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return domainauth.WrapError(domainauth.KindServerError,
			"Unexpected response from the PharmaPilot server", decodeErr)
	}
	return nil
}

// responseError reads the error body and maps the status to an error kind.
func (c *Client) responseError(resp *http.Response, fallback string) error {
	detail := fallback
	raw, readErr := io.ReadAll(resp.Body)
	if readErr == nil {
		var body struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Detail) != "" {
			detail = body.Detail
		}
	}

	kind := domainauth.KindServerError
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		kind = domainauth.KindNotAuthenticated
	}
	return domainauth.StatusError(kind, detail, resp.StatusCode)
}

func closeBody(resp *http.Response, logger *slog.Logger) {
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		logger.Warn("drain response body failed", "error", err)
	}
	if err := resp.Body.Close(); err != nil {
		logger.Warn("close response body failed", "error", err)
	}
}
