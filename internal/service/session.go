package service

// Package service orchestrates the client session lifecycle: restoring a
// session from persisted credentials at startup, applying login/logout
// transitions, and gating navigation between the login and chat views.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/domain/chat"
	"github.com/pharmapilot/pharmapilot-cli/internal/ports"
)

// Phase is the session lifecycle state. User presence is authoritative for
// "authenticated"; Phase exists so the view layer can tell "still
// restoring" from "signed out".
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseRestoring       Phase = "restoring"
	PhaseAuthenticated   Phase = "authenticated"
)

// State is a point-in-time copy of the session for the view layer.
type State struct {
	Phase         Phase
	User          *domainauth.UserProfile
	Theme         domainauth.Theme
	Conversations []chat.Conversation
}

// SessionControllerOptions groups dependencies for SessionController.
type SessionControllerOptions struct {
	Store ports.CredentialStore
	API   ports.AuthAPI
	Logger *slog.Logger

	// RefreshLeeway is how close to expiry an access token may be before
	// AccessToken refreshes it proactively. Zero disables the behaviour.
	RefreshLeeway time.Duration

	// DefaultTheme applies until a persisted preference is read.
	DefaultTheme domainauth.Theme
}

// SessionController owns the in-memory session state and applies every
// transition. It is explicit and injectable; views receive the controller,
// never ambient globals. Operations serialize on an internal mutex, and an
// epoch counter guards against a slow restore overwriting a logout that
// landed while it was in flight.
type SessionController struct {
	store  ports.CredentialStore
	api    ports.AuthAPI
	logger *slog.Logger
	leeway time.Duration

	mu            sync.Mutex
	phase         Phase
	user          *domainauth.UserProfile
	theme         domainauth.Theme
	conversations []chat.Conversation
	epoch         uint64
}

// NewSessionController constructs a controller in the unauthenticated state.
func NewSessionController(opts SessionControllerOptions) *SessionController {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	theme := opts.DefaultTheme
	if theme != domainauth.ThemeLight && theme != domainauth.ThemeDark {
		theme = domainauth.ThemeLight
	}
	return &SessionController{
		store:  opts.Store,
		api:    opts.API,
		logger: logger,
		leeway: opts.RefreshLeeway,
		phase:  PhaseUnauthenticated,
		theme:  theme,
	}
}

// State returns a copy of the current session state.
func (c *SessionController) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{Phase: c.phase, Theme: c.theme}
	if c.user != nil {
		u := *c.user
		st.User = &u
	}
	if len(c.conversations) > 0 {
		st.Conversations = make([]chat.Conversation, len(c.conversations))
		copy(st.Conversations, c.conversations)
	}
	return st
}

// Restore re-establishes a session from persisted credentials. With no
// stored token it settles unauthenticated without touching the network.
// With a token it asks the backend for the profile; rejection clears the
// store and settles unauthenticated — silently, since a stale token is not
// a user-facing error. A logout or login that lands while the profile
// fetch is in flight wins over the restore result.
func (c *SessionController) Restore(ctx context.Context) error {
	c.mu.Lock()
	epoch := c.epoch
	c.phase = PhaseRestoring
	c.mu.Unlock()

	c.loadTheme(ctx)

	creds, err := c.store.Credentials(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			// A broken local cache must never block startup.
			c.logger.WarnContext(ctx, "credential store read failed", "error", err)
		}
		c.settle(epoch, nil)
		return nil
	}

	profile, err := c.api.CurrentUser(ctx, creds.AccessToken)
	if err != nil {
		if superseded := !c.settle(epoch, nil); superseded {
			return nil
		}
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.logger.ErrorContext(ctx, "clear rejected credentials failed", "error", clearErr)
		}
		c.logger.InfoContext(ctx, "stored session rejected, routing to login",
			"kind", string(domainauth.KindOf(err)))
		return nil
	}

	if superseded := !c.settle(epoch, &profile); superseded {
		return nil
	}
	if saveErr := c.store.SaveUser(ctx, profile); saveErr != nil {
		c.logger.WarnContext(ctx, "cache user profile failed", "error", saveErr)
	}
	return nil
}

// settle applies a restore outcome unless a later transition already took
// over. Returns false when the outcome was stale and dropped.
func (c *SessionController) settle(epoch uint64, profile *domainauth.UserProfile) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return false
	}
	c.user = profile
	if profile != nil {
		c.phase = PhaseAuthenticated
	} else {
		c.phase = PhaseUnauthenticated
		c.conversations = nil
	}
	return true
}

// LoginUser transitions directly to authenticated. The view has already
// performed the login and profile fetch through the auth client.
func (c *SessionController) LoginUser(profile domainauth.UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.user = &profile
	c.phase = PhaseAuthenticated
}

// LogoutUser clears persisted credentials, purges user-scoped state, and
// settles unauthenticated. An in-flight restore cannot resurrect the
// session afterwards.
func (c *SessionController) LogoutUser(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	c.user = nil
	c.phase = PhaseUnauthenticated
	c.conversations = nil
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential store: %w", err)
	}
	return nil
}

// ToggleTheme flips the theme, persists the new value, and returns it.
// The persisted preference wins over the in-memory default so toggling
// works before any restore has run. Orthogonal to authentication
// transitions.
func (c *SessionController) ToggleTheme(ctx context.Context) (domainauth.Theme, error) {
	c.loadTheme(ctx)

	c.mu.Lock()
	c.theme = c.theme.Toggle()
	theme := c.theme
	c.mu.Unlock()

	if err := c.store.SaveTheme(ctx, theme); err != nil {
		return theme, fmt.Errorf("persist theme: %w", err)
	}
	return theme, nil
}

// AccessToken returns the stored access token, refreshing it first when
// its expiry falls inside the configured leeway. A failed proactive
// refresh falls back to the stored token; the server stays the authority
// on whether it is still good.
func (c *SessionController) AccessToken(ctx context.Context) (string, error) {
	creds, err := c.store.Credentials(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", domainauth.NewError(domainauth.KindNotAuthenticated, "Not logged in")
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}

	if domainauth.TokenExpiresWithin(creds.AccessToken, c.leeway, time.Now()) {
		fresh, refreshErr := c.api.Refresh(ctx, creds.RefreshToken)
		if refreshErr == nil {
			return fresh.AccessToken, nil
		}
		c.logger.DebugContext(ctx, "proactive token refresh failed", "error", refreshErr)
	}
	return creds.AccessToken, nil
}

// StartConversation opens a new in-memory conversation and returns its ID.
// No-op (empty ID) when signed out: conversation history is user-scoped.
func (c *SessionController) StartConversation(title string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == nil {
		return ""
	}
	conv := chat.Conversation{
		ID:      uuid.NewString(),
		Title:   title,
		Started: time.Now(),
	}
	c.conversations = append(c.conversations, conv)
	return conv.ID
}

// RecordExchange appends a prompt/response pair to a conversation. Dropped
// silently when the conversation is gone (e.g. purged by a logout that
// raced the generation call).
func (c *SessionController) RecordExchange(conversationID, prompt string, resp chat.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.user == nil {
		return
	}
	for i := range c.conversations {
		if c.conversations[i].ID != conversationID {
			continue
		}
		now := time.Now()
		c.conversations[i].Messages = append(c.conversations[i].Messages,
			chat.Message{From: chat.SenderUser, Content: prompt, At: now},
			chat.Message{From: chat.SenderAssistant, Content: resp.Content, Charts: resp.Charts, At: now},
		)
		return
	}
}

func (c *SessionController) loadTheme(ctx context.Context) {
	theme, err := c.store.Theme(ctx)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			c.logger.WarnContext(ctx, "theme preference read failed", "error", err)
		}
		return
	}
	c.mu.Lock()
	c.theme = theme
	c.mu.Unlock()
}
