package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/domain/chat"
	"github.com/pharmapilot/pharmapilot-cli/internal/mocks/authapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(store *authapi.MemoryCredentialStore, api *authapi.MockAuthAPI) *SessionController {
	return NewSessionController(SessionControllerOptions{
		Store:         store,
		API:           api,
		RefreshLeeway: 30 * time.Second,
		DefaultTheme:  domainauth.ThemeLight,
	})
}

func storedCredentials() domainauth.Credentials {
	return domainauth.Credentials{AccessToken: "at-1", RefreshToken: "rt-1", TokenType: "bearer"}
}

func TestRestoreWithoutTokenSkipsNetwork(t *testing.T) {
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	controller := newTestController(store, api)

	require.NoError(t, controller.Restore(context.Background()))

	st := controller.State()
	assert.Equal(t, PhaseUnauthenticated, st.Phase)
	assert.Nil(t, st.User)
	assert.Equal(t, 0, api.Calls("current_user"), "no stored token means zero network calls")
}

func TestRestoreWithValidToken(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	api.DefaultUser = domainauth.UserProfile{
		ID:       1,
		Email:    "a@b.com",
		FullName: "A",
		Role:     domainauth.RoleResearcher,
		IsActive: true,
	}
	controller := newTestController(store, api)

	require.NoError(t, store.SaveCredentials(ctx, storedCredentials()))
	require.NoError(t, controller.Restore(ctx))

	st := controller.State()
	assert.Equal(t, PhaseAuthenticated, st.Phase)
	require.NotNil(t, st.User)
	assert.Equal(t, api.DefaultUser, *st.User)

	cached, err := store.User(ctx)
	require.NoError(t, err, "restore must persist the fetched profile")
	assert.Equal(t, api.DefaultUser, cached)
}

func TestRestoreWithRejectedTokenClearsStore(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	api.CurrentUserFunc = func(context.Context, string) (domainauth.UserProfile, error) {
		return domainauth.UserProfile{}, domainauth.StatusError(
			domainauth.KindNotAuthenticated, "token expired", 401)
	}
	controller := newTestController(store, api)

	require.NoError(t, store.SaveCredentials(ctx, storedCredentials()))
	require.NoError(t, controller.Restore(ctx), "a rejected token is not a restore error")

	st := controller.State()
	assert.Equal(t, PhaseUnauthenticated, st.Phase)
	assert.Nil(t, st.User)
	assert.False(t, store.IsAuthenticated(ctx), "rejected credentials must be cleared")
}

func TestLoginUserTransitionsDirectly(t *testing.T) {
	controller := newTestController(authapi.NewMemoryCredentialStore(), authapi.NewMockAuthAPI())

	profile := domainauth.UserProfile{ID: 7, Email: "a@b.com", FullName: "A"}
	controller.LoginUser(profile)

	st := controller.State()
	assert.Equal(t, PhaseAuthenticated, st.Phase)
	require.NotNil(t, st.User)
	assert.Equal(t, profile, *st.User)
}

func TestLogoutPurgesUserScopedState(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	controller := newTestController(store, authapi.NewMockAuthAPI())

	require.NoError(t, store.SaveCredentials(ctx, storedCredentials()))
	require.NoError(t, store.SaveUser(ctx, domainauth.UserProfile{ID: 1, Email: "a@b.com"}))
	controller.LoginUser(domainauth.UserProfile{ID: 1, Email: "a@b.com"})

	convID := controller.StartConversation("research")
	require.NotEmpty(t, convID)
	controller.RecordExchange(convID, "hello", chat.Response{Content: "hi"})
	require.Len(t, controller.State().Conversations, 1)

	require.NoError(t, controller.LogoutUser(ctx))

	st := controller.State()
	assert.Equal(t, PhaseUnauthenticated, st.Phase)
	assert.Nil(t, st.User)
	assert.Empty(t, st.Conversations, "conversation history is user-scoped")
	assert.False(t, store.IsAuthenticated(ctx))
	_, err := store.User(ctx)
	assert.Error(t, err, "cached profile must not leak across sessions")
}

func TestLogoutDuringRestoreWins(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()

	entered := make(chan struct{})
	release := make(chan struct{})
	api.CurrentUserFunc = func(context.Context, string) (domainauth.UserProfile, error) {
		close(entered)
		<-release
		return api.DefaultUser, nil
	}
	controller := newTestController(store, api)
	require.NoError(t, store.SaveCredentials(ctx, storedCredentials()))

	done := make(chan error, 1)
	go func() { done <- controller.Restore(ctx) }()

	<-entered
	require.NoError(t, controller.LogoutUser(ctx))
	close(release)
	require.NoError(t, <-done)

	st := controller.State()
	assert.Equal(t, PhaseUnauthenticated, st.Phase)
	assert.Nil(t, st.User, "a slow restore must not overwrite a completed logout")
	assert.False(t, store.IsAuthenticated(ctx))
	_, err := store.User(ctx)
	assert.Error(t, err, "stale restore result must not be persisted")
}

func TestToggleThemeTwicePersistsEachValue(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	controller := newTestController(store, authapi.NewMockAuthAPI())

	first, err := controller.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.ThemeDark, first)
	persisted, err := store.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.ThemeDark, persisted)

	second, err := controller.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.ThemeLight, second, "two toggles return to the original value")
	persisted, err = store.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domainauth.ThemeLight, persisted)
}

func TestRestoreLoadsPersistedTheme(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	require.NoError(t, store.SaveTheme(ctx, domainauth.ThemeDark))
	controller := newTestController(store, authapi.NewMockAuthAPI())

	require.NoError(t, controller.Restore(ctx))
	assert.Equal(t, domainauth.ThemeDark, controller.State().Theme)
}

func expiringToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(5 * time.Second).Unix(),
	})
	raw, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return raw
}

func TestAccessTokenRefreshesNearExpiry(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	controller := newTestController(store, api)

	require.NoError(t, store.SaveCredentials(ctx, domainauth.Credentials{
		AccessToken:  expiringToken(t),
		RefreshToken: "rt-1",
		TokenType:    "bearer",
	}))

	token, err := controller.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mock-access-2", token)
	assert.Equal(t, 1, api.Calls("refresh"))
}

func TestAccessTokenFallsBackWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	api.RefreshFunc = func(context.Context, string) (domainauth.Credentials, error) {
		return domainauth.Credentials{}, domainauth.StatusError(
			domainauth.KindNotAuthenticated, "Invalid token", 401)
	}
	controller := newTestController(store, api)

	raw := expiringToken(t)
	require.NoError(t, store.SaveCredentials(ctx, domainauth.Credentials{
		AccessToken:  raw,
		RefreshToken: "rt-1",
		TokenType:    "bearer",
	}))

	token, err := controller.AccessToken(ctx)
	require.NoError(t, err, "a failed proactive refresh is not fatal")
	assert.Equal(t, raw, token)
}

func TestAccessTokenWhenSignedOut(t *testing.T) {
	controller := newTestController(authapi.NewMemoryCredentialStore(), authapi.NewMockAuthAPI())

	_, err := controller.AccessToken(context.Background())
	require.Error(t, err)
	assert.True(t, domainauth.IsKind(err, domainauth.KindNotAuthenticated))
}

func TestStartConversationWhenSignedOut(t *testing.T) {
	controller := newTestController(authapi.NewMemoryCredentialStore(), authapi.NewMockAuthAPI())
	assert.Empty(t, controller.StartConversation("nope"))
}
