package service

import (
	"context"
	"testing"
	"time"

	domainauth "github.com/pharmapilot/pharmapilot-cli/internal/domain/auth"
	"github.com/pharmapilot/pharmapilot-cli/internal/mocks/authapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteFor(t *testing.T) {
	user := &domainauth.UserProfile{ID: 1, Email: "a@b.com"}

	tests := []struct {
		name  string
		state State
		want  Route
	}{
		{"restoring shows splash", State{Phase: PhaseRestoring}, RouteSplash},
		{"restoring hides a stale user", State{Phase: PhaseRestoring, User: user}, RouteSplash},
		{"authenticated goes to chat", State{Phase: PhaseAuthenticated, User: user}, RouteChat},
		{"signed out goes to login", State{Phase: PhaseUnauthenticated}, RouteLogin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteFor(tt.state))
		})
	}
}

func TestResolveHoldsSplashFloor(t *testing.T) {
	store := authapi.NewMemoryCredentialStore()
	controller := newTestController(store, authapi.NewMockAuthAPI())

	const floor = 60 * time.Millisecond
	gate := NewRouteGate(controller, floor)

	start := time.Now()
	route, err := gate.Resolve(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, RouteLogin, route)
	assert.GreaterOrEqual(t, elapsed, floor,
		"an instant restore must still hold the splash for the floor")
}

func TestResolveWaitsForSlowRestore(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	api.CurrentUserFunc = func(context.Context, string) (domainauth.UserProfile, error) {
		time.Sleep(40 * time.Millisecond)
		return api.DefaultUser, nil
	}
	controller := newTestController(store, api)
	require.NoError(t, store.SaveCredentials(ctx, storedCredentials()))

	gate := NewRouteGate(controller, 1*time.Millisecond)
	route, err := gate.Resolve(ctx)

	require.NoError(t, err)
	assert.Equal(t, RouteChat, route, "the floor elapsing early must not cut the restore short")
}

func TestResolveRoutesRejectedSessionToLogin(t *testing.T) {
	ctx := context.Background()
	store := authapi.NewMemoryCredentialStore()
	api := authapi.NewMockAuthAPI()
	api.CurrentUserFunc = func(context.Context, string) (domainauth.UserProfile, error) {
		return domainauth.UserProfile{}, domainauth.StatusError(
			domainauth.KindNotAuthenticated, "token expired", 401)
	}
	controller := newTestController(store, api)
	require.NoError(t, store.SaveCredentials(ctx, storedCredentials()))

	gate := NewRouteGate(controller, 1*time.Millisecond)
	route, err := gate.Resolve(ctx)

	require.NoError(t, err)
	assert.Equal(t, RouteLogin, route)
	assert.False(t, store.IsAuthenticated(ctx))
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := authapi.NewMemoryCredentialStore()
	controller := newTestController(store, authapi.NewMockAuthAPI())
	gate := NewRouteGate(controller, time.Hour)

	_, err := gate.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
