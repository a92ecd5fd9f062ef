package service

import (
	"context"
	"time"
)

// Route is a top-level navigation destination.
type Route string

const (
	// RouteSplash is the loading indicator shown while restoring.
	RouteSplash Route = "splash"
	// RouteLogin is the unauthenticated entry view.
	RouteLogin Route = "login"
	// RouteChat is the authenticated assistant view.
	RouteChat Route = "chat"
)

// RouteFor is a pure function of session state: splash while restoring,
// chat when a user is present, login otherwise.
func RouteFor(st State) Route {
	switch {
	case st.Phase == PhaseRestoring:
		return RouteSplash
	case st.User != nil:
		return RouteChat
	default:
		return RouteLogin
	}
}

// RouteGate decides the first navigation after startup. It holds the
// splash view for a minimum floor even when the restore finishes sooner,
// so fast restores do not flash the indicator.
type RouteGate struct {
	controller *SessionController
	minSplash  time.Duration
}

// NewRouteGate constructs a gate over the controller with the given
// minimum splash duration.
func NewRouteGate(controller *SessionController, minSplash time.Duration) *RouteGate {
	if minSplash < 0 {
		minSplash = 0
	}
	return &RouteGate{controller: controller, minSplash: minSplash}
}

// Resolve runs the session restore and returns the destination once both
// the restore has finished and the splash floor has elapsed, whichever
// comes last.
func (g *RouteGate) Resolve(ctx context.Context) (Route, error) {
	timer := time.NewTimer(g.minSplash)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() { done <- g.controller.Restore(ctx) }()

	var restoreErr error
	restored, floorElapsed := false, false
	for !restored || !floorElapsed {
		select {
		case <-ctx.Done():
			return RouteSplash, ctx.Err()
		case <-timer.C:
			floorElapsed = true
		case restoreErr = <-done:
			restored = true
		}
	}

	if restoreErr != nil {
		return RouteLogin, restoreErr
	}
	return RouteFor(g.controller.State()), nil
}
