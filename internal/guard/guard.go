// Package guard decides whether a navigation target may be entered given
// the current session state. Decide is a pure function of its inputs; it
// never schedules network work itself.
package guard

import "context"

const (
	// LoginPath is where unauthenticated visitors are sent.
	LoginPath = "/login"
	// HomePath is where already-authenticated visitors are sent when they
	// hit a guest-only page.
	HomePath = "/dashboard"
)

// Route describes a navigation target's access policy.
type Route struct {
	Path         string
	RequiresAuth bool
	GuestOnly    bool
}

// Decision is the guard verdict: either allow, or redirect elsewhere.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// SessionState is the read-only view of the session the guard consults.
type SessionState interface {
	IsAuthenticated() bool
	AuthInitialized() bool
}

// Decide applies the access policy deterministically:
// protected route + anonymous session redirects to login, guest-only
// route + authenticated session redirects home, everything else passes.
func Decide(route Route, session SessionState) Decision {
	switch {
	case route.RequiresAuth && !session.IsAuthenticated():
		return Decision{RedirectTo: LoginPath}
	case route.GuestOnly && session.IsAuthenticated():
		return Decision{RedirectTo: HomePath}
	default:
		return Decision{Allow: true}
	}
}

// DecideWithProbe resolves the ambiguous pre-init state before deciding: a
// protected target with an unchecked session gets one identity probe
// (typically session.Controller.Me), and whatever state that single
// attempt leaves behind is accepted.
func DecideWithProbe(ctx context.Context, route Route, session SessionState, probe func(context.Context) error) Decision {
	if route.RequiresAuth && !session.IsAuthenticated() && !session.AuthInitialized() && probe != nil {
		_ = probe(ctx)
	}
	return Decide(route, session)
}
