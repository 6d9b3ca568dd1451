package routing

import "github.com/sgcsalud/portal/usuarios"

// Decision is the outcome of a guard evaluation.
type Decision int

const (
	// Allow renders the guarded content unchanged.
	Allow Decision = iota
	// RedirectLogin sends the navigation to the login view. Terminal for
	// this navigation attempt.
	RedirectLogin
	// RedirectUnauthorized sends an authenticated user without the
	// required role to the unauthorized view.
	RedirectUnauthorized
)

// Target returns the redirect path for the decision, or "" for Allow.
func (d Decision) Target() string {
	switch d {
	case RedirectLogin:
		return RouteLogin
	case RedirectUnauthorized:
		return RouteUnauthorized
	}
	return ""
}

// Guard gates access to a protected view. Authentication is checked first;
// only then is the role compared against the required set. An empty
// required set admits any authenticated user.
func Guard(authenticated bool, rol usuarios.Role, required ...usuarios.Role) Decision {
	if !authenticated {
		return RedirectLogin
	}
	if len(required) == 0 {
		return Allow
	}
	for _, r := range required {
		if rol == r {
			return Allow
		}
	}
	return RedirectUnauthorized
}

// SessionState is the read-side of the session store the guard needs.
// *session.Store satisfies it; tests can inject a fake.
type SessionState interface {
	IsAuthenticated() bool
	Rol() usuarios.Role
}

// Evaluate runs the guard against live session state. The decision is never
// cached: a session cleared elsewhere is reflected on the next navigation.
func Evaluate(sess SessionState, required ...usuarios.Role) Decision {
	return Guard(sess.IsAuthenticated(), sess.Rol(), required...)
}
