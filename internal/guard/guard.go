// Package guard decides whether a protected area may be rendered for an
// identity. Guards are pure and evaluated before any content is produced.
package guard

import "github.com/starford/mindatlas/internal/authgate"

// Outcome is the verdict of a guard.
type Outcome int

const (
	// Render admits the request.
	Render Outcome = iota
	// Redirect sends the client to Decision.Location.
	Redirect
	// Deny shows an access-denied view offering Home and SignOut actions.
	Deny
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Paths are the navigation targets guards refer to.
type Paths struct {
	Login  string
	Admin  string
	Home   string
	Logout string
}

// DefaultPaths mirrors the product's routes.
func DefaultPaths() Paths {
	return Paths{
		Login:  "/login",
		Admin:  "/admin",
		Home:   "/",
		Logout: "/api/session/logout",
	}
}

// Decision is a guard verdict.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Func is a guard.
type Func func(id authgate.Identity, p Paths) Decision

// UserArea admits authenticated non-admin users. Administrators are sent
// to their own area; an unrecognized role is denied.
func UserArea(id authgate.Identity, p Paths) Decision {
	switch {
	case !id.Authenticated:
		return Decision{Outcome: Redirect, Location: p.Login}
	case id.Role.IsAdmin():
		return Decision{Outcome: Redirect, Location: p.Admin}
	case !id.Role.Known():
		return Decision{Outcome: Deny}
	default:
		return Decision{Outcome: Render}
	}
}

// AdminArea admits authenticated administrators. Any other authenticated
// identity gets an explicit denial rather than a silent redirect.
func AdminArea(id authgate.Identity, p Paths) Decision {
	switch {
	case !id.Authenticated:
		return Decision{Outcome: Redirect, Location: p.Login}
	case !id.Role.IsAdmin():
		return Decision{Outcome: Deny}
	default:
		return Decision{Outcome: Render}
	}
}
