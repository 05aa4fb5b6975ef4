// Package rbac defines the role markers carried in session tokens.
package rbac

// Role is an authority marker issued by the backend.
type Role string

const (
	// RoleUnknown is any marker this application does not recognize,
	// including an empty role list. It is never granted access.
	RoleUnknown Role = ""
	RoleUser    Role = "ROLE_USER"
	RoleAdmin   Role = "ROLE_ADMIN"
)

// Normalize maps a raw authority string to a known Role.
func Normalize(role string) Role {
	switch Role(role) {
	case RoleUser, RoleAdmin:
		return Role(role)
	default:
		return RoleUnknown
	}
}

// IsAdmin reports whether r is the administrator role.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Known reports whether r is a recognized role.
func (r Role) Known() bool {
	return r != RoleUnknown
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}
