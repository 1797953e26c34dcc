package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles. Raw role strings never travel
// through the codebase; callers go through ParseRole and Can.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapManageUsers  Capability = "users:manage"
	CapEditDossiers Capability = "dossiers:edit"
	CapViewDossiers Capability = "dossiers:view"
)

// ParseRole validates a raw role string against the closed enumeration.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	case RoleViewer:
		return RoleViewer, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser || r == RoleViewer
}

// Can is the single capability check consumed everywhere a role gate is needed.
func (r Role) Can(c Capability) bool {
	switch c {
	case CapManageUsers:
		return r == RoleAdmin
	case CapEditDossiers:
		return r == RoleAdmin || r == RoleUser
	case CapViewDossiers:
		return r.Valid()
	default:
		return false
	}
}
