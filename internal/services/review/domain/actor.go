package domain

import "strings"

// Role identifies what an actor may do in the review lifecycle.
type Role string

const (
	// RoleRequester uploads documents and receives graded results.
	RoleRequester Role = "requester"
	// RoleReviewer claims, annotates, and grades submissions.
	RoleReviewer Role = "reviewer"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleReviewer:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a raw role string.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// Actor is the identity an operation runs as. Identity management is
// external; the core only ever reads these fields.
type Actor struct {
	ID          string
	Role        Role
	DisplayName string
}
