// Copyright (c) 2026 ExamGate. All rights reserved.

package sec

// # User Roles

// Role represents the authorization level granted to an account.
//
// The set is closed: student, admin, super_admin. There is deliberately no
// hierarchy or inheritance between roles. Every endpoint declares the exact
// set of roles it accepts, so super_admin is NOT implicitly granted access
// to an admin-only route unless listed.
type Role string

const (
	// Default role for registered exam takers.
	RoleStudent Role = "student"

	// Can manage exams, questions, and results.
	RoleAdmin Role = "admin"

	// Platform operator with account and system management access.
	RoleSuperAdmin Role = "super_admin"
)

// IsValid reports whether the role is one of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// In reports whether the role is a member of the allowed set.
//
// This is a plain membership test. No role ordering is consulted.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
