// Copyright (c) 2026 ExamGate. All rights reserved.

package sec

import "time"

// Principal is the authenticated identity attached to a request.
//
// # Lifetime
//
// The principal is a transient, request-scoped copy of the account row,
// fetched by the id extracted from the access token. Nothing on it is ever
// mutated by the pipeline except LastActivity, which the session guard
// advances and hands back to the user store.
type Principal struct {
	// ID is the opaque account identifier (subject claim of the token).
	ID string `json:"id"`
	// Role is the account's authorization level.
	Role Role `json:"role"`
	// Active reports whether the account is enabled. Inactive accounts fail
	// authentication with the same message as unknown ones.
	Active bool `json:"-"`
	// LastActivity is the most recent authenticated interaction.
	LastActivity time.Time `json:"-"`
}
