// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package identity implements the user account layer of the exam platform.

It defines the core domain entity (User) and the logic for credential-based
authentication and account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package identity

import (
	"time"

	"github.com/examgate/examgate/internal/platform/sec"
)

// # Domain Entities

// User represents a registered account on the ExamGate platform.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	FullName     string    `json:"full_name"`
	Role         sec.Role  `json:"role"`
	Active       bool      `json:"active"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal projects the account into the form the protection pipeline
// operates on.
func (u *User) Principal() *sec.Principal {
	return &sec.Principal{
		ID:           u.ID,
		Role:         u.Role,
		Active:       u.Active,
		LastActivity: u.LastActivity,
	}
}

// # Field Identifiers

// Global field names for validation and identity mapping in the account domain.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldFullName = "full_name"
	FieldRole     = "role"
)
