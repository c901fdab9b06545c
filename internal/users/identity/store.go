// Copyright (c) 2026 ExamGate. All rights reserved.

package identity

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		TouchActivity replaces only the account's last-activity timestamp.

		Parameters:
		  - context: context.Context
		  - id: string
		  - lastActivity: time.Time

		Returns:
		  - error: Persistence failures
	*/
	TouchActivity(context context.Context, id string, lastActivity time.Time) error

	/*
		SetActive toggles the account's active flag.

		Parameters:
		  - context: context.Context
		  - id: string
		  - active: bool

		Returns:
		  - error: Persistence failures
	*/
	SetActive(context context.Context, id string, active bool) error

	/*
		CountByRole returns the number of active accounts per role.

		Parameters:
		  - context: context.Context

		Returns:
		  - map[string]int64: Role name to account count
		  - error: Database retrieval failures
	*/
	CountByRole(context context.Context) (map[string]int64, error)
}
