// Copyright (c) 2026 ExamGate. All rights reserved.

// Package schema holds the typed column-name registry for every table in the
// ExamGate database. Repositories build their queries from these definitions
// so a renamed column breaks at one declared point instead of in scattered
// string literals.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table        string
	ID           string
	Email        string
	Password     string
	FullName     string
	Role         string
	Active       string
	LastActivity string
	CreatedAt    string
	UpdatedAt    string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:        "users.account",
	ID:           "id",
	Email:        "email",
	Password:     "passwordhash",
	FullName:     "fullname",
	Role:         "role",
	Active:       "active",
	LastActivity: "lastactivity",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FullName, t.Role,
		t.Active, t.LastActivity, t.CreatedAt, t.UpdatedAt,
	}
}

// ColumnList returns the comma-joined column list for SELECT and INSERT.
func (t UserAccountTable) ColumnList() string {
	return strings.Join(t.Columns(), ", ")
}
