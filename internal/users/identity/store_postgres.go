// Copyright (c) 2026 ExamGate. All rights reserved.

// PostgreSQL implementation of the identity storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types via the dberr bridge to avoid leaking storage
// implementation details.

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examgate/examgate/internal/platform/database/schema"
	"github.com/examgate/examgate/internal/platform/dberr"
)

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

var accountTable = schema.UserAccount

func (repository *PostgresUserRepository) scanUser(row interface{ Scan(...any) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.Active,
		&user.LastActivity,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves an account by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `SELECT ` + accountTable.ColumnList() + ` FROM ` + accountTable.Table + ` WHERE ` + accountTable.ID + ` = $1`

	user, err := repository.scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "find user by id")
	}

	return user, nil
}

/*
FindByEmail retrieves an account by its unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + accountTable.ColumnList() + ` FROM ` + accountTable.Table + ` WHERE ` + accountTable.Email + ` = $1`

	user, err := repository.scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "find user by email")
	}

	return user, nil
}

/*
Create persists a new account record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are
initialized if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, passwordhash, fullname, role, active, lastactivity, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.Active,
		user.LastActivity,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "create user")
	}

	return nil
}

/*
TouchActivity replaces only the last-activity timestamp.

Description: Hot-path write issued for every authenticated request; touches a
single indexed row and no other columns.

Parameters:
  - context: context.Context
  - id: string
  - lastActivity: time.Time

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) TouchActivity(context context.Context, id string, lastActivity time.Time) error {
	const query = `UPDATE users.account SET lastactivity = $2 WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, lastActivity)
	if err != nil {
		return dberr.Wrap(err, "touch activity")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

/*
SetActive toggles the account's active flag.

Parameters:
  - context: context.Context
  - id: string
  - active: bool

Returns:
  - error: Persistence failures
*/
func (repository *PostgresUserRepository) SetActive(context context.Context, id string, active bool) error {
	const query = `UPDATE users.account SET active = $2, updatedat = $3 WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, active, time.Now().UTC())
	if err != nil {
		return dberr.Wrap(err, "set active")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

/*
CountByRole returns the number of active accounts per role.

Parameters:
  - context: context.Context

Returns:
  - map[string]int64: Role name to account count
  - error: Database retrieval failures
*/
func (repository *PostgresUserRepository) CountByRole(context context.Context) (map[string]int64, error) {
	const query = `SELECT role, COUNT(*) FROM users.account WHERE active GROUP BY role`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "count users by role")
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var role string
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("identity_count_scan_failed: %w", err)
		}
		counts[role] = count
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "count users by role")
	}

	return counts, nil
}
