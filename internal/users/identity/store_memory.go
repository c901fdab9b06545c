// Copyright (c) 2026 ExamGate. All rights reserved.

package identity

import (
	"context"
	"sync"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
)

// MemoryUserRepository is a mutex-guarded, in-memory UserRepository.
//
// It backs the test suite and local development without a database. Not
// intended for production use.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*User)}
}

// FindByID returns the account with the given ID.
func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	user, ok := repository.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

// FindByEmail returns the account with the given email.
func (repository *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	for _, user := range repository.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

// Create stores a copy of the account.
func (repository *MemoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.users {
		if existing.Email == user.Email {
			return apperr.Conflict("Resource already exists")
		}
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	clone := *user
	repository.users[user.ID] = &clone
	return nil
}

// TouchActivity replaces only the last-activity timestamp.
func (repository *MemoryUserRepository) TouchActivity(_ context.Context, id string, lastActivity time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.LastActivity = lastActivity
	return nil
}

// SetActive toggles the account's active flag.
func (repository *MemoryUserRepository) SetActive(_ context.Context, id string, active bool) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	user, ok := repository.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Active = active
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// CountByRole returns the number of active accounts per role.
func (repository *MemoryUserRepository) CountByRole(_ context.Context) (map[string]int64, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	counts := make(map[string]int64)
	for _, user := range repository.users {
		if user.Active {
			counts[string(user.Role)]++
		}
	}
	return counts, nil
}
