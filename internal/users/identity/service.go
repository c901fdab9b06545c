// Copyright (c) 2026 ExamGate. All rights reserved.

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/sec"
	"github.com/examgate/examgate/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for minting access tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given account.
	GenerateAccessToken(userID string, role sec.Role, timeToLive time.Duration) (string, error)
}

// Service implements the account authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing or login
// logic must be reviewed by the security team.
type Service struct {
	users         UserRepository
	tokenProvider TokenProvider
	accessTTL     time.Duration
}

// NewService constructs a new [Service] with its dependencies.
func NewService(users UserRepository, tokenProvider TokenProvider, accessTTL time.Duration) *Service {
	return &Service{users: users, tokenProvider: tokenProvider, accessTTL: accessTTL}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

/*
Register validates, hashes, and persists a brand new student account.

Description: New self-service signups always receive the student role;
elevated roles are provisioned out of band.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if the email exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.users.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	// UUIDv7: time-sortable primary keys.
	user := &User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hashedPassword,
		FullName:     input.FullName,
		Role:         sec.RoleStudent,
		Active:       true,
	}

	if err := service.users.Create(context, user); err != nil {
		return nil, fmt.Errorf("identity_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken string
	ExpiresIn   int64 // Seconds until the access token expires.
	User        *User
}

/*
Login validates user credentials and issues an access token.

Description: Verifies identity with a constant-time password comparison and
mints a short-lived JWT. Deactivated accounts are rejected with the same
generic message as bad credentials to prevent account enumeration.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Unauthenticated or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.users.FindByEmail(context, input.Email)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	if !user.Active {
		return nil, apperr.Unauthenticated("Invalid email or password")
	}

	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, user.Role, service.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("identity_service_token_generation_failed: %w", err)
	}

	// A successful login counts as activity for the idle-session clock.
	now := time.Now().UTC()
	if err := service.users.TouchActivity(context, user.ID, now); err != nil {
		return nil, fmt.Errorf("identity_service_touch_failed: %w", err)
	}
	user.LastActivity = now

	return &LoginSession{
		AccessToken: accessToken,
		ExpiresIn:   int64(service.accessTTL.Seconds()),
		User:        user,
	}, nil
}

// # Profile & Administration

/*
Profile returns the account behind a principal ID.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Profile(context context.Context, userID string) (*User, error) {
	return service.users.FindByID(context, userID)
}

// PlatformStats summarizes the account population for the admin dashboard.
type PlatformStats struct {
	ActiveUsersByRole map[string]int64 `json:"active_users_by_role"`
	TotalActiveUsers  int64            `json:"total_active_users"`
}

/*
Stats aggregates active account counts per role.

Parameters:
  - context: context.Context

Returns:
  - *PlatformStats: Aggregated counters
  - error: Storage failures
*/
func (service *Service) Stats(context context.Context) (*PlatformStats, error) {
	counts, err := service.users.CountByRole(context)
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{ActiveUsersByRole: counts}
	for _, count := range counts {
		stats.TotalActiveUsers += count
	}
	return stats, nil
}

/*
Deactivate disables an account, cutting off every future token verification.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: apperr.NotFound or storage failures
*/
func (service *Service) Deactivate(context context.Context, userID string) error {
	return service.users.SetActive(context, userID, false)
}

// # Pipeline Integration

/*
FindPrincipal resolves an account ID to its protection-pipeline projection.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *sec.Principal: Pipeline identity projection
  - error: apperr.NotFound or storage failures
*/
func (service *Service) FindPrincipal(context context.Context, id string) (*sec.Principal, error) {
	user, err := service.users.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}

/*
TouchActivity persists a new last-activity timestamp for the account.

Parameters:
  - context: context.Context
  - id: string
  - lastActivity: time.Time

Returns:
  - error: Persistence failures
*/
func (service *Service) TouchActivity(context context.Context, id string, lastActivity time.Time) error {
	return service.users.TouchActivity(context, id, lastActivity)
}
