// Copyright (c) 2026 ExamGate. All rights reserved.

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/sec"
)

const testSecret = "unit-test-secret-0123456789abcdef"

func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(testSecret, "examgate-test")
	require.NoError(t, err)
	return service
}

/*
TestTokenService_RoundTrip verifies that a generated token verifies cleanly
and carries the expected claims.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateAccessToken("user-1", sec.RoleStudent, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, string(sec.RoleStudent), claims.Role)
	assert.Equal(t, "examgate-test", claims.Issuer)
}

/*
TestTokenService_Expired verifies that an expired token fails with the
expiry sentinel, not the generic invalid one.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateAccessToken("user-1", sec.RoleStudent, -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.NotErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_WrongSecret verifies that a token signed with a different
secret is rejected as invalid.
*/
func TestTokenService_WrongSecret(t *testing.T) {
	service := newTokenService(t)

	other, err := sec.NewTokenService("another-secret-0123456789abcdefgh", "examgate-test")
	require.NoError(t, err)

	token, err := other.GenerateAccessToken("user-1", sec.RoleAdmin, time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Malformed verifies garbage input is rejected as invalid.
*/
func TestTokenService_Malformed(t *testing.T) {
	service := newTokenService(t)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifyToken(tt.token)
			assert.ErrorIs(t, err, sec.ErrTokenInvalid)
		})
	}
}

/*
TestTokenService_TamperedPayload verifies signature validation catches edits.
*/
func TestTokenService_TamperedPayload(t *testing.T) {
	service := newTokenService(t)

	token, err := service.GenerateAccessToken("user-1", sec.RoleStudent, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// Swap the payload for one from a second, differently-claimed token.
	forged, err := service.GenerateAccessToken("user-2", sec.RoleSuperAdmin, time.Minute)
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")

	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]
	_, err = service.VerifyToken(tampered)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestNewTokenService_ShortSecret rejects weak signing secrets at construction.
*/
func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := sec.NewTokenService("short", "examgate-test")
	assert.Error(t, err)
}
