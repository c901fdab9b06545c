// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/middleware"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/sec"
)

func runGuard(t *testing.T, guard *middleware.SessionGuard, principal *sec.Principal) (*httptest.ResponseRecorder, *sec.Principal) {
	t.Helper()
	handler, captured := echoPrincipal(t)
	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	if principal != nil {
		request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))
	}
	recorder := httptest.NewRecorder()
	guard.Enforce(handler).ServeHTTP(recorder, request)
	return recorder, captured
}

/*
TestSessionGuard_ActiveSessionTouches refreshes the activity marker for a
session inside the window.
*/
func TestSessionGuard_ActiveSessionTouches(t *testing.T) {
	store := newFakeStore()
	guard := middleware.NewSessionGuard(store, 24*time.Hour, respond.NewResponder(false))

	principal := &sec.Principal{
		ID:           "user-1",
		Role:         sec.RoleStudent,
		Active:       true,
		LastActivity: time.Now().UTC().Add(-23 * time.Hour),
	}

	recorder, captured := runGuard(t, guard, principal)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.Len(t, store.touched, 1)
	// Downstream sees the refreshed marker, not the stale one.
	assert.WithinDuration(t, time.Now().UTC(), captured.LastActivity, time.Minute)
}

/*
TestSessionGuard_ExpiredSession rejects a principal idle past the timeout
without writing any activity.
*/
func TestSessionGuard_ExpiredSession(t *testing.T) {
	store := newFakeStore()
	guard := middleware.NewSessionGuard(store, 24*time.Hour, respond.NewResponder(false))

	principal := &sec.Principal{
		ID:           "user-1",
		Role:         sec.RoleStudent,
		Active:       true,
		LastActivity: time.Now().UTC().Add(-25 * time.Hour),
	}

	recorder, _ := runGuard(t, guard, principal)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "Session expired", envelope["message"])
	assert.Empty(t, store.touched)
}

/*
TestSessionGuard_BoundaryIsInclusive admits a request at exactly the timeout:
expiry requires strictly more idle time than the window.
*/
func TestSessionGuard_BoundaryIsInclusive(t *testing.T) {
	store := newFakeStore()
	timeout := 24 * time.Hour
	guard := middleware.NewSessionGuard(store, timeout, respond.NewResponder(false))
	guard.SetNow(func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) })

	principal := &sec.Principal{
		ID:           "user-1",
		Active:       true,
		LastActivity: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	recorder, _ := runGuard(t, guard, principal)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, store.touched, 1)
}

/*
TestSessionGuard_ZeroActivityStartsClock treats an account with no recorded
activity as fresh instead of expired.
*/
func TestSessionGuard_ZeroActivityStartsClock(t *testing.T) {
	store := newFakeStore()
	guard := middleware.NewSessionGuard(store, 24*time.Hour, respond.NewResponder(false))

	principal := &sec.Principal{ID: "user-1", Active: true}

	recorder, _ := runGuard(t, guard, principal)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, store.touched, 1)
}

/*
TestSessionGuard_NoPrincipalPassesThrough skips enforcement entirely for
anonymous requests.
*/
func TestSessionGuard_NoPrincipalPassesThrough(t *testing.T) {
	store := newFakeStore()
	guard := middleware.NewSessionGuard(store, 24*time.Hour, respond.NewResponder(false))

	recorder, _ := runGuard(t, guard, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, store.touched)
}

/*
TestSessionGuard_TouchFailureIs500 propagates an activity-write failure as an
internal error rather than silently losing the marker.
*/
func TestSessionGuard_TouchFailureIs500(t *testing.T) {
	store := newFakeStore()
	store.touchErr = assert.AnError
	guard := middleware.NewSessionGuard(store, 24*time.Hour, respond.NewResponder(false))

	principal := &sec.Principal{
		ID:           "user-1",
		Active:       true,
		LastActivity: time.Now().UTC(),
	}

	recorder, _ := runGuard(t, guard, principal)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}
