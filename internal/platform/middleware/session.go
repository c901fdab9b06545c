// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/respond"
)

// SessionGuard enforces the inactivity timeout on authenticated requests.
//
// A principal whose last recorded activity is further in the past than the
// configured timeout is treated as logged out and must re-authenticate, even
// when the bearer token itself is still valid. The comparison is strictly
// greater-than: a request arriving at exactly the timeout boundary passes.
type SessionGuard struct {
	store     PrincipalStore
	timeout   time.Duration
	responder *respond.Responder
	now       func() time.Time
}

// NewSessionGuard builds a guard with the given inactivity window.
func NewSessionGuard(store PrincipalStore, timeout time.Duration, responder *respond.Responder) *SessionGuard {
	return &SessionGuard{store: store, timeout: timeout, responder: responder, now: time.Now}
}

// SetNow overrides the guard's clock. Tests only.
func (g *SessionGuard) SetNow(now func() time.Time) { g.now = now }

// Enforce checks the principal's idle time and refreshes the activity marker.
//
// Requests that carry no principal pass through untouched so the guard can sit
// on route groups that mix required and optional authentication.
func (g *SessionGuard) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())
		if principal == nil {
			next.ServeHTTP(writer, request)
			return
		}

		now := g.now().UTC()

		// A zero marker means the account has never been seen by the
		// guard (fresh signup, backfilled row). Start the clock now
		// rather than expiring a session that never began.
		if !principal.LastActivity.IsZero() && now.Sub(principal.LastActivity) > g.timeout {
			g.responder.Error(writer, request, apperr.Unauthenticated("Session expired"))
			return
		}

		writeCtx, cancel := context.WithTimeout(request.Context(), constants.ActivityWriteTimeout)
		defer cancel()

		if err := g.store.TouchActivity(writeCtx, principal.ID, now); err != nil {
			g.responder.Error(writer, request, apperr.Internal(err))
			return
		}

		// Downstream stages observe the refreshed marker.
		refreshed := *principal
		refreshed.LastActivity = now
		next.ServeHTTP(writer, request.WithContext(ctxutil.WithPrincipal(request.Context(), &refreshed)))
	})
}
