// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from [sec.TokenService],
// allowing tests to inject fakes.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.AccessClaims, error)
}

// PrincipalStore is the opaque user-store collaborator.
//
// The pipeline makes exactly two calls against it: a lookup during token
// verification and a single-field activity write during session enforcement.
// Implementations must honor context deadlines.
type PrincipalStore interface {
	// FindPrincipal resolves an account id to its principal. A missing
	// account returns an apperr NotFound-kind error.
	FindPrincipal(ctx context.Context, id string) (*sec.Principal, error)

	// TouchActivity persists a new last-activity timestamp for the account.
	TouchActivity(ctx context.Context, id string, lastActivity time.Time) error
}

// Authenticator verifies bearer tokens and resolves the request principal.
type Authenticator struct {
	verifier  TokenVerifier
	store     PrincipalStore
	sink      audit.Sink
	responder *respond.Responder
}

// NewAuthenticator wires the token verifier, user store, and audit sink.
func NewAuthenticator(verifier TokenVerifier, store PrincipalStore, sink audit.Sink, responder *respond.Responder) *Authenticator {
	return &Authenticator{verifier: verifier, store: store, sink: sink, responder: responder}
}

// Require rejects any request without a verifiable principal.
//
// # Flow
//  1. Parse 'Authorization: Bearer <token>'.
//  2. Verify signature and expiry.
//  3. Resolve the subject against the user store (bounded lookup).
//  4. Inject the [*sec.Principal] into the request context.
//
// Failures are 401 with stage-specific messages, except that a missing and a
// deactivated account produce the identical message so responses cannot be
// used for account enumeration.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal, authErr := a.resolve(request)
		if authErr != nil {
			a.emitFailure(request, authErr)
			a.responder.Error(writer, request, authErr)
			return
		}

		a.emitActivity(request, principal)
		next.ServeHTTP(writer, request.WithContext(ctxutil.WithPrincipal(request.Context(), principal)))
	})
}

// Optional runs the identical verification but never rejects: on any failure
// the request proceeds anonymously. Used by endpoints that personalize their
// response when an identity happens to be present.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal, authErr := a.resolve(request)
		if authErr != nil {
			a.emitFailure(request, authErr)
			next.ServeHTTP(writer, request)
			return
		}

		a.emitActivity(request, principal)
		next.ServeHTTP(writer, request.WithContext(ctxutil.WithPrincipal(request.Context(), principal)))
	})
}

// resolve performs header parsing, token verification, and principal lookup.
//
// Every failure is returned as an [*apperr.AppError]; the raw token string is
// never placed on an error or a log attribute.
func (a *Authenticator) resolve(request *http.Request) (*sec.Principal, *apperr.AppError) {

	// ── 1. Header format ──────────────────────────────────────────────────
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return nil, apperr.Unauthenticated("Access token required")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, apperr.Unauthenticated("Access token required")
	}

	// ── 2. Token verification ─────────────────────────────────────────────
	claims, err := a.verifier.VerifyToken(parts[1])
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, apperr.Unauthenticated("Token expired")
		}
		return nil, apperr.Unauthenticated("Invalid token")
	}

	// ── 3. Principal resolution (bounded) ─────────────────────────────────
	lookupCtx, cancel := context.WithTimeout(request.Context(), constants.PrincipalLookupTimeout)
	defer cancel()

	principal, err := a.store.FindPrincipal(lookupCtx, claims.Subject)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			// Same message as the inactive case below.
			return nil, apperr.Unauthenticated("Invalid or inactive user")
		}
		return nil, apperr.Internal(err)
	}

	if !principal.Active {
		return nil, apperr.Unauthenticated("Invalid or inactive user")
	}

	return principal, nil
}

func (a *Authenticator) emitFailure(request *http.Request, authErr *apperr.AppError) {
	a.sink.Emit(request.Context(), audit.Event{
		Category:    audit.CategoryAuthFailure,
		IP:          RealIP(request),
		Path:        request.URL.Path,
		UserAgent:   request.UserAgent(),
		Timestamp:   time.Now().UTC(),
		Fingerprint: request.Header.Get(constants.HeaderXDeviceFingerprint),
		Detail:      authErr.Message,
	})
}

func (a *Authenticator) emitActivity(request *http.Request, principal *sec.Principal) {
	a.sink.Emit(request.Context(), audit.Event{
		Category:    audit.CategoryActivity,
		IP:          RealIP(request),
		Path:        request.URL.Path,
		UserAgent:   request.UserAgent(),
		Timestamp:   time.Now().UTC(),
		Identity:    principal.ID,
		Fingerprint: request.Header.Get(constants.HeaderXDeviceFingerprint),
	})
}
