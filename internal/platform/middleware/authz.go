// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/sec"
)

// Authorizer restricts routes to an explicit set of roles.
type Authorizer struct {
	sink      audit.Sink
	responder *respond.Responder
}

// NewAuthorizer wires the audit sink used for denial events.
func NewAuthorizer(sink audit.Sink, responder *respond.Responder) *Authorizer {
	return &Authorizer{sink: sink, responder: responder}
}

// RequireRole admits only principals whose role is in the allowed set.
//
// Membership is exact: there is no implied ordering between roles, so a
// super_admin is rejected from an admin-only route unless super_admin is
// listed too. Routes that should admit both must name both.
func (a *Authorizer) RequireRole(allowed ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())
			if principal == nil {
				a.responder.Error(writer, request, apperr.Unauthenticated("Authentication required"))
				return
			}

			if !principal.Role.In(allowed...) {
				a.sink.Emit(request.Context(), audit.Event{
					Category:  audit.CategoryAuthzDenied,
					IP:        RealIP(request),
					Path:      request.URL.Path,
					UserAgent: request.UserAgent(),
					Timestamp: time.Now().UTC(),
					Identity:  principal.ID,
					Detail:    fmt.Sprintf("role %s not in %v", principal.Role, allowed),
				})
				a.responder.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
