// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/middleware"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/sec"
)

func runAuthz(t *testing.T, sink *recordingSink, principal *sec.Principal, allowed ...sec.Role) *httptest.ResponseRecorder {
	t.Helper()
	authz := middleware.NewAuthorizer(sink, respond.NewResponder(false))

	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	if principal != nil {
		request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))
	}
	recorder := httptest.NewRecorder()
	authz.RequireRole(allowed...)(handler).ServeHTTP(recorder, request)
	return recorder
}

/*
TestAuthorizer_RequireRole covers the exact-membership decision table,
including the non-hierarchical case: super_admin is denied from an
admin-only route.
*/
func TestAuthorizer_RequireRole(t *testing.T) {
	tests := []struct {
		name       string
		role       sec.Role
		allowed    []sec.Role
		wantStatus int
	}{
		{"student_allowed", sec.RoleStudent, []sec.Role{sec.RoleStudent}, http.StatusOK},
		{"admin_allowed", sec.RoleAdmin, []sec.Role{sec.RoleAdmin}, http.StatusOK},
		{"student_denied_admin_route", sec.RoleStudent, []sec.Role{sec.RoleAdmin}, http.StatusForbidden},
		{"super_admin_denied_admin_route", sec.RoleSuperAdmin, []sec.Role{sec.RoleAdmin}, http.StatusForbidden},
		{"admin_denied_super_route", sec.RoleAdmin, []sec.Role{sec.RoleSuperAdmin}, http.StatusForbidden},
		{"multi_role_set", sec.RoleSuperAdmin, []sec.Role{sec.RoleAdmin, sec.RoleSuperAdmin}, http.StatusOK},
		{"empty_set_denies_all", sec.RoleSuperAdmin, nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			principal := &sec.Principal{ID: "user-1", Role: tt.role, Active: true}

			recorder := runAuthz(t, sink, principal, tt.allowed...)

			assert.Equal(t, tt.wantStatus, recorder.Code)
			if tt.wantStatus == http.StatusForbidden {
				envelope := decodeEnvelope(t, recorder)
				assert.Equal(t, "Insufficient permissions", envelope["message"])

				denials := sink.byCategory(audit.CategoryAuthzDenied)
				require.Len(t, denials, 1)
				assert.Equal(t, "user-1", denials[0].Identity)
			} else {
				assert.Empty(t, sink.byCategory(audit.CategoryAuthzDenied))
			}
		})
	}
}

/*
TestAuthorizer_NoPrincipalIs401 distinguishes a missing identity (401) from a
present-but-unauthorized one (403).
*/
func TestAuthorizer_NoPrincipalIs401(t *testing.T) {
	sink := &recordingSink{}

	recorder := runAuthz(t, sink, nil, sec.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.Equal(t, "Authentication required", envelope["message"])
	assert.Empty(t, sink.byCategory(audit.CategoryAuthzDenied))
}
