// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/middleware"
	"github.com/examgate/examgate/internal/platform/respond"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestInspector_Screen_AuditOnly records suspicious requests without blocking
them in the default posture.
*/
func TestInspector_Screen_AuditOnly(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		userAgent  string
		suspicious bool
	}{
		{"clean_request", "/api/v1/exams?page=2", "Mozilla/5.0", false},
		{"path_traversal", "/api/v1/files?name=../../etc/passwd", "", true},
		{"script_tag", "/api/v1/search?q=%3Cscript%3Ealert(1)%3C/script%3E", "", true},
		{"sql_union", "/api/v1/exams?id=1+UNION+SELECT+password", "", true},
		{"eval_call", "/api/v1/exams?cb=eval(payload)", "", true},
		{"cookie_theft_agent", "/api/v1/exams", "probe document.cookie stealer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			inspector := middleware.NewInspector(sink, respond.NewResponder(false), false, 1<<20)

			request := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.userAgent != "" {
				request.Header.Set("User-Agent", tt.userAgent)
			}
			recorder := httptest.NewRecorder()

			inspector.Screen(okHandler()).ServeHTTP(recorder, request)

			// Audit-only: the request always proceeds.
			assert.Equal(t, http.StatusOK, recorder.Code)

			flagged := sink.byCategory(audit.CategorySuspicious)
			if tt.suspicious {
				require.Len(t, flagged, 1)
				assert.NotEmpty(t, flagged[0].Detail)
			} else {
				assert.Empty(t, flagged)
			}
		})
	}
}

/*
TestInspector_Screen_BlockingMode rejects flagged requests when blocking is
enabled.
*/
func TestInspector_Screen_BlockingMode(t *testing.T) {
	sink := &recordingSink{}
	inspector := middleware.NewInspector(sink, respond.NewResponder(false), true, 1<<20)

	request := httptest.NewRequest(http.MethodGet, "/api/v1/files?name=../../secret", nil)
	recorder := httptest.NewRecorder()

	inspector.Screen(okHandler()).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Len(t, sink.byCategory(audit.CategorySuspicious), 1)
}

/*
TestInspector_RequireJSON validates the content-type gate on state-changing
requests.
*/
func TestInspector_RequireJSON(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
	}{
		{"json_post", http.MethodPost, "application/json", `{}`, http.StatusOK},
		{"json_with_charset", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"form_post_rejected", http.MethodPost, "application/x-www-form-urlencoded", "a=1", http.StatusBadRequest},
		{"missing_type_rejected", http.MethodPost, "", `{}`, http.StatusBadRequest},
		{"get_exempt", http.MethodGet, "", "", http.StatusOK},
		{"bodiless_delete_exempt", http.MethodDelete, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inspector := middleware.NewInspector(&recordingSink{}, respond.NewResponder(false), false, 1<<20)

			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			request := httptest.NewRequest(tt.method, "/api/v1/exams", body)
			if tt.contentType != "" {
				request.Header.Set("Content-Type", tt.contentType)
			}
			recorder := httptest.NewRecorder()

			inspector.RequireJSON(okHandler()).ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

/*
TestInspector_MaxBody rejects oversized declared bodies up front with 413 and
the configured limit in the message.
*/
func TestInspector_MaxBody(t *testing.T) {
	inspector := middleware.NewInspector(&recordingSink{}, respond.NewResponder(false), false, 64)

	request := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader(strings.Repeat("x", 200)))
	recorder := httptest.NewRecorder()

	inspector.MaxBody(okHandler()).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusRequestEntityTooLarge, recorder.Code)
}

/*
TestInspector_MaxBody_UnderLimit wraps the body without interfering with a
request inside the cap.
*/
func TestInspector_MaxBody_UnderLimit(t *testing.T) {
	inspector := middleware.NewInspector(&recordingSink{}, respond.NewResponder(false), false, 64)

	var received string
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		raw, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		received = string(raw)
		writer.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", strings.NewReader("hello"))
	recorder := httptest.NewRecorder()

	inspector.MaxBody(handler).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "hello", received)
}

/*
TestInspector_SanitizeBody scrubs JSON string fields while preserving numeric
precision and non-string types.
*/
func TestInspector_SanitizeBody(t *testing.T) {
	inspector := middleware.NewInspector(&recordingSink{}, respond.NewResponder(false), false, 1<<20)

	var received map[string]any
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		decoder := json.NewDecoder(request.Body)
		decoder.UseNumber()
		require.NoError(t, decoder.Decode(&received))
		writer.WriteHeader(http.StatusOK)
	})

	body := "{\"name\":\"  Alice\\u0000 \",\"score\":99.5,\"tags\":[\" a \",\"b\"],\"active\":true}"
	request := httptest.NewRequest(http.MethodPost, "/api/v1/exams", strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()

	inspector.SanitizeBody(handler).ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Alice", received["name"])
	assert.Equal(t, json.Number("99.5"), received["score"])
	assert.Equal(t, []any{"a", "b"}, received["tags"])
	assert.Equal(t, true, received["active"])
}

/*
TestInspector_SanitizeBody_Query scrubs query parameter values in place.
*/
func TestInspector_SanitizeBody_Query(t *testing.T) {
	inspector := middleware.NewInspector(&recordingSink{}, respond.NewResponder(false), false, 1<<20)

	var got string
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		got = request.URL.Query().Get("q")
		writer.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodGet, "/api/v1/exams?q=%20%20algebra%00%20", nil)
	recorder := httptest.NewRecorder()

	inspector.SanitizeBody(handler).ServeHTTP(recorder, request)

	assert.Equal(t, "algebra", got)
}

/*
TestInspector_SanitizeBody_NonJSONPassthrough leaves a malformed body
byte-identical for the downstream decoder to reject.
*/
func TestInspector_SanitizeBody_NonJSONPassthrough(t *testing.T) {
	inspector := middleware.NewInspector(&recordingSink{}, respond.NewResponder(false), false, 1<<20)

	var received string
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		raw, err := io.ReadAll(request.Body)
		require.NoError(t, err)
		received = string(raw)
		writer.WriteHeader(http.StatusOK)
	})

	request := httptest.NewRequest(http.MethodPost, "/api/v1/exams", strings.NewReader("not json at all"))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()

	inspector.SanitizeBody(handler).ServeHTTP(recorder, request)

	assert.Equal(t, "not json at all", received)
}
