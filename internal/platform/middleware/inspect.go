// Copyright (c) 2026 ExamGate. All rights reserved.

package middleware

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/sanitize"
)

// suspiciousPatterns are screened against the request path, raw query, and
// User-Agent. Matches are audit signals, not proof of attack; blocking is a
// deployment decision.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)union[\s+]+select`),
	regexp.MustCompile(`(?i)eval\(`),
	regexp.MustCompile(`(?i)document\.cookie`),
}

// Inspector screens requests for hostile payloads before they reach any
// business handler.
type Inspector struct {
	sink      audit.Sink
	responder *respond.Responder

	// block upgrades Screen from audit-only to rejecting matches with 403.
	block bool

	maxBodyBytes int64
}

// NewInspector builds the request screening stage.
func NewInspector(sink audit.Sink, responder *respond.Responder, block bool, maxBodyBytes int64) *Inspector {
	return &Inspector{sink: sink, responder: responder, block: block, maxBodyBytes: maxBodyBytes}
}

// Screen matches the request surface against the suspicious pattern set.
//
// Every match is recorded through the audit sink. In the default audit-only
// posture the request then proceeds; with blocking enabled it is rejected.
func (ins *Inspector) Screen(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// The query is matched in decoded form so percent-encoding does
		// not hide a payload.
		query := request.URL.RawQuery
		if decoded, err := url.QueryUnescape(query); err == nil {
			query = decoded
		}
		surface := request.URL.Path + "?" + query + " " + request.UserAgent()

		for _, pattern := range suspiciousPatterns {
			if !pattern.MatchString(surface) {
				continue
			}

			ins.sink.Emit(request.Context(), audit.Event{
				Category:  audit.CategorySuspicious,
				IP:        RealIP(request),
				Path:      request.URL.Path,
				UserAgent: request.UserAgent(),
				Timestamp: time.Now().UTC(),
				Detail:    "pattern " + pattern.String(),
			})

			if ins.block {
				ins.responder.Error(writer, request, apperr.Forbidden("Request rejected"))
				return
			}
			break
		}

		next.ServeHTTP(writer, request)
	})
}

// RequireJSON rejects state-changing requests whose body is not declared as
// JSON. Bodiless requests (DELETE without payload, for instance) pass.
func (ins *Inspector) RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !isStateChanging(request.Method) || !hasBody(request) {
			next.ServeHTTP(writer, request)
			return
		}

		mediaType, _, err := mime.ParseMediaType(request.Header.Get(constants.HeaderContentType))
		if err != nil || mediaType != "application/json" {
			ins.responder.Error(writer, request, apperr.ValidationError("Content-Type must be application/json"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// MaxBody caps the request body size.
//
// A declared Content-Length over the cap is rejected before any byte is read;
// chunked bodies are enforced incrementally by [http.MaxBytesReader], which
// surfaces downstream as an [*http.MaxBytesError] during decoding.
func (ins *Inspector) MaxBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.ContentLength > ins.maxBodyBytes {
			ins.responder.Error(writer, request, apperr.PayloadTooLarge(ins.maxBodyBytes))
			return
		}

		request.Body = http.MaxBytesReader(writer, request.Body, ins.maxBodyBytes)
		next.ServeHTTP(writer, request)
	})
}

// SanitizeBody normalizes JSON request bodies and query parameters in place.
//
// String values are NUL-stripped, trimmed, and Unicode-normalized; numbers
// keep their exact textual form. Non-JSON bodies pass through byte-identical
// so the upload path is unaffected.
func (ins *Inspector) SanitizeBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if query := request.URL.Query(); len(query) > 0 {
			for key, values := range query {
				for i, value := range values {
					values[i] = sanitize.CleanString(value)
				}
				query[key] = values
			}
			request.URL.RawQuery = query.Encode()
		}

		if !hasBody(request) || !declaresJSON(request) {
			next.ServeHTTP(writer, request)
			return
		}

		raw, err := io.ReadAll(request.Body)
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				ins.responder.Error(writer, request, apperr.PayloadTooLarge(maxBytesErr.Limit))
				return
			}
			ins.responder.Error(writer, request, apperr.ValidationError("Unable to read request body"))
			return
		}
		_ = request.Body.Close()

		if cleaned, ok := cleanJSON(raw); ok {
			raw = cleaned
		}

		request.Body = io.NopCloser(bytes.NewReader(raw))
		request.ContentLength = int64(len(raw))
		next.ServeHTTP(writer, request)
	})
}

// cleanJSON re-encodes a JSON document with every string scrubbed. Documents
// that fail to parse are left untouched for the decoder to reject with a
// proper validation error later.
func cleanJSON(raw []byte) ([]byte, bool) {
	value, err := sanitize.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false
	}

	cleaned, err := value.Clean().MarshalJSON()
	if err != nil {
		return nil, false
	}
	return cleaned, true
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func hasBody(request *http.Request) bool {
	return request.ContentLength > 0 || request.ContentLength == -1 && request.Body != nil && request.Body != http.NoBody
}

func declaresJSON(request *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(request.Header.Get(constants.HeaderContentType))
	return err == nil && mediaType == "application/json"
}
