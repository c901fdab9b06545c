// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package respond is the single translation point between application errors
and the HTTP wire format.

# Architecture

Every component in the pipeline signals failure with an [apperr.AppError];
nothing else ever writes an error response. This package maps the error to its
status code, emits the structured log line, and renders the stable JSON
envelope:

	{status, message, code, requestId, timestamp}

In development mode the envelope additionally carries the internal detail and
a stack trace. Production responses never include either, and non-operational
(Internal) errors have their message replaced by a generic one.
*/
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/ctxutil"
)

// genericMessage replaces non-operational error messages outside development.
const genericMessage = "An unexpected error occurred"

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Data interface{} `json:"data"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Status     int                 `json:"status"`
	Message    string              `json:"message"`
	Code       apperr.Kind         `json:"code"`
	RequestID  string              `json:"requestId"`
	Timestamp  time.Time           `json:"timestamp"`
	RetryAfter int                 `json:"retryAfter,omitempty"`
	Details    []apperr.FieldError `json:"details,omitempty"`

	// Development-only diagnostics. Never populated in production.
	Detail string `json:"detail,omitempty"`
	Stack  string `json:"stack,omitempty"`
}

// Responder renders responses according to the runtime mode.
//
// A single instance is constructed in main and injected into every handler
// and middleware that writes to the wire.
type Responder struct {
	development bool
}

// NewResponder creates a responder. Development mode enables error detail
// and stack traces in the envelope.
func NewResponder(development bool) *Responder {
	return &Responder{development: development}
}

// JSON writes a JSON response with the given status code.
func (rs *Responder) JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set(constants.HeaderContentType, "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func (rs *Responder) OK(writer http.ResponseWriter, data interface{}) {
	rs.JSON(writer, http.StatusOK, SuccessEnvelope{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func (rs *Responder) Created(writer http.ResponseWriter, data interface{}) {
	rs.JSON(writer, http.StatusCreated, SuccessEnvelope{Data: data})
}

// NoContent writes a 204 No Content response.
func (rs *Responder) NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into the standardized JSON error response.
//
// Unrecognized errors are translated to Internal here, never passed through
// raw; the original stays in the log line only.
func (rs *Responder) Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		appError = apperr.Internal(err)
	}

	requestID := ctxutil.GetRequestID(request.Context())
	rs.logError(request, appError, requestID)

	message := appError.Message
	if !appError.Operational && !rs.development {
		message = genericMessage
	}

	envelope := ErrorEnvelope{
		Status:     appError.HTTPStatus,
		Message:    message,
		Code:       appError.Kind,
		RequestID:  requestID,
		Timestamp:  time.Now().UTC(),
		RetryAfter: appError.RetryAfter,
		Details:    appError.Details,
	}

	if rs.development && appError.Cause != nil {
		envelope.Detail = appError.Cause.Error()
		if appError.HTTPStatus >= 500 {
			envelope.Stack = captureStack()
		}
	}

	if appError.Kind == apperr.KindRateLimit && appError.RetryAfter > 0 {
		writer.Header().Set(constants.HeaderRetryAfter, strconv.Itoa(appError.RetryAfter))
	}

	rs.JSON(writer, appError.HTTPStatus, envelope)
}

// logError emits the structured log entry for the failure.
//
// Severity follows the response class: 5xx as error with cause and stack,
// 4xx as warning without a stack.
func (rs *Responder) logError(request *http.Request, appError *apperr.AppError, requestID string) {
	logger := ctxutil.GetLogger(request.Context())

	attrs := []any{
		slog.Int("status", appError.HTTPStatus),
		slog.String("code", string(appError.Kind)),
		slog.String("request_id", requestID),
		slog.String("method", request.Method),
		slog.String("path", request.URL.Path),
		slog.String("user_agent", request.UserAgent()),
	}
	if principal := ctxutil.GetPrincipal(request.Context()); principal != nil {
		attrs = append(attrs, slog.String("principal_id", principal.ID))
	}

	if appError.HTTPStatus >= 500 {
		attrs = append(attrs, slog.Any("cause", appError.Cause), slog.String("stack", captureStack()))
		logger.ErrorContext(request.Context(), "api_server_error", attrs...)
		return
	}

	logger.WarnContext(request.Context(), "api_client_error", attrs...)
}

// captureStack grabs the current goroutine's stack for diagnostics.
func captureStack() string {
	buffer := make([]byte, 4096)
	length := runtime.Stack(buffer, false)
	return string(buffer[:length])
}
