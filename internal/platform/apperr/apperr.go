// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package apperr defines the centralized error taxonomy for ExamGate.

Every failure produced anywhere in the request pipeline is represented as one
of seven [Kind] values before it reaches the HTTP boundary. The respond
package is the single place that turns an [AppError] into a wire response.

Architecture:

  - AppError: A struct carrying a Kind, a client-safe message, and an HTTP status.
  - Operational flag: Distinguishes expected failures (safe to report verbatim)
    from unexpected internal ones whose raw message must never reach a client.
  - Mapping: Explicit Kind -> HTTP status mapping, never inferred.

Foreign errors (pgx, jwt, JSON decoding) must be translated into the nearest
Kind at the boundary where they occur; raw errors never cross package lines
upward.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an [AppError] into one of the seven failure categories
// recognized by the platform.
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "AUTHENTICATION"
	KindAuthorization  Kind = "AUTHORIZATION"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindRateLimit      Kind = "RATE_LIMIT"
	KindInternal       Kind = "INTERNAL"
)

// HTTPStatus returns the canonical HTTP status code for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the canonical error type for the ExamGate API.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to
// clients. When Operational is false the Message itself is also withheld in
// production and replaced by a generic one.
type AppError struct {
	// Kind is the machine-readable failure category.
	Kind Kind `json:"code"`
	// Message is a human-readable description safe to return to the client
	// for operational errors.
	Message string `json:"message"`
	// HTTPStatus is the HTTP response status code. Usually Kind.HTTPStatus(),
	// but a constructor may override it (e.g. 413 for an oversized payload).
	HTTPStatus int `json:"-"`
	// Operational reports whether this is an expected, client-reportable
	// failure. Non-operational errors indicate bugs or infrastructure faults.
	Operational bool `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// RetryAfter is the number of seconds a rate-limited caller should wait.
	// Only set for KindRateLimit.
	RetryAfter int `json:"retryAfter,omitempty"`
	// Details holds per-field validation errors for VALIDATION responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Kind:        KindValidation,
		Message:     msg,
		HTTPStatus:  KindValidation.HTTPStatus(),
		Operational: true,
		Details:     details,
	}
}

// Unauthenticated creates a 401 [AppError].
func Unauthenticated(msg string) *AppError {
	return &AppError{
		Kind:        KindAuthentication,
		Message:     msg,
		HTTPStatus:  KindAuthentication.HTTPStatus(),
		Operational: true,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Kind:        KindAuthorization,
		Message:     msg,
		HTTPStatus:  KindAuthorization.HTTPStatus(),
		Operational: true,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Exam") // Returns "Exam not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Kind:        KindNotFound,
		Message:     resource + " not found",
		HTTPStatus:  KindNotFound.HTTPStatus(),
		Operational: true,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Kind:        KindConflict,
		Message:     msg,
		HTTPStatus:  KindConflict.HTTPStatus(),
		Operational: true,
	}
}

// RateLimited creates a 429 [AppError] carrying the retry-after hint.
func RateLimited(msg string, retryAfterSeconds int) *AppError {
	if msg == "" {
		msg = fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds)
	}
	return &AppError{
		Kind:        KindRateLimit,
		Message:     msg,
		HTTPStatus:  KindRateLimit.HTTPStatus(),
		Operational: true,
		RetryAfter:  retryAfterSeconds,
	}
}

// PayloadTooLarge creates a 413 [AppError] for bodies exceeding the
// configured byte ceiling. It is Validation-kind with a non-default status.
func PayloadTooLarge(maxBytes int64) *AppError {
	return &AppError{
		Kind:        KindValidation,
		Message:     fmt.Sprintf("Request body exceeds the %d byte limit", maxBytes),
		HTTPStatus:  http.StatusRequestEntityTooLarge,
		Operational: true,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Kind:        KindInternal,
		Message:     "An unexpected error occurred",
		HTTPStatus:  KindInternal.HTTPStatus(),
		Operational: false,
		Cause:       cause,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsKind reports whether err carries an [*AppError] of the given kind.
func IsKind(err error, kind Kind) bool {
	ae := As(err)
	return ae != nil && ae.Kind == kind
}
