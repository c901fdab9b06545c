// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package audit produces immutable security-event records for external collectors.

Every authentication failure, authorization denial, rate-limit rejection, and
suspicious-pattern match emits an [Event]. This layer never stores events; it
hands them to a [Sink]. The default sink writes structured slog lines so the
events land in the same stream as request logs and can be shipped from there.

Events never contain token material or passwords. Callers pass identities
(user id, attempted login) only where the value is already known to the
platform, never raw secrets.
*/
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Category classifies a security event.
type Category string

const (
	// CategoryAuthFailure covers every failed token verification.
	CategoryAuthFailure Category = "auth_failure"

	// CategoryAuthzDenied covers insufficient-role rejections.
	CategoryAuthzDenied Category = "authz_denied"

	// CategoryActivity covers successful authenticated requests.
	CategoryActivity Category = "activity"

	// CategoryRateLimited covers windowed-limit rejections.
	CategoryRateLimited Category = "rate_limited"

	// CategorySuspicious covers signature matches on path or user agent.
	CategorySuspicious Category = "suspicious"
)

// Event is an immutable security log record.
type Event struct {
	Category  Category  `json:"category"`
	IP        string    `json:"ip"`
	Path      string    `json:"path"`
	UserAgent string    `json:"user_agent"`
	Timestamp time.Time `json:"timestamp"`

	// Identity is the related account id or attempted login, when known.
	Identity string `json:"identity,omitempty"`

	// Fingerprint is the opaque X-Device-Fingerprint header value, recorded
	// for correlation only. It is never a security decision input.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Detail carries category-specific context (matched signature, required
	// roles). Free-form but always client-invisible.
	Detail string `json:"detail,omitempty"`
}

// Sink receives events. Implementations must be safe for concurrent use and
// must not block the request path for long; slow transports belong behind a
// buffering implementation.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// # Slog Sink

// SlogSink writes events as structured warn-level log lines.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink logging through the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Emit implements [Sink].
func (sink *SlogSink) Emit(ctx context.Context, event Event) {
	level := slog.LevelWarn
	if event.Category == CategoryActivity {
		level = slog.LevelInfo
	}

	attrs := []any{
		slog.String("category", string(event.Category)),
		slog.String("ip", event.IP),
		slog.String("path", event.Path),
		slog.String("user_agent", event.UserAgent),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.Identity != "" {
		attrs = append(attrs, slog.String("identity", event.Identity))
	}
	if event.Fingerprint != "" {
		attrs = append(attrs, slog.String("fingerprint", event.Fingerprint))
	}
	if event.Detail != "" {
		attrs = append(attrs, slog.String("detail", event.Detail))
	}

	sink.logger.Log(ctx, level, "security_event", attrs...)
}

// # No-op Sink

// NoOpSink discards events. Used when auditing is disabled in tests.
type NoOpSink struct{}

// Emit implements [Sink].
func (NoOpSink) Emit(context.Context, Event) {}
