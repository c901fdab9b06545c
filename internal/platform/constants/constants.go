// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, header names, and cross-cutting keys that are
shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Collaborator Timing: Bounded deadlines for user-store calls made inside
    the middleware pipeline.
  - Security: JWT issuer, header names, rate-limit key prefixes.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "examgate-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Collaborator Timing
//
// The pipeline makes exactly two network calls: the principal lookup during
// token verification and the activity-timestamp write during session
// enforcement. Both are bounded so a slow user store cannot stall requests.

const (
	// PrincipalLookupTimeout bounds the user-store read in the authenticator.
	PrincipalLookupTimeout = 3 * time.Second

	// ActivityWriteTimeout bounds the last-activity write in the session guard.
	ActivityWriteTimeout = 3 * time.Second
)

// # Throughput Guard

const (
	// DefaultThroughputRPS is the requests per second allowed per IP by the
	// token-bucket throughput guard (distinct from the windowed policies).
	DefaultThroughputRPS = 100.0

	// DefaultThroughputBurst is the maximum burst allowed per IP.
	DefaultThroughputBurst = 150

	// ThroughputCleanupInterval is how often idle IP entries are removed from memory.
	ThroughputCleanupInterval = 1 * time.Minute

	// ThroughputClientTTL is how long a client must be idle before its entry is deleted.
	ThroughputClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "examgate.app"

	// CredentialFallbackKey is the placeholder used in credential-scoped
	// rate-limit keys when the request body carries no credential field.
	// All such requests from one client IP share a single bucket.
	CredentialFallbackKey = "no-credential"
)

// # Header Names

const (
	HeaderAuthorization      = "Authorization"
	HeaderXRequestID         = "X-Request-Id"
	HeaderXRealIP            = "X-Real-IP"
	HeaderXForwardedFor      = "X-Forwarded-For"
	HeaderXDeviceFingerprint = "X-Device-Fingerprint"
	HeaderOrigin             = "Origin"
	HeaderRetryAfter         = "Retry-After"
	HeaderContentType        = "Content-Type"
)

// # Rate-Limit Key Prefixes

const (
	RateKeyPrefixAuth   = "rl:auth:"
	RateKeyPrefixAPI    = "rl:api:"
	RateKeyPrefixUpload = "rl:upload:"

	// RateKeyPrefixSlowDown namespaces the tarpit counter so it never
	// collides with the hard-limit buckets.
	RateKeyPrefixSlowDown = "sd:auth:"
)
