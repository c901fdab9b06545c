// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package middleware provides the cross-cutting HTTP processing chain.

It acts as a series of decorators around the standard http.Handler, injecting
traceability, safety, and security into every request lifecycle.

Gate Pipeline (strict order, each stage may short-circuit):

  - Inspector: signature screening, content-type validation, body ceiling,
    input sanitization.
  - Limits: windowed rate limiting and speed limiting.
  - Authenticator: bearer-token verification and principal resolution.
  - SessionGuard: inactivity-timeout enforcement.
  - Authorizer: exact-set role checks.

Cross-cutting decorators (RequestID, StructuredLogger, PanicRecovery, CORS,
Throughput) wrap the pipeline. This package ensures that domain handlers can
focus purely on business logic without worrying about infrastructure-level
concerns.
*/
package middleware

import (
	"net"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/respond"
)

// # Request Tracing

// RequestID attaches a correlation ID to every request for log tracing.
//
// A client-provided X-Request-Id is echoed back as-is; otherwise a UUIDv7 is
// generated. The value is set on both the context and the response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check if the client already provided an ID
			requestID := request.Header.Get(constants.HeaderXRequestID)

			// 2. Generate a new one if missing (UUIDv7 for time-sortable properties)
			if requestID == "" {
				uuidV7, err := uuid.NewV7()
				if err != nil {
					requestID = uuid.New().String()
				} else {
					requestID = uuidV7.String()
				}
			}

			// 3. Inject into context and response headers
			ctx := ctxutil.WithRequestID(request.Context(), requestID)
			writer.Header().Set(constants.HeaderXRequestID, requestID)

			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Activity Logging

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

// StructuredLogger logs every request status and performance metrics.
// It also injects a request-specific logger into the context.
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			startTime := time.Now()
			rid := ctxutil.GetRequestID(request.Context())
			ip := RealIP(request)

			// 1. Create a sub-logger for this specific request
			requestLogger := logger.With(
				slog.String("request_id", rid),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", ip),
			)

			// 2. Inject this logger into the context for downstream use
			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			// 3. Proceed to downstream handlers with the enriched context
			next.ServeHTTP(wrappedWriter, request.WithContext(ctx))

			// 4. Final log entry after the request is finished
			latency := time.Since(startTime).Milliseconds()
			logLevel := slog.LevelInfo

			if wrappedWriter.status >= 500 {
				logLevel = slog.LevelError
			} else if wrappedWriter.status >= 400 {
				logLevel = slog.LevelWarn
			}

			logAttrs := []any{
				slog.Int("status", wrappedWriter.status),
				slog.Int64("latency_ms", latency),
				slog.String("user_agent", request.UserAgent()),
			}

			// Add principal_id if the request is authenticated
			if principal := ctxutil.GetPrincipal(ctx); principal != nil {
				logAttrs = append(logAttrs, slog.String("principal_id", principal.ID))
			}

			requestLogger.Log(ctx, logLevel, "http_request_finished", logAttrs...)
		})
	}
}

// # Throughput Guard

type throughputClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throughput caps per-IP requests per second using a token bucket.
//
// This is the coarse anti-flood guard in front of the windowed policy
// limiters: it smooths bursts rather than enforcing the per-endpoint quotas.
type Throughput struct {
	responder *respond.Responder

	mu      sync.Mutex
	clients map[string]*throughputClient
	rps     rate.Limit
	burst   int
}

// NewThroughput creates the guard and starts its idle-entry sweeper. The
// sweeper stops when the done channel closes.
func NewThroughput(responder *respond.Responder, done <-chan struct{}) *Throughput {
	guard := &Throughput{
		responder: responder,
		clients:   make(map[string]*throughputClient),
		rps:       rate.Limit(constants.DefaultThroughputRPS),
		burst:     constants.DefaultThroughputBurst,
	}

	go func() {
		ticker := time.NewTicker(constants.ThroughputCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				guard.mu.Lock()
				for ip, client := range guard.clients {
					if time.Since(client.lastSeen) > constants.ThroughputClientTTL {
						delete(guard.clients, ip)
					}
				}
				guard.mu.Unlock()
			case <-done:
				return
			}
		}
	}()

	return guard
}

// Handler is the middleware entry point.
func (guard *Throughput) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		clientIP := RealIP(request)

		guard.mu.Lock()
		client, found := guard.clients[clientIP]
		if !found {
			client = &throughputClient{limiter: rate.NewLimiter(guard.rps, guard.burst)}
			guard.clients[clientIP] = client
		}
		client.lastSeen = time.Now()
		allowed := client.limiter.Allow()
		guard.mu.Unlock()

		if !allowed {
			guard.responder.Error(writer, request, apperr.RateLimited("Rate limit exceeded", 1))
			return
		}

		next.ServeHTTP(writer, request)
	})
}

// # Reliability & Safety

// PanicRecovery recovers from panics, logs the stack trace, and returns 500.
func PanicRecovery(responder *respond.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			defer func() {
				if recovered := recover(); recovered != nil {

					stackTrace := make([]byte, 4096)
					length := runtime.Stack(stackTrace, false)

					reqLogger := ctxutil.GetLogger(request.Context())
					reqLogger.ErrorContext(request.Context(), "panic_recovered",
						slog.Any("error", recovered),
						slog.String("stack", string(stackTrace[:length])),
					)

					responder.Error(writer, request, apperr.Internal(panicError{recovered}))
				}
			}()

			next.ServeHTTP(writer, request)
		})
	}
}

// panicError wraps a recovered panic value so it can travel as an error.
type panicError struct{ value any }

func (e panicError) Error() string { return "panic in handler" }

// # Cross-Origin Resource Sharing

// AppConfig defines the behavior needed by the CORS middleware.
type AppConfig interface {
	IsDevelopment() bool
	AllowedCORSOrigins() []string
}

// CORS handles Cross-Origin Resource Sharing based on application environment.
//
// Development allows any origin; production allows only the configured list.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Check the Origin header
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. Check if the origin is allowed (strict in PROD, open in DEV)
			isAllowed := cfg.IsDevelopment()
			if !isAllowed {
				for _, allowed := range cfg.AllowedCORSOrigins() {
					if strings.EqualFold(origin, allowed) {
						isAllowed = true
						break
					}
				}
			}

			// 3. Inject standard CORS headers if authorized
			if isAllowed {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-Id, X-Device-Fingerprint")
				header.Set("Access-Control-Expose-Headers", "Content-Length, X-Request-Id, Retry-After")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
			}

			// 4. Handle pre-flight requests (OPTIONS)
			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Middleware Helpers

// RealIP extracts the client IP, respecting common proxy headers.
func RealIP(request *http.Request) string {

	// Check standard proxy headers first
	if ip := request.Header.Get(constants.HeaderXRealIP); ip != "" {
		return ip
	}

	if forwarded := request.Header.Get(constants.HeaderXForwardedFor); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	// Fallback to the direct connection's address
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return request.RemoteAddr
	}
	return host
}
