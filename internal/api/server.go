// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package api wires together the HTTP router, the protection pipeline, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.

# Protection Pipeline

Every request flows through the stages in a fixed order: screening and body
limits first, then rate limiting, then token verification, session
enforcement, and finally role authorization. A request rejected by an early
stage never reaches a later one.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/examgate/examgate/internal/platform/audit"
	"github.com/examgate/examgate/internal/platform/config"
	"github.com/examgate/examgate/internal/platform/constants"
	"github.com/examgate/examgate/internal/platform/middleware"
	"github.com/examgate/examgate/internal/platform/ratelimit"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/sec"
	"github.com/examgate/examgate/internal/users/identity"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Dependency Registry

// Dependencies groups everything the composition root needs.
//
// # Usage
//
// New domains add a field here; no other change to server.go is required.
type Dependencies struct {
	// Verifier validates bearer tokens.
	Verifier middleware.TokenVerifier

	// Principals resolves account IDs and records activity.
	Principals middleware.PrincipalStore

	// Counter backs every fixed-window rate limit bucket.
	Counter ratelimit.Counter

	// Sink receives security audit events.
	Sink audit.Sink

	// Responder shapes every success and error payload.
	Responder *respond.Responder

	// Liveness is the /health handler, always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 only when all deps are healthy.
	Readiness http.HandlerFunc

	// Identity handles account routes (login, register, profile, admin).
	Identity *identity.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full protection pipeline and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, deps Dependencies) *Server {
	r := chi.NewRouter()

	authn := middleware.NewAuthenticator(deps.Verifier, deps.Principals, deps.Sink, deps.Responder)
	session := middleware.NewSessionGuard(deps.Principals, cfg.SessionIdleTimeout, deps.Responder)
	authz := middleware.NewAuthorizer(deps.Sink, deps.Responder)
	inspector := middleware.NewInspector(deps.Sink, deps.Responder, cfg.SuspiciousBlock, cfg.MaxBodyBytes)

	authLimit := middleware.WindowLimit(
		ratelimit.NewLimiter(deps.Counter, ratelimit.Policy{
			Window:  cfg.AuthRateWindow,
			Max:     int64(cfg.AuthRateMax),
			Message: "Too many authentication attempts, please try again later",
		}),
		middleware.CredentialKey(constants.RateKeyPrefixAuth, identity.FieldEmail),
		deps.Sink, deps.Responder,
	)
	apiLimit := middleware.WindowLimit(
		ratelimit.NewLimiter(deps.Counter, ratelimit.Policy{
			Window:  cfg.APIRateWindow,
			Max:     int64(cfg.APIRateMax),
			Message: "Too many requests, please slow down",
		}),
		middleware.IPKey(constants.RateKeyPrefixAPI),
		deps.Sink, deps.Responder,
	)
	uploadLimit := middleware.WindowLimit(
		ratelimit.NewLimiter(deps.Counter, ratelimit.Policy{
			Window:  cfg.UploadRateWindow,
			Max:     int64(cfg.UploadRateMax),
			Message: "Upload limit reached, please try again later",
		}),
		middleware.IPKey(constants.RateKeyPrefixUpload),
		deps.Sink, deps.Responder,
	)
	slowDown := middleware.NewSlowDown(
		deps.Counter, cfg.AuthRateWindow, int64(cfg.SlowDownAfter), cfg.SlowDownStep, cfg.SlowDownMax,
	)

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.NewThroughput(deps.Responder, ctx.Done()).Handler)
	r.Use(middleware.PanicRecovery(deps.Responder))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)
	r.Use(inspector.Screen)
	r.Use(inspector.MaxBody)
	r.Use(inspector.RequireJSON)
	r.Use(inspector.SanitizeBody)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", deps.Liveness)
	r.Get("/ready", deps.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {

		// Credential endpoints carry the strictest budget plus a tarpit.
		api.Group(func(auth chi.Router) {
			auth.Use(authLimit)
			auth.Use(slowDown.Throttle(middleware.IPKey(constants.RateKeyPrefixSlowDown)))
			auth.Mount("/auth", deps.Identity.PublicRoutes())
		})

		// Authenticated surface under the general API budget.
		api.Group(func(private chi.Router) {
			private.Use(apiLimit)
			private.Use(authn.Require)
			private.Use(session.Enforce)

			private.Get("/auth/me", deps.Identity.Me)

			private.Route("/admin", func(admin chi.Router) {
				admin.With(authz.RequireRole(sec.RoleAdmin)).Get("/stats", deps.Identity.Stats)
				admin.With(authz.RequireRole(sec.RoleAdmin)).Post("/users/{id}/deactivate", deps.Identity.Deactivate)
				admin.With(authz.RequireRole(sec.RoleSuperAdmin)).Get("/system", systemInfo(deps.Responder))
			})
		})

		// Uploads get their own budget on top of authentication.
		api.Group(func(uploads chi.Router) {
			uploads.Use(uploadLimit)
			uploads.Use(authn.Require)
			uploads.Use(session.Enforce)
			uploads.Post("/uploads", acceptUpload(deps.Responder))
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the configured router for in-process testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
