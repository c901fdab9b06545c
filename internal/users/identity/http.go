// Copyright (c) 2026 ExamGate. All rights reserved.

/*
HTTP delivery layer for the account domain.

The handler acts as a thin mediation layer between the web and domain
services:
  - Protocol: Standard RESTful JSON interface.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, JSON).
*/

package identity

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/examgate/examgate/internal/platform/request"
	"github.com/examgate/examgate/internal/platform/respond"
	"github.com/examgate/examgate/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements account-related HTTP endpoints.
type Handler struct {
	service   *Service
	responder *respond.Responder
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, responder *respond.Responder) *Handler {
	return &Handler{service: service, responder: responder}
}

// PublicRoutes returns the unauthenticated account endpoints.
//
// # Endpoints
//   - POST /register : Creates a new student account.
//   - POST /login    : Authenticates and returns a JWT.
func (handler *Handler) PublicRoutes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)

	return router
}

// Me handles GET /me for the authenticated account.
func (handler *Handler) Me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	user, err := handler.service.Profile(request.Context(), principal.ID)
	if err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	handler.responder.OK(writer, user)
}

// Stats handles GET /stats for the admin dashboard.
func (handler *Handler) Stats(writer http.ResponseWriter, request *http.Request) {
	stats, err := handler.service.Stats(request.Context())
	if err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	handler.responder.OK(writer, stats)
}

// Deactivate handles POST /users/{id}/deactivate.
func (handler *Handler) Deactivate(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	validator.Required("id", id).UUID("id", id)
	if err := validator.Err(); err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	if err := handler.service.Deactivate(request.Context(), id); err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	handler.responder.NoContent(writer)
}

// # Request Payloads

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        *User  `json:"user"`
}

/*
register handles the creation of a new student account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, FullName)

Response:
  - 201: User: Created account profile
  - 400: Bad input or validation failure
  - 409: Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldFullName, input.FullName).
		MaxLen(FieldFullName, input.FullName, 120)

	if err := validator.Err(); err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	user, err := handler.service.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
	})
	if err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	handler.responder.Created(writer, user)
}

/*
login authenticates an account and issues an access token.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: loginResponse: Bearer token and account profile
  - 400: Bad input or validation failure
  - 401: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	session, err := handler.service.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		handler.responder.Error(writer, request, err)
		return
	}

	handler.responder.OK(writer, loginResponse{
		AccessToken: session.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   session.ExpiresIn,
		User:        session.User,
	})
}
