// Copyright (c) 2026 ExamGate. All rights reserved.

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/examgate/examgate/internal/platform/apperr"
	"github.com/examgate/examgate/internal/platform/ctxutil"
	"github.com/examgate/examgate/internal/platform/sanitize"
	"github.com/examgate/examgate/internal/platform/sec"
	"github.com/examgate/examgate/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

A body that exceeds the configured size cap surfaces here as an
[*http.MaxBytesError] and is translated to a 413; any other decode failure
becomes validate.ErrInvalidJSON.
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return apperr.PayloadTooLarge(maxBytesErr.Limit)
		}
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request, scrubbed of control
characters and surrounding whitespace.
*/
func Param(request *http.Request, name string) string {
	return sanitize.CleanString(chi.URLParam(request, name))
}

/*
Principal extracts the authenticated principal from the request context.

Returns nil if the request is not authenticated.
*/
func Principal(request *http.Request) *sec.Principal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the
principal.

Returns:
  - *sec.Principal: The authenticated principal
  - error: apperr 401 if the request is not authenticated
*/
func RequiredPrincipal(request *http.Request) (*sec.Principal, error) {
	principal := ctxutil.GetPrincipal(request.Context())
	if principal == nil {
		return nil, apperr.Unauthenticated("Authentication required")
	}
	return principal, nil
}

/*
RequiredUserID returns the account ID of the currently logged-in user.

Returns:
  - string: Account UUID
  - error: apperr 401 if not authenticated
*/
func RequiredUserID(request *http.Request) (string, error) {
	principal, err := RequiredPrincipal(request)
	if err != nil {
		return "", err
	}
	return principal.ID, nil
}
