package cognitoauth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-cognito/cognitoauth/core"
	"github.com/go-cognito/cognitoauth/validator"
)

// ErrorHandler is called when the Middleware does not authorize a request.
// It determines the response the client receives. The err can be checked
// with errors.Is against core.ErrTokenMissing, core.ErrPrincipalNotFound,
// core.ErrValidationFailed and the validator sentinels.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// StatusCode maps an authorization error to an HTTP status: 400 for a
// missing token, 401 for a token that does not authorize anyone and 500
// for everything else.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, core.ErrTokenMissing):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrPrincipalNotFound), errors.Is(err, core.ErrValidationFailed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse describes err without leaking the underlying library
// errors to the client.
func NewErrorResponse(err error) ErrorResponse {
	response := ErrorResponse{Message: "Something went wrong while checking the token."}

	var authErr *core.AuthorizationError
	if errors.As(err, &authErr) {
		response.Message = authErr.Message
		response.Code = authErr.Code
	}

	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		response.Reason = string(validationErr.Reason)
	}

	return response
}

// DefaultErrorHandler is the default error handler implementation for the
// Middleware. If an error handler is not provided via the WithErrorHandler
// option this will be used.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status := StatusCode(err)

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(NewErrorResponse(err))
}
