package core

import "errors"

// Sentinel errors for request authorization.
var (
	// ErrTokenMissing is returned when the request carries no token.
	ErrTokenMissing = errors.New("no token found in header")

	// ErrPrincipalNotFound is returned when the token's claims name no user.
	ErrPrincipalNotFound = errors.New("principal not found in token")

	// ErrValidationFailed is returned when the token fails validation.
	// The *validator.ValidationError is available through errors.As.
	ErrValidationFailed = errors.New("token validation failed")

	// ErrConfigInvalid is returned by New for an incomplete configuration.
	ErrConfigInvalid = errors.New("authorizer configuration invalid")

	// ErrPrincipalNotInContext is returned when no principal was stored in
	// the context.
	ErrPrincipalNotInContext = errors.New("principal not found in context")
)

// Error codes
const (
	ErrorCodeTokenMissing      = "token_missing"
	ErrorCodePrincipalNotFound = "principal_not_found"
	ErrorCodeValidationFailed  = "validation_failed"
	ErrorCodeConfigInvalid     = "config_invalid"
)

var codeErrors = map[string]error{
	ErrorCodeTokenMissing:      ErrTokenMissing,
	ErrorCodePrincipalNotFound: ErrPrincipalNotFound,
	ErrorCodeValidationFailed:  ErrValidationFailed,
	ErrorCodeConfigInvalid:     ErrConfigInvalid,
}

// AuthorizationError describes why a request was not authorized.
// It provides structured error information that can be used for
// logging, metrics, and returning appropriate error responses.
type AuthorizationError struct {
	// Code is a machine-readable error code (e.g., "token_missing", "validation_failed")
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *AuthorizationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AuthorizationError) Unwrap() error {
	return e.Details
}

// Is allows the error to be compared with the sentinel of its code.
func (e *AuthorizationError) Is(target error) bool {
	sentinel, ok := codeErrors[e.Code]
	return ok && target == sentinel
}

// NewAuthorizationError creates a new AuthorizationError with the given code and message.
func NewAuthorizationError(code, message string, details error) *AuthorizationError {
	return &AuthorizationError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
