package validator

import "errors"

// Reason identifies which check rejected a token.
type Reason string

const (
	ReasonKeysInvalid      Reason = "keys_invalid"
	ReasonDecodeFailed     Reason = "decode_failed"
	ReasonInvalidIssuer    Reason = "invalid_issuer"
	ReasonInvalidUse       Reason = "invalid_use"
	ReasonUnrelatedKey     Reason = "unrelated_key"
	ReasonSignatureInvalid Reason = "signature_invalid"
	ReasonExpired          Reason = "expired"
)

var (
	// ErrTokenInvalid is matched by every ValidationError.
	ErrTokenInvalid = errors.New("token invalid")

	ErrKeysInvalid      = errors.New("obtained keys are wrong")
	ErrDecodeFailed     = errors.New("failed to decode token")
	ErrInvalidIssuer    = errors.New("invalid issuer in token")
	ErrInvalidUse       = errors.New("token not of valid use")
	ErrUnrelatedKey     = errors.New("token is not related to id provider")
	ErrSignatureInvalid = errors.New("failed to verify signature")
	ErrExpired          = errors.New("token has expired")
)

var reasonErrors = map[Reason]error{
	ReasonKeysInvalid:      ErrKeysInvalid,
	ReasonDecodeFailed:     ErrDecodeFailed,
	ReasonInvalidIssuer:    ErrInvalidIssuer,
	ReasonInvalidUse:       ErrInvalidUse,
	ReasonUnrelatedKey:     ErrUnrelatedKey,
	ReasonSignatureInvalid: ErrSignatureInvalid,
	ReasonExpired:          ErrExpired,
}

// ValidationError reports the check that rejected a token.
type ValidationError struct {
	// Reason is the machine-readable failure reason.
	Reason Reason

	// Message is a human-readable description.
	Message string

	// Details holds the underlying library error, if any.
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is matches ErrTokenInvalid and the sentinel of the error's Reason.
func (e *ValidationError) Is(target error) bool {
	return target == ErrTokenInvalid || target == reasonErrors[e.Reason]
}

func newValidationError(reason Reason, message string, details error) *ValidationError {
	return &ValidationError{
		Reason:  reason,
		Message: message,
		Details: details,
	}
}
