package validator

import (
	"bytes"
	"errors"
)

var (
	// ErrMalformedToken is returned for strings that cannot be a compact JWS.
	ErrMalformedToken = errors.New("token is not a compact JWS")
)

const (
	// maxTokenSize bounds the input handed to the JWS parser. Cognito
	// tokens are a few KB.
	maxTokenSize = 1024 * 1024

	// compactDots is the number of separators in header.payload.signature.
	compactDots = 2
)

// validateTokenFormat rejects inputs that are obviously not a compact JWS
// before they reach the parser.
func validateTokenFormat(token []byte) error {
	if len(token) == 0 {
		return errors.New("token is empty")
	}

	if len(token) > maxTokenSize {
		return errors.New("token exceeds maximum size (1MB)")
	}

	if bytes.Count(token, []byte(".")) != compactDots {
		return ErrMalformedToken
	}

	return nil
}
