package validator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	t.Run("it appends the details to the message", func(t *testing.T) {
		details := errors.New("crypto/rsa: verification error")
		err := newValidationError(ReasonSignatureInvalid, "Failed to verify signature", details)

		assert.Equal(t, "Failed to verify signature: crypto/rsa: verification error", err.Error())
		assert.ErrorIs(t, err, details)
	})

	t.Run("it matches its own sentinel only", func(t *testing.T) {
		err := fmt.Errorf("authorize: %w", newValidationError(ReasonExpired, "Token has expired 1s", nil))

		assert.ErrorIs(t, err, ErrTokenInvalid)
		assert.ErrorIs(t, err, ErrExpired)
		assert.NotErrorIs(t, err, ErrInvalidIssuer)
	})

	t.Run("every reason has a sentinel", func(t *testing.T) {
		for _, reason := range []Reason{
			ReasonKeysInvalid, ReasonDecodeFailed, ReasonInvalidIssuer, ReasonInvalidUse,
			ReasonUnrelatedKey, ReasonSignatureInvalid, ReasonExpired,
		} {
			assert.NotNil(t, reasonErrors[reason], reason)
		}
	})
}
