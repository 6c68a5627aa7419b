package validator

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
)

// Option is how options for the Validator are set up.
// Options return errors to enable validation during construction.
type Option func(*Validator) error

// WithAllowedTokenUses restricts the token_use values a token may carry.
// The default accepts both id and access tokens.
func WithAllowedTokenUses(uses ...TokenUse) Option {
	return func(v *Validator) error {
		if len(uses) == 0 {
			return errors.New("at least one token use is required")
		}

		allowed := make(map[TokenUse]bool, len(uses))
		for _, use := range uses {
			if use != TokenUseID && use != TokenUseAccess {
				return fmt.Errorf("unsupported token use: %q", use)
			}
			allowed[use] = true
		}
		v.allowedUses = allowed
		return nil
	}
}

// WithAllowedAlgorithms replaces the signature algorithms a token header may
// name. Symmetric algorithms are rejected: the verifying keys come from a
// public key set.
func WithAllowedAlgorithms(algs ...jwa.SignatureAlgorithm) Option {
	return func(v *Validator) error {
		if len(algs) == 0 {
			return errors.New("at least one algorithm is required")
		}

		allowed := make(map[jwa.SignatureAlgorithm]bool, len(algs))
		for _, alg := range algs {
			if !isAsymmetric(alg) {
				return fmt.Errorf("unsupported signature algorithm: %s", alg)
			}
			allowed[alg] = true
		}
		v.allowedAlgorithms = allowed
		return nil
	}
}

// WithAllowedClockSkew sets how long after its exp claim a token is still
// accepted, to account for clock differences between systems. If not set,
// the default is 0 (no clock skew allowed).
func WithAllowedClockSkew(skew time.Duration) Option {
	return func(v *Validator) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithClock sets the time source used for the expiry check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		v.now = now
		return nil
	}
}

// WithLogger sets a logger that records why tokens were rejected.
func WithLogger(logger Logger) Option {
	return func(v *Validator) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		v.logger = logger
		return nil
	}
}

func isAsymmetric(alg jwa.SignatureAlgorithm) bool {
	for _, candidate := range defaultAlgorithms {
		if candidate == alg {
			return true
		}
	}
	return false
}
