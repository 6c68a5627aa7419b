package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Validator checks Cognito tokens against a key set. It holds no per-token
// state and is safe for concurrent use.
type Validator struct {
	allowedUses       map[TokenUse]bool               // Optional.
	allowedAlgorithms map[jwa.SignatureAlgorithm]bool // Optional.
	allowedClockSkew  time.Duration                   // Optional.
	now               func() time.Time                // Optional.
	logger            Logger                          // Optional.
}

// Logger defines the logging interface used by the validator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// defaultAlgorithms are the asymmetric JWS algorithms. Symmetric algorithms
// are never accepted by default because the key set is public.
var defaultAlgorithms = []jwa.SignatureAlgorithm{
	jwa.RS256, jwa.RS384, jwa.RS512,
	jwa.PS256, jwa.PS384, jwa.PS512,
	jwa.ES256, jwa.ES384, jwa.ES512,
	jwa.EdDSA,
}

// New sets up a Validator accepting id and access tokens signed with any
// asymmetric algorithm.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{
		allowedUses: map[TokenUse]bool{
			TokenUseID:     true,
			TokenUseAccess: true,
		},
		allowedAlgorithms: make(map[jwa.SignatureAlgorithm]bool, len(defaultAlgorithms)),
		now:               time.Now,
	}
	for _, alg := range defaultAlgorithms {
		v.allowedAlgorithms[alg] = true
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return v, nil
}

// validation carries what earlier checks learned about a token to the
// checks after them.
type validation struct {
	raw       []byte
	issuerURL string
	keys      jwk.Set

	keyID string
	alg   jwa.SignatureAlgorithm
	key   jwk.Key
	token jwt.Token
}

type check func(v *Validator, s *validation) *ValidationError

// checks run in order and the first failure ends the validation.
var checks = []check{
	(*Validator).lookupKey,
	(*Validator).decode,
	(*Validator).checkIssuer,
	(*Validator).checkTokenUse,
	(*Validator).checkKeyRelation,
	(*Validator).verifySignature,
	(*Validator).checkExpiry,
}

// Validate checks token against keys and the expected issuer. It returns nil
// when the token is valid and a *ValidationError naming the first failed
// check otherwise.
func (v *Validator) Validate(ctx context.Context, token, issuerURL string, keys jwk.Set) error {
	if keys == nil {
		keys = jwk.NewSet()
	}

	s := &validation{
		raw:       []byte(token),
		issuerURL: issuerURL,
		keys:      keys,
	}

	for _, c := range checks {
		if err := c(v, s); err != nil {
			if v.logger != nil {
				v.logger.Debug("token rejected",
					"reason", string(err.Reason),
					"kid", s.keyID,
					"error", err.Error())
			}
			return err
		}
	}

	if v.logger != nil {
		v.logger.Debug("token validated", "kid", s.keyID, "alg", s.alg.String())
	}
	return nil
}

func (v *Validator) lookupKey(s *validation) *ValidationError {
	keysInvalid := func(details error) *ValidationError {
		return newValidationError(ReasonKeysInvalid, "Obtained keys are wrong", details)
	}

	if err := validateTokenFormat(s.raw); err != nil {
		return keysInvalid(err)
	}

	msg, err := jws.Parse(s.raw)
	if err != nil {
		return keysInvalid(err)
	}
	signatures := msg.Signatures()
	if len(signatures) != 1 {
		return keysInvalid(fmt.Errorf("expected one signature, got %d", len(signatures)))
	}

	headers := signatures[0].ProtectedHeaders()
	s.keyID = headers.KeyID()
	s.alg = headers.Algorithm()
	if s.keyID == "" {
		return keysInvalid(errors.New("token header has no kid"))
	}

	var matched []jwk.Key
	for i := 0; i < s.keys.Len(); i++ {
		key, ok := s.keys.Key(i)
		if ok && key.KeyID() == s.keyID {
			matched = append(matched, key)
		}
	}
	if len(matched) != 1 {
		return keysInvalid(fmt.Errorf("%d keys match kid %q", len(matched), s.keyID))
	}

	s.key = matched[0]
	return nil
}

func (v *Validator) decode(s *validation) *ValidationError {
	decodeFailed := func(err error) *ValidationError {
		return newValidationError(ReasonDecodeFailed, "Failed to decode token", err)
	}

	if !v.allowedAlgorithms[s.alg] {
		return decodeFailed(fmt.Errorf("algorithm %q is not allowed", s.alg))
	}
	if keyAlg := s.key.Algorithm(); keyAlg != nil && keyAlg.String() != "" && keyAlg.String() != s.alg.String() {
		return decodeFailed(fmt.Errorf("token algorithm %q does not match key algorithm %q", s.alg, keyAlg))
	}

	token, err := jwt.Parse(s.raw, jwt.WithKey(s.alg, s.key), jwt.WithValidate(false))
	if err != nil {
		return decodeFailed(err)
	}

	s.token = token
	return nil
}

func (v *Validator) checkIssuer(s *validation) *ValidationError {
	if s.token.Issuer() != s.issuerURL {
		return newValidationError(ReasonInvalidIssuer, "Invalid issuer in token", nil)
	}
	return nil
}

func (v *Validator) checkTokenUse(s *validation) *ValidationError {
	use := TokenUse(stringClaim(s.token, ClaimTokenUse))
	if !v.allowedUses[use] {
		return newValidationError(ReasonInvalidUse, "Token not of valid use", nil)
	}
	return nil
}

func (v *Validator) checkKeyRelation(s *validation) *ValidationError {
	if _, ok := s.keys.LookupKeyID(s.keyID); !ok {
		return newValidationError(ReasonUnrelatedKey, "Token is not related to id provider", nil)
	}
	return nil
}

func (v *Validator) verifySignature(s *validation) *ValidationError {
	if _, err := jws.Verify(s.raw, jws.WithKey(s.alg, s.key)); err != nil {
		return newValidationError(ReasonSignatureInvalid, "Failed to verify signature", err)
	}
	return nil
}

func (v *Validator) checkExpiry(s *validation) *ValidationError {
	expiry := s.token.Expiration()
	if expiry.IsZero() {
		return newValidationError(ReasonExpired, "Token has expired", errors.New("token has no exp claim"))
	}

	now := v.now().UTC()
	if expiry.Add(v.allowedClockSkew).Before(now) {
		return newValidationError(ReasonExpired, fmt.Sprintf("Token has expired %s", now.Sub(expiry)), nil)
	}
	return nil
}
