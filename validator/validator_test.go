package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cognito/cognitoauth/internal/tokentest"
)

func TestValidator_Validate(t *testing.T) {
	const issuer = tokentest.Issuer
	now := time.Unix(1507252526, 0).UTC()
	validUntil := now.Add(time.Hour)

	signer := tokentest.NewSigner(t, "kid-1")
	impostor := tokentest.NewSigner(t, "kid-1")
	other := tokentest.NewSigner(t, "kid-2")
	keys := tokentest.KeySet(t, signer.PublicKey(), other.PublicKey())

	noExp := tokentest.AccessClaims(issuer, "user@example.com", validUntil)
	delete(noExp, "exp")

	noUse := tokentest.IDClaims(issuer, "user@example.com", validUntil)
	delete(noUse, "token_use")

	refresh := tokentest.AccessClaims(issuer, "user@example.com", validUntil)
	refresh["token_use"] = "refresh"

	testCases := []struct {
		name            string
		token           string
		keys            jwk.Set
		opts            []Option
		expectedReason  Reason
		expectedMessage string
	}{
		{
			name:  "it accepts a valid id token",
			token: signer.Sign(t, tokentest.IDClaims(issuer, "user@example.com", validUntil)),
			keys:  keys,
		},
		{
			name:  "it accepts a valid access token",
			token: signer.Sign(t, tokentest.AccessClaims(issuer, "user@example.com", validUntil)),
			keys:  keys,
		},
		{
			name:  "it accepts a recently expired token within the clock skew",
			token: signer.Sign(t, tokentest.AccessClaims(issuer, "user@example.com", now.Add(-30*time.Second))),
			keys:  keys,
			opts:  []Option{WithAllowedClockSkew(time.Minute)},
		},
		{
			name:            "it fails when the kid matches no key",
			token:           signer.SignWithHeader(t, tokentest.IDClaims(issuer, "u", validUntil), jwa.RS256, "kid-unknown"),
			keys:            keys,
			expectedReason:  ReasonKeysInvalid,
			expectedMessage: `Obtained keys are wrong: 0 keys match kid "kid-unknown"`,
		},
		{
			name:            "it fails when the kid matches more than one key",
			token:           signer.Sign(t, tokentest.IDClaims(issuer, "u", validUntil)),
			keys:            tokentest.KeySet(t, signer.PublicKey(), impostor.PublicKey()),
			expectedReason:  ReasonKeysInvalid,
			expectedMessage: `Obtained keys are wrong: 2 keys match kid "kid-1"`,
		},
		{
			name:           "it fails when the header has no kid",
			token:          signer.SignWithHeader(t, tokentest.IDClaims(issuer, "u", validUntil), jwa.RS256, ""),
			keys:           keys,
			expectedReason: ReasonKeysInvalid,
		},
		{
			name:           "it fails when the header cannot be parsed",
			token:          "bm90.YSB0b2tlbg.c2ln",
			keys:           keys,
			expectedReason: ReasonKeysInvalid,
		},
		{
			name:           "it fails when the token is not a compact jws",
			token:          "not-a-token",
			keys:           keys,
			expectedReason: ReasonKeysInvalid,
		},
		{
			name:           "it fails when the key set is empty",
			token:          signer.Sign(t, tokentest.IDClaims(issuer, "u", validUntil)),
			keys:           nil,
			expectedReason: ReasonKeysInvalid,
		},
		{
			name:           "it fails to decode a token signed by another key",
			token:          impostor.Sign(t, tokentest.IDClaims(issuer, "u", validUntil)),
			keys:           keys,
			expectedReason: ReasonDecodeFailed,
		},
		{
			name:            "it fails to decode when the algorithm differs from the key",
			token:           signer.SignWithHeader(t, tokentest.IDClaims(issuer, "u", validUntil), jwa.RS384, "kid-1"),
			keys:            keys,
			expectedReason:  ReasonDecodeFailed,
			expectedMessage: `Failed to decode token: token algorithm "RS384" does not match key algorithm "RS256"`,
		},
		{
			name:            "it fails to decode when the algorithm is not allowed",
			token:           signer.Sign(t, tokentest.IDClaims(issuer, "u", validUntil)),
			keys:            keys,
			opts:            []Option{WithAllowedAlgorithms(jwa.ES256)},
			expectedReason:  ReasonDecodeFailed,
			expectedMessage: `Failed to decode token: algorithm "RS256" is not allowed`,
		},
		{
			name:            "it fails when the issuer does not match",
			token:           signer.Sign(t, tokentest.IDClaims("https://cognito-idp.us-east-1.amazonaws.com/us-east-1_other", "u", validUntil)),
			keys:            keys,
			expectedReason:  ReasonInvalidIssuer,
			expectedMessage: "Invalid issuer in token",
		},
		{
			name:           "it reports the issuer before the expiry",
			token:          signer.Sign(t, tokentest.IDClaims(issuer+"/", "u", now.Add(-time.Hour))),
			keys:           keys,
			expectedReason: ReasonInvalidIssuer,
		},
		{
			name:            "it fails for refresh tokens",
			token:           signer.Sign(t, refresh),
			keys:            keys,
			expectedReason:  ReasonInvalidUse,
			expectedMessage: "Token not of valid use",
		},
		{
			name:           "it fails when token_use is missing",
			token:          signer.Sign(t, noUse),
			keys:           keys,
			expectedReason: ReasonInvalidUse,
		},
		{
			name:           "it fails for token kinds that were not allowed",
			token:          signer.Sign(t, tokentest.IDClaims(issuer, "u", validUntil)),
			keys:           keys,
			opts:           []Option{WithAllowedTokenUses(TokenUseAccess)},
			expectedReason: ReasonInvalidUse,
		},
		{
			name:            "it fails for expired tokens",
			token:           signer.Sign(t, tokentest.AccessClaims(issuer, "u", now.Add(-90*time.Second))),
			keys:            keys,
			expectedReason:  ReasonExpired,
			expectedMessage: "Token has expired 1m30s",
		},
		{
			name:           "it fails for tokens past the clock skew",
			token:          signer.Sign(t, tokentest.AccessClaims(issuer, "u", now.Add(-2*time.Minute))),
			keys:           keys,
			opts:           []Option{WithAllowedClockSkew(time.Minute)},
			expectedReason: ReasonExpired,
		},
		{
			name:            "it fails for tokens without exp",
			token:           signer.Sign(t, noExp),
			keys:            keys,
			expectedReason:  ReasonExpired,
			expectedMessage: "Token has expired: token has no exp claim",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			opts := append([]Option{WithClock(func() time.Time { return now })}, testCase.opts...)
			v, err := New(opts...)
			require.NoError(t, err)

			err = v.Validate(context.Background(), testCase.token, issuer, testCase.keys)
			if testCase.expectedReason == "" {
				require.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, testCase.expectedReason, validationErr.Reason)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.ErrorIs(t, err, reasonErrors[testCase.expectedReason])
			if testCase.expectedMessage != "" {
				assert.Equal(t, testCase.expectedMessage, err.Error())
			}
		})
	}
}

func TestValidator_Validate_LogsRejections(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	logger := &recordingLogger{}

	v, err := New(WithLogger(logger))
	require.NoError(t, err)

	token := signer.Sign(t, tokentest.IDClaims(tokentest.Issuer, "u", time.Now().Add(time.Hour)))
	err = v.Validate(context.Background(), token, tokentest.Issuer, tokentest.KeySet(t))
	require.Error(t, err)

	require.Len(t, logger.debug, 1)
	assert.Equal(t, "token rejected", logger.debug[0])
}

func TestValidator_checks(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	other := tokentest.NewSigner(t, "kid-2")
	token := signer.Sign(t, tokentest.IDClaims(tokentest.Issuer, "u", time.Now().Add(time.Hour)))

	v, err := New()
	require.NoError(t, err)

	t.Run("key relation fails when the kid left the key set", func(t *testing.T) {
		s := &validation{
			raw:   []byte(token),
			keys:  tokentest.KeySet(t, other.PublicKey()),
			keyID: "kid-1",
			key:   signer.PublicKey(),
		}

		err := v.checkKeyRelation(s)
		require.NotNil(t, err)
		assert.Equal(t, ReasonUnrelatedKey, err.Reason)
		assert.Equal(t, "Token is not related to id provider", err.Error())
	})

	t.Run("signature verification fails with the wrong key", func(t *testing.T) {
		s := &validation{
			raw:   []byte(token),
			keyID: "kid-1",
			alg:   jwa.RS256,
			key:   other.PublicKey(),
		}

		err := v.verifySignature(s)
		require.NotNil(t, err)
		assert.Equal(t, ReasonSignatureInvalid, err.Reason)
		assert.Contains(t, err.Error(), "Failed to verify signature: ")
		assert.True(t, errors.Is(err, ErrSignatureInvalid))
	})

	t.Run("signature verification passes with the right key", func(t *testing.T) {
		s := &validation{
			raw: []byte(token),
			alg: jwa.RS256,
			key: signer.PublicKey(),
		}

		assert.Nil(t, v.verifySignature(s))
	})
}

type recordingLogger struct {
	debug []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.debug = append(l.debug, msg) }
func (l *recordingLogger) Info(string, ...any)        {}
func (l *recordingLogger) Warn(string, ...any)        {}
func (l *recordingLogger) Error(string, ...any)       {}
