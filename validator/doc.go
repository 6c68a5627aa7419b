/*
Package validator verifies Cognito user pool tokens.

Validate runs a fixed sequence of checks and stops at the first one that
fails. Each check has its own Reason, so callers can tell exactly why a token
was rejected:

 1. the header's kid matches exactly one key of the key set (ReasonKeysInvalid)
 2. the token decodes with that key (ReasonDecodeFailed)
 3. the iss claim equals the expected issuer URL (ReasonInvalidIssuer)
 4. the token_use claim is an accepted token kind (ReasonInvalidUse)
 5. the kid belongs to the supplied key set (ReasonUnrelatedKey)
 6. the signature verifies with the header's algorithm (ReasonSignatureInvalid)
 7. the exp claim has not passed (ReasonExpired)

# Usage

	v, err := validator.New(
	    validator.WithAllowedTokenUses(validator.TokenUseAccess),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	issuer := jwks.IssuerURL(region, poolID)
	result := resolver.Resolve(ctx, issuer)

	if err := v.Validate(ctx, token, issuer, result.Keys()); err != nil {
	    var validationErr *validator.ValidationError
	    if errors.As(err, &validationErr) {
	        log.Printf("rejected (%s): %s", validationErr.Reason, validationErr)
	    }
	}

# Unverified claims

ExtractPrincipal and ParseUnverified read claims without checking the
signature. Their output is suitable for logging and correlation only and
must never be taken as proof of identity.
*/
package validator
