package validator

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenUse distinguishes the kinds of token a user pool issues.
type TokenUse string

const (
	TokenUseID     TokenUse = "id"
	TokenUseAccess TokenUse = "access"
)

// Claim names specific to Cognito tokens.
const (
	ClaimTokenUse        = "token_use"
	ClaimCognitoUsername = "cognito:username"
	ClaimUsername        = "username"
	ClaimClientID        = "client_id"
	ClaimScope           = "scope"
	ClaimEmail           = "email"
)

// Claims holds the claims of a Cognito token that this package reads.
//
// Example access token claims:
//
//	{"scope": "aws.cognito.signin.user.admin", "exp": 1507256126,
//	 "sub": "f1c4cf9f-8dea-446d-9900-xxxxxxxxxxxx", "client_id": "xxxxxxxxxxxxxxxxxxxxxxxxxx",
//	 "token_use": "access", "iss": "https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_xxxxxxxxx",
//	 "iat": 1507252526, "username": "user@example.com"}
//
// Example id token claims:
//
//	{"email": "user@example.com", "email_verified": true, "exp": 1507256126,
//	 "sub": "f1c4cf9f-8dea-446d-9900-xxxxxxxxxxxx", "token_use": "id",
//	 "iss": "https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_xxxxxxxxx",
//	 "aud": "xxxxxxxxxxxxxxxxxxxxxxxxxx", "iat": 1507252526, "cognito:username": "user@example.com"}
type Claims struct {
	Issuer          string    `json:"iss,omitempty"`
	Subject         string    `json:"sub,omitempty"`
	Audience        []string  `json:"aud,omitempty"`
	TokenUse        TokenUse  `json:"token_use,omitempty"`
	Expiry          time.Time `json:"exp,omitempty"`
	IssuedAt        time.Time `json:"iat,omitempty"`
	ClientID        string    `json:"client_id,omitempty"`
	Scope           string    `json:"scope,omitempty"`
	Email           string    `json:"email,omitempty"`
	Username        string    `json:"username,omitempty"`
	CognitoUsername string    `json:"cognito:username,omitempty"`
}

// Principal returns the user name the token was issued to. Id tokens carry
// it in cognito:username and access tokens in username; any other token
// kind has no principal.
func (c *Claims) Principal() (string, bool) {
	var principal string
	switch c.TokenUse {
	case TokenUseID:
		principal = c.CognitoUsername
	case TokenUseAccess:
		principal = c.Username
	}
	return principal, principal != ""
}

// ParseUnverified reads the claims of token without verifying its signature
// or validating any claim.
func ParseUnverified(token string) (*Claims, error) {
	parsed, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return nil, fmt.Errorf("could not parse token claims: %w", err)
	}
	return claimsFromToken(parsed), nil
}

// ExtractPrincipal returns the principal of an unverified token. A true
// result does not authenticate anyone; it only means the claims name a user.
func ExtractPrincipal(token string) (string, bool) {
	claims, err := ParseUnverified(token)
	if err != nil {
		return "", false
	}
	return claims.Principal()
}

func claimsFromToken(token jwt.Token) *Claims {
	return &Claims{
		Issuer:          token.Issuer(),
		Subject:         token.Subject(),
		Audience:        token.Audience(),
		TokenUse:        TokenUse(stringClaim(token, ClaimTokenUse)),
		Expiry:          token.Expiration(),
		IssuedAt:        token.IssuedAt(),
		ClientID:        stringClaim(token, ClaimClientID),
		Scope:           stringClaim(token, ClaimScope),
		Email:           stringClaim(token, ClaimEmail),
		Username:        stringClaim(token, ClaimUsername),
		CognitoUsername: stringClaim(token, ClaimCognitoUsername),
	}
}

func stringClaim(token jwt.Token, name string) string {
	value, ok := token.Get(name)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
