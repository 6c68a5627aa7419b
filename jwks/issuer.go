package jwks

import "fmt"

const (
	// issuerURLTemplate is the host layout Cognito uses for user pool issuers.
	issuerURLTemplate = "https://cognito-idp.%s.amazonaws.com/%s"

	// KeySetPath is appended to an issuer URL to reach its key set.
	KeySetPath = "/.well-known/jwks.json"
)

// IssuerURL returns the issuer URL of the user pool poolID in region.
func IssuerURL(region, poolID string) string {
	return fmt.Sprintf(issuerURLTemplate, region, poolID)
}

// KeySetEndpoint returns the URL the key set of issuerURL is published at.
func KeySetEndpoint(issuerURL string) string {
	return issuerURL + KeySetPath
}
