// Package tokentest builds signing keys, key sets and signed tokens shaped
// like the ones a Cognito user pool issues. It is only meant for tests.
package tokentest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/stretchr/testify/require"
)

const (
	Region = "ap-southeast-2"
	PoolID = "ap-southeast-2_xxxxxxxxx"
	Issuer = "https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_xxxxxxxxx"
)

// Signer holds an RSA key pair published under KeyID.
type Signer struct {
	KeyID   string
	private *rsa.PrivateKey
	public  jwk.Key
}

// NewSigner generates a fresh 2048 bit RSA key published under kid.
func NewSigner(t testing.TB, kid string) *Signer {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	public, err := jwk.FromRaw(privateKey.Public())
	require.NoError(t, err)
	require.NoError(t, public.Set(jwk.KeyIDKey, kid))
	require.NoError(t, public.Set(jwk.AlgorithmKey, jwa.RS256))
	require.NoError(t, public.Set(jwk.KeyUsageKey, "sig"))

	return &Signer{KeyID: kid, private: privateKey, public: public}
}

// PublicKey returns the JWK that verifies tokens produced by s.
func (s *Signer) PublicKey() jwk.Key {
	return s.public
}

// Sign serializes claims and signs them with RS256 under the signer's kid.
func (s *Signer) Sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	return s.SignWithHeader(t, claims, jwa.RS256, s.KeyID)
}

// SignWithHeader signs claims using alg and advertises kid in the protected
// header. An empty kid leaves the header without one.
func (s *Signer) SignWithHeader(t testing.TB, claims map[string]any, alg jwa.SignatureAlgorithm, kid string) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	require.NoError(t, err)

	headers := jws.NewHeaders()
	require.NoError(t, headers.Set(jws.TypeKey, "JWT"))
	if kid != "" {
		require.NoError(t, headers.Set(jws.KeyIDKey, kid))
	}

	signed, err := jws.Sign(payload, jws.WithKey(alg, s.private, jws.WithProtectedHeaders(headers)))
	require.NoError(t, err)

	return string(signed)
}

// KeySet bundles keys into a jwk.Set.
func KeySet(t testing.TB, keys ...jwk.Key) jwk.Set {
	t.Helper()

	set := jwk.NewSet()
	for _, key := range keys {
		require.NoError(t, set.AddKey(key))
	}
	return set
}

// IDClaims returns the claims of an id token for username.
func IDClaims(issuer, username string, exp time.Time) map[string]any {
	return map[string]any{
		"sub":              "f1c4cf9f-8dea-446d-9900-000000000000",
		"aud":              "xxxxxxxxxxxxxxxxxxxxxxxxxx",
		"email":            username,
		"email_verified":   true,
		"token_use":        "id",
		"auth_time":        exp.Add(-time.Hour).Unix(),
		"iss":              issuer,
		"iat":              exp.Add(-time.Hour).Unix(),
		"exp":              exp.Unix(),
		"cognito:username": username,
	}
}

// AccessClaims returns the claims of an access token for username.
func AccessClaims(issuer, username string, exp time.Time) map[string]any {
	return map[string]any{
		"sub":       "f1c4cf9f-8dea-446d-9900-000000000000",
		"client_id": "xxxxxxxxxxxxxxxxxxxxxxxxxx",
		"scope":     "aws.cognito.signin.user.admin",
		"token_use": "access",
		"iss":       issuer,
		"jti":       "d3c92f1c-61e5-4a02-85d8-509550667402",
		"iat":       exp.Add(-time.Hour).Unix(),
		"exp":       exp.Unix(),
		"username":  username,
	}
}

// JWKSServer serves a key set at /<pool>/.well-known/jwks.json and counts
// the requests it receives.
type JWKSServer struct {
	*httptest.Server
	requests atomic.Int32
}

// NewJWKSServer starts a server publishing set. The server is closed when
// the test finishes.
func NewJWKSServer(t testing.TB, set jwk.Set) *JWKSServer {
	t.Helper()

	body, err := json.Marshal(set)
	require.NoError(t, err)

	s := &JWKSServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)

	return s
}

// Requests reports how many requests the server has handled.
func (s *JWKSServer) Requests() int {
	return int(s.requests.Load())
}

// RedirectClient returns an HTTP client that sends every request to s
// while keeping the request path, so the fixed Cognito host resolves to
// the test server.
func (s *JWKSServer) RedirectClient() *http.Client {
	target, _ := url.Parse(s.URL)
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: &redirectTransport{target: target, next: http.DefaultTransport},
	}
}

type redirectTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (rt *redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = rt.target.Scheme
	clone.URL.Host = rt.target.Host
	clone.Host = rt.target.Host
	return rt.next.RoundTrip(clone)
}
