package cognitoauth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cognito/cognitoauth/core"
	"github.com/go-cognito/cognitoauth/internal/tokentest"
	"github.com/go-cognito/cognitoauth/jwks"
	"github.com/go-cognito/cognitoauth/validator"
)

func newTestAuthorizer(t *testing.T, server *tokentest.JWKSServer) *core.Authorizer {
	t.Helper()

	resolver, err := jwks.NewResolver(jwks.WithHTTPClient(server.RedirectClient()))
	require.NoError(t, err)
	v, err := validator.New()
	require.NoError(t, err)

	authorizer, err := core.New(core.WithKeySetProvider(resolver), core.WithValidator(v))
	require.NoError(t, err)
	return authorizer
}

func Test_CheckToken(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	server := tokentest.NewJWKSServer(t, tokentest.KeySet(t, signer.PublicKey()))
	authorizer := newTestAuthorizer(t, server)

	validToken := signer.Sign(t, tokentest.IDClaims(tokentest.Issuer, "user@example.com", time.Now().Add(time.Hour)))
	expiredToken := signer.Sign(t, tokentest.AccessClaims(tokentest.Issuer, "user@example.com", time.Now().Add(-time.Hour)))
	refreshToken := signer.Sign(t, map[string]any{"token_use": "refresh"})

	testCases := []struct {
		name           string
		options        []Option
		method         string
		path           string
		header         string
		wantStatusCode int
		wantBody       string
	}{
		{
			name:           "it authorizes a valid token",
			header:         "Bearer " + validToken,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"principal":"user@example.com"}`,
		},
		{
			name:           "it authorizes OPTIONS requests by default",
			method:         http.MethodOptions,
			header:         "Bearer " + validToken,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"principal":"user@example.com"}`,
		},
		{
			name:           "it rejects a request without token",
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"No token found in header","code":"token_missing"}`,
		},
		{
			name:           "it rejects a token without principal",
			header:         "Bearer " + refreshToken,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"Principal not found in token","code":"principal_not_found"}`,
		},
		{
			name:           "it rejects an expired token",
			header:         "Bearer " + expiredToken,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"message":"Token validation failed","code":"validation_failed","reason":"expired"}`,
		},
		{
			name:           "it skips OPTIONS requests when told to",
			options:        []Option{WithValidateOnOptions(false)},
			method:         http.MethodOptions,
			wantStatusCode: http.StatusOK,
			wantBody:       `{"principal":""}`,
		},
		{
			name:           "it skips excluded paths",
			options:        []Option{WithExclusionUrls([]string{"/healthz"})},
			path:           "/healthz",
			wantStatusCode: http.StatusOK,
			wantBody:       `{"principal":""}`,
		},
		{
			name:           "it still checks paths that are not excluded",
			options:        []Option{WithExclusionUrls([]string{"/healthz"})},
			path:           "/private",
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"message":"No token found in header","code":"token_missing"}`,
		},
		{
			name: "it uses a custom error handler",
			options: []Option{WithErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
				w.WriteHeader(http.StatusTeapot)
				_, _ = w.Write([]byte(`{"custom":true}`))
			})},
			wantStatusCode: http.StatusTeapot,
			wantBody:       `{"custom":true}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			opts := append([]Option{
				WithUserPool(tokentest.Region, tokentest.PoolID),
				WithAuthorizer(authorizer),
			}, testCase.options...)

			middleware, err := New(opts...)
			require.NoError(t, err)

			handler := middleware.CheckToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				principal, _ := GetPrincipal(r.Context())
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"principal":"` + principal + `"}`))
			}))

			method := testCase.method
			if method == "" {
				method = http.MethodGet
			}
			path := testCase.path
			if path == "" {
				path = "/"
			}

			request := httptest.NewRequest(method, path, nil)
			if testCase.header != "" {
				request.Header.Set("Authorization", testCase.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			response := recorder.Result()
			body, err := io.ReadAll(response.Body)
			require.NoError(t, err)

			assert.Equal(t, testCase.wantStatusCode, response.StatusCode)
			assert.JSONEq(t, testCase.wantBody, string(body))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("it requires a user pool", func(t *testing.T) {
		_, err := New()
		assert.ErrorIs(t, err, ErrUserPoolMissing)
		assert.Contains(t, err.Error(), "invalid middleware configuration")
	})

	testCases := []struct {
		name        string
		option      Option
		expectedErr error
	}{
		{name: "empty region", option: WithUserPool("", tokentest.PoolID), expectedErr: ErrUserPoolMissing},
		{name: "nil authorizer", option: WithAuthorizer(nil), expectedErr: ErrAuthorizerNil},
		{name: "nil error handler", option: WithErrorHandler(nil), expectedErr: ErrErrorHandlerNil},
		{name: "no exclusions", option: WithExclusionUrls(nil), expectedErr: ErrExclusionUrlsEmpty},
		{name: "nil logger", option: WithLogger(nil), expectedErr: ErrLoggerNil},
		{name: "nil metrics", option: WithMetrics(nil), expectedErr: ErrMetricsNil},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := New(WithUserPool(tokentest.Region, tokentest.PoolID), testCase.option)
			assert.ErrorIs(t, err, testCase.expectedErr)
			assert.Contains(t, err.Error(), "invalid option")
		})
	}

	t.Run("it builds its own authorizer", func(t *testing.T) {
		middleware, err := New(
			WithUserPool(tokentest.Region, tokentest.PoolID),
			WithLogger(&nopLogger{}),
			WithMetrics(NewPrometheusMetrics(prometheus.NewRegistry())),
		)
		require.NoError(t, err)
		assert.NotNil(t, middleware.authorizer)
		assert.Equal(t, core.DefaultHeaderName, middleware.authorizer.HeaderName())
	})
}

func TestGetPrincipal(t *testing.T) {
	ctx := core.SetPrincipal(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "user@example.com")

	principal, err := GetPrincipal(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", principal)
	assert.True(t, HasPrincipal(ctx))

	_, err = GetPrincipal(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.True(t, errors.Is(err, core.ErrPrincipalNotInContext))
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
