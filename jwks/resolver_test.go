package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-cognito/cognitoauth/internal/tokentest"
)

type logCall struct {
	msg  string
	args []any
}

type mockLogger struct {
	mu         sync.Mutex
	debugCalls []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

func (m *mockLogger) Debug(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugCalls = append(m.debugCalls, logCall{msg, args})
}

func (m *mockLogger) Info(string, ...any) {}

func (m *mockLogger) Warn(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnCalls = append(m.warnCalls, logCall{msg, args})
}

func (m *mockLogger) Error(msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCalls = append(m.errorCalls, logCall{msg, args})
}

func TestIssuerURL(t *testing.T) {
	testCases := []struct {
		region   string
		poolID   string
		expected string
	}{
		{
			region:   "ap-southeast-2",
			poolID:   "ap-southeast-2_xxxxxxxxx",
			expected: "https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_xxxxxxxxx",
		},
		{
			region:   "us-east-1",
			poolID:   "us-east-1_AbCdEf123",
			expected: "https://cognito-idp.us-east-1.amazonaws.com/us-east-1_AbCdEf123",
		},
		{
			region:   "",
			poolID:   "",
			expected: "https://cognito-idp..amazonaws.com/",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.expected, func(t *testing.T) {
			issuer := IssuerURL(testCase.region, testCase.poolID)
			assert.Equal(t, testCase.expected, issuer)
			assert.Equal(t, issuer, IssuerURL(testCase.region, testCase.poolID))
			assert.Equal(t, issuer+"/.well-known/jwks.json", KeySetEndpoint(issuer))
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	signer := tokentest.NewSigner(t, "kid-1")
	set := tokentest.KeySet(t, signer.PublicKey())
	setJSON, err := json.Marshal(set)
	require.NoError(t, err)

	t.Run("it downloads the key set from the well-known endpoint", func(t *testing.T) {
		var requestedPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestedPath = r.URL.Path
			w.Header().Set("Cache-Control", "public, max-age=3600")
			_, _ = w.Write(setJSON)
		}))
		defer server.Close()

		resolver, err := NewResolver()
		require.NoError(t, err)

		result := resolver.Resolve(context.Background(), server.URL+"/us-east-1_pool")
		require.True(t, result.OK())
		require.NoError(t, result.Err())
		assert.Equal(t, "/us-east-1_pool/.well-known/jwks.json", requestedPath)
		assert.Equal(t, time.Hour, result.MaxAge())
		require.Equal(t, 1, result.Keys().Len())

		key, ok := result.Keys().LookupKeyID("kid-1")
		require.True(t, ok)
		assert.Equal(t, "kid-1", key.KeyID())
	})

	failures := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("<html>not json</html>"))
			},
		},
		{
			name: "missing keys field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"issuer":"x"}`))
			},
		},
		{
			name: "null keys field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"keys":null}`))
			},
		},
		{
			name: "keys field that is not a list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"keys":{"kid":"kid-1"}}`))
			},
		},
	}

	for _, testCase := range failures {
		t.Run(fmt.Sprintf("it recovers from %s", testCase.name), func(t *testing.T) {
			server := httptest.NewServer(testCase.handler)
			defer server.Close()

			logger := &mockLogger{}
			resolver, err := NewResolver(WithLogger(logger))
			require.NoError(t, err)

			result := resolver.Resolve(context.Background(), server.URL)
			assert.False(t, result.OK())
			assert.True(t, errors.Is(result.Err(), ErrKeySetFetchFailed))
			assert.NotNil(t, result.Keys())
			assert.Equal(t, 0, result.Keys().Len())
			assert.Len(t, logger.errorCalls, 1)

			var fetchErr *FetchError
			require.ErrorAs(t, result.Err(), &fetchErr)
			assert.Equal(t, server.URL+KeySetPath, fetchErr.URL)
		})
	}

	t.Run("it skips keys it cannot parse", func(t *testing.T) {
		var raw map[string][]json.RawMessage
		require.NoError(t, json.Unmarshal(setJSON, &raw))
		mixed, err := json.Marshal(map[string]any{
			"keys": append([]json.RawMessage{json.RawMessage(`{"kid":"kid-unknown"}`)}, raw["keys"]...),
		})
		require.NoError(t, err)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(mixed)
		}))
		defer server.Close()

		logger := &mockLogger{}
		resolver, err := NewResolver(WithLogger(logger))
		require.NoError(t, err)

		result := resolver.Resolve(context.Background(), server.URL)
		require.True(t, result.OK())
		assert.Equal(t, 1, result.Keys().Len())
		_, ok := result.Keys().LookupKeyID("kid-1")
		assert.True(t, ok)
		assert.Len(t, logger.warnCalls, 1)
	})

	t.Run("it returns an empty set when no key can be parsed", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"keys":[{"kid":"kid-1"}]}`))
		}))
		defer server.Close()

		resolver, err := NewResolver()
		require.NoError(t, err)

		result := resolver.Resolve(context.Background(), server.URL)
		require.True(t, result.OK())
		assert.Equal(t, 0, result.Keys().Len())
	})

	t.Run("it recovers from a cancelled request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(setJSON)
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()

		resolver, err := NewResolver()
		require.NoError(t, err)

		result := resolver.Resolve(ctx, server.URL)
		assert.False(t, result.OK())
		assert.ErrorIs(t, result.Err(), context.DeadlineExceeded)
	})

	t.Run("it recovers from an unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		unreachable := server.URL
		server.Close()

		resolver, err := NewResolver(WithHTTPClient(&http.Client{Timeout: time.Second}))
		require.NoError(t, err)

		result := resolver.Resolve(context.Background(), unreachable)
		assert.False(t, result.OK())
		assert.ErrorIs(t, result.Err(), ErrKeySetFetchFailed)
	})

	t.Run("it truncates oversized responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(setJSON)
		}))
		defer server.Close()

		resolver, err := NewResolver(WithMaxResponseSize(16))
		require.NoError(t, err)

		result := resolver.Resolve(context.Background(), server.URL)
		assert.False(t, result.OK())
	})
}

func TestNewResolver_Options(t *testing.T) {
	testCases := []struct {
		name        string
		option      ResolverOption
		expectedErr string
	}{
		{name: "nil client", option: WithHTTPClient(nil), expectedErr: "HTTP client cannot be nil"},
		{name: "nil logger", option: WithLogger(nil), expectedErr: "logger cannot be nil"},
		{name: "zero size", option: WithMaxResponseSize(0), expectedErr: "max response size must be positive"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := NewResolver(testCase.option)
			require.Error(t, err)
			assert.Contains(t, err.Error(), testCase.expectedErr)
		})
	}

	t.Run("custom client is kept", func(t *testing.T) {
		client := &http.Client{Timeout: time.Hour}
		resolver, err := NewResolver(WithHTTPClient(client))
		require.NoError(t, err)
		assert.Equal(t, client, resolver.client)
	})
}

func TestResult(t *testing.T) {
	t.Run("zero value is not ok and has an empty key set", func(t *testing.T) {
		var result Result
		assert.False(t, result.OK())
		assert.Equal(t, 0, result.Keys().Len())
	})

	t.Run("failed result keeps the error", func(t *testing.T) {
		err := &FetchError{URL: "https://example.com", Err: errors.New("boom")}
		result := FailedResult(err)
		assert.False(t, result.OK())
		assert.Equal(t, "key set fetch failed from https://example.com: boom", result.Err().Error())
	})
}

func Test_parseCacheControl(t *testing.T) {
	testCases := []struct {
		header   string
		expected time.Duration
	}{
		{header: "", expected: 0},
		{header: "max-age=3600", expected: time.Hour},
		{header: "public, max-age=600, must-revalidate", expected: 10 * time.Minute},
		{header: "max-age=abc", expected: 0},
		{header: "max-age=-5", expected: 0},
		{header: "max-age=0", expected: 0},
		{header: "max-age=86400000", expected: 0},
		{header: "no-cache", expected: 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.header, func(t *testing.T) {
			assert.Equal(t, testCase.expected, parseCacheControl(testCase.header))
		})
	}
}
