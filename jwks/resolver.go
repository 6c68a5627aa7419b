package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// ErrKeySetFetchFailed is matched by every error a Result carries.
var ErrKeySetFetchFailed = errors.New("key set fetch failed")

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// KeySetResolver resolves the current key set of an issuer.
type KeySetResolver interface {
	Resolve(ctx context.Context, issuerURL string) Result
}

// FetchError describes why the key set at URL could not be obtained.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s from %s: %s", ErrKeySetFetchFailed, e.URL, e.Err)
}

// Is allows the error to be compared with ErrKeySetFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrKeySetFetchFailed
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is the outcome of resolving a key set. A failed Result still hands
// out an empty key set, so callers cannot confuse "no keys" with "nil".
type Result struct {
	keys   jwk.Set
	maxAge time.Duration
	err    error
}

// NewResult wraps a successfully obtained key set.
func NewResult(keys jwk.Set) Result {
	return Result{keys: keys}
}

// FailedResult wraps a fetch failure.
func FailedResult(err error) Result {
	return Result{err: err}
}

// Keys returns the resolved key set, or an empty set when resolution failed.
func (r Result) Keys() jwk.Set {
	if r.keys == nil {
		return jwk.NewSet()
	}
	return r.keys
}

// Err returns the fetch diagnostic, nil on success.
func (r Result) Err() error {
	return r.err
}

// OK reports whether the key set was obtained.
func (r Result) OK() bool {
	return r.err == nil && r.keys != nil
}

// MaxAge is the Cache-Control max-age the key set was served with, or 0.
func (r Result) MaxAge() time.Duration {
	return r.maxAge
}

// Resolver downloads key sets over HTTP on every call.
type Resolver struct {
	client          *http.Client
	logger          Logger
	maxResponseSize int64
}

// NewResolver builds and returns a new *Resolver.
//
// Optional options:
//   - WithHTTPClient: Custom HTTP client (default: 30s timeout)
//   - WithLogger: Logger for fetch diagnostics
//   - WithMaxResponseSize: Body size limit (default: 1MB)
func NewResolver(opts ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		client:          &http.Client{Timeout: 30 * time.Second},
		maxResponseSize: 1 * 1024 * 1024,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return r, nil
}

// Resolve downloads and parses the key set of issuerURL. It never returns a
// raw transport error; failures are logged and reported through Result.
func (r *Resolver) Resolve(ctx context.Context, issuerURL string) Result {
	endpoint := KeySetEndpoint(issuerURL)

	set, maxAge, err := r.fetch(ctx, endpoint)
	if err != nil {
		fetchErr := &FetchError{URL: endpoint, Err: err}
		if r.logger != nil {
			r.logger.Error("failed to download key set", "url", endpoint, "error", err)
		}
		return FailedResult(fetchErr)
	}

	if r.logger != nil {
		r.logger.Debug("downloaded key set", "url", endpoint, "keys", set.Len())
	}

	return Result{keys: set, maxAge: maxAge}
}

// keySetDocument is the minimal shape a key set response must have.
type keySetDocument struct {
	Keys json.RawMessage `json:"keys"`
}

func (r *Resolver) fetch(ctx context.Context, endpoint string) (jwk.Set, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, 0, fmt.Errorf("request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponseSize))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}

	var doc keySetDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("failed to decode key set document: %w", err)
	}
	if len(doc.Keys) == 0 || string(doc.Keys) == "null" {
		return nil, 0, errors.New(`key set document has no "keys" field`)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(doc.Keys, &entries); err != nil {
		return nil, 0, fmt.Errorf(`failed to decode "keys" field: %w`, err)
	}

	// Keys the parser does not understand are skipped, so one unsupported
	// entry does not take down the rest of the set.
	set, err := jwk.Parse(body, jwk.WithIgnoreParseError(true))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse key set: %w", err)
	}
	if skipped := len(entries) - set.Len(); skipped > 0 && r.logger != nil {
		r.logger.Warn("skipped unparseable keys", "url", endpoint, "skipped", skipped)
	}

	return set, parseCacheControl(resp.Header.Get("Cache-Control")), nil
}

// parseCacheControl extracts max-age from a Cache-Control header.
// Returns 0 if max-age is absent, malformed or outside [1s, 7d].
func parseCacheControl(cacheControl string) time.Duration {
	const (
		maxAgePrefix = "max-age="
		minTTL       = 1 * time.Second
		maxTTL       = 7 * 24 * time.Hour
	)

	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if !strings.HasPrefix(directive, maxAgePrefix) {
			continue
		}

		seconds, err := strconv.ParseInt(strings.TrimPrefix(directive, maxAgePrefix), 10, 64)
		if err != nil || seconds <= 0 {
			continue
		}

		ttl := time.Duration(seconds) * time.Second
		if ttl < minTTL || ttl > maxTTL {
			return 0
		}
		return ttl
	}

	return 0
}
