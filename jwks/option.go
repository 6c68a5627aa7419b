package jwks

import (
	"errors"
	"net/http"
	"time"
)

// ============================================================================
// Resolver Options
// ============================================================================

// ResolverOption is how options for the Resolver are set up.
type ResolverOption func(*Resolver) error

// WithHTTPClient sets the HTTP client used to download key sets.
// If not specified, a default client with 30s timeout is used.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) error {
		if c == nil {
			return errors.New("HTTP client cannot be nil")
		}
		r.client = c
		return nil
	}
}

// WithLogger sets the logger that receives fetch diagnostics.
func WithLogger(logger Logger) ResolverOption {
	return func(r *Resolver) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithMaxResponseSize limits how many bytes of a key set response are read.
func WithMaxResponseSize(size int64) ResolverOption {
	return func(r *Resolver) error {
		if size <= 0 {
			return errors.New("max response size must be positive")
		}
		r.maxResponseSize = size
		return nil
	}
}

// ============================================================================
// CachingResolver Options
// ============================================================================

// CachingOption is how options for the CachingResolver are set up.
type CachingOption func(*CachingResolver) error

// WithResolver sets the resolver consulted on cache misses.
// If not specified, a Resolver with default settings is used.
func WithResolver(resolver KeySetResolver) CachingOption {
	return func(c *CachingResolver) error {
		if resolver == nil {
			return errors.New("resolver cannot be nil")
		}
		c.resolver = resolver
		return nil
	}
}

// WithCacheTTL sets how long a downloaded key set is reused.
// A zero TTL selects the 15 minute default. A longer Cache-Control max-age
// sent by the issuer takes precedence.
func WithCacheTTL(ttl time.Duration) CachingOption {
	return func(c *CachingResolver) error {
		if ttl < 0 {
			return errors.New("cache TTL cannot be negative")
		}
		if ttl == 0 {
			ttl = defaultCacheTTL
		}
		c.ttl = ttl
		return nil
	}
}

// WithMaxEntries bounds the number of issuers kept by the default in-memory
// store. The least recently used issuer is evicted first; 0 means unlimited.
// It has no effect when WithStore is used.
func WithMaxEntries(maxEntries int) CachingOption {
	return func(c *CachingResolver) error {
		if maxEntries < 0 {
			return errors.New("max entries cannot be negative")
		}
		c.maxEntries = maxEntries
		return nil
	}
}

// WithStore replaces the in-memory store, e.g. with a RedisStore.
func WithStore(store Store) CachingOption {
	return func(c *CachingResolver) error {
		if store == nil {
			return errors.New("store cannot be nil")
		}
		c.store = store
		return nil
	}
}

// WithCachingLogger sets the logger used for cache diagnostics.
func WithCachingLogger(logger Logger) CachingOption {
	return func(c *CachingResolver) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}
