package jwks

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheTTL   = 15 * time.Minute
	defaultMaxEntries = 100
)

// CachingResolver serves key sets from a Store and downloads them through
// the wrapped resolver on a miss. Downloads are collapsed per issuer, so
// concurrent callers for the same issuer share one request.
//
// Thread-safe for concurrent access across multiple requests.
type CachingResolver struct {
	resolver   KeySetResolver
	store      Store
	ttl        time.Duration
	maxEntries int
	logger     Logger
	group      singleflight.Group
}

// NewCachingResolver builds and returns a new CachingResolver.
//
// Optional options:
//   - WithResolver: Resolver used on cache misses (default: NewResolver())
//   - WithCacheTTL: Reuse interval (default: 15 minutes)
//   - WithMaxEntries: LRU bound of the in-memory store (default: 100)
//   - WithStore: Custom store, e.g. NewRedisStore
//   - WithCachingLogger: Logger for cache diagnostics
func NewCachingResolver(opts ...CachingOption) (*CachingResolver, error) {
	c := &CachingResolver{
		ttl:        defaultCacheTTL,
		maxEntries: defaultMaxEntries,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if c.resolver == nil {
		resolver, err := NewResolver()
		if err != nil {
			return nil, err
		}
		c.resolver = resolver
	}

	if c.store == nil {
		c.store = NewMemoryStore(c.maxEntries)
	}

	return c, nil
}

// Resolve returns the cached key set of issuerURL, downloading it when it is
// missing or expired. Failed downloads are returned but not cached.
//
// Concurrent callers share one download. The download does not inherit the
// cancellation of the caller that started it; each caller stops waiting when
// its own ctx is done.
func (c *CachingResolver) Resolve(ctx context.Context, issuerURL string) Result {
	if result, ok := c.lookup(ctx, issuerURL); ok {
		return result
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(issuerURL, func() (any, error) {
		// Another caller may have filled the store while we waited.
		if result, ok := c.lookup(fetchCtx, issuerURL); ok {
			return result, nil
		}

		result := c.resolver.Resolve(fetchCtx, issuerURL)
		if !result.OK() {
			return result, nil
		}

		ttl := c.ttl
		if maxAge := result.MaxAge(); maxAge > ttl {
			ttl = maxAge
		}

		if err := c.store.Set(fetchCtx, issuerURL, result.Keys(), ttl); err != nil && c.logger != nil {
			c.logger.Warn("failed to cache key set", "issuer", issuerURL, "error", err)
		}

		return result, nil
	})

	select {
	case res := <-ch:
		return res.Val.(Result)
	case <-ctx.Done():
		return FailedResult(&FetchError{URL: KeySetEndpoint(issuerURL), Err: ctx.Err()})
	}
}

func (c *CachingResolver) lookup(ctx context.Context, issuerURL string) (Result, bool) {
	set, ok, err := c.store.Get(ctx, issuerURL)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("key set cache lookup failed", "issuer", issuerURL, "error", err)
		}
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}

	if c.logger != nil {
		c.logger.Debug("key set served from cache", "issuer", issuerURL)
	}
	return NewResult(set), true
}
