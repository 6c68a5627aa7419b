package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-cognito/cognitoauth"
	"github.com/go-cognito/cognitoauth/core"
	"github.com/go-cognito/cognitoauth/jwks"
	"github.com/go-cognito/cognitoauth/validator"
)

// authorizerDeps are the optional collaborators of an Authorizer built by
// the CLI. Zero values are skipped.
type authorizerDeps struct {
	metrics core.Metrics
	tracer  trace.Tracer
}

// newAuthorizer builds an Authorizer from the loaded configuration. The
// returned close function releases the Redis client when one was created.
func (a *app) newAuthorizer(ctx context.Context, deps authorizerDeps) (*core.Authorizer, func() error, error) {
	logger := cognitoauth.NewLogrusLogger(a.log)
	closeFn := func() error { return nil }

	client := a.httpClient
	if client == nil {
		client = &http.Client{Timeout: a.cfg.JWKS.HTTPTimeout}
	}
	fetcher, err := jwks.NewResolver(jwks.WithHTTPClient(client), jwks.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create key set resolver: %w", err)
	}

	cachingOpts := []jwks.CachingOption{
		jwks.WithResolver(fetcher),
		jwks.WithCacheTTL(a.cfg.JWKS.CacheTTL),
		jwks.WithMaxEntries(a.cfg.JWKS.MaxEntries),
		jwks.WithCachingLogger(logger),
	}
	if a.cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		closeFn = rdb.Close

		// The cache degrades to downloads when Redis is down, so an
		// unreachable server is only worth a warning.
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.log.WithError(err).WithField("addr", a.cfg.Redis.Addr).Warn("redis is not reachable")
		}
		store := jwks.NewRedisStore(rdb).WithPrefix(a.cfg.Redis.KeyPrefix)
		cachingOpts = append(cachingOpts, jwks.WithStore(store))
	}

	resolver, err := jwks.NewCachingResolver(cachingOpts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to create caching resolver: %w", err)
	}

	uses := make([]validator.TokenUse, 0, len(a.cfg.TokenUses))
	for _, use := range a.cfg.TokenUses {
		uses = append(uses, validator.TokenUse(use))
	}
	v, err := validator.New(
		validator.WithAllowedTokenUses(uses...),
		validator.WithAllowedClockSkew(a.cfg.ClockSkew),
		validator.WithLogger(logger),
	)
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to create validator: %w", err)
	}

	opts := []core.Option{
		core.WithKeySetProvider(resolver),
		core.WithValidator(v),
		core.WithLogger(logger),
		core.WithHeaderName(a.cfg.HeaderName),
	}
	if deps.metrics != nil {
		opts = append(opts, core.WithMetrics(deps.metrics))
	}
	if deps.tracer != nil {
		opts = append(opts, core.WithTracer(deps.tracer))
	}

	authorizer, err := core.New(opts...)
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to create authorizer: %w", err)
	}
	return authorizer, closeFn, nil
}
