package cognitoauth

import (
	"errors"
	"net/http"

	"github.com/go-cognito/cognitoauth/core"
)

// Option configures the Middleware.
// Returns error for validation failures.
type Option func(*Middleware) error

// WithUserPool sets the user pool whose tokens are accepted (REQUIRED).
func WithUserPool(region, poolID string) Option {
	return func(m *Middleware) error {
		if region == "" || poolID == "" {
			return ErrUserPoolMissing
		}
		m.region = region
		m.poolID = poolID
		return nil
	}
}

// WithAuthorizer sets the Authorizer the Middleware delegates to. Use it to
// share a key set cache between middlewares or to tune the validator.
//
// Example:
//
//	resolver, _ := jwks.NewCachingResolver(jwks.WithStore(jwks.NewRedisStore(redisClient)))
//	v, _ := validator.New(validator.WithAllowedTokenUses(validator.TokenUseAccess))
//	authorizer, _ := core.New(core.WithKeySetProvider(resolver), core.WithValidator(v))
//
//	middleware, err := cognitoauth.New(
//	    cognitoauth.WithUserPool(region, poolID),
//	    cognitoauth.WithAuthorizer(authorizer),
//	)
func WithAuthorizer(authorizer *core.Authorizer) Option {
	return func(m *Middleware) error {
		if authorizer == nil {
			return ErrAuthorizerNil
		}
		m.authorizer = authorizer
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests are authorized.
//
// Default: true (OPTIONS requests are authorized)
func WithValidateOnOptions(value bool) Option {
	return func(m *Middleware) error {
		m.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when a request is not authorized.
// See the ErrorHandler type for more information.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(m *Middleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithExclusionUrls configures URLs that are served without authorization.
// URLs can be full URLs or just paths.
func WithExclusionUrls(exclusions []string) Option {
	return func(m *Middleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithLogger sets an optional logger for the middleware. When the
// Middleware builds its own Authorizer, the logger is handed down to the
// key set resolver, the validator and the Authorizer.
func WithLogger(logger Logger) Option {
	return func(m *Middleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}

// WithMetrics sets where the Authorizer built by the Middleware records
// its metrics. It has no effect together with WithAuthorizer.
func WithMetrics(metrics core.Metrics) Option {
	return func(m *Middleware) error {
		if metrics == nil {
			return ErrMetricsNil
		}
		m.metrics = metrics
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrUserPoolMissing    = errors.New("region and user pool id are required (use WithUserPool)")
	ErrAuthorizerNil      = errors.New("authorizer cannot be nil")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrExclusionUrlsEmpty = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil          = errors.New("logger cannot be nil")
	ErrMetricsNil         = errors.New("metrics cannot be nil")
)
