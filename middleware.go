package cognitoauth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-cognito/cognitoauth/core"
	"github.com/go-cognito/cognitoauth/jwks"
	"github.com/go-cognito/cognitoauth/validator"
)

// Middleware authorizes net/http requests against one Cognito user pool.
type Middleware struct {
	authorizer          *core.Authorizer
	region              string
	poolID              string
	errorHandler        ErrorHandler
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              Logger
	metrics             core.Metrics
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be let through without authorization.
type ExclusionURLHandler func(r *http.Request) bool

// New constructs a new Middleware instance with the supplied options.
// WithUserPool is required. Without WithAuthorizer, the Middleware builds
// one from a jwks.CachingResolver and a validator with default settings.
//
// Example:
//
//	middleware, err := cognitoauth.New(
//	    cognitoauth.WithUserPool("us-east-1", "us-east-1_AbCdEf123"),
//	    cognitoauth.WithLogger(cognitoauth.NewLogrusLogger(logrus.StandardLogger())),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create middleware: %v", err)
//	}
//
//	http.ListenAndServe(":8080", middleware.CheckToken(handler))
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		validateOnOptions: true,
		errorHandler:      DefaultErrorHandler,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.region == "" || m.poolID == "" {
		return nil, fmt.Errorf("invalid middleware configuration: %w", ErrUserPoolMissing)
	}

	if m.authorizer == nil {
		authorizer, err := m.defaultAuthorizer()
		if err != nil {
			return nil, fmt.Errorf("failed to create authorizer: %w", err)
		}
		m.authorizer = authorizer
	}

	return m, nil
}

func (m *Middleware) defaultAuthorizer() (*core.Authorizer, error) {
	var (
		cachingOpts   []jwks.CachingOption
		validatorOpts []validator.Option
		coreOpts      []core.Option
	)
	if m.logger != nil {
		resolver, err := jwks.NewResolver(jwks.WithLogger(m.logger))
		if err != nil {
			return nil, err
		}
		cachingOpts = append(cachingOpts, jwks.WithResolver(resolver), jwks.WithCachingLogger(m.logger))
		validatorOpts = append(validatorOpts, validator.WithLogger(m.logger))
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}
	if m.metrics != nil {
		coreOpts = append(coreOpts, core.WithMetrics(m.metrics))
	}

	resolver, err := jwks.NewCachingResolver(cachingOpts...)
	if err != nil {
		return nil, err
	}
	v, err := validator.New(validatorOpts...)
	if err != nil {
		return nil, err
	}

	coreOpts = append(coreOpts, core.WithKeySetProvider(resolver), core.WithValidator(v))
	return core.New(coreOpts...)
}

// GetPrincipal returns the principal the Middleware stored in ctx.
//
// Example:
//
//	principal, err := cognitoauth.GetPrincipal(r.Context())
//	if err != nil {
//	    http.Error(w, "no principal", http.StatusInternalServerError)
//	    return
//	}
func GetPrincipal(ctx context.Context) (string, error) {
	return core.GetPrincipal(ctx)
}

// HasPrincipal checks if a principal exists in the context.
func HasPrincipal(ctx context.Context) bool {
	return core.HasPrincipal(ctx)
}

// CheckToken is the main Middleware function which performs the main logic.
// It is passed a http.Handler which will be called if the request is
// authorized, with the principal stored in the request context.
func (m *Middleware) CheckToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping authorization for excluded URL",
					"method", r.Method,
					"path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}
		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			if m.logger != nil {
				m.logger.Debug("skipping authorization for OPTIONS request")
			}
			next.ServeHTTP(w, r)
			return
		}

		principal, err := m.authorizer.Authorize(r.Context(), core.FromHTTPRequest(r), m.region, m.poolID)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("request not authorized",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path)
			}
			m.errorHandler(w, r, err)
			return
		}

		r = r.Clone(core.SetPrincipal(r.Context(), principal))
		next.ServeHTTP(w, r)
	})
}
