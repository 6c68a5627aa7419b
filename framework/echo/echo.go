// Package cognitoecho authorizes echo requests carrying Cognito tokens.
package cognitoecho

import (
	"github.com/labstack/echo/v4"

	"github.com/go-cognito/cognitoauth"
	"github.com/go-cognito/cognitoauth/core"
)

// DefaultPrincipalKey is the echo context key the principal is stored under.
var DefaultPrincipalKey = "cognito_principal"

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
	skipper      func(echo.Context) bool
}

// NewEchoMiddleware creates an echo middleware authorizing requests against
// the user pool identified by region and poolID.
func NewEchoMiddleware(authorizer *core.Authorizer, region, poolID string, opts ...Option) echo.MiddlewareFunc {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
		contextKey:   DefaultPrincipalKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.skipper != nil && config.skipper(c) {
				return next(c)
			}

			req := c.Request()
			principal, err := authorizer.Authorize(req.Context(), core.FromHTTPRequest(req), region, poolID)
			if err != nil {
				return config.errorHandler(c, err)
			}

			c.Set(config.contextKey, principal)
			c.SetRequest(req.WithContext(core.SetPrincipal(req.Context(), principal)))
			return next(c)
		}
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	return c.JSON(cognitoauth.StatusCode(err), cognitoauth.NewErrorResponse(err))
}

// GetPrincipal extracts the principal from the echo context
func GetPrincipal(c echo.Context, contextKey string) (string, bool) {
	if contextKey == "" {
		contextKey = DefaultPrincipalKey
	}
	principal, ok := c.Get(contextKey).(string)
	return principal, ok
}
