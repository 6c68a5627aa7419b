// Package cognitogin authorizes gin requests carrying Cognito tokens.
package cognitogin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/go-cognito/cognitoauth"
	"github.com/go-cognito/cognitoauth/core"
)

// DefaultPrincipalKey is the gin context key the principal is stored under.
const DefaultPrincipalKey = "cognito_principal"

var (
	ErrMissingPrincipal = errors.New("no principal found in context")
	ErrInvalidPrincipal = errors.New("invalid principal type")
)

type ginMiddlewareConfig struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
}

// NewGinMiddleware creates a gin middleware authorizing requests against
// the user pool identified by region and poolID. The principal is stored in
// the gin context under the configured key and in the request context.
func NewGinMiddleware(authorizer *core.Authorizer, region, poolID string, opts ...Option) gin.HandlerFunc {
	config := &ginMiddlewareConfig{
		errorHandler: defaultGinErrorHandler,
		contextKey:   DefaultPrincipalKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	return func(c *gin.Context) {
		principal, err := authorizer.Authorize(c.Request.Context(), c, region, poolID)
		if err != nil {
			config.errorHandler(c, err)
			c.Abort()
			return
		}

		c.Set(config.contextKey, principal)
		c.Request = c.Request.WithContext(core.SetPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	c.AbortWithStatusJSON(cognitoauth.StatusCode(err), cognitoauth.NewErrorResponse(err))
}

// GetPrincipal returns the principal stored by the middleware.
func GetPrincipal(c *gin.Context, contextKey string) (string, error) {
	if contextKey == "" {
		contextKey = DefaultPrincipalKey
	}
	value, exists := c.Get(contextKey)
	if !exists {
		return "", ErrMissingPrincipal
	}

	principal, ok := value.(string)
	if !ok {
		return "", ErrInvalidPrincipal
	}

	return principal, nil
}
