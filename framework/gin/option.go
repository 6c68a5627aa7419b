package cognitogin

import (
	"github.com/gin-gonic/gin"
)

// Option defines a functional option for configuring the middleware
type Option func(*ginMiddlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *ginMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets a custom gin context key to store the principal
func WithContextKey(key string) Option {
	return func(config *ginMiddlewareConfig) {
		config.contextKey = key
	}
}
