// Package cognitogrpc authorizes gRPC calls carrying Cognito tokens in the
// "authorization" metadata key.
package cognitogrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/go-cognito/cognitoauth/core"
)

// Logger defines an optional logging interface for the interceptor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Interceptor authorizes unary and streaming calls against one user pool.
type Interceptor struct {
	authorizer       *core.Authorizer
	region           string
	poolID           string
	exclusionChecker func(method string) bool
	logger           Logger
}

// New creates an Interceptor delegating to authorizer.
func New(authorizer *core.Authorizer, region, poolID string, opts ...Option) *Interceptor {
	i := &Interceptor{
		authorizer: authorizer,
		region:     region,
		poolID:     poolID,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// Metadata adapts incoming gRPC metadata to core.HeaderGetter.
type Metadata metadata.MD

// GetHeader returns the first value of the metadata key name.
func (md Metadata) GetHeader(name string) string {
	values := metadata.MD(md).Get(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// authenticate returns ctx with the authorized principal stored in it.
func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if i.exclusionChecker != nil && i.exclusionChecker(method) {
		if i.logger != nil {
			i.logger.Debug("Method excluded from authorization", "method", method)
		}
		return ctx, nil
	}

	md, _ := metadata.FromIncomingContext(ctx)
	principal, err := i.authorizer.Authorize(ctx, Metadata(md), i.region, i.poolID)
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("Call not authorized", "method", method, "error", err)
		}
		return nil, status.Error(statusCode(err), err.Error())
	}

	return core.SetPrincipal(ctx, principal), nil
}

func statusCode(err error) codes.Code {
	var authErr *core.AuthorizationError
	if errors.As(err, &authErr) && authErr.Code != core.ErrorCodeConfigInvalid {
		return codes.Unauthenticated
	}
	return codes.Internal
}

// UnaryServerInterceptor returns a gRPC unary server interceptor.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}

// PrincipalFromContext returns the principal stored by the interceptors.
func PrincipalFromContext(ctx context.Context) (string, error) {
	return core.GetPrincipal(ctx)
}
