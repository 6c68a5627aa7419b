package core

import (
	"context"
	"errors"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-cognito/cognitoauth/jwks"
	"github.com/go-cognito/cognitoauth/validator"
)

const tracerName = "github.com/go-cognito/cognitoauth/core"

// Metric names recorded through Metrics.
const (
	MetricAuthorizeTotal     = "cognitoauth_authorize_total"
	MetricAuthorizeDuration  = "cognitoauth_authorize_duration_seconds"
	MetricKeySetFetchFailure = "cognitoauth_key_set_fetch_failures_total"
)

// KeySetProvider resolves the key set of an issuer. *jwks.Resolver and
// *jwks.CachingResolver implement it.
type KeySetProvider interface {
	Resolve(ctx context.Context, issuerURL string) jwks.Result
}

// TokenValidator checks a token against a key set. *validator.Validator
// implements it.
type TokenValidator interface {
	Validate(ctx context.Context, token, issuerURL string, keys jwk.Set) error
}

// Logger defines an optional logging interface for the Authorizer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives counters and timings from the Authorizer.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
}

// Authorizer turns an incoming request into the principal it was issued to.
// It holds no per-request state and is safe for concurrent use.
type Authorizer struct {
	keys       KeySetProvider
	validator  TokenValidator
	logger     Logger
	metrics    Metrics
	tracer     trace.Tracer
	headerName string
}

// HeaderName reports the header the Authorizer reads the token from.
func (a *Authorizer) HeaderName() string {
	return a.headerName
}

// Authorize reads the token from req, resolves the key set of the user pool
// identified by region and poolID, validates the token and returns the
// principal it names.
//
// The steps run in this order and the first failure is returned:
//   - an empty header returns ErrTokenMissing
//   - a token whose claims name no user returns ErrPrincipalNotFound
//   - a token failing validation returns ErrValidationFailed wrapping the
//     *validator.ValidationError
//
// A key set that cannot be fetched is logged and treated as empty, so the
// validation fails with validator.ReasonKeysInvalid. Nothing is retried.
func (a *Authorizer) Authorize(ctx context.Context, req HeaderGetter, region, poolID string) (principal string, err error) {
	start := time.Now()
	issuerURL := jwks.IssuerURL(region, poolID)

	ctx, span := a.tracer.Start(ctx, "cognitoauth.Authorize", trace.WithAttributes(
		attribute.String("cognito.region", region),
		attribute.String("cognito.user_pool_id", poolID),
	))
	defer func() {
		a.finish(span, time.Since(start), principal, err)
	}()

	token := ExtractBearerToken(req.GetHeader(a.headerName))
	if token == "" {
		return "", NewAuthorizationError(ErrorCodeTokenMissing, "No token found in header", nil)
	}

	principal, ok := validator.ExtractPrincipal(token)
	if !ok {
		return "", NewAuthorizationError(ErrorCodePrincipalNotFound, "Principal not found in token", nil)
	}

	result := a.keys.Resolve(ctx, issuerURL)
	if !result.OK() {
		if a.logger != nil {
			a.logger.Warn("Key set unavailable, validating against an empty key set",
				"issuer", issuerURL,
				"error", result.Err())
		}
		if a.metrics != nil {
			a.metrics.IncCounter(MetricKeySetFetchFailure, map[string]string{"issuer": issuerURL})
		}
	}

	if err := a.validator.Validate(ctx, token, issuerURL, result.Keys()); err != nil {
		return "", NewAuthorizationError(ErrorCodeValidationFailed, "Token validation failed", err)
	}

	return principal, nil
}

func (a *Authorizer) finish(span trace.Span, duration time.Duration, principal string, err error) {
	defer span.End()

	outcome := "success"
	if err != nil {
		outcome = errorCode(err)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, outcome)
		if a.logger != nil {
			a.logger.Warn("Request not authorized", "code", outcome, "error", err, "duration", duration)
		}
	} else {
		span.SetStatus(otelcodes.Ok, "")
		if a.logger != nil {
			a.logger.Debug("Request authorized", "principal", principal, "duration", duration)
		}
	}

	if a.metrics != nil {
		tags := map[string]string{"outcome": outcome}
		a.metrics.IncCounter(MetricAuthorizeTotal, tags)
		a.metrics.ObserveHistogram(MetricAuthorizeDuration, duration.Seconds(), tags)
	}
}

func errorCode(err error) string {
	var authErr *AuthorizationError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return "unknown"
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
