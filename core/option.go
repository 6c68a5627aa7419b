package core

import (
	"errors"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Option is a function that configures the Authorizer.
// Options return errors to enable validation during construction.
type Option func(*Authorizer) error

// New creates a new Authorizer with the provided options.
//
// The Authorizer must be configured with a KeySetProvider and a
// TokenValidator. All other options are optional.
//
// Example:
//
//	resolver, _ := jwks.NewCachingResolver()
//	v, _ := validator.New()
//
//	authorizer, err := core.New(
//	    core.WithKeySetProvider(resolver),
//	    core.WithValidator(v),
//	    core.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Authorizer, error) {
	a := &Authorizer{
		tracer:     defaultTracer(),
		headerName: DefaultHeaderName,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if err := a.validate(); err != nil {
		return nil, err
	}

	return a, nil
}

// validate ensures all required fields are set.
func (a *Authorizer) validate() error {
	if a.keys == nil {
		return NewAuthorizationError(
			ErrorCodeConfigInvalid,
			"key set provider is required but not set (use WithKeySetProvider option)",
			nil,
		)
	}
	if a.validator == nil {
		return NewAuthorizationError(
			ErrorCodeConfigInvalid,
			"validator is required but not set (use WithValidator option)",
			nil,
		)
	}
	return nil
}

// WithKeySetProvider sets where the Authorizer gets key sets from.
// This is a required option.
func WithKeySetProvider(provider KeySetProvider) Option {
	return func(a *Authorizer) error {
		if provider == nil {
			return errors.New("key set provider cannot be nil")
		}
		a.keys = provider
		return nil
	}
}

// WithValidator sets the validator for the Authorizer.
// This is a required option.
func WithValidator(validator TokenValidator) Option {
	return func(a *Authorizer) error {
		if validator == nil {
			return errors.New("validator cannot be nil")
		}
		a.validator = validator
		return nil
	}
}

// WithLogger sets an optional logger for the Authorizer.
//
// When configured, the Authorizer logs the outcome and duration of every
// authorization and warns when a key set cannot be fetched.
func WithLogger(logger Logger) Option {
	return func(a *Authorizer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}

// WithMetrics sets where outcome counters and durations are recorded.
func WithMetrics(metrics Metrics) Option {
	return func(a *Authorizer) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		a.metrics = metrics
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer used for authorization spans.
// The global tracer provider is used by default.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Authorizer) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		a.tracer = tracer
		return nil
	}
}

// WithHeaderName sets the header the token is read from.
// Default: "Authorization"
func WithHeaderName(name string) Option {
	return func(a *Authorizer) error {
		if strings.TrimSpace(name) == "" {
			return errors.New("header name cannot be empty")
		}
		a.headerName = name
		return nil
	}
}
