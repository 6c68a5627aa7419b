/*
Package core provides the framework-agnostic request authorization logic
shared by the HTTP, gin, echo and gRPC adapters.

# Architecture

	┌─────────────────────────────────────────────┐
	│         Transport Adapters                  │
	│   (net/http, gin, echo, gRPC interceptors)  │
	└────────────────┬────────────────────────────┘
	                 │ HeaderGetter
	                 ▼
	┌─────────────────────────────────────────────┐
	│          Authorizer (THIS PACKAGE)          │
	│  • Bearer token extraction                  │
	│  • Principal extraction                     │
	│  • Logging, metrics and tracing             │
	└───────┬───────────────────────────┬─────────┘
	        │                           │
	        ▼                           ▼
	┌───────────────┐         ┌───────────────────┐
	│ KeySetProvider│         │  TokenValidator   │
	│    (jwks)     │         │    (validator)    │
	└───────────────┘         └───────────────────┘

# Basic Usage

	resolver, err := jwks.NewCachingResolver()
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New()
	if err != nil {
	    log.Fatal(err)
	}

	authorizer, err := core.New(
	    core.WithKeySetProvider(resolver),
	    core.WithValidator(v),
	)
	if err != nil {
	    log.Fatal(err)
	}

	principal, err := authorizer.Authorize(ctx, core.FromHTTPRequest(r), "us-east-1", "us-east-1_AbCdEf123")

Any type with a GetHeader(name string) string method can be authorized;
*gin.Context qualifies as is and HeaderFunc adapts anything else.

# Error Handling

	principal, err := authorizer.Authorize(ctx, req, region, poolID)
	if err != nil {
	    switch {
	    case errors.Is(err, core.ErrTokenMissing):
	        // 400
	    case errors.Is(err, validator.ErrExpired):
	        // 401, the client should refresh its token
	    default:
	        var authErr *core.AuthorizationError
	        if errors.As(err, &authErr) {
	            log.Printf("rejected: %s", authErr.Code)
	        }
	    }
	}

# Context Helpers

	ctx = core.SetPrincipal(ctx, principal)

	principal, err := core.GetPrincipal(ctx)
	if core.HasPrincipal(ctx) {
	    // Principal is present
	}
*/
package core
