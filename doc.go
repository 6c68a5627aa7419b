/*
Package cognitoauth authorizes requests carrying Amazon Cognito user pool
tokens.

A token is accepted when its kid names exactly one key of the user pool's
published key set, it decodes and verifies with that key, it was issued by
the user pool, it is an id or access token and it has not expired. The
authorized principal is the cognito:username claim of an id token or the
username claim of an access token.

This package is the net/http adapter. The same logic is available for gin,
echo and gRPC under framework/, and framework-agnostically in core.

# Quick Start

	import (
	    "github.com/go-cognito/cognitoauth"
	)

	func main() {
	    middleware, err := cognitoauth.New(
	        cognitoauth.WithUserPool("us-east-1", "us-east-1_AbCdEf123"),
	    )
	    if err != nil {
	        log.Fatal(err)
	    }

	    http.Handle("/api/", middleware.CheckToken(apiHandler))
	    http.ListenAndServe(":8080", nil)
	}

# Accessing the Principal

	func apiHandler(w http.ResponseWriter, r *http.Request) {
	    principal, err := cognitoauth.GetPrincipal(r.Context())
	    if err != nil {
	        http.Error(w, "no principal", http.StatusInternalServerError)
	        return
	    }
	    fmt.Fprintf(w, "hello %s", principal)
	}

# Error Handling

DefaultErrorHandler answers 400 when the request carries no token, 401 when
the token names no principal or fails validation and 500 otherwise. The JSON
body names the failed step:

	{"message":"Token validation failed","code":"validation_failed","reason":"expired"}

Provide WithErrorHandler to shape the response yourself. StatusCode and
NewErrorResponse are exported for that purpose.

# Key Set Caching

By default the Middleware fetches the key set through a jwks.CachingResolver
held in memory. To share the cache between instances, back it with Redis and
pass the Authorizer in:

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	resolver, _ := jwks.NewCachingResolver(jwks.WithStore(jwks.NewRedisStore(rdb)))
	v, _ := validator.New()
	authorizer, _ := core.New(core.WithKeySetProvider(resolver), core.WithValidator(v))

	middleware, err := cognitoauth.New(
	    cognitoauth.WithUserPool(region, poolID),
	    cognitoauth.WithAuthorizer(authorizer),
	)

# Logging and Metrics

NewLogrusLogger, NewZapLogger and NewZerologLogger adapt the common logging
libraries. NewPrometheusMetrics records authorization outcomes and
durations:

	middleware, err := cognitoauth.New(
	    cognitoauth.WithUserPool(region, poolID),
	    cognitoauth.WithLogger(cognitoauth.NewZapLogger(zapLogger)),
	    cognitoauth.WithMetrics(cognitoauth.NewPrometheusMetrics(prometheus.DefaultRegisterer)),
	)
*/
package cognitoauth
