/*
Package jwks resolves the public signing keys of a Cognito user pool.

A user pool is identified by its region and pool ID. Both are formatted into
the issuer URL that Cognito writes into the iss claim, and the key set is
published under that issuer at /.well-known/jwks.json:

	issuer := jwks.IssuerURL("ap-southeast-2", "ap-southeast-2_xxxxxxxxx")
	// https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_xxxxxxxxx
	endpoint := jwks.KeySetEndpoint(issuer)
	// https://cognito-idp.ap-southeast-2.amazonaws.com/ap-southeast-2_xxxxxxxxx/.well-known/jwks.json

# Resolvers

Resolver downloads the key set on every call. Failures never escape as raw
transport errors: Resolve returns a Result that carries an empty key set and
a diagnostic wrapping ErrKeySetFetchFailed, so validation ends with a clean
"no matching key" outcome.

	resolver, err := jwks.NewResolver(
	    jwks.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	)
	if err != nil {
	    log.Fatal(err)
	}

	result := resolver.Resolve(ctx, issuer)
	if !result.OK() {
	    log.Printf("key set unavailable: %v", result.Err())
	}

CachingResolver keeps the last good key set of each issuer for a TTL. At most
one download per issuer is in flight at any time, failed downloads are never
cached, and the number of cached issuers is bounded by an LRU. The backing
Store can be swapped, for example for Redis when several instances should
share the downloaded keys:

	store := jwks.NewRedisStore(redis.NewClient(&redis.Options{Addr: "localhost:6379"}))

	cached, err := jwks.NewCachingResolver(
	    jwks.WithResolver(resolver),
	    jwks.WithCacheTTL(30*time.Minute),
	    jwks.WithStore(store),
	)
*/
package jwks
