package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	principalKey contextKey = iota
)

// SetPrincipal stores the authorized principal in the context.
// This is a helper function for adapters to call after Authorize succeeds.
func SetPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// GetPrincipal retrieves the principal stored by SetPrincipal.
//
// Example usage:
//
//	principal, err := core.GetPrincipal(r.Context())
//	if err != nil {
//	    return err
//	}
func GetPrincipal(ctx context.Context) (string, error) {
	principal, ok := ctx.Value(principalKey).(string)
	if !ok {
		return "", ErrPrincipalNotInContext
	}
	return principal, nil
}

// HasPrincipal checks if a principal exists in the context without retrieving it.
func HasPrincipal(ctx context.Context) bool {
	_, ok := ctx.Value(principalKey).(string)
	return ok
}
