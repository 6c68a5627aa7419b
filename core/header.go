package core

import (
	"net/http"
	"strings"
)

// DefaultHeaderName is the header the token is read from.
const DefaultHeaderName = "Authorization"

// BearerPrefix is stripped from the header value when present.
const BearerPrefix = "Bearer "

// HeaderGetter gives access to the headers of an incoming request.
// *gin.Context satisfies it directly.
type HeaderGetter interface {
	GetHeader(name string) string
}

// HeaderFunc adapts a function to HeaderGetter.
type HeaderFunc func(name string) string

// GetHeader calls f(name).
func (f HeaderFunc) GetHeader(name string) string {
	return f(name)
}

// FromHTTPRequest returns a HeaderGetter reading the headers of r.
func FromHTTPRequest(r *http.Request) HeaderGetter {
	return HeaderFunc(r.Header.Get)
}

// ExtractBearerToken strips a literal "Bearer " prefix from value. Values
// without the prefix are returned unchanged.
func ExtractBearerToken(value string) string {
	return strings.TrimPrefix(value, BearerPrefix)
}
