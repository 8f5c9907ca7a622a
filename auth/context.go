package auth

import (
	"context"
	"slices"
)

type contextKey string

const authenticationContextKey contextKey = "auth_authentication"

// Authentication is the identity established for one request from a valid
// bearer token. It only ever exists for authenticated callers.
type Authentication struct {
	principal   string
	authorities []string
}

// NewAuthentication builds an identity for principal.
func NewAuthentication(principal string, authorities ...string) *Authentication {
	return &Authentication{
		principal:   principal,
		authorities: slices.Clone(authorities),
	}
}

// Principal is the token subject (the username).
func (a *Authentication) Principal() string { return a.principal }

// Credentials is always nil; tokens are never kept after validation.
func (a *Authentication) Credentials() interface{} { return nil }

// Authorities returns a copy of the granted authorities.
func (a *Authentication) Authorities() []string { return slices.Clone(a.authorities) }

// IsAuthenticated is always true.
func (a *Authentication) IsAuthenticated() bool { return true }

// HasAuthority reports whether name was granted.
func (a *Authentication) HasAuthority(name string) bool {
	return slices.Contains(a.authorities, name)
}

// NewContextWithAuthentication returns a child of ctx carrying a.
func NewContextWithAuthentication(ctx context.Context, a *Authentication) context.Context {
	return context.WithValue(ctx, authenticationContextKey, a)
}

// AuthenticationFromContext returns the identity installed by the Gate, if any.
func AuthenticationFromContext(ctx context.Context) (*Authentication, bool) {
	a, ok := ctx.Value(authenticationContextKey).(*Authentication)
	return a, ok && a != nil
}
