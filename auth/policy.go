package auth

import (
	"net/http"
	"strings"

	"github.com/suporte/usuarios-api/apperror"
)

// AuthorityAdmin grants access to administrative routes.
const AuthorityAdmin = "ADMIN"

const (
	msgAuthenticationRequired = "Autenticação necessária"
	msgAccessDenied           = "Acesso negado"
)

// RoutePolicy is the allow-list of paths reachable without an identity.
type RoutePolicy struct {
	exact    map[string]struct{}
	prefixes []string
}

// NewRoutePolicy builds a policy from exact paths and path prefixes.
func NewRoutePolicy(exact, prefixes []string) *RoutePolicy {
	p := &RoutePolicy{
		exact:    make(map[string]struct{}, len(exact)),
		prefixes: append([]string(nil), prefixes...),
	}
	for _, path := range exact {
		p.exact[path] = struct{}{}
	}
	return p
}

// DefaultRoutePolicy opens login, registration, the API documentation and
// the operational endpoints.
func DefaultRoutePolicy() *RoutePolicy {
	return NewRoutePolicy(
		[]string{"/auth/login", "/auth/register", "/swagger", "/healthz", "/metrics"},
		[]string{"/swagger/"},
	)
}

// IsPublic reports whether path may be served without an identity.
func (p *RoutePolicy) IsPublic(path string) bool {
	if _, ok := p.exact[path]; ok {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Enforce rejects requests to non-public paths with 401 unless the Gate
// installed an Authentication. It must run after Gate.Middleware.
func (p *RoutePolicy) Enforce(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := AuthenticationFromContext(r.Context()); !ok {
			apperror.WriteError(w, r, apperror.NewAuthError(msgAuthenticationRequired, nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority restricts a route to identities holding authority:
// 401 without an identity, 403 without the authority.
func RequireAuthority(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, ok := AuthenticationFromContext(r.Context())
			if !ok {
				apperror.WriteError(w, r, apperror.NewAuthError(msgAuthenticationRequired, nil))
				return
			}
			if !a.HasAuthority(authority) {
				apperror.WriteError(w, r, apperror.NewForbiddenError(msgAccessDenied, nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
