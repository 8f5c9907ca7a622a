package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRoutePolicyIsPublic(t *testing.T) {
	p := DefaultRoutePolicy()

	public := []string{"/auth/login", "/auth/register", "/swagger", "/swagger/index.html", "/swagger/doc.json", "/healthz", "/metrics"}
	for _, path := range public {
		assert.True(t, p.IsPublic(path), path)
	}

	protected := []string{"/", "/users", "/users/1", "/admin/data", "/auth/login/extra", "/swaggerx", "/auth"}
	for _, path := range protected {
		assert.False(t, p.IsPublic(path), path)
	}
}

func withIdentity(r *http.Request, a *Authentication) *http.Request {
	return r.WithContext(NewContextWithAuthentication(r.Context(), a))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestEnforce(t *testing.T) {
	h := DefaultRoutePolicy().Enforce(okHandler())

	tests := []struct {
		name     string
		path     string
		identity *Authentication
		want     int
	}{
		{"public without identity", "/auth/login", nil, http.StatusOK},
		{"protected without identity", "/users", nil, http.StatusUnauthorized},
		{"unknown path without identity", "/nope", nil, http.StatusUnauthorized},
		{"protected with identity", "/users", NewAuthentication("user"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.identity != nil {
				req = withIdentity(req, tt.identity)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAuthority(t *testing.T) {
	h := RequireAuthority(AuthorityAdmin)(okHandler())

	tests := []struct {
		name     string
		identity *Authentication
		want     int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"without authority", NewAuthentication("user"), http.StatusForbidden},
		{"with other authority", NewAuthentication("ops", "AUDIT"), http.StatusForbidden},
		{"admin", NewAuthentication("admin", AuthorityAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/data", nil)
			if tt.identity != nil {
				req = withIdentity(req, tt.identity)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthenticationFromContext(t *testing.T) {
	_, ok := AuthenticationFromContext(context.Background())
	assert.False(t, ok)

	roles := []string{AuthorityAdmin}
	a := NewAuthentication("admin", roles...)
	roles[0] = "MUTATED"
	assert.True(t, a.HasAuthority(AuthorityAdmin))

	got := a.Authorities()
	got[0] = "MUTATED"
	assert.Equal(t, []string{AuthorityAdmin}, a.Authorities())

	ctx := NewContextWithAuthentication(context.Background(), a)
	back, ok := AuthenticationFromContext(ctx)
	assert.True(t, ok)
	assert.Same(t, a, back)
}
