// Package server assembles the HTTP router: global middleware, the bearer
// token gate, the route policy and every feature's routes.
package server

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/suporte/usuarios-api/admin"
	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/auth"
	// Registers the generated Swagger document served under /swagger.
	_ "github.com/suporte/usuarios-api/docs"
	"github.com/suporte/usuarios-api/logging"
	"github.com/suporte/usuarios-api/metrics"
	"github.com/suporte/usuarios-api/users"
)

// RequestTimeout bounds the handling of a single request.
const RequestTimeout = 60 * time.Second

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Deps are the components the router wires together.
type Deps struct {
	Logger         logrus.FieldLogger
	Metrics        *metrics.Metrics
	Tokens         auth.TokenVerifier
	Policy         *auth.RoutePolicy // DefaultRoutePolicy when nil
	AllowedOrigins []string
	Auth           *auth.Handlers
	Users          *users.UserHandlers
	Admin          *admin.Handlers
	Health         HealthCheck // optional
}

// NewRouter builds the application handler. Middleware order matters: the
// gate must run before the policy, and both before any route.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.Policy == nil {
		d.Policy = auth.DefaultRoutePolicy()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(d.Logger))
	r.Use(d.Metrics.Middleware)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(RequestTimeout))
	r.Use(auth.NewGate(d.Tokens, d.Metrics).Middleware)
	r.Use(d.Policy.Enforce)

	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/healthz", healthHandler(d.Health))
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	d.Auth.RegisterRoutes(r)
	d.Users.RegisterRoutes(r)
	d.Admin.RegisterRoutes(r)

	return r
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				logging.FromRequest(r).WithError(err).Warn("health check failed")
				apperror.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		apperror.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// recoverer turns a panic into a 500 ErrorResponse and logs it with the
// request's log entry.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			if entry := middleware.GetLogEntry(r); entry != nil {
				entry.Panic(rvr, debug.Stack())
			} else {
				logging.FromRequest(r).WithField("panic", rvr).Error("request panicked")
			}
			apperror.WriteJSON(w, http.StatusInternalServerError,
				apperror.NewInternalError("falha inesperada", nil).ToResponse())
		}()
		next.ServeHTTP(w, r)
	})
}
