// Package auth issues and verifies bearer tokens, attaches the caller's
// identity to each request and decides which routes need one.
package auth

import (
	"net/http"
	"strings"

	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/logging"
	"github.com/suporte/usuarios-api/metrics"
)

const bearerPrefix = "Bearer "

// TokenVerifier is the part of TokenCodec the Gate depends on.
type TokenVerifier interface {
	Validate(token string) bool
	ExtractSubject(token string) (string, error)
	ExtractAuthorities(token string) ([]string, error)
}

// Recorder receives authentication outcomes, typically *metrics.Metrics.
type Recorder interface {
	GateOutcome(outcome string)
	LoginAttempt(result string)
}

// claimsVerifier is implemented by TokenCodec. The Gate prefers it so that a
// token is parsed, and its expiry checked, exactly once per request.
type claimsVerifier interface {
	verify(token string) (*Claims, bool)
}

type nopRecorder struct{}

func (nopRecorder) GateOutcome(string)  {}
func (nopRecorder) LoginAttempt(string) {}

// Gate runs before routing decisions and installs an Authentication into the
// request context when a valid bearer token is present. It never rejects a
// request on its own: a missing or invalid token simply leaves the request
// anonymous. The one exception is a token that validates but then cannot be
// read, which is an internal fault answered with 500.
type Gate struct {
	verifier TokenVerifier
	recorder Recorder
}

// NewGate creates a Gate. recorder may be nil.
func NewGate(verifier TokenVerifier, recorder Recorder) *Gate {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Gate{verifier: verifier, recorder: recorder}
}

// Middleware is the chi-compatible form of the gate.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			g.recorder.GateOutcome(metrics.GateNoToken)
			next.ServeHTTP(w, r)
			return
		}

		token := header[len(bearerPrefix):]
		identity, ok, err := g.authenticate(token)
		if err != nil {
			g.fault(w, r, err)
			return
		}
		if !ok {
			logging.FromRequest(r).Debug("bearer token rejected")
			g.recorder.GateOutcome(metrics.GateInvalidToken)
			next.ServeHTTP(w, r)
			return
		}

		g.recorder.GateOutcome(metrics.GateAuthenticated)
		next.ServeHTTP(w, r.WithContext(NewContextWithAuthentication(r.Context(), identity)))
	})
}

// authenticate returns the identity carried by token. ok is false for an
// invalid token; err is set only when a valid token cannot be read.
func (g *Gate) authenticate(token string) (identity *Authentication, ok bool, err error) {
	if cv, isCodec := g.verifier.(claimsVerifier); isCodec {
		claims, valid := cv.verify(token)
		if !valid {
			return nil, false, nil
		}
		return NewAuthentication(claims.Subject, claims.Roles...), true, nil
	}

	if !g.verifier.Validate(token) {
		return nil, false, nil
	}
	subject, err := g.verifier.ExtractSubject(token)
	if err != nil {
		return nil, false, err
	}
	authorities, err := g.verifier.ExtractAuthorities(token)
	if err != nil {
		return nil, false, err
	}
	return NewAuthentication(subject, authorities...), true, nil
}

func (g *Gate) fault(w http.ResponseWriter, r *http.Request, err error) {
	g.recorder.GateOutcome(metrics.GateFault)
	apperror.WriteError(w, r, apperror.NewInternalError("falha ao processar o token de autenticação", err))
}
