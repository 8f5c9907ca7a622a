package auth

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/metrics"
	"github.com/suporte/usuarios-api/password"
	"github.com/suporte/usuarios-api/users"
)

// TokenIssuer is the part of TokenCodec the AuthService depends on.
type TokenIssuer interface {
	Issue(username string, authorities ...string) (string, error)
	Validity() time.Duration
}

// UserDirectory is the part of users.UserService used for login and
// registration.
type UserDirectory interface {
	Authenticate(ctx context.Context, email, rawPassword string) (*users.User, error)
	Create(ctx context.Context, req users.CreateUserRequest) (*users.User, error)
}

// AuthService handles login and public registration.
type AuthService struct {
	accounts *AccountStore
	encoder  password.Encoder
	users    UserDirectory
	tokens   TokenIssuer
	recorder Recorder
	logger   logrus.FieldLogger
}

// NewAuthService creates a new AuthService. recorder and logger may be nil.
func NewAuthService(accounts *AccountStore, encoder password.Encoder, users UserDirectory, tokens TokenIssuer, recorder Recorder, logger logrus.FieldLogger) *AuthService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuthService{
		accounts: accounts,
		encoder:  encoder,
		users:    users,
		tokens:   tokens,
		recorder: recorder,
		logger:   logger.WithField("component", "auth"),
	}
}

// Login checks the credentials against the seed accounts first and the user
// store second, and issues a token on success. Store users are identified by
// e-mail and carry no authorities.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	subject, authorities, err := s.resolve(ctx, req)
	if err != nil {
		if apperror.IsAuthError(err) {
			s.recorder.LoginAttempt(metrics.LoginFailure)
			s.logger.WithField("username", req.Username).Info("login rejected")
		}
		return nil, err
	}

	token, err := s.tokens.Issue(subject, authorities...)
	if err != nil {
		return nil, apperror.NewInternalError("falha ao emitir o token", err)
	}

	s.recorder.LoginAttempt(metrics.LoginSuccess)
	s.logger.WithField("username", subject).Info("login succeeded")
	return &TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokens.Validity() / time.Second),
	}, nil
}

func (s *AuthService) resolve(ctx context.Context, req LoginRequest) (string, []string, error) {
	if acc, ok := s.accounts.Lookup(req.Username); ok && s.encoder.Matches(req.Password, acc.PasswordHash) {
		return acc.Username, acc.Authorities, nil
	}

	u, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return "", nil, err
	}
	return u.Email, nil, nil
}

// Register creates a user through the user service.
func (s *AuthService) Register(ctx context.Context, req users.CreateUserRequest) (*users.User, error) {
	return s.users.Create(ctx, req)
}
