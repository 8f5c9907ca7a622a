package users

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/password"
)

// UserService holds the business rules for user records. Every method
// returns *apperror.AppError values for expected failures.
type UserService struct {
	repo    Repository
	encoder password.Encoder
	logger  logrus.FieldLogger
}

// NewUserService creates a new UserService.
func NewUserService(repo Repository, encoder password.Encoder, logger logrus.FieldLogger) *UserService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UserService{repo: repo, encoder: encoder, logger: logger.WithField("component", "users")}
}

// Create hashes the password and stores a new user. The email must not be
// registered yet.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Fast path only; the repository decides under concurrency.
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.NewDatabaseError("falha ao consultar usuários", err)
	}
	if exists {
		return nil, apperror.NewDuplicateEmailError(nil)
	}

	hash, err := s.encoder.Encode(req.Password)
	if err != nil {
		return nil, apperror.NewInternalError("falha ao processar a senha", err)
	}

	created, err := s.repo.Create(ctx, &User{Name: req.Name, Email: req.Email, PasswordHash: hash})
	if err != nil {
		return nil, s.translate(err, "falha ao criar usuário")
	}

	s.logger.WithField("user_id", created.ID).Info("user created")
	return created, nil
}

// GetByID returns the user with the given id or a NotFoundError.
func (s *UserService) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "falha ao buscar usuário")
	}
	return u, nil
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]User, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("falha ao listar usuários", err)
	}
	return list, nil
}

// Update overwrites name and email. The password is re-hashed only when the
// request carries one that neither equals the stored hash nor matches it.
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "falha ao buscar usuário")
	}

	if req.Email != current.Email {
		exists, err := s.repo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, apperror.NewDatabaseError("falha ao consultar usuários", err)
		}
		if exists {
			return nil, apperror.NewDuplicateEmailError(nil)
		}
	}

	next := *current
	next.Name = req.Name
	next.Email = req.Email
	if s.passwordChanged(req.Password, current.PasswordHash) {
		hash, err := s.encoder.Encode(req.Password)
		if err != nil {
			return nil, apperror.NewInternalError("falha ao processar a senha", err)
		}
		next.PasswordHash = hash
	}

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		return nil, s.translate(err, "falha ao atualizar usuário")
	}

	s.logger.WithField("user_id", updated.ID).Info("user updated")
	return updated, nil
}

func (s *UserService) passwordChanged(incoming, storedHash string) bool {
	if incoming == "" || incoming == storedHash {
		return false
	}
	return !s.encoder.Matches(incoming, storedHash)
}

// Delete removes the user with the given id.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, "falha ao remover usuário")
	}
	s.logger.WithField("user_id", id).Info("user deleted")
	return nil
}

// Authenticate checks an email and raw password against the store. Any
// mismatch, including an unknown email, is the same AuthError.
func (s *UserService) Authenticate(ctx context.Context, email, rawPassword string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperror.NewAuthError(apperror.MsgInvalidCredentials, nil)
		}
		return nil, apperror.NewDatabaseError("falha ao buscar usuário", err)
	}
	if !s.encoder.Matches(rawPassword, u.PasswordHash) {
		return nil, apperror.NewAuthError(apperror.MsgInvalidCredentials, nil)
	}
	return u, nil
}

// translate maps repository sentinels to AppErrors; anything else is a
// database failure described by msg.
func (s *UserService) translate(err error, msg string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperror.NewNotFoundError(apperror.MsgUserNotFound, err)
	case errors.Is(err, ErrDuplicateEmail):
		return apperror.NewDuplicateEmailError(err)
	default:
		return apperror.NewDatabaseError(msg, err)
	}
}
