package users

import (
	"context"
	"errors"
)

// Repository-level errors. The service translates them into apperror values.
var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository persists users. Implementations are the source of truth for
// e-mail uniqueness: Create and Update must fail with ErrDuplicateEmail
// atomically, whatever checks the caller ran beforehand.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id int64) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
