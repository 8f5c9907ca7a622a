package users

import (
	"strings"

	"github.com/suporte/usuarios-api/validation"
)

// CreateUserRequest is the payload of POST /users and POST /auth/register.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required" example:"Maria Silva"`
	Email    string `json:"email" validate:"required,email" example:"maria@example.com"`
	Password string `json:"password" validate:"required,maxbytes=72" example:"s3nh4-f0rte"`
}

// UpdateUserRequest is the payload of PUT /users/{id}. An empty password
// keeps the stored one.
type UpdateUserRequest struct {
	Name     string `json:"name" validate:"required" example:"Maria Silva"`
	Email    string `json:"email" validate:"required,email" example:"maria@example.com"`
	Password string `json:"password,omitempty" validate:"maxbytes=72" example:"n0v4-s3nh4"`
}

var userMessages = validation.Messages{
	"name.required":     "O nome é obrigatório",
	"email.required":    "O e-mail é obrigatório",
	"email.email":       "E-mail inválido",
	"password.required": "A senha é obrigatória",
	"password.maxbytes": "A senha deve ter no máximo 72 bytes",
}

// Normalize trims surrounding whitespace so blank values fail "required",
// and lowercases the email. The password is left untouched.
func (r *CreateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

// Validate normalizes and validates the request.
func (r *CreateUserRequest) Validate() error {
	r.Normalize()
	return validation.Struct(r, userMessages)
}

// Normalize trims name and email and lowercases the email.
func (r *UpdateUserRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
}

// NormalizeEmail is the stored form of an email: emails differing only in
// case belong to the same user.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate normalizes and validates the request.
func (r *UpdateUserRequest) Validate() error {
	r.Normalize()
	return validation.Struct(r, userMessages)
}
