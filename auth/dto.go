package auth

import (
	"strings"

	"github.com/suporte/usuarios-api/validation"
)

// LoginRequest carries login credentials. The username is either a seed
// account name or a registered e-mail.
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"admin"`
	Password string `json:"password" validate:"required" example:"admin"`
}

var loginMessages = validation.Messages{
	"username.required": "O usuário é obrigatório",
	"password.required": "A senha é obrigatória",
}

// Validate trims the username and checks both fields are present.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	return validation.Struct(r, loginMessages)
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	Token     string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType string `json:"token_type" example:"Bearer"`
	ExpiresIn int64  `json:"expires_in" example:"86400"`
}
