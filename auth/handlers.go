package auth

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/users"
)

// Handlers wraps the AuthService to provide HTTP handlers.
type Handlers struct {
	service *AuthService
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *AuthService) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts /auth/login and /auth/register.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin())
		r.Post("/register", h.HandleRegister())
	})
}

// HandleLogin godoc
// @Summary Log in
// @Description Credentials come either as a JSON body or as form/query parameters "username" and "password".
// @Tags auth
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce json
// @Param credentials body LoginRequest false "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readLoginRequest(w, r)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, resp)
	}
}

// readLoginRequest takes credentials from a JSON body when the request
// declares one, and from form or query parameters otherwise.
func readLoginRequest(w http.ResponseWriter, r *http.Request) (LoginRequest, error) {
	var req LoginRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		err := users.DecodeJSON(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, users.MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return req, apperror.NewBadRequestError("Parâmetros inválidos", err)
	}
	req.Username = r.Form.Get("username")
	req.Password = r.Form.Get("password")
	return req, nil
}

// HandleRegister godoc
// @Summary Register a user
// @Tags auth
// @Accept json
// @Produce json
// @Param user body users.CreateUserRequest true "New user"
// @Success 201 {object} users.User
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.CreateUserRequest
		if err := users.DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		created, err := h.service.Register(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, created)
	}
}
