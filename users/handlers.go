package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/suporte/usuarios-api/apperror"
)

// UserHandlers serves the /users routes.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes mounts the CRUD routes on r. Callers are expected to have
// put the routes behind authentication.
func (h *UserHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.HandleList())
		r.Post("/", h.HandleCreate())
		r.Get("/{id}", h.HandleGet())
		r.Put("/{id}", h.HandleUpdate())
		r.Delete("/{id}", h.HandleDelete())
	})
}

// HandleList godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} User
// @Failure 401 {object} apperror.ErrorResponse
// @Router /users [get]
func (h *UserHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.List(r.Context())
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, list)
	}
}

// HandleGet godoc
// @Summary Get a user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} User
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 "Not Found"
// @Router /users/{id} [get]
func (h *UserHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		u, err := h.service.GetByID(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, u)
	}
}

// HandleCreate godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body CreateUserRequest true "New user"
// @Success 201 {object} User
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse
// @Router /users [post]
func (h *UserHandlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		created, err := h.service.Create(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, created)
	}
}

// HandleUpdate godoc
// @Summary Update a user
// @Description Name and email are always overwritten. An empty password keeps the current one.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param user body UpdateUserRequest true "User data"
// @Success 200 {object} User
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 "Not Found"
// @Failure 409 {object} apperror.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		var req UpdateUserRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		updated, err := h.service.Update(r.Context(), id, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		apperror.WriteJSON(w, http.StatusOK, updated)
	}
}

// HandleDelete godoc
// @Summary Delete a user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204 "No Content"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 "Not Found"
// @Router /users/{id} [delete]
func (h *UserHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			apperror.WriteError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeError answers NotFound with a bare 404 and defers everything else to
// the shared error writer.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.IsNotFound(err) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	apperror.WriteError(w, r, err)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NewBadRequestError("Identificador inválido: "+raw, err)
	}
	return id, nil
}

// MaxBodyBytes caps the size of JSON request bodies.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst, reporting malformed or
// oversized bodies as BadRequestError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.NewBadRequestError("Corpo da requisição muito grande", err)
		}
		return apperror.NewBadRequestError("Corpo da requisição inválido", err)
	}
	return nil
}
