// Package admin serves the routes reserved for ADMIN identities.
package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/suporte/usuarios-api/apperror"
	"github.com/suporte/usuarios-api/auth"
)

// DataMessage is the payload of GET /admin/data.
const DataMessage = "Dados de admin acessados com sucesso"

// Handlers provides the admin HTTP handlers.
type Handlers struct{}

// NewHandlers creates admin Handlers.
func NewHandlers() *Handlers {
	return &Handlers{}
}

// RegisterRoutes mounts /admin behind the ADMIN authority check.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuthority(auth.AuthorityAdmin))
		r.Get("/data", h.HandleData())
	})
}

// HandleData godoc
// @Summary Admin data
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {string} string "Dados de admin acessados com sucesso"
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse
// @Router /admin/data [get]
func (h *Handlers) HandleData() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteJSON(w, http.StatusOK, DataMessage)
	}
}
