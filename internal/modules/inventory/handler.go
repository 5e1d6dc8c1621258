package inventory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
)

// Handler exposes inventory HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Get("/products/{id}", h.getStock)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(user.RoleSeller, user.RoleAdmin))
			r.Patch("/products/{id}/stock", h.updateStock)
			r.Patch("/products/{id}/availability", h.setAvailability)
		})
	})
}

func (h *Handler) getStock(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetStock(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "stock": item})
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	if body.Quantity == nil {
		httpx.WriteError(r.Context(), w, apperr.InvalidInput("quantity is required"))
		return
	}
	item, err := h.service.UpdateStock(r.Context(), principal, chi.URLParam(r, "id"), *body.Quantity)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "stock": item})
}

func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	var body struct {
		Available *bool `json:"available"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	if body.Available == nil {
		httpx.WriteError(r.Context(), w, apperr.InvalidInput("available is required"))
		return
	}
	item, err := h.service.SetAvailability(r.Context(), principal, chi.URLParam(r, "id"), *body.Available)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "stock": item})
}
