package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
)

// Handler exposes the caller's cart.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes expects authn to run upstream.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(auth.RequireRole(user.RoleCustomer))
		r.Get("/", h.getCart)
		r.Post("/items", h.addItem)
		r.Put("/items/{product_id}", h.updateQuantity)
		r.Delete("/items/{product_id}", h.removeItem)
		r.Delete("/", h.clear)
	})
}

func customerID(r *http.Request) (string, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return "", apperr.Unauthorized("authentication required")
	}
	return p.UserID, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	c, err := h.service.GetCart(r.Context(), id)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "cart": c})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), id, req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, map[string]any{"success": true, "item": item})
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	if err := h.service.UpdateQuantity(r.Context(), id, chi.URLParam(r, "product_id"), body.Quantity); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	if err := h.service.RemoveItem(r.Context(), id, chi.URLParam(r, "product_id")); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	id, err := customerID(r)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	if err := h.service.Clear(r.Context(), id); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
