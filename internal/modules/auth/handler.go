package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
)

// Handler exposes the sign-in endpoint.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/auth/signin", h.signIn)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "token": token})
}
