package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// ActorFunc resolves the authenticated caller from a request context.
type ActorFunc func(ctx context.Context) (Actor, bool)

type Handler struct {
	service Service
	actor   ActorFunc
}

func NewHandler(service Service, actor ActorFunc) *Handler {
	return &Handler{service: service, actor: actor}
}

// RegisterRoutes mounts registration publicly and account management behind authn.
func (h *Handler) RegisterRoutes(router chi.Router, authn func(http.Handler) http.Handler) {
	router.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h.registerUser)
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Get("/profile", h.profile)
			r.Get("/all", h.listUsers)
			r.Get("/{id}", h.getUser)
			r.Put("/{id}", h.updateUser)
			r.Delete("/{id}", h.deleteUser)
		})
	})
}

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}

	httpx.Respond(w, http.StatusCreated, map[string]any{"success": true, "user": user})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	actor, ok := h.actor(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
	}
	return actor, ok
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	user, err := h.service.Profile(r.Context(), actor)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	result, err := h.service.ListUsers(r.Context(), actor, page)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{
		"success":      true,
		"users":        result.Users,
		"total_users":  result.TotalUsers,
		"current_page": result.CurrentPage,
		"total_pages":  result.TotalPages,
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}

	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	user, err := h.service.UpdateUser(r.Context(), actor, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.caller(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "message": "user deleted"})
}
