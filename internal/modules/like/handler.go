package like

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
)

// Handler exposes like endpoints. Every route requires authentication.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts the like routes. Callers wrap r with the bearer
// middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/likes", func(r chi.Router) {
		r.Get("/", h.likes)
		r.Post("/", h.toggle)
		r.Get("/my-likes", h.myLikes)
	})
}

func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
	}
	return p, ok
}

func (h *Handler) likes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	summary, err := h.service.Likes(r.Context(), p, q.Get("type"), q.Get("id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{
		"success":        true,
		"entity_id":      summary.EntityID,
		"entity_type":    summary.EntityType,
		"like_count":     summary.LikeCount,
		"user_has_liked": summary.UserHasLiked,
		"likes":          summary.Likes,
	})
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.service.Toggle(r.Context(), p, q.Get("type"), q.Get("id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	message := "like removed"
	if result.Liked {
		message = "like added"
	}
	httpx.Respond(w, http.StatusOK, map[string]any{
		"success": true,
		"message": message,
		"liked":   result.Liked,
		"action":  result.Action,
	})
}

func (h *Handler) myLikes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	likes, err := h.service.MyLikes(r.Context(), p, r.URL.Query().Get("type"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "count": len(likes), "likes": likes})
}
