package catalog

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes mounts product browsing publicly and writes behind authn.
func (h *Handler) RegisterRoutes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", h.listProducts)
		r.Get("/products/search", h.searchProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/categories", h.listCategories)
		r.Group(func(r chi.Router) {
			r.Use(authn)
			r.Post("/products/{id}/rate", h.rateProduct)
			r.With(auth.RequireRole(user.RoleSeller)).Get("/my/products", h.myProducts)
			r.With(auth.RequireRole(user.RoleAdmin)).Post("/categories", h.createCategory)
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(user.RoleSeller, user.RoleAdmin))
				r.Post("/products", h.createProduct)
				r.Put("/products/{id}", h.updateProduct)
				r.Delete("/products/{id}", h.deleteProduct)
			})
		})
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pagination.Parse(q)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	filter := ListFilter{
		Category:   q.Get("category"),
		SellerID:   q.Get("seller_id"),
		Query:      q.Get("q"),
		ActiveOnly: q.Get("active") != "false",
	}
	if raw := q.Get("categories"); raw != "" {
		filter.Categories = strings.Split(raw, ",")
	}
	if filter.MinPrice, err = parsePrice(q.Get("min_price"), "min_price"); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	if filter.MaxPrice, err = parsePrice(q.Get("max_price"), "max_price"); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	result, err := h.service.ListProducts(r.Context(), filter, page)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	respondPage(w, result)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	result, err := h.service.SearchProducts(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	respondPage(w, result)
}

func (h *Handler) myProducts(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	page, err := pagination.Parse(r.URL.Query())
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	result, err := h.service.SellerProducts(r.Context(), principal, page)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	respondPage(w, result)
}

func respondPage(w http.ResponseWriter, result *ProductPage) {
	httpx.Respond(w, http.StatusOK, map[string]any{
		"success":        true,
		"products":       result.Products,
		"total_products": result.TotalProducts,
		"current_page":   result.CurrentPage,
		"total_pages":    result.TotalPages,
	})
}

func parsePrice(raw, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.InvalidInput("%s must be a number", field)
	}
	return &v, nil
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	var req ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), principal, req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, map[string]any{"success": true, "product": p})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	var req ProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), principal, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	if err := h.service.DeleteProduct(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "message": "product deleted"})
}

type rateRequest struct {
	Rating int `json:"rating"`
}

func (h *Handler) rateProduct(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	var req rateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	p, err := h.service.RateProduct(r.Context(), principal, chi.URLParam(r, "id"), req.Rating)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "product": p})
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "categories": categories})
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
		return
	}
	var req CategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	c, created, err := h.service.CreateCategory(r.Context(), principal, req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpx.Respond(w, status, map[string]any{"success": true, "category": c})
}
