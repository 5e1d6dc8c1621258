package order

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
	"github.com/georgemunganga/marketplace-api/internal/platform/pagination"
)

// Handler exposes order HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

// RegisterRoutes expects authn to run upstream. Role gates here mirror the
// policy table so callers get a Forbidden before any store access.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/orders", func(r chi.Router) {
		r.With(auth.RequireRole(user.RoleCustomer)).Post("/", h.placeOrder)
		r.With(auth.RequireRole(user.RoleCustomer)).Get("/my-orders", h.listCustomerOrders)
		r.With(auth.RequireRole(user.RoleSeller)).Get("/seller-orders", h.listSellerOrders)
		r.With(auth.RequireRole(user.RoleAdmin)).Get("/all", h.listAllOrders)
		r.With(auth.RequireRole(user.RoleAdmin, user.RoleSeller)).Get("/analytics", h.analytics)
		r.Get("/number/{number}", h.getOrderByNumber)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/status", h.updateStatus)
		r.Put("/{id}/cancel", h.cancelOrder)
	})
}

func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
	}
	return p, ok
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req PlaceOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	o, err := h.service.PlaceOrder(r.Context(), p, req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, map[string]any{"success": true, "order": o})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	o, err := h.service.GetOrder(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "order": o})
}

func (h *Handler) getOrderByNumber(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	o, err := h.service.GetOrderByNumber(r.Context(), p, chi.URLParam(r, "number"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "order": o})
}

type lister func(ctx context.Context, p auth.Principal, status Status, page pagination.Page) (*Page, error)

func (h *Handler) listCustomerOrders(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListCustomerOrders)
}

func (h *Handler) listSellerOrders(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListSellerOrders)
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListAllOrders)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch lister) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, err := pagination.Parse(q)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	status, err := statusFilter(q)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	result, err := fetch(r.Context(), p, status, page)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{
		"success":      true,
		"orders":       result.Orders,
		"total_orders": result.TotalOrders,
		"current_page": result.CurrentPage,
		"total_pages":  result.TotalPages,
	})
}

// statusFilter reads the optional status query parameter.
func statusFilter(q url.Values) (Status, error) {
	raw := q.Get("status")
	if raw == "" {
		return "", nil
	}
	status, ok := ParseStatus(raw)
	if !ok {
		return "", apperr.InvalidInput("unknown status: %s", raw)
	}
	return status, nil
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	a, err := h.service.Analytics(r.Context(), p, r.URL.Query().Get("seller_id"))
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "analytics": a})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "order": o})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req CancelRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	o, err := h.service.CancelOrder(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		httpx.WriteError(r.Context(), w, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]any{"success": true, "order": o})
}
