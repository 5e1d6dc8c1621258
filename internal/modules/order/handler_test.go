package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
)

// withPrincipal stands in for the bearer middleware.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-User"); id != "" {
			p := auth.Principal{UserID: id, Role: user.Role(r.Header.Get("X-Role"))}
			r = r.WithContext(auth.WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

func newTestRouter(t *testing.T) (*chi.Mux, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(Deps{Orders: store, UnitOfWork: store, RestockOnCancel: true, Clock: func() time.Time { return testNow }})
	r := chi.NewRouter()
	r.Use(withPrincipal)
	NewHandler(svc).RegisterRoutes(r)
	return r, store
}

type envelope struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error"`
	Message     string          `json:"message"`
	Details     map[string]any  `json:"details"`
	Order       *Order          `json:"order"`
	Orders      []*Order        `json:"orders"`
	TotalOrders int             `json:"total_orders"`
	TotalPages  int             `json:"total_pages"`
	Analytics   json.RawMessage `json:"analytics"`
}

func do(t *testing.T, h http.Handler, method, path, body string, p auth.Principal) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if p.UserID != "" {
		req.Header.Set("X-User", p.UserID)
		req.Header.Set("X-Role", string(p.Role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func placeBody(productID string, qty int) string {
	return `{"items":[{"product_id":"` + productID + `","quantity":` + strconv.Itoa(qty) + `}],
		"shipping_address":{"street":"1 Main St","city":"Pune","state":"MH","zip_code":"411001"}}`
}

func TestHandlerPlaceAndFetchOrder(t *testing.T) {
	r, store := newTestRouter(t)
	productID := store.addProduct(uuid.New(), "Armchair", 300, 5)
	c := customer()

	rec, env := do(t, r, http.MethodPost, "/api/v1/orders", placeBody(productID, 2), c)
	if rec.Code != http.StatusCreated || !env.Success || env.Order == nil {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if env.Order.FinalAmount != 708 {
		t.Fatalf("expected final 708, got %v", env.Order.FinalAmount)
	}

	rec, env = do(t, r, http.MethodGet, "/api/v1/orders/"+env.Order.ID.String(), "", c)
	if rec.Code != http.StatusOK || env.Order == nil || env.Order.Status != StatusPending {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerInsufficientStockIsConflict(t *testing.T) {
	r, store := newTestRouter(t)
	productID := store.addProduct(uuid.New(), "Lamp", 100, 2)

	rec, env := do(t, r, http.MethodPost, "/api/v1/orders", placeBody(productID, 3), customer())
	if rec.Code != http.StatusConflict || env.Error != "insufficient_stock" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if env.Details["product_name"] != "Lamp" || env.Details["available"] != float64(2) {
		t.Fatalf("unexpected details %v", env.Details)
	}
}

func TestHandlerRoleGates(t *testing.T) {
	r, _ := newTestRouter(t)
	sellerPrincipal := sellerP(uuid.New())

	cases := []struct {
		name      string
		method    string
		path      string
		body      string
		principal auth.Principal
		status    int
	}{
		{"anonymous", http.MethodGet, "/api/v1/orders/my-orders", "", auth.Principal{}, http.StatusUnauthorized},
		{"seller places", http.MethodPost, "/api/v1/orders", `{}`, sellerPrincipal, http.StatusForbidden},
		{"seller my-orders", http.MethodGet, "/api/v1/orders/my-orders", "", sellerPrincipal, http.StatusForbidden},
		{"customer seller-orders", http.MethodGet, "/api/v1/orders/seller-orders", "", customer(), http.StatusForbidden},
		{"seller all", http.MethodGet, "/api/v1/orders/all", "", sellerPrincipal, http.StatusForbidden},
		{"customer analytics", http.MethodGet, "/api/v1/orders/analytics", "", customer(), http.StatusForbidden},
		{"customer ships", http.MethodPut, "/api/v1/orders/" + uuid.NewString() + "/status", `{"status":"Shipped"}`, customer(), http.StatusForbidden},
		{"bad status filter", http.MethodGet, "/api/v1/orders/all?status=Lost", "", admin(), http.StatusBadRequest},
		{"bad page", http.MethodGet, "/api/v1/orders/all?page=0", "", admin(), http.StatusBadRequest},
		{"malformed body", http.MethodPut, "/api/v1/orders/" + uuid.NewString() + "/cancel", `{`, customer(), http.StatusBadRequest},
		{"missing order", http.MethodGet, "/api/v1/orders/" + uuid.NewString(), "", admin(), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := do(t, r, tc.method, tc.path, tc.body, tc.principal)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d %s", tc.status, rec.Code, rec.Body.String())
			}
			if env.Success {
				t.Fatalf("error response must not report success")
			}
		})
	}
}

func TestHandlerListingAndLifecycle(t *testing.T) {
	r, store := newTestRouter(t)
	seller := uuid.New()
	productID := store.addProduct(seller, "Lamp", 100, 10)
	c := customer()

	_, placed := do(t, r, http.MethodPost, "/api/v1/orders", placeBody(productID, 1), c)
	id := placed.Order.ID.String()

	rec, env := do(t, r, http.MethodPut, "/api/v1/orders/"+id+"/status", `{"status":"Shipped"}`, admin())
	if rec.Code != http.StatusOK || env.Order.Status != StatusShipped {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, r, http.MethodGet, "/api/v1/orders/seller-orders?status=shipped", "", sellerP(seller))
	if rec.Code != http.StatusOK || env.TotalOrders != 1 || env.TotalPages != 1 {
		t.Fatalf("unexpected seller listing %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, r, http.MethodPut, "/api/v1/orders/"+id+"/cancel", `{"cancel_reason":"late"}`, c)
	if rec.Code != http.StatusOK || env.Order.Status != StatusCancelled {
		t.Fatalf("unexpected cancel %d %s", rec.Code, rec.Body.String())
	}
	if store.stock(productID) != 10 {
		t.Fatalf("expected restock, got %d", store.stock(productID))
	}

	rec, env = do(t, r, http.MethodPut, "/api/v1/orders/"+id+"/cancel", `{"cancel_reason":"again"}`, c)
	if rec.Code != http.StatusConflict || env.Error != "invalid_transition" {
		t.Fatalf("unexpected second cancel %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, r, http.MethodGet, "/api/v1/orders/my-orders", "", c)
	if rec.Code != http.StatusOK || env.TotalOrders != 1 || len(env.Orders) != 1 {
		t.Fatalf("unexpected customer listing %d %s", rec.Code, rec.Body.String())
	}

	rec, env = do(t, r, http.MethodGet, "/api/v1/orders/analytics", "", sellerP(seller))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected analytics %d %s", rec.Code, rec.Body.String())
	}
	var a Analytics
	if err := json.Unmarshal(env.Analytics, &a); err != nil {
		t.Fatalf("decode analytics: %v", err)
	}
	if a.TotalOrders != 1 || a.StatusBreakdown[StatusCancelled] != 1 || a.SellerRevenue == nil {
		t.Fatalf("unexpected analytics %+v", a)
	}
}

func TestHandlerFetchByOrderNumber(t *testing.T) {
	r, store := newTestRouter(t)
	productID := store.addProduct(uuid.New(), "Stool", 40, 5)
	c := customer()

	_, placed := do(t, r, http.MethodPost, "/api/v1/orders", placeBody(productID, 1), c)
	if placed.Order == nil {
		t.Fatalf("order not placed")
	}

	rec, env := do(t, r, http.MethodGet, "/api/v1/orders/number/"+placed.Order.OrderNumber, "", c)
	if rec.Code != http.StatusOK || env.Order == nil || env.Order.ID != placed.Order.ID {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if rec, _ := do(t, r, http.MethodGet, "/api/v1/orders/number/"+placed.Order.OrderNumber, "", customer()); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another customer, got %d", rec.Code)
	}
	if rec, _ := do(t, r, http.MethodGet, "/api/v1/orders/number/ORD-MISSING", "", admin()); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
