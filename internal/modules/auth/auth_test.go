package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

type stubUsers struct {
	byID map[string]*user.User
}

func (s *stubUsers) CreateUser(context.Context, *user.User) error { return nil }

func (s *stubUsers) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (s *stubUsers) GetUserByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("user not found")
}

func newStubUsers(t *testing.T, role user.Role) (*stubUsers, *user.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &user.User{ID: uuid.New(), Name: "Dee", Email: "dee@example.com", PasswordHash: string(hash), Role: role}
	return &stubUsers{byID: map[string]*user.User{u.ID.String(): u}}, u
}

func TestLoginAndAuthenticate(t *testing.T) {
	users, u := newStubUsers(t, user.RoleSeller)
	svc := NewService(users, "test-secret", time.Hour)

	token, err := svc.Login(context.Background(), "DEE@example.com ", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	p, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != u.ID.String() || p.Role != user.RoleSeller {
		t.Fatalf("unexpected principal %+v", p)
	}
}

func TestAuthenticateUsesCurrentRole(t *testing.T) {
	users, u := newStubUsers(t, user.RoleCustomer)
	svc := NewService(users, "test-secret", time.Hour)
	token, err := svc.Login(context.Background(), u.Email, "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	u.Role = user.RoleAdmin
	p, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Role != user.RoleAdmin {
		t.Fatalf("expected role from store, got %s", p.Role)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users, u := newStubUsers(t, user.RoleCustomer)
	svc := NewService(users, "test-secret", time.Hour)

	if _, err := svc.Login(context.Background(), u.Email, "wrong-pass"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "ghost@example.com", "secret1"); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestAuthenticateRejectsExpiredAndForeignTokens(t *testing.T) {
	users, u := newStubUsers(t, user.RoleCustomer)
	svc := NewService(users, "test-secret", time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{Subject: u.ID.String(), ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	expiredToken, _ := expired.SignedString([]byte("test-secret"))
	if _, err := svc.Authenticate(context.Background(), expiredToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		StandardClaims: jwt.StandardClaims{Subject: u.ID.String(), ExpiresAt: time.Now().Add(time.Hour).Unix()},
	})
	foreignToken, _ := foreign.SignedString([]byte("other-secret"))
	if _, err := svc.Authenticate(context.Background(), foreignToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expected foreign signature to be rejected, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	users, u := newStubUsers(t, user.RoleCustomer)
	svc := NewService(users, "test-secret", time.Hour)
	token, err := svc.Login(context.Background(), u.Email, "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	var seen Principal
	protected := Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/my-orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
	if seen.UserID != u.ID.String() {
		t.Fatalf("expected principal on context, got %+v", seen)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/all", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: "u1", Role: user.RoleCustomer}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	req = req.WithContext(WithPrincipal(req.Context(), Principal{UserID: "u2", Role: user.RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSignInHandler(t *testing.T) {
	users, u := newStubUsers(t, user.RoleCustomer)
	h := NewHandler(NewService(users, "test-secret", time.Hour))

	body := strings.NewReader(`{"email":"` + u.Email + `","password":"secret1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signin", body)
	rec := httptest.NewRecorder()
	h.signIn(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.Success || resp.Token == "" {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}
}
