package auth

import (
	"context"

	"github.com/georgemunganga/marketplace-api/internal/modules/user"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	// Login verifies credentials and returns a signed bearer token.
	Login(ctx context.Context, email, password string) (string, error)
	// Authenticate resolves a bearer token into the calling principal.
	Authenticate(ctx context.Context, token string) (Principal, error)
}

// Principal is the authenticated caller: who they are and which role they act in.
type Principal struct {
	UserID string
	Role   user.Role
}

// Is reports whether the principal acts in role.
func (p Principal) Is(role user.Role) bool { return p.Role == role }

type contextKey string

const principalContextKey contextKey = "github.com/georgemunganga/marketplace-api/internal/modules/auth/principal"

// WithPrincipal stores the principal on ctx for downstream handlers.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal stored by the middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// UserActor adapts the stored principal for the user module's handlers.
func UserActor(ctx context.Context) (user.Actor, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return user.Actor{}, false
	}
	return user.Actor{ID: p.UserID, Role: p.Role}, true
}
