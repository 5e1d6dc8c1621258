package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
	"github.com/georgemunganga/marketplace-api/internal/platform/httpx"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
)

// Middleware requires a valid bearer token and stores the resolved
// Principal on the request context.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httpx.WriteError(r.Context(), w, apperr.Unauthorized("missing bearer token"))
				return
			}

			principal, err := svc.Authenticate(r.Context(), strings.TrimSpace(token))
			if err != nil {
				httpx.WriteError(r.Context(), w, err)
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			logger := logging.FromContext(ctx, nil).With(zap.String("user_id", principal.UserID))
			ctx = logging.WithLogger(ctx, logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects principals outside roles with Forbidden.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.WriteError(r.Context(), w, apperr.Unauthorized("authentication required"))
				return
			}
			for _, role := range roles {
				if p.Is(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.WriteError(r.Context(), w, apperr.Forbidden("access denied for role %s", p.Role))
		})
	}
}
