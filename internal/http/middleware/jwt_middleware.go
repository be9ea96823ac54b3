package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mahyar-jbr/dog-wash-booking/internal/http/response"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/auth"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireAdmin rejects requests without a valid admin session token.
func RequireAdmin(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "Missing or invalid authorization header")
				return
			}
			claims, err := auth.Parse(strings.TrimPrefix(authz, "Bearer "), secret)
			if err != nil || claims.Role != auth.RoleAdmin {
				response.Unauthorized(w, "Invalid admin session")
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.SubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v, _ := r.Context().Value(CtxClaims).(*auth.Claims)
	return v
}
