package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/CaioWing/repairdesk/internal/api/response"
	"github.com/CaioWing/repairdesk/internal/auth"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "role"
)

// Auth accepts requests carrying a valid bearer token whose role is one of
// roles.
func Auth(jwtMgr *auth.JWTManager, roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				response.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := jwtMgr.Validate(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				response.Error(w, http.StatusForbidden, "insufficient role")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated subject, or "" outside Auth.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func Role(ctx context.Context) auth.Role {
	role, _ := ctx.Value(RoleKey).(auth.Role)
	return role
}
