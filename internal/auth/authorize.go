package auth

import (
	"net/http"

	"agora/internal/models"
	"agora/pkg/httpx"
)

// CanModify implements the owner-or-admin rule applied to every mutating
// operation on posts and comments.
func CanModify(claims *models.SessionClaims, ownerID string) bool {
	if claims == nil {
		return false
	}
	return claims.UserID == ownerID || claims.IsAdmin()
}

// RequireAdmin enforces admin-only access for user listing/deletion and
// moderation routes. Must run after Authenticate. Violations are reported as
// forbidden, never as not-found.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetUserFromContext(r)
		if claims == nil {
			httpx.WriteUnauthorized(w, "unauthorized")
			return
		}

		if !claims.IsAdmin() {
			httpx.WriteForbidden(w, "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r)
	})
}
