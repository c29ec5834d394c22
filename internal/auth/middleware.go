package auth

import (
	"context"
	"net/http"
	"strings"

	"agora/internal/models"
	"agora/pkg/httpx"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing session claims in context
	UserContextKey contextKey = "user"
)

// Authenticate validates bearer session tokens and injects the caller's
// claims into the request context. The claims are trusted as of issuance
// time; no database lookup happens here, so a role change or deletion takes
// effect only once outstanding sessions expire.
func Authenticate(signer *SessionSigner) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				httpx.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := signer.Validate(parts[1])
			if err != nil {
				httpx.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts session claims from the request context
func GetUserFromContext(r *http.Request) *models.SessionClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
