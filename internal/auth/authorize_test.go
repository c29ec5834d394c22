package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"agora/internal/models"
)

func TestCanModify(t *testing.T) {
	tests := []struct {
		name    string
		claims  *models.SessionClaims
		ownerID string
		want    bool
	}{
		{"owner", &models.SessionClaims{UserID: "u1", Role: models.RoleUser}, "u1", true},
		{"other user", &models.SessionClaims{UserID: "u2", Role: models.RoleUser}, "u1", false},
		{"admin on foreign resource", &models.SessionClaims{UserID: "u3", Role: models.RoleAdmin}, "u1", true},
		{"admin on own resource", &models.SessionClaims{UserID: "u3", Role: models.RoleAdmin}, "u3", true},
		{"nil claims", nil, "u1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModify(tt.claims, tt.ownerID))
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		claims     *models.SessionClaims
		wantStatus int
	}{
		{"no claims", nil, http.StatusUnauthorized},
		{"regular user", &models.SessionClaims{UserID: "u1", Role: models.RoleUser}, http.StatusForbidden},
		{"admin", &models.SessionClaims{UserID: "u2", Role: models.RoleAdmin}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/users", nil)
			if tt.claims != nil {
				ctx := context.WithValue(req.Context(), UserContextKey, tt.claims)
				req = req.WithContext(ctx)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
