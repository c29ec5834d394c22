package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/models"
	"agora/internal/services"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestAuthHandler_Register_Success(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	w := postJSON(t, handler.Register, "/auth/register",
		`{"username":"alice","email":"alice@example.com","password":"secret-pass"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestAuthHandler_Register_DuplicateIndistinguishable(t *testing.T) {
	fresh := NewAuthHandler(&MockAuthService{})
	duplicate := NewAuthHandler(&MockAuthService{
		RegisterFunc: func(ctx context.Context, username, email, password string) error {
			return models.ErrConflict
		},
	})

	body := `{"username":"alice","email":"alice@example.com","password":"secret-pass"}`
	freshResp := postJSON(t, fresh.Register, "/auth/register", body)
	dupResp := postJSON(t, duplicate.Register, "/auth/register", body)

	// Registering a taken email must be byte-identical to a fresh registration
	assert.Equal(t, freshResp.Code, dupResp.Code)
	assert.Equal(t, freshResp.Body.String(), dupResp.Body.String())
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{not json`},
		{"missing email", `{"username":"alice","password":"secret-pass"}`},
		{"bad email", `{"username":"alice","email":"not-an-email","password":"secret-pass"}`},
		{"short username", `{"username":"ab","email":"a@b.com","password":"secret-pass"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, handler.Register, "/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthHandler_Login_FailuresIndistinguishable(t *testing.T) {
	unknownEmail := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResponse, error) {
			return nil, models.ErrNotFound
		},
	})
	wrongPassword := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResponse, error) {
			return nil, models.ErrUnauthorized
		},
	})
	unverified := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResponse, error) {
			return nil, models.ErrEmailNotVerified
		},
	})

	body := `{"email":"alice@example.com","password":"secret-pass"}`
	a := postJSON(t, unknownEmail.Login, "/auth/login", body)
	b := postJSON(t, wrongPassword.Login, "/auth/login", body)
	c := postJSON(t, unverified.Login, "/auth/login", body)

	assert.Equal(t, http.StatusUnauthorized, a.Code)
	assert.Equal(t, a.Body.String(), b.Body.String())
	assert.Equal(t, a.Body.String(), c.Body.String())
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (*services.LoginResponse, error) {
			return &services.LoginResponse{
				Token: "signed-token",
				User:  &services.UserResponse{ID: "user123", Username: "alice"},
			}, nil
		},
	})

	w := postJSON(t, handler.Login, "/auth/login",
		`{"email":"alice@example.com","password":"secret-pass"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signed-token")
	assert.Contains(t, w.Body.String(), "alice")
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		VerifyEmailFunc: func(ctx context.Context, token string) (*models.User, error) {
			if token == "good-token" {
				return &models.User{ID: "user123", IsVerified: true}, nil
			}
			return nil, models.ErrNotFound
		},
	})

	req := httptest.NewRequest("GET", "/auth/verify-email?token=good-token", nil)
	w := httptest.NewRecorder()
	handler.VerifyEmail(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/auth/verify-email?token=bad-token", nil)
	w = httptest.NewRecorder()
	handler.VerifyEmail(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/auth/verify-email", nil)
	w = httptest.NewRecorder()
	handler.VerifyEmail(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ForgotPassword_AlwaysAccepted(t *testing.T) {
	exists := NewAuthHandler(&MockAuthService{})
	missing := NewAuthHandler(&MockAuthService{
		ForgotPasswordFunc: func(ctx context.Context, email string) error {
			return nil // service reports nil for every outcome
		},
	})

	body := `{"email":"alice@example.com"}`
	a := postJSON(t, exists.ForgotPassword, "/auth/forgot-password", body)
	b := postJSON(t, missing.ForgotPassword, "/auth/forgot-password", body)

	assert.Equal(t, http.StatusAccepted, a.Code)
	assert.Equal(t, a.Body.String(), b.Body.String())
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		ResetPasswordFunc: func(ctx context.Context, token, newPassword string) error {
			if token == "good-token" {
				return nil
			}
			return models.ErrNotFound
		},
	})

	w := postJSON(t, handler.ResetPassword, "/auth/reset-password",
		`{"token":"good-token","newPassword":"brand-new-pass"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, handler.ResetPassword, "/auth/reset-password",
		`{"token":"spent-token","newPassword":"brand-new-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, handler.ResetPassword, "/auth/reset-password",
		`{"newPassword":"brand-new-pass"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
