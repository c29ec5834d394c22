package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/models"
)

func TestAuthenticate_MissingHeader(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", time.Hour)

	handler := Authenticate(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/posts", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", time.Hour)

	handler := Authenticate(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	for _, header := range []string{"Basic abc123", "Bearer", "token-without-scheme"} {
		req := httptest.NewRequest("GET", "/posts", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", time.Hour)

	handler := Authenticate(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/posts", nil)
	req.Header.Set("Authorization", "Bearer garbage.token.here")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", time.Hour)

	token, err := signer.Issue(&models.User{
		ID:       "user123",
		Username: "alice",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)

	var gotClaims *models.SessionClaims
	handler := Authenticate(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = GetUserFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/posts", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "user123", gotClaims.UserID)
	assert.True(t, gotClaims.IsAdmin())
}

func TestGetUserFromContext_NoClaims(t *testing.T) {
	req := httptest.NewRequest("GET", "/posts", nil)
	assert.Nil(t, GetUserFromContext(req))
}
