package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       "user123",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     models.RoleUser,
	}
}

func TestSessionSigner_IssueAndValidate(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", 24*time.Hour)

	token, err := signer.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := signer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.False(t, claims.IsAdmin())
}

func TestSessionSigner_ValidateWrongSecret(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", 24*time.Hour)
	other := NewSessionSigner("another-secret-key", 24*time.Hour)

	token, err := signer.Issue(testUser())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionSigner_ValidateTamperedToken(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", 24*time.Hour)

	token, err := signer.Issue(testUser())
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = signer.Validate(tampered)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionSigner_ValidateExpiredToken(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	signer := NewSessionSigner("test-secret-key-16", time.Hour)
	signer.now = func() time.Time { return current }

	token, err := signer.Issue(testUser())
	require.NoError(t, err)

	// Still valid just before expiry
	current = base.Add(time.Hour - time.Second)
	_, err = signer.Validate(token)
	require.NoError(t, err)

	// Rejected once the TTL has fully elapsed
	current = base.Add(time.Hour + time.Minute)
	_, err = signer.Validate(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSessionSigner_ValidateMalformedToken(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", 24*time.Hour)

	for _, bad := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := signer.Validate(bad)
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	}
}

func TestSessionSigner_RejectsUnsignedToken(t *testing.T) {
	signer := NewSessionSigner("test-secret-key-16", 24*time.Hour)

	// alg=none tokens must never validate
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &models.SessionClaims{
		UserID: "user123",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = signer.Validate(tokenString)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
