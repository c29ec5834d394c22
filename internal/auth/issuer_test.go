package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/models"
)

// fakeTokenStore mimics the repository's conditional-update consume: a token
// is consumed only if the digest matches and the expiry is strictly in the
// future, and consumption clears the pair.
type fakeTokenStore struct {
	verificationHash   string
	verificationExpiry time.Time
	resetHash          string
	resetExpiry        time.Time
	passwordHash       string
	user               models.User
}

func (s *fakeTokenStore) SetVerificationToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.user.ID = userID
	s.verificationHash = tokenHash
	s.verificationExpiry = expiresAt
	return nil
}

func (s *fakeTokenStore) SetResetToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	s.user.ID = userID
	s.resetHash = tokenHash
	s.resetExpiry = expiresAt
	return nil
}

func (s *fakeTokenStore) ConsumeVerificationToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	if s.verificationHash == "" || tokenHash != s.verificationHash || !s.verificationExpiry.After(now) {
		return nil, models.ErrNotFound
	}
	s.verificationHash = ""
	s.verificationExpiry = time.Time{}
	s.user.IsVerified = true
	u := s.user
	return &u, nil
}

func (s *fakeTokenStore) ConsumeResetToken(_ context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error) {
	if s.resetHash == "" || tokenHash != s.resetHash || !s.resetExpiry.After(now) {
		return nil, models.ErrNotFound
	}
	s.resetHash = ""
	s.resetExpiry = time.Time{}
	s.passwordHash = newPasswordHash
	u := s.user
	return &u, nil
}

func TestTokenIssuer_IssueStoresDigestOnly(t *testing.T) {
	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour)

	token, err := issuer.Issue(context.Background(), "user123", PurposeVerification)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Plain token never equals the stored digest
	assert.NotEqual(t, token, store.verificationHash)
	assert.Equal(t, HashToken(token), store.verificationHash)
}

func TestTokenIssuer_IssuedTokensAreUnique(t *testing.T) {
	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := issuer.Issue(context.Background(), "user123", PurposeReset)
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate token issued")
		seen[token] = true
	}
}

func TestTokenIssuer_ConsumeIsSingleUse(t *testing.T) {
	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour)

	token, err := issuer.Issue(context.Background(), "user123", PurposeVerification)
	require.NoError(t, err)

	user, err := issuer.ConsumeVerification(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	// Second consume of the same token fails
	_, err = issuer.ConsumeVerification(context.Background(), token)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTokenIssuer_ConsumeExpiredToken(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base

	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour).
		WithClock(func() time.Time { return current })

	token, err := issuer.Issue(context.Background(), "user123", PurposeReset)
	require.NoError(t, err)

	// One second before expiry the token still works
	current = base.Add(time.Hour - time.Second)
	_, err = issuer.ConsumeReset(context.Background(), token, "newhash")
	require.NoError(t, err)

	// Re-issue and jump exactly to expiry: the strict comparison rejects it
	token, err = issuer.Issue(context.Background(), "user123", PurposeReset)
	require.NoError(t, err)

	current = current.Add(time.Hour)
	_, err = issuer.ConsumeReset(context.Background(), token, "newhash")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTokenIssuer_ReissueInvalidatesPriorToken(t *testing.T) {
	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour)

	first, err := issuer.Issue(context.Background(), "user123", PurposeVerification)
	require.NoError(t, err)

	second, err := issuer.Issue(context.Background(), "user123", PurposeVerification)
	require.NoError(t, err)

	_, err = issuer.ConsumeVerification(context.Background(), first)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = issuer.ConsumeVerification(context.Background(), second)
	assert.NoError(t, err)
}

func TestTokenIssuer_EmptyToken(t *testing.T) {
	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour)

	_, err := issuer.ConsumeVerification(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = issuer.ConsumeReset(context.Background(), "", "hash")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTokenIssuer_ResetConsumeStoresNewPasswordHash(t *testing.T) {
	store := &fakeTokenStore{}
	issuer := NewTokenIssuer(store, 24*time.Hour, time.Hour)

	token, err := issuer.Issue(context.Background(), "user123", PurposeReset)
	require.NoError(t, err)

	_, err = issuer.ConsumeReset(context.Background(), token, "bcrypt-of-new-password")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt-of-new-password", store.passwordHash)
}
