package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"agora/internal/models"
)

// TokenPurpose distinguishes the two single-use token kinds bound to a user
type TokenPurpose string

const (
	PurposeVerification TokenPurpose = "verification"
	PurposeReset        TokenPurpose = "reset"
)

// TokenStore persists token digests on user records. Both Consume methods
// must be implemented as a single conditional update (match digest AND
// unexpired, clear digest and expiry in the same statement) so two
// concurrent consumes of one token cannot both succeed.
type TokenStore interface {
	SetVerificationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now time.Time) (*models.User, error)
}

// TokenIssuer generates and consumes single-use, time-bounded tokens for
// email verification and password reset. The plain token is returned to be
// mailed; only its sha256 digest is stored.
type TokenIssuer struct {
	store           TokenStore
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

// NewTokenIssuer creates a new TokenIssuer
func NewTokenIssuer(store TokenStore, verificationTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		store:           store,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		now:             time.Now,
	}
}

// WithClock overrides the issuer's clock. Used by tests to pin expiries.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

// Issue generates a fresh token for the given purpose and stores its digest
// with expiry now+ttl, overwriting any prior token of that purpose.
func (i *TokenIssuer) Issue(ctx context.Context, userID string, purpose TokenPurpose) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	plainToken := base64.URLEncoding.EncodeToString(tokenBytes)
	tokenHash := HashToken(plainToken)

	var err error
	switch purpose {
	case PurposeVerification:
		err = i.store.SetVerificationToken(ctx, userID, tokenHash, i.now().Add(i.verificationTTL))
	case PurposeReset:
		err = i.store.SetResetToken(ctx, userID, tokenHash, i.now().Add(i.resetTTL))
	default:
		return "", fmt.Errorf("unknown token purpose: %s", purpose)
	}
	if err != nil {
		return "", fmt.Errorf("failed to store token: %w", err)
	}

	return plainToken, nil
}

// ConsumeVerification consumes a verification token, marking the matching
// user verified and clearing the token pair atomically. Unknown and expired
// tokens are indistinguishable to callers: both return ErrNotFound.
func (i *TokenIssuer) ConsumeVerification(ctx context.Context, plainToken string) (*models.User, error) {
	if plainToken == "" {
		return nil, models.ErrNotFound
	}
	return i.store.ConsumeVerificationToken(ctx, HashToken(plainToken), i.now())
}

// ConsumeReset consumes a reset token, storing the new password hash and
// clearing the token pair in the same update.
func (i *TokenIssuer) ConsumeReset(ctx context.Context, plainToken, newPasswordHash string) (*models.User, error) {
	if plainToken == "" {
		return nil, models.ErrNotFound
	}
	return i.store.ConsumeResetToken(ctx, HashToken(plainToken), newPasswordHash, i.now())
}

// HashToken returns the hex sha256 digest stored in place of a plain token
func HashToken(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}
