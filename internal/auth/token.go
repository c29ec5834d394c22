package auth

import (
	"fmt"
	"time"

	"agora/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// SessionSigner issues and validates signed bearer session tokens
type SessionSigner struct {
	secret     string
	sessionTTL time.Duration
	now        func() time.Time
}

// NewSessionSigner creates a new SessionSigner
func NewSessionSigner(secret string, sessionTTL time.Duration) *SessionSigner {
	return &SessionSigner{
		secret:     secret,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Issue creates a signed session token carrying the user's identity and role
func (s *SessionSigner) Issue(user *models.User) (string, error) {
	now := s.now()

	claims := &models.SessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a session token and returns its claims. Malformed
// encoding, a bad signature and expiry all map to ErrUnauthorized; no claim
// is trusted before the signature checks out.
func (s *SessionSigner) Validate(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))

	if err != nil {
		return nil, models.ErrUnauthorized
	}

	if !token.Valid {
		return nil, models.ErrUnauthorized
	}

	if claims.UserID == "" {
		return nil, models.ErrUnauthorized
	}

	return claims, nil
}
