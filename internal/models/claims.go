package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the identity claims carried by a bearer session token.
// They reflect the user's state at issuance time; role changes and deletions
// do not invalidate already-issued sessions until they expire.
type SessionClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
