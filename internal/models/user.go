package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // never serialized into responses
	Role         string // "user" or "admin"
	IsVerified   bool

	// Verification/reset token digests and expiries are present together or
	// both absent. Only the TokenIssuer mutates them.
	VerificationTokenHash      *string
	VerificationTokenExpiresAt *time.Time
	ResetTokenHash             *string
	ResetTokenExpiresAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
