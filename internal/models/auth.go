package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types issued by the token manager. An "mfa" token proves that a
// credential check succeeded but authorization is pending a second factor;
// it grants no API access.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeMFA     = "mfa"
)

// TokenClaims represents the JWT claims carried by every issued token
type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// EmailVerificationToken is a single-use, hashed token mailed to a new
// account. Only the SHA-256 of the token is stored.
type EmailVerificationToken struct {
	ID        string
	UserID    string
	TokenHash string
	Email     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsUsed reports whether the token has already been redeemed.
func (t *EmailVerificationToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsExpired reports whether the token's validity window has passed.
func (t *EmailVerificationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
