package auth

import (
	"fmt"
	"time"

	"github.com/chioma-app/api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and validates the three JWT kinds used by the auth
// flow: access, refresh, and the short-lived MFA challenge token.
type TokenManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	mfaExpiry     time.Duration
}

// NewTokenManager creates a TokenManager signing with HMAC-SHA256.
func NewTokenManager(secret string, accessExpiry, refreshExpiry, mfaExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		mfaExpiry:     mfaExpiry,
	}
}

// GenerateAccessToken creates a short-lived access token with a JTI.
func (tm *TokenManager) GenerateAccessToken(userID, email, role string) (string, error) {
	return tm.sign(models.TokenTypeAccess, userID, email, role, tm.accessExpiry)
}

// GenerateRefreshToken creates a long-lived refresh token with a JTI.
func (tm *TokenManager) GenerateRefreshToken(userID, email string) (string, error) {
	return tm.sign(models.TokenTypeRefresh, userID, email, "", tm.refreshExpiry)
}

// GenerateMFAToken creates the single-purpose challenge token returned by a
// login that still needs a second factor. It carries no email or role and
// cannot be used for API access or refresh.
func (tm *TokenManager) GenerateMFAToken(userID string) (string, error) {
	return tm.sign(models.TokenTypeMFA, userID, "", "", tm.mfaExpiry)
}

func (tm *TokenManager) sign(tokenType, userID, email, role string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Type:   tokenType,
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateToken verifies a token's signature and expiry and returns its
// claims. Callers must also check claims.Type for the expected kind.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, models.ErrUnauthorized
	}
	if claims.Type == "" {
		return nil, fmt.Errorf("invalid token: missing type")
	}

	return claims, nil
}
