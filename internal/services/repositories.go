package services

import (
	"context"
	"time"

	"github.com/chioma-app/api/internal/models"
)

// UserRepository defines the persistence operations the services need for
// accounts
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	EnableMFA(ctx context.Context, id string, secretEnc, nonce []byte) error
	DisableMFA(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// TokenRevocationRepository defines the token blacklist operations
type TokenRevocationRepository interface {
	RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// PasswordHistoryRepository stores prior credential hashes for reuse checks
type PasswordHistoryRepository interface {
	Add(ctx context.Context, userID, passwordHash string) error
	RecentHashes(ctx context.Context, userID string, limit int) ([]string, error)
	Prune(ctx context.Context, userID string, keep int) error
}

// EmailSender delivers transactional mail. Implementations must be safe to
// call concurrently; delivery failures are logged, never surfaced to the
// authentication flow.
type EmailSender interface {
	SendWelcomeEmail(ctx context.Context, to, firstName string) error
	SendVerificationEmail(ctx context.Context, to, token string, expiresAt time.Time) error
	SendPasswordChangedEmail(ctx context.Context, to string) error
	SendMFAEnabledEmail(ctx context.Context, to string) error
}
