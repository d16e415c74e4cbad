package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/models"
	"github.com/google/uuid"
)

const verificationTokenColumns = `id, user_id, token_hash, email, expires_at, used_at, created_at`

// EmailVerificationRepository handles email verification token data access
type EmailVerificationRepository struct {
	db database.Querier
}

func NewEmailVerificationRepository(db database.Querier) *EmailVerificationRepository {
	return &EmailVerificationRepository{db: db}
}

func scanVerificationTokenRow(scanner rowScanner) (*models.EmailVerificationToken, error) {
	var token models.EmailVerificationToken

	err := scanner.Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Email,
		&token.ExpiresAt, &token.UsedAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &token, nil
}

// Create creates a new email verification token
func (r *EmailVerificationRepository) Create(ctx context.Context, userID, tokenHash, email string, expiresAt time.Time) (*models.EmailVerificationToken, error) {
	query := `
		INSERT INTO email_verification_tokens (id, user_id, token_hash, email, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + verificationTokenColumns

	token, err := scanVerificationTokenRow(
		r.db.QueryRow(ctx, query, uuid.New().String(), userID, tokenHash, email, expiresAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create email verification token: %w", err)
	}

	return token, nil
}

// GetByTokenHash retrieves a token by its hash
func (r *EmailVerificationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error) {
	query := `SELECT ` + verificationTokenColumns + ` FROM email_verification_tokens WHERE token_hash = $1`

	return scanVerificationTokenRow(r.db.QueryRow(ctx, query, tokenHash))
}

// GetPendingByEmail gets the most recent unredeemed, unexpired token for an email
func (r *EmailVerificationRepository) GetPendingByEmail(ctx context.Context, email string) (*models.EmailVerificationToken, error) {
	query := `
		SELECT ` + verificationTokenColumns + `
		FROM email_verification_tokens
		WHERE email = $1 AND used_at IS NULL AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanVerificationTokenRow(r.db.QueryRow(ctx, query, email))
}

// MarkAsUsed marks a token as used
func (r *EmailVerificationRepository) MarkAsUsed(ctx context.Context, id string) error {
	query := `
		UPDATE email_verification_tokens
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DeleteByUserID deletes all tokens for a user
func (r *EmailVerificationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	query := `DELETE FROM email_verification_tokens WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete tokens for user: %w", err)
	}

	return nil
}

// CleanupExpired deletes tokens whose expiry is well past
func (r *EmailVerificationRepository) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM email_verification_tokens WHERE expires_at < NOW() - INTERVAL '30 days'`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired verification tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
