package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chioma-app/api/internal/models"
)

// EmailVerificationRepository defines the token store operations the
// verification flow needs
type EmailVerificationRepository interface {
	Create(ctx context.Context, userID, tokenHash, email string, expiresAt time.Time) (*models.EmailVerificationToken, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error)
	GetPendingByEmail(ctx context.Context, email string) (*models.EmailVerificationToken, error)
	MarkAsUsed(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
	CleanupExpired(ctx context.Context) (int64, error)
}

// EmailVerificationService issues and redeems the single-use tokens that
// activate a new account's email address.
type EmailVerificationService struct {
	tokens         EmailVerificationRepository
	users          UserRepository
	mailer         EmailSender
	logger         *slog.Logger
	tokenExpiry    time.Duration
	resendCooldown time.Duration
}

func NewEmailVerificationService(
	tokens EmailVerificationRepository,
	users UserRepository,
	mailer EmailSender,
	logger *slog.Logger,
	tokenExpiry time.Duration,
) *EmailVerificationService {
	return &EmailVerificationService{
		tokens:      tokens,
		users:       users,
		mailer:      mailer,
		logger:      logger,
		tokenExpiry: tokenExpiry,
		// Resends inside this window are silently dropped to stop mailbox spam
		resendCooldown: 20 * time.Minute,
	}
}

// SendVerification generates a token and mails it. Only the SHA-256 of the
// token is persisted; the plain value exists in the email alone.
func (s *EmailVerificationService) SendVerification(ctx context.Context, userID, email string) error {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	plainToken := base64.URLEncoding.EncodeToString(tokenBytes)
	hash := sha256.Sum256([]byte(plainToken))
	tokenHash := hex.EncodeToString(hash[:])
	expiresAt := time.Now().Add(s.tokenExpiry)

	if _, err := s.tokens.Create(ctx, userID, tokenHash, email, expiresAt); err != nil {
		s.logger.Error("failed to create email verification token",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return fmt.Errorf("failed to create token: %w", err)
	}

	if err := s.mailer.SendVerificationEmail(ctx, email, plainToken, expiresAt); err != nil {
		s.logger.Error("failed to send verification email",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("verification email sent", slog.String("user_id", userID))
	return nil
}

// Verify redeems a token and marks the account's email as verified. Every
// failure mode comes back as ErrUnauthorized; the caller cannot learn
// whether a token was wrong, used, or expired.
func (s *EmailVerificationService) Verify(ctx context.Context, plainToken string) (string, error) {
	if plainToken == "" {
		return "", models.ErrUnauthorized
	}

	hash := sha256.Sum256([]byte(plainToken))
	tokenHash := hex.EncodeToString(hash[:])

	token, err := s.tokens.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return "", models.ErrUnauthorized
		}
		s.logger.Error("failed to retrieve verification token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if token.IsUsed() || token.IsExpired() {
		s.logger.Warn("rejected verification token",
			slog.String("token_id", token.ID),
			slog.Bool("used", token.IsUsed()),
			slog.Bool("expired", token.IsExpired()))
		return "", models.ErrUnauthorized
	}

	if err := s.tokens.MarkAsUsed(ctx, token.ID); err != nil {
		s.logger.Error("failed to mark verification token as used",
			slog.String("token_id", token.ID),
			slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return "", models.ErrInternalServer
	}

	user.EmailVerified = true
	if _, err := s.users.Update(ctx, token.UserID, user); err != nil {
		s.logger.Error("failed to update email verification status",
			slog.String("user_id", token.UserID),
			slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("user_id", token.UserID))
	return token.UserID, nil
}

// ResendVerification re-mails a pending token's replacement. It always
// reports success to the caller so the endpoint cannot be used to probe
// which addresses have accounts.
func (s *EmailVerificationService) ResendVerification(ctx context.Context, email string) error {
	existing, err := s.tokens.GetPendingByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to check for pending verification token", slog.Any("error", err))
		}
		// No pending token: unknown address or already verified
		return nil
	}

	if time.Since(existing.CreatedAt) < s.resendCooldown {
		s.logger.Info("verification resend suppressed by cooldown",
			slog.String("user_id", existing.UserID))
		return nil
	}

	if err := s.tokens.DeleteByUserID(ctx, existing.UserID); err != nil {
		s.logger.Error("failed to delete stale verification tokens",
			slog.String("user_id", existing.UserID),
			slog.Any("error", err))
	}

	return s.SendVerification(ctx, existing.UserID, email)
}
