package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	pkgauth "github.com/chioma-app/api/pkg/auth"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

// MFAService handles TOTP enrollment. Setup is two-phase: GenerateEnrollment
// hands the user a secret and QR code, VerifySetup proves possession of an
// authenticator before MFA is switched on. A secret that was never verified
// is never persisted.
type MFAService struct {
	users       UserRepository
	totp        *auth.TOTPManager
	mailer      EmailSender
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	// pending holds unverified enrollments keyed by user ID. A process
	// restart drops them; the user simply restarts setup.
	pending *pendingEnrollments
}

func NewMFAService(
	users UserRepository,
	totp *auth.TOTPManager,
	mailer EmailSender,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *MFAService {
	return &MFAService{
		users:       users,
		totp:        totp,
		mailer:      mailer,
		logger:      logger,
		auditLogger: auditLogger,
		pending:     newPendingEnrollments(),
	}
}

// EnrollmentResponse is what the setup endpoint returns: everything an
// authenticator app needs, shown exactly once.
type EnrollmentResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCodePNG  string `json:"qr_code"`
}

// InitiateSetup creates a fresh TOTP secret for the user. Re-running setup
// replaces any earlier unverified secret.
func (s *MFAService) InitiateSetup(ctx context.Context, userID string) (*EnrollmentResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for mfa setup", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if user.MFAEnabled {
		return nil, models.ErrConflict
	}

	enrollment, err := s.totp.GenerateEnrollment(user.Email)
	if err != nil {
		s.logger.Error("failed to generate enrollment", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.pending.put(userID, enrollment)

	s.logger.Info("mfa setup initiated", slog.String("user_id", userID))

	return &EnrollmentResponse{
		Secret:     enrollment.Secret,
		OTPAuthURL: enrollment.OTPAuthURL,
		QRCodePNG:  enrollment.QRCodePNG,
	}, nil
}

// VerifySetup confirms the first code from the authenticator and enables
// MFA for the account.
func (s *MFAService) VerifySetup(ctx context.Context, userID, code string) error {
	enrollment, ok := s.pending.get(userID)
	if !ok {
		return models.ErrBadRequest
	}

	valid, err := s.totp.ValidateCode([]byte(enrollment.Secret), code)
	if err != nil {
		s.logger.Error("failed to validate setup code", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !valid {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "mfa_setup_failed",
			UserID:        userID,
			FailureReason: "invalid_code",
			Success:       false,
		})
		return models.ErrUnauthorized
	}

	if err := s.users.EnableMFA(ctx, userID, enrollment.EncryptedSecret, enrollment.Nonce); err != nil {
		s.logger.Error("failed to enable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.pending.remove(userID)

	if s.mailer != nil {
		if user, err := s.users.GetByID(ctx, userID); err == nil {
			if err := s.mailer.SendMFAEnabledEmail(ctx, user.Email); err != nil {
				s.logger.Warn("failed to send mfa enabled email", slog.String("user_id", userID), slog.Any("error", err))
			}
		}
	}

	s.auditLogger.LogAccountAction("mfa_enabled", userID)
	return nil
}

// Disable turns MFA off after re-verifying the account password and a
// current one-time code.
func (s *MFAService) Disable(ctx context.Context, userID, password, code string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for mfa disable", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !user.MFAEnabled {
		return models.ErrBadRequest
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return models.ErrUnauthorized
	}

	secret, err := s.totp.DecryptSecret(user.TOTPSecretEnc, user.TOTPSecretNonce)
	if err != nil {
		s.logger.Error("failed to decrypt totp secret", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	valid, err := s.totp.ValidateCode(secret, code)
	if err != nil {
		s.logger.Error("failed to validate totp code", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !valid {
		return models.ErrUnauthorized
	}

	if err := s.users.DisableMFA(ctx, userID); err != nil {
		s.logger.Error("failed to disable mfa", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("mfa_disabled", userID)
	return nil
}
