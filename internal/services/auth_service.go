package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	pkgauth "github.com/chioma-app/api/pkg/auth"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

// passwordHistoryDepth is how many previous credentials are retained and
// checked for reuse.
const passwordHistoryDepth = 5

// LoginOutcome is the discriminated result of a credential check. Exactly
// one of the two concrete outcomes is returned on success: Authenticated
// when the account has no second factor, MFAPending when a one-time code
// is still required. The two never mix; an MFAPending outcome carries no
// session tokens.
type LoginOutcome interface {
	loginOutcome()
}

// Authenticated is a fully established session.
type Authenticated struct {
	AccessToken  string
	RefreshToken string
	User         *models.UserProfile
}

// MFAPending is a half-open login: the password was correct but the account
// requires a one-time code. The MFA token is the only credential issued; it
// cannot be used against protected endpoints. The profile rides along so the
// client can render who is completing the challenge.
type MFAPending struct {
	MFAToken string
	User     *models.UserProfile
}

func (*Authenticated) loginOutcome() {}
func (*MFAPending) loginOutcome()    {}

// AuthService orchestrates login, MFA completion, registration, token
// refresh, and password changes.
type AuthService struct {
	users       UserRepository
	revocations TokenRevocationRepository
	history     PasswordHistoryRepository
	policy      *pkgauth.Policy
	tm          *auth.TokenManager
	totp        *auth.TOTPManager
	timing      *auth.TimingDelay
	mailer      EmailSender
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAuthService(
	users UserRepository,
	revocations TokenRevocationRepository,
	history PasswordHistoryRepository,
	policy *pkgauth.Policy,
	tm *auth.TokenManager,
	totp *auth.TOTPManager,
	timing *auth.TimingDelay,
	mailer EmailSender,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		users:       users,
		revocations: revocations,
		history:     history,
		policy:      policy,
		tm:          tm,
		totp:        totp,
		timing:      timing,
		mailer:      mailer,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login verifies a credential pair. Unknown email and wrong password take
// the same path out: a uniform delay, the same audit shape minus user_id,
// and models.ErrUnauthorized. Account-state blocks are surfaced distinctly
// because they are not guessable secrets.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginOutcome, error) {
	start := time.Now()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.failClosed(start, "login_failed", "", "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.failClosed(start, "login_failed", "", "invalid_credentials")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_blocked",
			Success:       false,
		})
		return nil, err
	}

	if !user.EmailVerified {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "email_not_verified",
			Success:       false,
		})
		return nil, models.ErrEmailNotVerified
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		s.failClosed(start, "login_failed", user.ID, "invalid_credentials")
		return nil, models.ErrUnauthorized
	}

	if user.MFAEnabled {
		mfaToken, err := s.tm.GenerateMFAToken(user.ID)
		if err != nil {
			s.logger.Error("failed to generate mfa token", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_mfa_pending",
			UserID:    user.ID,
			Success:   true,
		})

		return &MFAPending{MFAToken: mfaToken, User: user.Profile()}, nil
	}

	outcome, err := s.establishSession(user)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return outcome, nil
}

// CompleteMFA exchanges an MFA token plus a valid one-time code for a full
// session. It can only ever produce an Authenticated outcome; a second
// MFAPending is impossible by construction.
func (s *AuthService) CompleteMFA(ctx context.Context, mfaToken, code string) (*Authenticated, error) {
	start := time.Now()

	claims, err := s.tm.ValidateToken(mfaToken)
	if err != nil {
		s.failClosed(start, "mfa_failed", "", "challenge_invalid")
		return nil, models.ErrChallengeExpired
	}

	if claims.Type != models.TokenTypeMFA {
		s.failClosed(start, "mfa_failed", claims.UserID, "wrong_token_type")
		return nil, models.ErrChallengeExpired
	}

	// A consumed challenge is dead even though its signature still verifies
	revoked, err := s.revocations.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check mfa token revocation", slog.String("jti", claims.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		s.failClosed(start, "mfa_failed", claims.UserID, "challenge_consumed")
		return nil, models.ErrChallengeExpired
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.failClosed(start, "mfa_failed", claims.UserID, "user_not_found")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for mfa", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		return nil, err
	}

	if !user.MFAEnabled || len(user.TOTPSecretEnc) == 0 {
		s.failClosed(start, "mfa_failed", user.ID, "mfa_not_enrolled")
		return nil, models.ErrUnauthorized
	}

	secret, err := s.totp.DecryptSecret(user.TOTPSecretEnc, user.TOTPSecretNonce)
	if err != nil {
		s.logger.Error("failed to decrypt totp secret", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	valid, err := s.totp.ValidateCode(secret, code)
	if err != nil {
		s.logger.Error("failed to validate totp code", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !valid {
		s.failClosed(start, "mfa_failed", user.ID, "invalid_code")
		return nil, models.ErrUnauthorized
	}

	// Consume the challenge so the same MFA token cannot complete twice
	if claims.ExpiresAt != nil {
		if err := s.revocations.RevokeToken(ctx, claims.ID, user.ID, models.TokenTypeMFA, claims.ExpiresAt.Time, "mfa_consumed"); err != nil {
			s.logger.Warn("failed to consume mfa token", slog.String("jti", claims.ID), slog.Any("error", err))
		}
	}

	outcome, err := s.establishSession(user)
	if err != nil {
		return nil, err
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "mfa_success",
		UserID:    user.ID,
		Success:   true,
	})

	return outcome, nil
}

// Register creates an account. Password policy violations come back as
// *pkgauth.ValidationError with the specific failed rule; unlike login
// failures, registration rejections are meant to be actionable.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName, role string) (*Authenticated, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)

	if email == "" {
		return nil, &pkgauth.ValidationError{Message: "Email is required"}
	}

	switch role {
	case "":
		role = models.RoleTenant
	case models.RoleTenant, models.RoleLandlord:
	default:
		// Admin accounts are provisioned out of band
		return nil, &pkgauth.ValidationError{Message: "Role must be tenant or landlord"}
	}

	if _, err := s.policy.Evaluate(ctx, password, ""); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:         email,
		PasswordHash:  hash,
		Role:          role,
		EmailVerified: false,
	}
	if firstName != "" {
		user.FirstName = &firstName
	}
	if lastName != "" {
		user.LastName = &lastName
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.history.Add(ctx, created.ID, hash); err != nil {
		s.logger.Warn("failed to record password history", slog.String("user_id", created.ID), slog.Any("error", err))
	}

	if s.mailer != nil {
		name := ""
		if created.FirstName != nil {
			name = *created.FirstName
		}
		if err := s.mailer.SendWelcomeEmail(ctx, created.Email, name); err != nil {
			s.logger.Warn("failed to send welcome email", slog.String("user_id", created.ID), slog.Any("error", err))
		}
	}

	s.auditLogger.LogAccountAction("user_registered", created.ID)

	return s.establishSession(created)
}

// RefreshToken rotates a refresh token into a new pair. The old token's JTI
// is blacklisted so each refresh token is single-use.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*Authenticated, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshToken)
	if err != nil {
		return nil, models.ErrUnauthorized
	}

	if claims.Type != models.TokenTypeRefresh {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrUnauthorized
	}

	revoked, err := s.revocations.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("failed to check token revocation", slog.String("jti", claims.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if revoked {
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		return nil, models.ErrUnauthorized
	}

	// Tokens minted before a password change are dead
	if user.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(*user.PasswordChangedAt) {
		return nil, models.ErrUnauthorized
	}

	if claims.ExpiresAt != nil {
		if err := s.revocations.RevokeToken(ctx, claims.ID, user.ID, models.TokenTypeRefresh, claims.ExpiresAt.Time, "rotated"); err != nil {
			s.logger.Warn("failed to revoke rotated refresh token", slog.String("jti", claims.ID), slog.Any("error", err))
		}
	}

	return s.establishSession(user)
}

// Logout blacklists the presented access token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tm.ValidateToken(accessToken)
	if err != nil || claims.ExpiresAt == nil {
		return models.ErrUnauthorized
	}

	if err := s.revocations.RevokeToken(ctx, claims.ID, claims.UserID, claims.Type, claims.ExpiresAt.Time, "logout"); err != nil {
		s.logger.Error("failed to revoke token", slog.String("jti", claims.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("logout", claims.UserID)
	return nil
}

// ChangePassword verifies the current credential, runs the full policy with
// history enforcement, and swaps the hash. Existing sessions keep working;
// refresh is cut off by the password_changed_at check.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for password change", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "password_change_failed",
			UserID:        userID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return models.ErrUnauthorized
	}

	if _, err := s.policy.Evaluate(ctx, newPassword, userID); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.history.Add(ctx, userID, hash); err != nil {
		s.logger.Warn("failed to record password history", slog.String("user_id", userID), slog.Any("error", err))
	}
	if err := s.history.Prune(ctx, userID, passwordHistoryDepth); err != nil {
		s.logger.Warn("failed to prune password history", slog.String("user_id", userID), slog.Any("error", err))
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordChangedEmail(ctx, user.Email); err != nil {
			s.logger.Warn("failed to send password change email", slog.String("user_id", userID), slog.Any("error", err))
		}
	}

	s.auditLogger.LogAccountAction("password_changed", userID)
	return nil
}

// establishSession mints an access/refresh pair for a verified user.
func (s *AuthService) establishSession(user *models.User) (*Authenticated, error) {
	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &Authenticated{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Profile(),
	}, nil
}

// failClosed pads the rejection to a uniform duration and records the audit
// event. user_id is omitted from the audit record when the account is not
// known to exist.
func (s *AuthService) failClosed(start time.Time, eventType, userID, reason string) {
	if s.timing != nil {
		s.timing.WaitFrom(start)
	}
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     eventType,
		UserID:        userID,
		FailureReason: reason,
		Success:       false,
	})
}

// validateAccountState checks whether the account may authenticate at all
func validateAccountState(user *models.User) error {
	switch user.Status {
	case models.StatusDisabled:
		return models.ErrAccountDisabled
	case models.StatusSuspended:
		return models.ErrAccountSuspended
	case models.StatusActive:
		return nil
	default:
		return fmt.Errorf("unknown account status: %s", user.Status)
	}
}
