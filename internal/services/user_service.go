package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/chioma-app/api/internal/models"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

// UserService covers the profile surface plus the admin account-management
// operations. Credential changes stay in AuthService.
type UserService struct {
	repo        UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewUserService(repo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// GetProfile returns the identity projection for an account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user.Profile(), nil
}

// UpdateProfile changes the account's display names. Nil fields are left
// untouched.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, firstName, lastName *string) (*models.UserProfile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if firstName != nil {
		trimmed := strings.TrimSpace(*firstName)
		user.FirstName = &trimmed
	}
	if lastName != nil {
		trimmed := strings.TrimSpace(*lastName)
		user.LastName = &trimmed
	}

	updated, err := s.repo.Update(ctx, userID, user)
	if err != nil {
		s.logger.Error("failed to update user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return updated.Profile(), nil
}

// ListUsers pages through all accounts. Admin only; the handler enforces
// the role.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.UserProfile, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	profiles := make([]*models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}

	return profiles, nil
}

// SetStatus moves an account between active, disabled, and suspended. An
// admin cannot change their own status, so the last admin cannot lock
// everyone out.
func (s *UserService) SetStatus(ctx context.Context, adminID, userID, status string) error {
	switch status {
	case models.StatusActive, models.StatusDisabled, models.StatusSuspended:
	default:
		return models.ErrBadRequest
	}

	if adminID == userID {
		return models.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Status == status {
		return nil
	}

	user.Status = status

	// Deactivation also stamps the credential epoch so outstanding refresh
	// tokens die immediately; access tokens expire on their own.
	if status != models.StatusActive {
		now := time.Now()
		user.PasswordChangedAt = &now
	}

	if _, err := s.repo.Update(ctx, userID, user); err != nil {
		s.logger.Error("failed to update account status",
			slog.String("user_id", userID),
			slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_status_changed", userID)
	s.logger.Info("account status changed",
		slog.String("admin_id", adminID),
		slog.String("user_id", userID),
		slog.String("status", status))

	return nil
}

// DeleteUser removes an account entirely. Self-deletion through the admin
// surface is rejected.
func (s *UserService) DeleteUser(ctx context.Context, adminID, userID string) error {
	if adminID == userID {
		return models.ErrForbidden
	}

	if err := s.repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete user", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_deleted", userID)
	return nil
}
