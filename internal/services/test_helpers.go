package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/chioma-app/api/internal/models"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	ListFunc           func(ctx context.Context, limit, offset int) ([]*models.User, error)
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc         func(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
	EnableMFAFunc      func(ctx context.Context, id string, secretEnc, nonce []byte) error
	DisableMFAFunc     func(ctx context.Context, id string) error
	DeleteFunc         func(ctx context.Context, id string) error
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) EnableMFA(ctx context.Context, id string, secretEnc, nonce []byte) error {
	if m.EnableMFAFunc != nil {
		return m.EnableMFAFunc(ctx, id, secretEnc, nonce)
	}
	return nil
}

func (m *MockUserRepository) DisableMFA(ctx context.Context, id string) error {
	if m.DisableMFAFunc != nil {
		return m.DisableMFAFunc(ctx, id)
	}
	return nil
}

// MockTokenRevocationRepository implements TokenRevocationRepository for testing
type MockTokenRevocationRepository struct {
	RevokeTokenFunc    func(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error
	IsTokenRevokedFunc func(ctx context.Context, jti string) (bool, error)
	CleanupFunc        func(ctx context.Context) (int64, error)
}

func (m *MockTokenRevocationRepository) RevokeToken(ctx context.Context, jti, userID, tokenType string, expiresAt time.Time, reason string) error {
	if m.RevokeTokenFunc != nil {
		return m.RevokeTokenFunc(ctx, jti, userID, tokenType, expiresAt, reason)
	}
	return nil
}

func (m *MockTokenRevocationRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsTokenRevokedFunc != nil {
		return m.IsTokenRevokedFunc(ctx, jti)
	}
	return false, nil
}

func (m *MockTokenRevocationRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	if m.CleanupFunc != nil {
		return m.CleanupFunc(ctx)
	}
	return 0, nil
}

// MockPasswordHistoryRepository implements PasswordHistoryRepository for testing
type MockPasswordHistoryRepository struct {
	AddFunc          func(ctx context.Context, userID, passwordHash string) error
	RecentHashesFunc func(ctx context.Context, userID string, limit int) ([]string, error)
	PruneFunc        func(ctx context.Context, userID string, keep int) error
}

func (m *MockPasswordHistoryRepository) Add(ctx context.Context, userID, passwordHash string) error {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, userID, passwordHash)
	}
	return nil
}

func (m *MockPasswordHistoryRepository) RecentHashes(ctx context.Context, userID string, limit int) ([]string, error) {
	if m.RecentHashesFunc != nil {
		return m.RecentHashesFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *MockPasswordHistoryRepository) Prune(ctx context.Context, userID string, keep int) error {
	if m.PruneFunc != nil {
		return m.PruneFunc(ctx, userID, keep)
	}
	return nil
}

// MockEmailVerificationRepository implements EmailVerificationRepository for testing
type MockEmailVerificationRepository struct {
	CreateFunc            func(ctx context.Context, userID, tokenHash, email string, expiresAt time.Time) (*models.EmailVerificationToken, error)
	GetByTokenHashFunc    func(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error)
	GetPendingByEmailFunc func(ctx context.Context, email string) (*models.EmailVerificationToken, error)
	MarkAsUsedFunc        func(ctx context.Context, id string) error
	DeleteByUserIDFunc    func(ctx context.Context, userID string) error
	CleanupExpiredFunc    func(ctx context.Context) (int64, error)
}

func (m *MockEmailVerificationRepository) Create(ctx context.Context, userID, tokenHash, email string, expiresAt time.Time) (*models.EmailVerificationToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, tokenHash, email, expiresAt)
	}
	return &models.EmailVerificationToken{
		ID:        "token-id",
		UserID:    userID,
		TokenHash: tokenHash,
		Email:     email,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}, nil
}

func (m *MockEmailVerificationRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error) {
	if m.GetByTokenHashFunc != nil {
		return m.GetByTokenHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockEmailVerificationRepository) GetPendingByEmail(ctx context.Context, email string) (*models.EmailVerificationToken, error) {
	if m.GetPendingByEmailFunc != nil {
		return m.GetPendingByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockEmailVerificationRepository) MarkAsUsed(ctx context.Context, id string) error {
	if m.MarkAsUsedFunc != nil {
		return m.MarkAsUsedFunc(ctx, id)
	}
	return nil
}

func (m *MockEmailVerificationRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if m.DeleteByUserIDFunc != nil {
		return m.DeleteByUserIDFunc(ctx, userID)
	}
	return nil
}

func (m *MockEmailVerificationRepository) CleanupExpired(ctx context.Context) (int64, error) {
	if m.CleanupExpiredFunc != nil {
		return m.CleanupExpiredFunc(ctx)
	}
	return 0, nil
}

// MockEmailSender implements EmailSender for testing
type MockEmailSender struct {
	WelcomeFunc         func(ctx context.Context, to, firstName string) error
	VerificationFunc    func(ctx context.Context, to, token string, expiresAt time.Time) error
	PasswordChangedFunc func(ctx context.Context, to string) error
	MFAEnabledFunc      func(ctx context.Context, to string) error
}

func (m *MockEmailSender) SendVerificationEmail(ctx context.Context, to, token string, expiresAt time.Time) error {
	if m.VerificationFunc != nil {
		return m.VerificationFunc(ctx, to, token, expiresAt)
	}
	return nil
}

func (m *MockEmailSender) SendWelcomeEmail(ctx context.Context, to, firstName string) error {
	if m.WelcomeFunc != nil {
		return m.WelcomeFunc(ctx, to, firstName)
	}
	return nil
}

func (m *MockEmailSender) SendPasswordChangedEmail(ctx context.Context, to string) error {
	if m.PasswordChangedFunc != nil {
		return m.PasswordChangedFunc(ctx, to)
	}
	return nil
}

func (m *MockEmailSender) SendMFAEnabledEmail(ctx context.Context, to string) error {
	if m.MFAEnabledFunc != nil {
		return m.MFAEnabledFunc(ctx, to)
	}
	return nil
}

// MockPaymentRepository implements PaymentRepository for testing
type MockPaymentRepository struct {
	GetByIDFunc             func(ctx context.Context, id string) (*models.Payment, error)
	GetByIdempotencyKeyFunc func(ctx context.Context, key string) (*models.Payment, error)
	ListByUserFunc          func(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
	CreateFunc              func(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	UpdateStatusFunc        func(ctx context.Context, id, status string) (*models.Payment, error)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	if m.GetByIdempotencyKeyFunc != nil {
		return m.GetByIdempotencyKeyFunc(ctx, key)
	}
	return nil, models.ErrNotFound
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	return []*models.Payment{}, nil
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payment)
	}
	return nil, models.ErrInternalServer
}

func (m *MockPaymentRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Payment, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, models.ErrInternalServer
}

// testLogger discards output; tests assert on behavior, not log lines
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuditLogger() *pkglogger.AuditLogger {
	return pkglogger.NewAuditLogger(testLogger())
}
