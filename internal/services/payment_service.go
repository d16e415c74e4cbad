package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/chioma-app/api/internal/models"
)

// PaymentRepository defines the persistence operations for payments
type PaymentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Payment, error)
}

// PaymentService owns the rent-payment records. Processing itself happens
// on the ledger side; this service keeps the book-of-record rows.
type PaymentService struct {
	payments PaymentRepository
	logger   *slog.Logger
}

func NewPaymentService(payments PaymentRepository, logger *slog.Logger) *PaymentService {
	return &PaymentService{payments: payments, logger: logger}
}

// Create records a new pending payment. When an idempotency key is supplied
// and a payment already exists for it, that payment is returned instead of
// creating a duplicate.
func (s *PaymentService) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	if payment.UserID == "" || payment.Amount == "" {
		return nil, models.ErrBadRequest
	}

	if payment.IdempotencyKey != nil && *payment.IdempotencyKey != "" {
		existing, err := s.payments.GetByIdempotencyKey(ctx, *payment.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to check idempotency key", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	created, err := s.payments.Create(ctx, payment)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create payment", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("payment created",
		slog.String("payment_id", created.ID),
		slog.String("user_id", created.UserID),
		slog.String("amount", created.Amount),
	)

	return created, nil
}

// Get returns a payment, enforcing that non-admin callers only see their
// own rows.
func (s *PaymentService) Get(ctx context.Context, id, callerID, callerRole string) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get payment", slog.String("payment_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if callerRole != models.RoleAdmin && payment.UserID != callerID {
		return nil, models.ErrForbidden
	}

	return payment, nil
}

// ListForUser returns the caller's payments, newest first.
func (s *PaymentService) ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	payments, err := s.payments.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list payments", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return payments, nil
}
