package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/models"
)

const paymentColumns = `id, user_id, agreement_id, payment_method_id, amount, fee_amount,
	net_amount, currency, status, reference_number, idempotency_key, processed_at,
	refunded_amount, refund_reason, notes, created_at, updated_at`

type PaymentRepository struct {
	db database.Querier
}

func NewPaymentRepository(db database.Querier) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPaymentRow(scanner rowScanner) (*models.Payment, error) {
	var p models.Payment

	err := scanner.Scan(
		&p.ID, &p.UserID, &p.AgreementID, &p.PaymentMethodID, &p.Amount, &p.FeeAmount,
		&p.NetAmount, &p.Currency, &p.Status, &p.ReferenceNumber, &p.IdempotencyKey,
		&p.ProcessedAt, &p.RefundedAmount, &p.RefundReason, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

func scanPaymentRows(rows pgx.Rows) ([]*models.Payment, error) {
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		payment, err := scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPaymentRow(r.db.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey supports safe retry of payment creation.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`
	return scanPaymentRow(r.db.QueryRow(ctx, query, key))
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}

	return scanPaymentRows(rows)
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	payment.ID = uuid.New().String()

	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	query := `
		INSERT INTO payments (id, user_id, agreement_id, payment_method_id, amount, fee_amount,
			net_amount, currency, status, reference_number, idempotency_key, refunded_amount,
			notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + paymentColumns

	return scanPaymentRow(r.db.QueryRow(ctx, query,
		payment.ID, payment.UserID, payment.AgreementID, payment.PaymentMethodID,
		payment.Amount, payment.FeeAmount, payment.NetAmount, payment.Currency,
		payment.Status, payment.ReferenceNumber, payment.IdempotencyKey,
		payment.RefundedAmount, payment.Notes, payment.CreatedAt, payment.UpdatedAt,
	))
}

// UpdateStatus moves a payment through its lifecycle and stamps
// processed_at on completion.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id, status string) (*models.Payment, error) {
	now := time.Now()

	var processedAt *time.Time
	if status == models.PaymentStatusCompleted {
		processedAt = &now
	}

	query := `
		UPDATE payments SET status = $1, processed_at = COALESCE($2, processed_at), updated_at = $3
		WHERE id = $4
		RETURNING ` + paymentColumns

	return scanPaymentRow(r.db.QueryRow(ctx, query, status, processedAt, now, id))
}
