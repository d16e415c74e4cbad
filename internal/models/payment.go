package models

import "time"

// Payment statuses
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is a rent payment record. The auth core treats payments as a
// conventional collaborator; no invariants beyond the schema live here.
type Payment struct {
	ID              string
	UserID          string
	AgreementID     *string
	PaymentMethodID *int
	Amount          string
	FeeAmount       string
	NetAmount       string
	Currency        string
	Status          string
	ReferenceNumber *string
	IdempotencyKey  *string
	ProcessedAt     *time.Time
	RefundedAmount  string
	RefundReason    *string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentMethod is a stored payment instrument (card, bank transfer, wallet)
type PaymentMethod struct {
	ID          int
	UserID      string
	PaymentType string
	LastFour    *string
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
