package models

import "time"

// Stellar transaction statuses mirrored from the ledger
const (
	StellarTxPending   = "PENDING"
	StellarTxSubmitted = "SUBMITTED"
	StellarTxCompleted = "COMPLETED"
	StellarTxFailed    = "FAILED"
)

// StellarTransaction is a read-only mirror of an on-ledger payment.
// Rows are written by the ledger ingestion job; this API only lists them.
type StellarTransaction struct {
	ID                 int64
	TransactionHash    string
	AssetType          string
	AssetCode          *string
	AssetIssuer        *string
	Amount             string
	FeePaid            int
	Memo               *string
	MemoType           *string
	Status             string
	Ledger             *int
	SourceAccount      *string
	DestinationAccount *string
	IdempotencyKey     *string
	ErrorMessage       *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
