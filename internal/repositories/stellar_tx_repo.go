package repositories

import (
	"context"
	"fmt"

	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/models"
)

const stellarTxColumns = `id, transaction_hash, asset_type, asset_code, asset_issuer, amount,
	fee_paid, memo, memo_type, status, ledger, source_account, destination_account,
	idempotency_key, error_message, created_at, updated_at`

// StellarTransactionRepository reads the on-ledger payment mirror. Rows are
// written by the ingestion job; this API only queries them.
type StellarTransactionRepository struct {
	db database.Querier
}

func NewStellarTransactionRepository(db database.Querier) *StellarTransactionRepository {
	return &StellarTransactionRepository{db: db}
}

func scanStellarTxRow(scanner rowScanner) (*models.StellarTransaction, error) {
	var tx models.StellarTransaction

	err := scanner.Scan(
		&tx.ID, &tx.TransactionHash, &tx.AssetType, &tx.AssetCode, &tx.AssetIssuer,
		&tx.Amount, &tx.FeePaid, &tx.Memo, &tx.MemoType, &tx.Status, &tx.Ledger,
		&tx.SourceAccount, &tx.DestinationAccount, &tx.IdempotencyKey, &tx.ErrorMessage,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &tx, nil
}

func (r *StellarTransactionRepository) GetByHash(ctx context.Context, hash string) (*models.StellarTransaction, error) {
	query := `SELECT ` + stellarTxColumns + ` FROM stellar_transactions WHERE transaction_hash = $1`
	return scanStellarTxRow(r.db.QueryRow(ctx, query, hash))
}

func (r *StellarTransactionRepository) List(ctx context.Context, status string, limit, offset int) ([]*models.StellarTransaction, error) {
	query := `SELECT ` + stellarTxColumns + ` FROM stellar_transactions
		WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query stellar transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]*models.StellarTransaction, 0)
	for rows.Next() {
		tx, err := scanStellarTxRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stellar transaction: %w", err)
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stellar transactions: %w", err)
	}

	return txs, nil
}
