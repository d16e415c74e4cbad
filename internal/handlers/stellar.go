package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	pkghttp "github.com/chioma-app/api/pkg/http"
)

type StellarTransactionRepositoryInterface interface {
	GetByHash(ctx context.Context, hash string) (*models.StellarTransaction, error)
	List(ctx context.Context, status string, limit, offset int) ([]*models.StellarTransaction, error)
}

// StellarHandler exposes the read-only ledger mirror. Admin only; tenants
// see their money through /payments.
type StellarHandler struct {
	txs StellarTransactionRepositoryInterface
}

func NewStellarHandler(txs StellarTransactionRepositoryInterface) *StellarHandler {
	return &StellarHandler{txs: txs}
}

type StellarTransactionResponse struct {
	ID              int64   `json:"id"`
	TransactionHash string  `json:"transactionHash"`
	AssetType       string  `json:"assetType"`
	AssetCode       *string `json:"assetCode"`
	Amount          string  `json:"amount"`
	Status          string  `json:"status"`
	Ledger          *int    `json:"ledger"`
	Memo            *string `json:"memo"`
	CreatedAt       string  `json:"createdAt"`
}

// List handles GET /stellar/transactions
func (h *StellarHandler) List(w http.ResponseWriter, r *http.Request) {
	if auth.ClaimsFromContext(r) == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	status := r.URL.Query().Get("status")
	switch status {
	case "", models.StellarTxPending, models.StellarTxSubmitted, models.StellarTxCompleted, models.StellarTxFailed:
	default:
		pkghttp.WriteBadRequest(w, "Unknown status filter")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	txs, err := h.txs.List(r.Context(), status, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]StellarTransactionResponse, 0, len(txs))
	for _, tx := range txs {
		responses = append(responses, stellarTxToResponse(tx))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get handles GET /stellar/transactions/{hash}
func (h *StellarHandler) Get(w http.ResponseWriter, r *http.Request) {
	if auth.ClaimsFromContext(r) == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	hash := chi.URLParam(r, "hash")

	tx, err := h.txs.GetByHash(r.Context(), hash)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Transaction not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, stellarTxToResponse(tx))
}

func stellarTxToResponse(tx *models.StellarTransaction) StellarTransactionResponse {
	return StellarTransactionResponse{
		ID:              tx.ID,
		TransactionHash: tx.TransactionHash,
		AssetType:       tx.AssetType,
		AssetCode:       tx.AssetCode,
		Amount:          tx.Amount,
		Status:          tx.Status,
		Ledger:          tx.Ledger,
		Memo:            tx.Memo,
		CreatedAt:       tx.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
