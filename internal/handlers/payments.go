package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	pkghttp "github.com/chioma-app/api/pkg/http"
)

// PaymentServiceInterface defines the payment operations
type PaymentServiceInterface interface {
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	Get(ctx context.Context, id, callerID, callerRole string) (*models.Payment, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]*models.Payment, error)
}

type PaymentHandler struct {
	service PaymentServiceInterface
}

func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

type CreatePaymentRequest struct {
	AgreementID     *string `json:"agreementId"`
	PaymentMethodID *int    `json:"paymentMethodId"`
	Amount          string  `json:"amount" validate:"required"`
	FeeAmount       string  `json:"feeAmount"`
	Currency        string  `json:"currency" validate:"omitempty,len=3"`
	ReferenceNumber *string `json:"referenceNumber"`
	IdempotencyKey  *string `json:"idempotencyKey"`
	Notes           *string `json:"notes"`
}

type PaymentResponse struct {
	ID              string  `json:"id"`
	Amount          string  `json:"amount"`
	FeeAmount       string  `json:"feeAmount"`
	NetAmount       string  `json:"netAmount"`
	Currency        string  `json:"currency"`
	Status          string  `json:"status"`
	ReferenceNumber *string `json:"referenceNumber"`
	ProcessedAt     *string `json:"processedAt"`
	CreatedAt       string  `json:"createdAt"`
}

// Create handles POST /payments
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "NGN"
	}

	payment := &models.Payment{
		UserID:          claims.UserID,
		AgreementID:     req.AgreementID,
		PaymentMethodID: req.PaymentMethodID,
		Amount:          req.Amount,
		FeeAmount:       req.FeeAmount,
		Currency:        currency,
		ReferenceNumber: req.ReferenceNumber,
		IdempotencyKey:  req.IdempotencyKey,
		Notes:           req.Notes,
	}

	created, err := h.service.Create(r.Context(), payment)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid payment details")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Payment already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, paymentToResponse(created))
}

// Get handles GET /payments/{id}
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	id := chi.URLParam(r, "id")

	payment, err := h.service.Get(r.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Payment not found")
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "You do not have access to this payment")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, paymentToResponse(payment))
}

// List handles GET /payments
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	payments, err := h.service.ListForUser(r.Context(), claims.UserID, limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, paymentToResponse(p))
	}

	writeJSON(w, http.StatusOK, responses)
}

func paymentToResponse(p *models.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:              p.ID,
		Amount:          p.Amount,
		FeeAmount:       p.FeeAmount,
		NetAmount:       p.NetAmount,
		Currency:        p.Currency,
		Status:          p.Status,
		ReferenceNumber: p.ReferenceNumber,
		CreatedAt:       p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if p.ProcessedAt != nil {
		s := p.ProcessedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.ProcessedAt = &s
	}
	return resp
}
