package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	"github.com/chioma-app/api/internal/services"
	pkghttp "github.com/chioma-app/api/pkg/http"
)

// MFAServiceInterface defines the MFA enrollment operations
type MFAServiceInterface interface {
	InitiateSetup(ctx context.Context, userID string) (*services.EnrollmentResponse, error)
	VerifySetup(ctx context.Context, userID, code string) error
	Disable(ctx context.Context, userID, password, code string) error
}

// MFAHandler handles TOTP enrollment endpoints. All routes require an
// authenticated session.
type MFAHandler struct {
	service MFAServiceInterface
}

func NewMFAHandler(service MFAServiceInterface) *MFAHandler {
	return &MFAHandler{service: service}
}

type VerifySetupRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type DisableMFARequest struct {
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// Setup handles POST /auth/mfa/setup
func (h *MFAHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	enrollment, err := h.service.InitiateSetup(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "MFA is already enabled on this account")
			return
		}
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, enrollment)
}

// VerifySetup handles POST /auth/mfa/verify-setup
func (h *MFAHandler) VerifySetup(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	var req VerifySetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.VerifySetup(r.Context(), claims.UserID, req.Code); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "No MFA setup in progress")
			return
		}
		writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Disable handles POST /auth/mfa/disable
func (h *MFAHandler) Disable(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	var req DisableMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Disable(r.Context(), claims.UserID, req.Password, req.Code); err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			pkghttp.WriteBadRequest(w, "MFA is not enabled on this account")
			return
		}
		writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
