package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	"github.com/chioma-app/api/internal/services"
	pkgauth "github.com/chioma-app/api/pkg/auth"
	pkghttp "github.com/chioma-app/api/pkg/http"
)

// genericAuthFailure is the one message every credential rejection gets.
// Unknown email, wrong password, bad MFA code, and expired challenge are
// deliberately indistinguishable at the HTTP surface.
const genericAuthFailure = "Authentication failed"

// AuthServiceInterface defines the auth operations the handler depends on
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (services.LoginOutcome, error)
	CompleteMFA(ctx context.Context, mfaToken, code string) (*services.Authenticated, error)
	Register(ctx context.Context, email, password, firstName, lastName, role string) (*services.Authenticated, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.Authenticated, error)
	Logout(ctx context.Context, accessToken string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
}

// EmailVerificationServiceInterface defines the verification operations the
// handler depends on
type EmailVerificationServiceInterface interface {
	SendVerification(ctx context.Context, userID, email string) error
	Verify(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context, email string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	service       AuthServiceInterface
	policy        *pkgauth.Policy
	verifications EmailVerificationServiceInterface
}

func NewAuthHandler(service AuthServiceInterface, policy *pkgauth.Policy) *AuthHandler {
	return &AuthHandler{service: service, policy: policy}
}

// NewAuthHandlerWithEmailVerification additionally wires the verification
// flow: registration triggers a verification email and the verify/resend
// endpoints become functional.
func NewAuthHandlerWithEmailVerification(service AuthServiceInterface, policy *pkgauth.Policy, verifications EmailVerificationServiceInterface) *AuthHandler {
	return &AuthHandler{service: service, policy: policy, verifications: verifications}
}

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CompleteMFARequest struct {
	MFAToken string `json:"mfaToken" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=tenant landlord"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

type PasswordStrengthRequest struct {
	Password string `json:"password" validate:"required"`
}

// Response DTOs

// LoginResponse is the single 200 shape for /auth/login. The user profile is
// always present; exactly one credential set is: access+refresh tokens when
// authentication completed, mfaToken when a second factor is still required.
type LoginResponse struct {
	AccessToken  string              `json:"accessToken,omitempty"`
	RefreshToken string              `json:"refreshToken,omitempty"`
	User         *models.UserProfile `json:"user,omitempty"`
	MFARequired  bool                `json:"mfaRequired"`
	MFAToken     string              `json:"mfaToken,omitempty"`
}

type PasswordStrengthResponse struct {
	Score   int     `json:"score"`
	Percent float64 `json:"percent"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	outcome, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginOutcomeToResponse(outcome))
}

// CompleteMFA handles POST /auth/mfa/complete
func (h *AuthHandler) CompleteMFA(w http.ResponseWriter, r *http.Request) {
	var req CompleteMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authed, err := h.service.CompleteMFA(r.Context(), req.MFAToken, req.Code)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginOutcomeToResponse(authed))
}

// Register handles POST /auth/register. Unlike login, rejections carry the
// specific failed rule so the user can fix their password.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authed, err := h.service.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName, req.Role)
	if err != nil {
		var verr *pkgauth.ValidationError
		switch {
		case errors.As(err, &verr):
			pkghttp.WriteBadRequest(w, verr.Message)
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "An account with this email already exists")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	if h.verifications != nil && authed.User != nil {
		// Best effort; the account can always request a resend
		_ = h.verifications.SendVerification(r.Context(), authed.User.ID, authed.User.Email)
	}

	writeJSON(w, http.StatusCreated, loginOutcomeToResponse(authed))
}

// VerifyEmail handles POST /auth/verify-email. Invalid, used, and expired
// tokens all get the same rejection.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if h.verifications == nil {
		pkghttp.WriteNotFound(w, "Not found")
		return
	}

	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if _, err := h.verifications.Verify(r.Context(), req.Token); err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Invalid or expired verification token")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Email verified"})
}

// ResendVerification handles POST /auth/resend-verification. The response
// is identical whether or not the address has a pending verification.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if h.verifications == nil {
		pkghttp.WriteNotFound(w, "Not found")
		return
	}

	var req ResendVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	_ = h.verifications.ResendVerification(r.Context(), req.Email)

	writeJSON(w, http.StatusOK, map[string]string{"message": "If a pending verification exists, a new email has been sent"})
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	authed, err := h.service.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginOutcomeToResponse(authed))
}

// Logout handles POST /auth/logout. Requires a valid access token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.TokenFromContext(r)
	if token == "" {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /auth/password/change for authenticated users
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		var verr *pkgauth.ValidationError
		if errors.As(err, &verr) {
			pkghttp.WriteBadRequest(w, verr.Message)
			return
		}
		writeAuthError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PasswordStrength handles POST /auth/password/strength: a non-binding
// preview of the score the registration policy would assign.
func (h *AuthHandler) PasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req PasswordStrengthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	score := h.policy.StrengthScore(req.Password)
	eval := pkgauth.Evaluation{Score: score}

	writeJSON(w, http.StatusOK, PasswordStrengthResponse{
		Score:   score,
		Percent: eval.Percent(),
	})
}

// loginOutcomeToResponse flattens either outcome into the wire shape.
func loginOutcomeToResponse(outcome services.LoginOutcome) LoginResponse {
	switch o := outcome.(type) {
	case *services.Authenticated:
		return LoginResponse{
			AccessToken:  o.AccessToken,
			RefreshToken: o.RefreshToken,
			User:         o.User,
			MFARequired:  false,
		}
	case *services.MFAPending:
		return LoginResponse{
			User:        o.User,
			MFARequired: true,
			MFAToken:    o.MFAToken,
		}
	default:
		return LoginResponse{}
	}
}

// writeAuthError maps service errors to HTTP responses. Everything that
// could leak account existence collapses to the same 401.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrChallengeExpired),
		errors.Is(err, models.ErrAccountDisabled),
		errors.Is(err, models.ErrAccountSuspended),
		errors.Is(err, models.ErrEmailNotVerified):
		pkghttp.WriteUnauthorized(w, genericAuthFailure)
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Bad request")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Conflict")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
