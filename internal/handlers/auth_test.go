package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chioma-app/api/internal/models"
	"github.com/chioma-app/api/internal/services"
	pkgauth "github.com/chioma-app/api/pkg/auth"
	pkghttp "github.com/chioma-app/api/pkg/http"
)

func testProfile() *models.UserProfile {
	return &models.UserProfile{
		ID:    "user-1",
		Email: "tenant@example.com",
		Role:  models.RoleTenant,
	}
}

func TestAuthHandler_Login_Authenticated(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (services.LoginOutcome, error) {
			return &services.Authenticated{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				User:         testProfile(),
			}, nil
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "tenant@example.com",
		Password: "SecureP@ss123",
	})
	w := httptest.NewRecorder()
	h.Login(w, req)

	var resp LoginResponse
	DecodeJSONResponse(t, w, http.StatusOK, &resp)
	assert.False(t, resp.MFARequired)
	assert.Equal(t, "access-token", resp.AccessToken)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Empty(t, resp.MFAToken)
}

func TestAuthHandler_Login_MFAPending(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string) (services.LoginOutcome, error) {
			return &services.MFAPending{MFAToken: "mfa-token", User: testProfile()}, nil
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
		Email:    "tenant@example.com",
		Password: "SecureP@ss123",
	})
	w := httptest.NewRecorder()
	h.Login(w, req)

	var resp LoginResponse
	DecodeJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.MFARequired)
	assert.Equal(t, "mfa-token", resp.MFAToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "user-1", resp.User.ID)

	// MFA-pending responses must not leak any session material
	assert.Empty(t, resp.AccessToken)
	assert.Empty(t, resp.RefreshToken)
}

func TestAuthHandler_Login_FailuresShareOneMessage(t *testing.T) {
	failures := []error{
		models.ErrUnauthorized,
		models.ErrChallengeExpired,
		models.ErrAccountDisabled,
		models.ErrAccountSuspended,
		models.ErrEmailNotVerified,
	}

	for _, failure := range failures {
		t.Run(failure.Error(), func(t *testing.T) {
			svc := &MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string) (services.LoginOutcome, error) {
					return nil, failure
				},
			}
			h := NewAuthHandler(svc, pkgauth.NewPolicy())

			req := NewTestRequest(t, http.MethodPost, "/auth/login", LoginRequest{
				Email:    "tenant@example.com",
				Password: "whatever",
			})
			w := httptest.NewRecorder()
			h.Login(w, req)

			var resp pkghttp.ErrorResponse
			DecodeJSONResponse(t, w, http.StatusUnauthorized, &resp)
			assert.Equal(t, genericAuthFailure, resp.Message)
		})
	}
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, pkgauth.NewPolicy())

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing email", LoginRequest{Password: "x"}},
		{"bad email", LoginRequest{Email: "not-an-email", Password: "x"}},
		{"missing password", LoginRequest{Email: "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewTestRequest(t, http.MethodPost, "/auth/login", tt.body)
			w := httptest.NewRecorder()
			h.Login(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthHandler_CompleteMFA_Success(t *testing.T) {
	svc := &MockAuthService{
		CompleteMFAFunc: func(ctx context.Context, mfaToken, code string) (*services.Authenticated, error) {
			assert.Equal(t, "mfa-token", mfaToken)
			assert.Equal(t, "123456", code)
			return &services.Authenticated{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				User:         testProfile(),
			}, nil
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/mfa/complete", CompleteMFARequest{
		MFAToken: "mfa-token",
		Code:     "123456",
	})
	w := httptest.NewRecorder()
	h.CompleteMFA(w, req)

	var resp LoginResponse
	DecodeJSONResponse(t, w, http.StatusOK, &resp)
	assert.False(t, resp.MFARequired)
	assert.Equal(t, "access-token", resp.AccessToken)
}

func TestAuthHandler_CompleteMFA_ExpiredChallengeIsGeneric401(t *testing.T) {
	svc := &MockAuthService{
		CompleteMFAFunc: func(ctx context.Context, mfaToken, code string) (*services.Authenticated, error) {
			return nil, models.ErrChallengeExpired
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/mfa/complete", CompleteMFARequest{
		MFAToken: "stale-token",
		Code:     "123456",
	})
	w := httptest.NewRecorder()
	h.CompleteMFA(w, req)

	var resp pkghttp.ErrorResponse
	DecodeJSONResponse(t, w, http.StatusUnauthorized, &resp)
	assert.Equal(t, genericAuthFailure, resp.Message)
}

func TestAuthHandler_CompleteMFA_RejectsMalformedCode(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, pkgauth.NewPolicy())

	for _, code := range []string{"12345", "1234567", "abcdef", ""} {
		req := NewTestRequest(t, http.MethodPost, "/auth/mfa/complete", CompleteMFARequest{
			MFAToken: "mfa-token",
			Code:     code,
		})
		w := httptest.NewRecorder()
		h.CompleteMFA(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "code %q should be rejected before the service", code)
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, firstName, lastName, role string) (*services.Authenticated, error) {
			return &services.Authenticated{
				AccessToken:  "access-token",
				RefreshToken: "refresh-token",
				User:         testProfile(),
			}, nil
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:     "new@example.com",
		Password:  "SecureP@ss123",
		FirstName: "Ada",
	})
	w := httptest.NewRecorder()
	h.Register(w, req)

	var resp LoginResponse
	DecodeJSONResponse(t, w, http.StatusCreated, &resp)
	assert.Equal(t, "access-token", resp.AccessToken)
}

func TestAuthHandler_Register_PolicyViolationCarriesReason(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, firstName, lastName, role string) (*services.Authenticated, error) {
			return nil, &pkgauth.ValidationError{Message: "password must contain at least one uppercase letter"}
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:     "new@example.com",
		Password:  "noupper1!",
		FirstName: "Ada",
	})
	w := httptest.NewRecorder()
	h.Register(w, req)

	var resp pkghttp.ErrorResponse
	DecodeJSONResponse(t, w, http.StatusBadRequest, &resp)
	assert.Equal(t, "password must contain at least one uppercase letter", resp.Message)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, firstName, lastName, role string) (*services.Authenticated, error) {
			return nil, models.ErrConflict
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:     "taken@example.com",
		Password:  "SecureP@ss123",
		FirstName: "Ada",
	})
	w := httptest.NewRecorder()
	h.Register(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandler_PasswordStrength(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/password/strength", PasswordStrengthRequest{
		Password: "Tr0ub4dor&9xkmLQ",
	})
	w := httptest.NewRecorder()
	h.PasswordStrength(w, req)

	var resp PasswordStrengthResponse
	DecodeJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, 5, resp.Score)
	assert.Equal(t, float64(100), resp.Percent)
}

func TestAuthHandler_ChangePassword_RequiresAuth(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{}, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/password/change", ChangePasswordRequest{
		CurrentPassword: "old",
		NewPassword:     "SecureP@ss123",
	})
	w := httptest.NewRecorder()
	h.ChangePassword(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	var gotUserID string
	svc := &MockAuthService{
		ChangePasswordFunc: func(ctx context.Context, userID, currentPassword, newPassword string) error {
			gotUserID = userID
			return nil
		},
	}
	h := NewAuthHandler(svc, pkgauth.NewPolicy())

	req := NewTestRequest(t, http.MethodPost, "/auth/password/change", ChangePasswordRequest{
		CurrentPassword: "OldP@ssword1",
		NewPassword:     "Fresh3rP@ssword",
	})
	req = WithAuthContext(req, "user-1", models.RoleTenant)
	w := httptest.NewRecorder()
	h.ChangePassword(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "user-1", gotUserID)
}
