package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
	"github.com/chioma-app/api/internal/services"
)

// NewTestRequest creates an HTTP request with a JSON body
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext simulates a request that passed the auth middleware
func WithAuthContext(req *http.Request, userID, role string) *http.Request {
	claims := &models.TokenClaims{
		Type:   models.TokenTypeAccess,
		UserID: userID,
		Email:  "user@example.com",
		Role:   role,
	}
	return req.WithContext(auth.ContextWithClaims(req.Context(), claims))
}

// DecodeJSONResponse checks status and decodes the body into target
func DecodeJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	require.NoError(t, json.NewDecoder(w.Body).Decode(target))
}

// MockAuthService implements AuthServiceInterface for handler tests
type MockAuthService struct {
	LoginFunc          func(ctx context.Context, email, password string) (services.LoginOutcome, error)
	CompleteMFAFunc    func(ctx context.Context, mfaToken, code string) (*services.Authenticated, error)
	RegisterFunc       func(ctx context.Context, email, password, firstName, lastName, role string) (*services.Authenticated, error)
	RefreshTokenFunc   func(ctx context.Context, refreshToken string) (*services.Authenticated, error)
	LogoutFunc         func(ctx context.Context, accessToken string) error
	ChangePasswordFunc func(ctx context.Context, userID, currentPassword, newPassword string) error
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (services.LoginOutcome, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) CompleteMFA(ctx context.Context, mfaToken, code string) (*services.Authenticated, error) {
	if m.CompleteMFAFunc != nil {
		return m.CompleteMFAFunc(ctx, mfaToken, code)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Register(ctx context.Context, email, password, firstName, lastName, role string) (*services.Authenticated, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, email, password, firstName, lastName, role)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAuthService) RefreshToken(ctx context.Context, refreshToken string) (*services.Authenticated, error) {
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockAuthService) Logout(ctx context.Context, accessToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, accessToken)
	}
	return nil
}

func (m *MockAuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, userID, currentPassword, newPassword)
	}
	return nil
}

// MockMFAService implements MFAServiceInterface for handler tests
type MockMFAService struct {
	InitiateSetupFunc func(ctx context.Context, userID string) (*services.EnrollmentResponse, error)
	VerifySetupFunc   func(ctx context.Context, userID, code string) error
	DisableFunc       func(ctx context.Context, userID, password, code string) error
}

func (m *MockMFAService) InitiateSetup(ctx context.Context, userID string) (*services.EnrollmentResponse, error) {
	if m.InitiateSetupFunc != nil {
		return m.InitiateSetupFunc(ctx, userID)
	}
	return nil, models.ErrInternalServer
}

func (m *MockMFAService) VerifySetup(ctx context.Context, userID, code string) error {
	if m.VerifySetupFunc != nil {
		return m.VerifySetupFunc(ctx, userID, code)
	}
	return nil
}

func (m *MockMFAService) Disable(ctx context.Context, userID, password, code string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, userID, password, code)
	}
	return nil
}
