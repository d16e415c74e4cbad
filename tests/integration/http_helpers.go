package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/config"
	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/handlers"
	middlewareCustom "github.com/chioma-app/api/internal/middleware"
	"github.com/chioma-app/api/internal/ratelimit"
	"github.com/chioma-app/api/internal/repositories"
	"github.com/chioma-app/api/internal/routes"
	"github.com/chioma-app/api/internal/services"
	pkgauth "github.com/chioma-app/api/pkg/auth"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To      string
	Subject string
}

// MockEmailService captures sent emails for test assertions
type MockEmailService struct {
	SentEmails            []SentEmail
	LastVerificationToken string
	mu                    sync.Mutex
}

func (m *MockEmailService) record(to, subject string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject})
}

func (m *MockEmailService) SendWelcomeEmail(_ context.Context, to, _ string) error {
	m.record(to, "welcome")
	return nil
}

func (m *MockEmailService) SendVerificationEmail(_ context.Context, to, token string, _ time.Time) error {
	m.mu.Lock()
	m.LastVerificationToken = token
	m.mu.Unlock()
	m.record(to, "verification")
	return nil
}

func (m *MockEmailService) SendPasswordChangedEmail(_ context.Context, to string) error {
	m.record(to, "password_changed")
	return nil
}

func (m *MockEmailService) SendMFAEnabledEmail(_ context.Context, to string) error {
	m.record(to, "mfa_enabled")
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *MockEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	Pool         *database.DB
	EmailService *MockEmailService
	Config       *config.Config

	// Dependency references for inspection in tests
	TokenManager *auth.TokenManager
	TOTPManager  *auth.TOTPManager
	logger       *slog.Logger
}

// NewTestServer initializes a complete HTTP server with real database + mocked email
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret-32-characters-long-for-testing",
			TOTPEncryptionKey:  "0123456789abcdef0123456789abcdef",
			MFAIssuer:          "ChiomaTest",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
			MFATokenExpiry:     5 * time.Minute,
			CleanupInterval:    1 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			Window:      15 * time.Minute,
			MaxRequests: 100, // generous so functional tests never trip it
			Backend:     "memory",
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
		},
	}

	userRepo := repositories.NewUserRepository(db.Pool)
	revokeRepo := repositories.NewTokenRevocationRepository(db.Pool)
	historyRepo := repositories.NewPasswordHistoryRepository(db.Pool)
	paymentRepo := repositories.NewPaymentRepository(db.Pool)
	fileRepo := repositories.NewFileMetadataRepository(db.Pool)
	stellarRepo := repositories.NewStellarTransactionRepository(db.Pool)
	verificationRepo := repositories.NewEmailVerificationRepository(db.Pool)

	mockEmail := &MockEmailService{}

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
		cfg.Auth.MFATokenExpiry,
	)

	totpManager, err := auth.NewTOTPManager([]byte(cfg.Auth.TOTPEncryptionKey), cfg.Auth.MFAIssuer)
	if err != nil {
		panic("failed to create TOTP manager: " + err.Error())
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Zero delays keep the suite fast
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{})

	limiter := ratelimit.New(ratelimit.NewMemoryStore(ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxAttempts: cfg.RateLimit.MaxRequests,
	}))

	policy := pkgauth.NewPolicy(
		pkgauth.WithHistoryChecker(services.NewPasswordHistoryChecker(historyRepo)),
	)

	authService := services.NewAuthService(
		userRepo, revokeRepo, historyRepo, policy,
		tokenManager, totpManager, timingDelay,
		mockEmail, logger, auditLogger,
	)
	mfaService := services.NewMFAService(userRepo, totpManager, mockEmail, logger, auditLogger)
	paymentService := services.NewPaymentService(paymentRepo, logger)
	userService := services.NewUserService(userRepo, logger, auditLogger)
	verificationService := services.NewEmailVerificationService(
		verificationRepo, userRepo, mockEmail, logger, 24*time.Hour,
	)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(r, routes.Deps{
		AuthHandler:    handlers.NewAuthHandlerWithEmailVerification(authService, policy, verificationService),
		MFAHandler:     handlers.NewMFAHandler(mfaService),
		UserHandler:    handlers.NewUserHandler(userService),
		PaymentHandler: handlers.NewPaymentHandler(paymentService),
		StorageHandler: handlers.NewStorageHandler(fileRepo),
		StellarHandler: handlers.NewStellarHandler(stellarRepo),
		TokenManager:   tokenManager,
		Revocations:    revokeRepo,
		AuthRateLimit:  middlewareCustom.AuthRateLimit(limiter, logger, auditLogger),
	})

	server := httptest.NewServer(r)

	return &TestServer{
		Server:       server,
		Pool:         db,
		EmailService: mockEmail,
		Config:       cfg,
		TokenManager: tokenManager,
		TOTPManager:  totpManager,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	url := ts.Server.URL + path

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an authenticated HTTP request with access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
	}
	return ts.Request(method, path, body, headers)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ExtractTokensFromResponse extracts session material from a login response
func ExtractTokensFromResponse(resp *http.Response) (accessToken, refreshToken, mfaToken string, mfaRequired bool, err error) {
	defer resp.Body.Close()

	var authResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", "", "", false, err
	}

	if access, ok := authResp["accessToken"].(string); ok {
		accessToken = access
	}
	if refresh, ok := authResp["refreshToken"].(string); ok {
		refreshToken = refresh
	}
	if mfa, ok := authResp["mfaToken"].(string); ok {
		mfaToken = mfa
	}
	if required, ok := authResp["mfaRequired"].(bool); ok {
		mfaRequired = required
	}

	return
}

// GetErrorMessage extracts error message from error response
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
