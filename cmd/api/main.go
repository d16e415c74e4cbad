package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/background"
	"github.com/chioma-app/api/internal/config"
	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/handlers"
	middlewareCustom "github.com/chioma-app/api/internal/middleware"
	"github.com/chioma-app/api/internal/models"
	"github.com/chioma-app/api/internal/ratelimit"
	"github.com/chioma-app/api/internal/repositories"
	"github.com/chioma-app/api/internal/routes"
	"github.com/chioma-app/api/internal/services"
	pkgauth "github.com/chioma-app/api/pkg/auth"
	pkglogger "github.com/chioma-app/api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db.Pool)
	revokeRepo := repositories.NewTokenRevocationRepository(db.Pool)
	historyRepo := repositories.NewPasswordHistoryRepository(db.Pool)
	paymentRepo := repositories.NewPaymentRepository(db.Pool)
	fileRepo := repositories.NewFileMetadataRepository(db.Pool)
	stellarRepo := repositories.NewStellarTransactionRepository(db.Pool)
	verificationRepo := repositories.NewEmailVerificationRepository(db.Pool)

	// Token manager
	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
		cfg.Auth.MFATokenExpiry,
	)

	// TOTP manager; secrets are sealed at rest with this key
	if cfg.Auth.TOTPEncryptionKey == "" {
		logger.Error("TOTP_ENCRYPTION_KEY is required")
		os.Exit(1)
	}
	totpManager, err := auth.NewTOTPManager([]byte(cfg.Auth.TOTPEncryptionKey), cfg.Auth.MFAIssuer)
	if err != nil {
		logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Timing delay for auth security
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.TimingDelayBase,
		RandomDelay: cfg.Auth.TimingDelayRandom,
	})

	// Rate limiter store, selected by backend
	limitConfig := ratelimit.Config{
		Window:      cfg.RateLimit.Window,
		MaxAttempts: cfg.RateLimit.MaxRequests,
	}
	var limiter *ratelimit.Limiter
	var memoryStore *ratelimit.MemoryStore
	switch cfg.RateLimit.Backend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.New(ratelimit.NewRedisStore(redisClient, limitConfig))
	default:
		memoryStore = ratelimit.NewMemoryStore(limitConfig)
		limiter = ratelimit.New(memoryStore)
	}

	// Email delivery
	var mailer services.EmailSender
	if cfg.Email.Enabled {
		sesMailer, err := services.NewAWSSESEmailService(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.VerificationURLBase, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = sesMailer
	} else {
		mailer = services.NewLogEmailService(logger)
	}

	// Password policy with history enforcement
	policy := pkgauth.NewPolicy(
		pkgauth.WithHistoryChecker(services.NewPasswordHistoryChecker(historyRepo)),
	)

	// Initialize services
	authService := services.NewAuthService(
		userRepo, revokeRepo, historyRepo, policy,
		tokenManager, totpManager, timingDelay,
		mailer, logger, auditLogger,
	)
	mfaService := services.NewMFAService(userRepo, totpManager, mailer, logger, auditLogger)
	paymentService := services.NewPaymentService(paymentRepo, logger)
	userService := services.NewUserService(userRepo, logger, auditLogger)
	verificationService := services.NewEmailVerificationService(
		verificationRepo, userRepo, mailer, logger, cfg.Email.VerificationTokenExpiry,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandlerWithEmailVerification(authService, policy, verificationService)
	mfaHandler := handlers.NewMFAHandler(mfaService)
	userHandler := handlers.NewUserHandler(userService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	storageHandler := handlers.NewStorageHandler(fileRepo)
	stellarHandler := handlers.NewStellarHandler(stellarRepo)

	// Cleanup manager prunes expired revocations and, on the memory
	// backend, stale rate-limit windows
	cleanupManager := background.NewCleanupManager(revokeRepo, verificationRepo, sweeperOrNil(memoryStore), logger, cfg.Auth.CleanupInterval)

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middlewareCustom.GlobalRateLimit(middlewareCustom.DefaultGlobalRateLimit()))
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, routes.Deps{
		AuthHandler:    authHandler,
		MFAHandler:     mfaHandler,
		UserHandler:    userHandler,
		PaymentHandler: paymentHandler,
		StorageHandler: storageHandler,
		StellarHandler: stellarHandler,
		TokenManager:   tokenManager,
		Revocations:    revokeRepo,
		AuthRateLimit:  middlewareCustom.AuthRateLimit(limiter, logger, auditLogger),
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// sweeperOrNil avoids handing the cleanup manager a typed nil when the
// limiter runs on redis.
func sweeperOrNil(store *ratelimit.MemoryStore) background.WindowSweeper {
	if store == nil {
		return nil
	}
	return store
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	firstName := "Admin"
	admin := &models.User{
		Email:         adminEmail,
		PasswordHash:  hashedPassword,
		FirstName:     &firstName,
		Role:          models.RoleAdmin,
		Status:        "active",
		EmailVerified: true,
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created successfully")
	return nil
}
