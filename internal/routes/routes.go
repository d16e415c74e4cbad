package routes

import (
	"net/http"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/handlers"
	"github.com/chioma-app/api/internal/models"
	"github.com/go-chi/chi/v5"
)

// Deps carries everything route registration needs wired from main.
type Deps struct {
	AuthHandler    *handlers.AuthHandler
	MFAHandler     *handlers.MFAHandler
	UserHandler    *handlers.UserHandler
	PaymentHandler *handlers.PaymentHandler
	StorageHandler *handlers.StorageHandler
	StellarHandler *handlers.StellarHandler

	TokenManager *auth.TokenManager
	Revocations  auth.TokenRevocationChecker

	// AuthRateLimit guards the credential-facing endpoints; it is the
	// per-client fixed-window limiter, not the coarse global one.
	AuthRateLimit func(http.Handler) http.Handler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Deps) {
	// Public routes - the credential surface carries the auth rate limit
	router.Group(func(r chi.Router) {
		r.Use(deps.AuthRateLimit)

		r.Post("/auth/login", deps.AuthHandler.Login)
		r.Post("/auth/mfa/complete", deps.AuthHandler.CompleteMFA)
		r.Post("/auth/register", deps.AuthHandler.Register)
		r.Post("/auth/refresh", deps.AuthHandler.Refresh)
		r.Post("/auth/verify-email", deps.AuthHandler.VerifyEmail)
		r.Post("/auth/resend-verification", deps.AuthHandler.ResendVerification)
		r.Post("/auth/password/strength", deps.AuthHandler.PasswordStrength)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.TokenManager, deps.Revocations))

		r.Post("/auth/logout", deps.AuthHandler.Logout)
		r.Post("/auth/password/change", deps.AuthHandler.ChangePassword)

		r.Post("/auth/mfa/setup", deps.MFAHandler.Setup)
		r.Post("/auth/mfa/verify-setup", deps.MFAHandler.VerifySetup)
		r.Post("/auth/mfa/disable", deps.MFAHandler.Disable)

		r.Get("/users/me", deps.UserHandler.Me)
		r.Put("/users/me", deps.UserHandler.UpdateMe)

		r.Post("/payments", deps.PaymentHandler.Create)
		r.Get("/payments", deps.PaymentHandler.List)
		r.Get("/payments/{id}", deps.PaymentHandler.Get)

		r.Post("/storage/files", deps.StorageHandler.Create)
		r.Get("/storage/files", deps.StorageHandler.List)
		r.Delete("/storage/files/{id}", deps.StorageHandler.Delete)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/users", deps.UserHandler.List)
			r.Put("/users/{id}/status", deps.UserHandler.SetStatus)
			r.Delete("/users/{id}", deps.UserHandler.Delete)
			r.Get("/stellar/transactions", deps.StellarHandler.List)
			r.Get("/stellar/transactions/{hash}", deps.StellarHandler.Get)
		})
	})
}
