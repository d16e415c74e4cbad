package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/chioma-app/api/internal/ratelimit"
	pkghttp "github.com/chioma-app/api/pkg/http"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

// AuthRateLimit throttles the credential-guessing surface. The decision
// comes from the fixed-window limiter; on denial the response carries
// Retry-After and a 429 before any credential handling runs. A limiter
// backend failure fails open.
func AuthRateLimit(limiter *ratelimit.Limiter, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := pkghttp.ClientKey(r)

			decision, err := limiter.Admit(r.Context(), key)
			if err != nil {
				logger.Error("rate limiter backend failure", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				auditLogger.LogRateLimit(key, decision.RetryAfter)
				pkghttp.WriteRateLimited(w, decision.RetryAfter, "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GlobalRateLimitConfig holds the coarse per-IP API limit
type GlobalRateLimitConfig struct {
	RequestsPerMinute int
}

func DefaultGlobalRateLimit() GlobalRateLimitConfig {
	return GlobalRateLimitConfig{RequestsPerMinute: 300}
}

// GlobalRateLimit applies a coarse per-IP request limit across the whole
// API. The auth limiter is separate and much stricter.
func GlobalRateLimit(config GlobalRateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limited","message":"Rate limit exceeded"}`))
		}),
	)
}
