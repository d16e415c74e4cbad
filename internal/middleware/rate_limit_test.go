package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/chioma-app/api/internal/ratelimit"
	pkglogger "github.com/chioma-app/api/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthLimitHandler(t *testing.T, window time.Duration, max int, clock func() time.Time) http.Handler {
	t.Helper()
	store := ratelimit.NewMemoryStore(ratelimit.Config{Window: window, MaxAttempts: max})
	limiter := ratelimit.New(store, ratelimit.WithClock(clock))
	logger := discardLogger()
	mw := AuthRateLimit(limiter, logger, pkglogger.NewAuditLogger(logger))
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuthRateLimit_AllowsThenDenies(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	handler := newAuthLimitHandler(t, time.Minute, 3, func() time.Time { return base })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("got status %d, want 429", rec.Code)
	}

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After header not an integer: %q", rec.Header().Get("Retry-After"))
	}
	if retryAfter != 60 {
		t.Errorf("Retry-After: got %d, want 60", retryAfter)
	}
}

func TestAuthRateLimit_KeysAreIndependent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	handler := newAuthLimitHandler(t, time.Minute, 1, func() time.Time { return base })

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first client: got status %d, want 200", rec.Code)
	}

	// Second request from the same client is over the limit
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("same client again: got status %d, want 429", rec.Code)
	}

	// A different client still gets through
	other := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client: got status %d, want 200", rec.Code)
	}
}

func TestAuthRateLimit_ForwardedForTakesPrecedence(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	handler := newAuthLimitHandler(t, time.Minute, 1, func() time.Time { return base })

	// Same proxy address, different forwarded clients: separate budgets
	for _, client := range []string{"203.0.113.7", "203.0.113.8"} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", client+", 10.0.0.1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("client %s: got status %d, want 200", client, rec.Code)
		}
	}
}
