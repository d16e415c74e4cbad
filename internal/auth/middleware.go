package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/chioma-app/api/internal/models"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// TokenRevocationChecker reports whether a token's JTI has been revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Middleware validates bearer access tokens, checks revocation, and injects
// the claims into the request context. Revocation-store errors fail open so
// a storage outage does not lock every user out; expired or malformed
// tokens always fail closed.
func Middleware(tm *TokenManager, revocations TokenRevocationChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Only access tokens grant API access; refresh and mfa tokens
			// are single-purpose
			if claims.Type != models.TokenTypeAccess {
				http.Error(w, "token cannot be used for API access", http.StatusUnauthorized)
				return
			}

			if revocations != nil && claims.ID != "" {
				revoked, err := revocations.IsTokenRevoked(r.Context(), claims.ID)
				if err == nil && revoked {
					http.Error(w, "token has been revoked", http.StatusUnauthorized)
					return
				}
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims)
			ctx = context.WithValue(ctx, tokenContextKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithClaims injects validated claims; handler tests use it to
// simulate a request that passed through Middleware.
func ContextWithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// ClaimsFromContext returns the validated token claims set by Middleware,
// or nil if the request did not pass through it.
func ClaimsFromContext(r *http.Request) *models.TokenClaims {
	claims, _ := r.Context().Value(userContextKey).(*models.TokenClaims)
	return claims
}

// TokenFromContext returns the raw bearer token set by Middleware.
func TokenFromContext(r *http.Request) string {
	token, _ := r.Context().Value(tokenContextKey).(string)
	return token
}

// RequireRole enforces role-based access after Middleware has run.
func RequireRole(roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !allowed[claims.Role] {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
