package middleware

import "net/http"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// SecurityHeaders adds the standard browser hardening headers to every
// response. CSP and embedder policy are stricter in production.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-DNS-Prefetch-Control", "off")
			w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
			w.Header().Set("Permissions-Policy",
				"accelerometer=(), camera=(), geolocation=(), gyroscope=(), "+
					"magnetometer=(), microphone=(), payment=(), usb=()")

			if config.Env == "production" {
				w.Header().Set("Content-Security-Policy",
					"default-src 'self'; "+
						"script-src 'self'; "+
						"style-src 'self' 'unsafe-inline'; "+
						"img-src 'self' data: https:; "+
						"font-src 'self'; "+
						"connect-src 'self'; "+
						"frame-ancestors 'none'; "+
						"base-uri 'self'; "+
						"form-action 'self'")
				w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")

				// HSTS only when the request actually came in over TLS
				if r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https" {
					w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
				}
			} else {
				// Lenient CSP in development for hot reloading
				w.Header().Set("Content-Security-Policy",
					"default-src 'self' http: https: ws:; "+
						"script-src 'self' 'unsafe-inline' 'unsafe-eval' http: https: ws:; "+
						"style-src 'self' 'unsafe-inline' http: https:; "+
						"img-src 'self' data: https: http:; "+
						"connect-src 'self' http: https: ws: wss:; "+
						"frame-ancestors 'self'; "+
						"base-uri 'self'; "+
						"form-action 'self'")
				w.Header().Set("Cross-Origin-Embedder-Policy", "credentialless")
			}

			next.ServeHTTP(w, r)
		})
	}
}
