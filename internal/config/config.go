package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Email     EmailConfig
	Stellar   StellarConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	TOTPEncryptionKey  string
	MFAIssuer          string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	MFATokenExpiry     time.Duration
	CleanupInterval    time.Duration
	TimingDelayBase    time.Duration
	TimingDelayRandom  time.Duration
}

// RateLimitConfig drives the login throttle. Window and MaxRequests come
// from AUTH_RATE_LIMIT_WINDOW_MS and AUTH_RATE_LIMIT_MAX_REQUESTS;
// non-positive or unparsable values fall back to 15 minutes / 5 attempts.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
	Backend     string // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EmailConfig struct {
	Region                  string
	FromAddress             string
	FromName                string
	Enabled                 bool
	VerificationURLBase     string
	VerificationTokenExpiry time.Duration
}

type StellarConfig struct {
	HorizonURL string
	Network    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "chioma"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			TOTPEncryptionKey:  getEnv("TOTP_ENCRYPTION_KEY", ""),
			MFAIssuer:          getEnv("MFA_ISSUER", "Chioma"),
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: getEnvAsDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
			MFATokenExpiry:     getEnvAsDuration("MFA_TOKEN_EXPIRY", 5*time.Minute),
			CleanupInterval:    getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", 1*time.Hour),
			TimingDelayBase:    getEnvAsDuration("AUTH_TIMING_DELAY_BASE", 100*time.Millisecond),
			TimingDelayRandom:  getEnvAsDuration("AUTH_TIMING_DELAY_RANDOM", 50*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			Window:      getEnvAsPositiveMillis("AUTH_RATE_LIMIT_WINDOW_MS", 15*time.Minute),
			MaxRequests: getEnvAsPositiveInt("AUTH_RATE_LIMIT_MAX_REQUESTS", 5),
			Backend:     getEnv("RATE_LIMIT_BACKEND", "memory"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Email: EmailConfig{
			Region:                  getEnv("AWS_SES_REGION", "us-east-1"),
			FromAddress:             getEnv("EMAIL_FROM_ADDRESS", "no-reply@chioma.app"),
			FromName:                getEnv("EMAIL_FROM_NAME", "Chioma"),
			Enabled:                 getEnvAsBool("EMAIL_ENABLED", false),
			VerificationURLBase:     getEnv("EMAIL_VERIFICATION_URL_BASE", "http://localhost:3000/verify-email"),
			VerificationTokenExpiry: getEnvAsDuration("EMAIL_VERIFICATION_TOKEN_EXPIRY", 24*time.Hour),
		},
		Stellar: StellarConfig{
			HorizonURL: getEnv("STELLAR_HORIZON_URL", "https://horizon-testnet.stellar.org"),
			Network:    getEnv("STELLAR_NETWORK", "testnet"),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if cfg.Auth.TOTPEncryptionKey != "" && len(cfg.Auth.TOTPEncryptionKey) != 32 {
		return nil, fmt.Errorf("TOTP_ENCRYPTION_KEY must be exactly 32 bytes (got %d)", len(cfg.Auth.TOTPEncryptionKey))
	}

	if cfg.RateLimit.Backend != "memory" && cfg.RateLimit.Backend != "redis" {
		return nil, fmt.Errorf("RATE_LIMIT_BACKEND must be \"memory\" or \"redis\" (got %q)", cfg.RateLimit.Backend)
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for the JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32 // 256 bits in production
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsPositiveInt falls back to the default for unset, unparsable, or
// non-positive values rather than letting a misconfigured limit disable
// throttling.
func getEnvAsPositiveInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsPositiveMillis reads an integer millisecond count, falling back
// for unset, unparsable, or non-positive values.
func getEnvAsPositiveMillis(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // No origins unless explicitly configured
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
