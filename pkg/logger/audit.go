package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent describes a security-relevant event
type AuditEvent struct {
	EventType     string
	UserID        string
	ClientKey     string
	Success       bool
	FailureReason string
}

// AuditLogger emits structured security audit records. Failure reasons stay
// in the audit trail only; client responses never carry them.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger wraps a slog logger for audit output
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAuthAttempt records the outcome of a login, MFA, or refresh attempt
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.ClientKey != "" {
		attrs = append(attrs, slog.String("client_key", event.ClientKey))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogRateLimit records a denied request for a client key
func (al *AuditLogger) LogRateLimit(clientKey string, retryAfterSeconds int) {
	al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit",
		slog.String("audit_type", "rate_limit"),
		slog.String("client_key", clientKey),
		slog.Int("retry_after_seconds", retryAfterSeconds),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// LogAccountAction records account lifecycle events (registration, MFA
// enrollment, password change)
func (al *AuditLogger) LogAccountAction(eventType, userID string) {
	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit",
		slog.String("audit_type", "account"),
		slog.String("event_type", eventType),
		slog.String("user_id", userID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}
