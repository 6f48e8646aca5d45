package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string // e.g. "mfa_enable", "mfa_verify", "admission_deny"
	AccountID     string
	IPAddress     string
	Method        string // MFA method involved, if any
	Success       bool
	FailureReason string
}

// AuditLogger records security-relevant events. Audit failures are never
// allowed to block the primary security decision; callers ignore the
// logging outcome.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// Log records a security event at info (success) or warn (failure) level
func (al *AuditLogger) Log(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.AccountID != "" {
		attrs = append(attrs, slog.String("account_id", event.AccountID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.Method != "" {
		attrs = append(attrs, slog.String("mfa_method", event.Method))
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
