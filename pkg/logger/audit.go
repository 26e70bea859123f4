package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventRegister         = "register"
	EventLogin            = "login"
	EventRefresh          = "token_refresh"
	EventPasswordChange   = "password_change"
	EventAccountLocked    = "account_locked"
	EventTwoFactorSetup   = "2fa_setup_started"
	EventTwoFactorEnabled = "2fa_enabled"
	EventTwoFactorDisable = "2fa_disabled"
	EventBackupCodeUsed   = "backup_code_used"
	EventAdminToggle      = "admin_toggle_active"
	EventAdminDelete      = "admin_delete_account"
)

// AuditEvent is one security-relevant action
type AuditEvent struct {
	EventType     string
	AccountID     string
	Email         string // masked before logging
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit events as structured log records under audit_type
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		now:    time.Now,
	}
}

// Log records event at Info on success and Warn on failure
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) {
	if al == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("audit_type", auditCategory(event.EventType)),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.AccountID != "" {
		attrs = append(attrs, slog.String("account_id", event.AccountID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

func auditCategory(eventType string) string {
	switch eventType {
	case EventRegister, EventLogin, EventRefresh, EventAccountLocked:
		return "auth"
	case EventPasswordChange:
		return "password"
	case EventTwoFactorSetup, EventTwoFactorEnabled, EventTwoFactorDisable, EventBackupCodeUsed:
		return "2fa"
	case EventAdminToggle, EventAdminDelete:
		return "admin"
	default:
		return "account"
	}
}
