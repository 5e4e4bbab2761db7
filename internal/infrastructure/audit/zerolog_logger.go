// Package audit writes auth flow events as structured logs.
package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
)

// ZerologAuditLogger implements domain.AuditLogger on zerolog.
type ZerologAuditLogger struct {
	log zerolog.Logger
}

// NewZerologAuditLogger creates an audit logger writing to log.
func NewZerologAuditLogger(log zerolog.Logger) *ZerologAuditLogger {
	return &ZerologAuditLogger{log: log}
}

// LogEvent implements domain.AuditLogger.
func (l *ZerologAuditLogger) LogEvent(ctx context.Context, event *domain.AuthEvent) {
	if event == nil {
		return
	}

	entry := l.log.Info()
	if !event.Success {
		entry = l.log.Warn()
	}

	entry = entry.
		Str("event", string(event.EventType)).
		Bool("success", event.Success).
		Time("timestamp", event.Timestamp)

	if event.AttemptID != "" {
		entry = entry.Str("attempt_id", event.AttemptID)
	}
	if event.Email != "" {
		entry = entry.Str("email", event.Email)
	}
	if event.Phone != "" {
		entry = entry.Str("phone", event.Phone)
	}
	if event.ErrorMsg != "" {
		entry = entry.Str("error", event.ErrorMsg)
	}
	for k, v := range event.Metadata {
		entry = entry.Interface(k, v)
	}

	entry.Msg("auth event")
}

var _ domain.AuditLogger = (*ZerologAuditLogger)(nil)
