// Package audit records who asked for which verification and what was decided.
// Events never carry images or embeddings.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	// EventVerificationCompleted is emitted for every Match, NoMatch or Inconclusive result
	EventVerificationCompleted EventType = "VERIFICATION_COMPLETED"
	// EventVerificationFailed is emitted when the extractor failed
	EventVerificationFailed EventType = "VERIFICATION_FAILED"
	// EventVerificationRejected is emitted for caller errors such as an invalid image or threshold
	EventVerificationRejected EventType = "VERIFICATION_REJECTED"
)

// Event represents one audit record
type Event struct {
	ID             uuid.UUID         `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	VerificationID uuid.UUID         `json:"verification_id"`
	EventType      EventType         `json:"event_type"`
	Provider       string            `json:"provider"`
	Decision       string            `json:"decision,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	RequestID      string            `json:"request_id,omitempty"`
	IPAddress      string            `json:"ip_address,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("verification_id", event.VerificationID.String()),
		slog.String("provider", event.Provider),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	}
	if event.Decision != "" {
		attrs = append(attrs, slog.String("decision", event.Decision))
	}

	l.logger.InfoContext(ctx, "audit_event", attrs...)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
