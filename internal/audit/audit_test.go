package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name         string
		event        Event
		wantContains []string
	}{
		{
			name: "completed match",
			event: Event{
				VerificationID: uuid.New(),
				EventType:      EventVerificationCompleted,
				Provider:       "deepface",
				Decision:       "match",
				Reason:         "score_above_threshold",
				Success:        true,
				Metadata:       map[string]string{"score": "0.9132", "threshold": "0.5"},
			},
			wantContains: []string{"VERIFICATION_COMPLETED", "deepface", "match", "score_above_threshold", "0.9132"},
		},
		{
			name: "inconclusive without face",
			event: Event{
				VerificationID: uuid.New(),
				EventType:      EventVerificationCompleted,
				Provider:       "deepface",
				Decision:       "inconclusive",
				Reason:         "no_face_detected",
				Success:        true,
			},
			wantContains: []string{"inconclusive", "no_face_detected"},
		},
		{
			name: "extractor failure",
			event: Event{
				VerificationID: uuid.New(),
				EventType:      EventVerificationFailed,
				Provider:       "deepface",
				Success:        false,
				Error:          "embedding extractor unavailable",
			},
			wantContains: []string{"VERIFICATION_FAILED", "embedding extractor unavailable"},
		},
		{
			name: "rejected request with client details",
			event: Event{
				VerificationID: uuid.New(),
				EventType:      EventVerificationRejected,
				Provider:       "mock",
				Success:        false,
				Error:          "invalid threshold",
				RequestID:      "req-123",
				IPAddress:      "192.168.1.1",
			},
			wantContains: []string{"VERIFICATION_REJECTED", "req-123", "192.168.1.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auditLogger, buf := newBufferedLogger()

			err := auditLogger.Log(context.Background(), tt.event)
			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, `"component":"audit"`)
			assert.Contains(t, output, tt.event.VerificationID.String())
			for _, want := range tt.wantContains {
				assert.Contains(t, output, want)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	auditLogger, buf := newBufferedLogger()

	err := auditLogger.Log(context.Background(), Event{
		EventType: EventVerificationCompleted,
		Provider:  "deepface",
		Success:   true,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))

	eventID, ok := logEntry["event_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(logEntry["event_data"].(string)), &event))
	assert.False(t, event.Timestamp.IsZero())
	assert.NotContains(t, logEntry, "decision")
}

func TestSlogLogger_Log_UsesProvidedIDAndTimestamp(t *testing.T) {
	auditLogger, buf := newBufferedLogger()
	expectedID := uuid.New()
	expectedTimestamp := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	err := auditLogger.Log(context.Background(), Event{
		ID:        expectedID,
		Timestamp: expectedTimestamp,
		EventType: EventVerificationCompleted,
		Provider:  "deepface",
		Success:   true,
	})
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, expectedID.String())
	assert.Contains(t, output, "2024-01-15T10:30:00Z")
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}

	for i := 0; i < 10; i++ {
		err := logger.Log(context.Background(), Event{
			VerificationID: uuid.New(),
			EventType:      EventVerificationCompleted,
			Success:        true,
		})
		assert.NoError(t, err)
	}
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestEvent_JSONSerialization_OmitsEmptyFields(t *testing.T) {
	event := Event{
		VerificationID: uuid.MustParse("660e8400-e29b-41d4-a716-446655440001"),
		EventType:      EventVerificationCompleted,
		Provider:       "deepface",
		Success:        true,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "decision")
	assert.NotContains(t, jsonStr, "reason")
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "ip_address")
	assert.NotContains(t, jsonStr, "request_id")
}
