package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

type fixedState provider.State

func (s fixedState) State() provider.State {
	return provider.State(s)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	h := NewHealthHandler("1.2.3", fixedState(provider.StatePending), nil)
	app.Get("/health", h.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "1.2.3", result.Version)
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		state      provider.State
		db         *stubPinger
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "extractor ready without database",
			state:      provider.StateReady,
			wantStatus: 200,
			wantChecks: map[string]string{"extractor": "ready"},
		},
		{
			name:       "extractor still loading",
			state:      provider.StateInitializing,
			wantStatus: 503,
			wantChecks: map[string]string{"extractor": "initializing"},
		},
		{
			name:       "extractor failed",
			state:      provider.StateFailed,
			wantStatus: 503,
			wantChecks: map[string]string{"extractor": "failed"},
		},
		{
			name:       "database reachable",
			state:      provider.StateReady,
			db:         &stubPinger{},
			wantStatus: 200,
			wantChecks: map[string]string{"extractor": "ready", "database": "ok"},
		},
		{
			name:       "database unreachable",
			state:      provider.StateReady,
			db:         &stubPinger{err: errors.New("connection refused")},
			wantStatus: 503,
			wantChecks: map[string]string{"extractor": "ready", "database": "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h *HealthHandler
			if tt.db != nil {
				h = NewHealthHandler("test", fixedState(tt.state), tt.db)
			} else {
				h = NewHealthHandler("test", fixedState(tt.state), nil)
			}

			app := fiber.New()
			app.Get("/ready", h.Ready)

			resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var result HealthResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
			assert.Equal(t, tt.wantChecks, result.Checks)
		})
	}
}
