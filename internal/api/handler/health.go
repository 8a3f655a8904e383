package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/provider"
)

// ExtractorStatus is implemented by *provider.Lazy
type ExtractorStatus interface {
	State() provider.State
}

type HealthHandler struct {
	version   string
	extractor ExtractorStatus
	db        database.Pinger
}

// NewHealthHandler builds the liveness and readiness endpoints; db is nil when persistence is disabled
func NewHealthHandler(version string, extractor ExtractorStatus, db database.Pinger) *HealthHandler {
	return &HealthHandler{
		version:   version,
		extractor: extractor,
		db:        db,
	}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready reports 503 until the extractor has finished loading and the database answers
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := make(map[string]string, 2)
	ready := true

	if h.extractor != nil {
		state := h.extractor.State()
		checks["extractor"] = state.String()
		if state != provider.StateReady {
			ready = false
		}
	}

	if h.db != nil {
		if err := database.HealthCheck(c.UserContext(), h.db); err != nil {
			checks["database"] = "unreachable"
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "not_ready",
			Checks: checks,
		})
	}

	return c.JSON(HealthResponse{
		Status: "ready",
		Checks: checks,
	})
}
