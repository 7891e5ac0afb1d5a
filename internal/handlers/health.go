package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	storage Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, storage Pinger) *HealthHandler {
	return &HealthHandler{
		Version: version,
		storage: storage,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"service":  "AIRA Gateway",
			"version":  h.Version,
			"database": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":   "healthy",
		"service":  "AIRA Gateway",
		"version":  h.Version,
		"database": "connected",
	})
}
