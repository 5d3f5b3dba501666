package handlers

import (
	"time"

	"inventory/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthHandler reports service and storage liveness.
type HealthHandler struct {
	service *services.InventoryService
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(service *services.InventoryService, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{service: service, logger: logger}
}

// RegisterRoutes registers /health on the router.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when the store is reachable and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	status, code := "healthy", fiber.StatusOK
	if err := h.service.Ping(c.UserContext()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		status, code = "unhealthy", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
