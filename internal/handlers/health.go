package handlers

import (
	"context"
	"time"

	"github.com/Ananth-NQI/evebot-backend/internal/services"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	Provider string
	conversation *services.ConversationService
	history      storage.HistoryStore
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, provider string, conversation *services.ConversationService, history storage.HistoryStore) *HealthHandler {
	return &HealthHandler{
		Version:      version,
		Provider:     provider,
		conversation: conversation,
		history:      history,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "healthy"
	statusCode := fiber.StatusOK
	storageHealthy := true
	if err := h.history.Ping(ctx); err != nil {
		status = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
		storageHealthy = false
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":   status,
		"service":  "EveBot WhatsApp Vision",
		"version":  h.Version,
		"provider": h.Provider,
		"sessions": h.conversation.PendingCount(),
		"services": fiber.Map{
			"storage": storageHealthy,
		},
	})
}

// Root lists the public endpoints
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to EveBot!",
		"version": h.Version,
		"endpoints": fiber.Map{
			"health":  "/health",
			"webhook": "/webhook/whatsapp",
			"metrics": "/metrics",
			"admin":   "/admin",
		},
	})
}
