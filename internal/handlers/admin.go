package handlers

import (
	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/services"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxAnalysesPage = 100

// AdminHandler exposes monitoring views over sessions and analyses
type AdminHandler struct {
	conversation *services.ConversationService
	history      storage.HistoryStore
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(conversation *services.ConversationService, history storage.HistoryStore) *AdminHandler {
	return &AdminHandler{
		conversation: conversation,
		history:      history,
	}
}

// GetSessions reports how many senders are awaiting a prompt
func (h *AdminHandler) GetSessions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"pending": h.conversation.PendingCount(),
	})
}

// GetAnalyses lists recent analyses, optionally for one sender
func (h *AdminHandler) GetAnalyses(c *fiber.Ctx) error {
	sender := c.Query("sender")
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxAnalysesPage {
		limit = maxAnalysesPage
	}

	analyses, err := h.history.RecentAnalyses(c.UserContext(), sender, limit)
	if err != nil {
		logger.Error("Failed to fetch analyses", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch analyses",
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"analyses": analyses,
		"count":    len(analyses),
	})
}
