package routes

import (
	"github.com/Ananth-NQI/evebot-backend/internal/config"
	"github.com/Ananth-NQI/evebot-backend/internal/handlers"
	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the route table needs
type Handlers struct {
	WhatsApp *handlers.WhatsAppHandler
	Health   *handlers.HealthHandler
	Admin    *handlers.AdminHandler
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
}

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, h Handlers) {
	app.Get("/", h.Health.Root)
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	if cfg.ValidateWebhooks() {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.Twilio.AuthToken, cfg.WebhookBaseURL, h.Metrics), h.WhatsApp.HandleWebhook)
	} else {
		// Development: skip validation for ngrok
		webhooks.Post("/whatsapp", h.WhatsApp.HandleWebhook)
		logger.Warn("⚠️  WhatsApp webhook validation DISABLED")
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.IsDevelopment() {
		app.Post("/test/whatsapp", h.WhatsApp.HandleTestWebhook)
	}

	// ========== ADMIN ROUTES ==========
	if cfg.AdminToken == "" {
		return
	}
	admin := app.Group("/admin", middleware.RequireAdminToken(cfg.AdminToken))
	admin.Get("/sessions", h.Admin.GetSessions)
	admin.Get("/analyses", h.Admin.GetAnalyses)
}
