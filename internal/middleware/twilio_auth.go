package middleware

import (
	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

// ValidateTwilioSignature rejects webhook requests whose X-Twilio-Signature does
// not match the form parameters. baseURL overrides the scheme and host Twilio
// signed, for deployments behind a proxy; when empty the request's own is used.
func ValidateTwilioSignature(authToken, baseURL string, m *metrics.Metrics) fiber.Handler {
	validator := client.NewRequestValidator(authToken)

	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Twilio-Signature")
		if signature == "" {
			m.ObserveRejection()
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		params := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			params[string(key)] = string(value)
		})

		url := webhookURL(c, baseURL)
		if !validator.Validate(url, params, signature) {
			m.ObserveRejection()
			logger.Warn("Rejected webhook with invalid signature", zap.String("url", url))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// webhookURL rebuilds the URL Twilio used when signing the request. The
// request line may carry an absolute URI, so only its path and query are kept.
func webhookURL(c *fiber.Ctx, baseURL string) string {
	requestURI := string(c.Request().URI().RequestURI())
	if baseURL != "" {
		return baseURL + requestURI
	}
	return c.BaseURL() + requestURI
}
