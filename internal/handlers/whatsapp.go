package handlers

import (
	"context"
	"sync"

	"github.com/Ananth-NQI/evebot-backend/internal/config"
	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/twilio/twilio-go/twiml"
	"go.uber.org/zap"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	conversation *services.ConversationService
	replySender  services.ReplySender
	replyMode    string
	metrics      *metrics.Metrics

	// background analyses in api reply mode
	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewWhatsAppHandler creates a new WhatsApp handler. replySender is only
// used in api reply mode and may be nil otherwise.
func NewWhatsAppHandler(ctx context.Context, conversation *services.ConversationService, replySender services.ReplySender, replyMode string, m *metrics.Metrics) *WhatsAppHandler {
	return &WhatsAppHandler{
		conversation: conversation,
		replySender:  replySender,
		replyMode:    replyMode,
		metrics:      m,
		baseCtx:      ctx,
	}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid        string `form:"MessageSid"`
	AccountSid        string `form:"AccountSid"`
	From              string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To                string `form:"To"`   // Your Twilio number
	Body              string `form:"Body"` // Message text
	NumMedia          string `form:"NumMedia"`
	MediaUrl0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
}

// inbound copies the fields out of the request buffer, which fasthttp reuses
// once the handler returns. Sessions and background deliveries outlive it.
func (p TwilioWebhookPayload) inbound() services.InboundMessage {
	return services.InboundMessage{
		From:             utils.CopyString(p.From),
		Body:             utils.CopyString(p.Body),
		MediaURL:         utils.CopyString(p.MediaUrl0),
		MediaContentType: utils.CopyString(p.MediaContentType0),
	}
}

// HandleWebhook processes incoming WhatsApp messages and answers with TwiML
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload

	if err := c.BodyParser(&payload); err != nil {
		logger.Warn("Error parsing webhook", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}
	if payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing sender",
		})
	}

	outcome := h.conversation.Step(payload.inbound())

	if h.replyMode == config.ReplyModeAPI && outcome.NeedsAnalysis() {
		h.wg.Add(1)
		go h.deliverAsync(outcome)
		return h.respond(c, "")
	}

	reply := h.conversation.Resolve(c.UserContext(), outcome)
	return h.respond(c, reply)
}

// deliverAsync runs the analysis outside the webhook request and sends the
// result through the Twilio REST API.
func (h *WhatsAppHandler) deliverAsync(outcome services.Outcome) {
	defer h.wg.Done()

	reply := h.conversation.Resolve(h.baseCtx, outcome)
	if err := h.replySender.SendWhatsAppMessage(outcome.Sender, reply); err != nil {
		logger.Error("❌ Failed to send WhatsApp response", zap.String("sender", outcome.Sender), zap.Error(err))
		h.metrics.ObserveReply(config.ReplyModeAPI, "error")
		return
	}
	h.metrics.ObserveReply(config.ReplyModeAPI, "ok")
}

// Wait blocks until background deliveries have finished.
func (h *WhatsAppHandler) Wait() {
	h.wg.Wait()
}

func (h *WhatsAppHandler) respond(c *fiber.Ctx, message string) error {
	doc, err := RenderTwiML(message)
	if err != nil {
		logger.Error("Failed to render TwiML", zap.Error(err))
		return fiber.NewError(fiber.StatusInternalServerError, "failed to render reply")
	}
	if message != "" {
		h.metrics.ObserveReply(config.ReplyModeTwiML, "ok")
	}

	c.Set(fiber.HeaderContentType, "text/xml; charset=utf-8")
	return c.SendString(doc)
}

// RenderTwiML builds a messaging response with a single message, or an
// empty response when message is empty.
func RenderTwiML(message string) (string, error) {
	var verbs []twiml.Element
	if message != "" {
		verbs = append(verbs, &twiml.MessagingMessage{Body: message})
	}
	return twiml.Messages(verbs)
}

// TestWebhookPayload drives the conversation without Twilio (development only)
type TestWebhookPayload struct {
	From             string `json:"from"`
	Message          string `json:"message"`
	MediaURL         string `json:"media_url"`
	MediaContentType string `json:"media_content_type"`
}

// HandleTestWebhook processes test WhatsApp messages (for development)
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload

	if err := c.BodyParser(&payload); err != nil || payload.From == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	logger.Info("🧪 Test webhook received", zap.String("from", payload.From))

	response := h.conversation.HandleMessage(c.UserContext(), services.InboundMessage{
		From:             utils.CopyString(payload.From),
		Body:             utils.CopyString(payload.Message),
		MediaURL:         utils.CopyString(payload.MediaURL),
		MediaContentType: utils.CopyString(payload.MediaContentType),
	})

	return c.JSON(fiber.Map{
		"success":  true,
		"response": response,
	})
}
