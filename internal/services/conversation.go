package services

import (
	"context"
	"strings"

	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/models"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"go.uber.org/zap"
)

const (
	MsgPromptRequest = "What are you interested regarding this picture?"
	MsgSendPhoto     = "Please send me a photo to get started."
)

// Transitions, as reported to metrics
const (
	TransitionImageReceived  = "image_received"
	TransitionNoImage        = "no_image"
	TransitionPromptReceived = "prompt_received"
)

// InboundMessage is one message from the gateway.
type InboundMessage struct {
	From             string
	Body             string
	MediaURL         string
	MediaContentType string
}

// Outcome is the result of applying a message to the sender's session.
// Either Reply is ready to send, or Session and Prompt still need analysis.
type Outcome struct {
	Sender     string
	Transition string
	Reply      string
	Session    *models.Session
	Prompt     string
}

// NeedsAnalysis reports whether the outcome completed a session.
func (o Outcome) NeedsAnalysis() bool {
	return o.Session != nil
}

// Analyzer turns a completed session into reply text.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) string
}

// ConversationService runs the image-then-prompt handshake per sender.
type ConversationService struct {
	sessions storage.SessionStore
	analyzer Analyzer
	metrics  *metrics.Metrics
}

func NewConversationService(sessions storage.SessionStore, analyzer Analyzer, m *metrics.Metrics) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		analyzer: analyzer,
		metrics:  m,
	}
}

// NormalizeSender strips the gateway's channel prefix from a sender address.
func NormalizeSender(from string) string {
	return strings.TrimPrefix(strings.TrimSpace(from), "whatsapp:")
}

// Step applies msg to the sender's session without doing any network I/O.
func (c *ConversationService) Step(msg InboundMessage) Outcome {
	sender := NormalizeSender(msg.From)

	var incoming *models.Session
	if msg.MediaURL != "" {
		incoming = &models.Session{
			ImageURL:    msg.MediaURL,
			ContentType: msg.MediaContentType,
		}
	}

	pending, created := c.sessions.Step(sender, incoming)
	c.metrics.SetPending(c.sessions.Count())

	var out Outcome
	switch {
	case pending != nil:
		out = Outcome{
			Sender:     sender,
			Transition: TransitionPromptReceived,
			Session:    pending,
			Prompt:     strings.TrimSpace(msg.Body),
		}
	case created:
		out = Outcome{Sender: sender, Transition: TransitionImageReceived, Reply: MsgPromptRequest}
	default:
		out = Outcome{Sender: sender, Transition: TransitionNoImage, Reply: MsgSendPhoto}
	}

	c.metrics.ObserveMessage(out.Transition)
	logger.Info("📱 WhatsApp message processed",
		zap.String("sender", sender),
		zap.String("transition", out.Transition),
		zap.Bool("has_media", msg.MediaURL != ""),
	)
	return out
}

// Resolve returns the reply for an outcome, running the analysis if needed.
func (c *ConversationService) Resolve(ctx context.Context, out Outcome) string {
	if !out.NeedsAnalysis() {
		return out.Reply
	}
	return c.analyzer.Analyze(ctx, AnalysisRequest{
		Sender:      out.Sender,
		ImageURL:    out.Session.ImageURL,
		ContentType: out.Session.ContentType,
		Prompt:      out.Prompt,
	})
}

// HandleMessage processes msg and returns the reply text.
func (c *ConversationService) HandleMessage(ctx context.Context, msg InboundMessage) string {
	return c.Resolve(ctx, c.Step(msg))
}

// PendingCount returns how many senders have an image awaiting a prompt.
func (c *ConversationService) PendingCount() int {
	return c.sessions.Count()
}
