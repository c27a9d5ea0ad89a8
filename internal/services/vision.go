package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ananth-NQI/evebot-backend/internal/logger"
	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/models"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MsgDownloadFailed = "Sorry, I couldn't download the image."

// VisionProvider generates text from a prompt and an image.
type VisionProvider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, prompt string, img *Image) (string, error)
}

// AnalysisRequest is a consumed session plus the prompt that completed it.
type AnalysisRequest struct {
	Sender      string
	ImageURL    string
	ContentType string
	Prompt      string
}

// VisionService runs one analysis end to end and always produces a reply.
type VisionService struct {
	media                MediaSource
	provider             VisionProvider
	history              storage.HistoryStore
	metrics              *metrics.Metrics
	exposeUpstreamErrors bool
}

func NewVisionService(media MediaSource, provider VisionProvider, history storage.HistoryStore, m *metrics.Metrics, exposeUpstreamErrors bool) *VisionService {
	return &VisionService{
		media:                media,
		provider:             provider,
		history:              history,
		metrics:              m,
		exposeUpstreamErrors: exposeUpstreamErrors,
	}
}

// ProviderName returns the configured provider's display name.
func (v *VisionService) ProviderName() string {
	return v.provider.Name()
}

// Analyze fetches the image, asks the provider and returns the reply text.
// Failures are turned into apology messages and never returned as errors.
func (v *VisionService) Analyze(ctx context.Context, req AnalysisRequest) (reply string) {
	correlationID := uuid.NewString()
	start := time.Now()
	outcome := models.OutcomeSuccess

	log := logger.L().With(
		zap.String("correlation_id", correlationID),
		zap.String("sender", req.Sender),
		zap.String("provider", v.provider.Name()),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("❌ Panic during analysis", zap.Any("panic", r))
			reply = v.requestApology()
			outcome = models.OutcomeRequestError
		}
		elapsed := time.Since(start)
		v.metrics.ObserveAnalysis(v.provider.Name(), outcome, elapsed.Seconds())
		v.record(ctx, req, reply, outcome, elapsed)
	}()

	log.Debug("📥 Analysis requested", zap.String("prompt", req.Prompt), zap.String("image_url", req.ImageURL))

	img, err := v.media.Fetch(ctx, req.ImageURL, req.ContentType)
	if err != nil {
		log.Error("❌ Error downloading image", zap.Error(err))
		outcome = models.OutcomeMediaError
		return MsgDownloadFailed
	}

	text, err := v.provider.Generate(ctx, req.Prompt, img)
	if err != nil {
		var statusErr *UpstreamStatusError
		if errors.As(err, &statusErr) {
			log.Error("❌ Generation API returned an error status",
				zap.Int("status", statusErr.StatusCode),
				zap.String("body", statusErr.Body),
			)
			outcome = models.OutcomeUpstreamError
			return v.upstreamApology(statusErr)
		}
		log.Error("❌ Error during generation request", zap.Error(err))
		outcome = models.OutcomeRequestError
		return v.requestApology()
	}

	log.Info("✅ Analysis completed",
		zap.String("mime_type", img.MIMEType),
		zap.Int("image_bytes", len(img.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text
}

func (v *VisionService) upstreamApology(err *UpstreamStatusError) string {
	if v.exposeUpstreamErrors && err.Body != "" {
		return fmt.Sprintf("%s couldn't process the image: %s", v.provider.Name(), err.Body)
	}
	return fmt.Sprintf("%s couldn't process the image.", v.provider.Name())
}

func (v *VisionService) requestApology() string {
	return fmt.Sprintf("Something went wrong while talking to %s.", v.provider.Name())
}

func (v *VisionService) record(ctx context.Context, req AnalysisRequest, reply, outcome string, elapsed time.Duration) {
	if v.history == nil {
		return
	}

	// The request context may already be cancelled when the reply is sent.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	analysis := &models.Analysis{
		Sender:      req.Sender,
		MediaURL:    req.ImageURL,
		ContentType: req.ContentType,
		Prompt:      req.Prompt,
		Reply:       reply,
		Outcome:     outcome,
		Provider:    v.provider.Name(),
		DurationMs:  elapsed.Milliseconds(),
	}
	if err := v.history.SaveAnalysis(saveCtx, analysis); err != nil {
		logger.Warn("Failed to record analysis", zap.String("sender", req.Sender), zap.Error(err))
	}
}
