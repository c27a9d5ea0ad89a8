package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Ananth-NQI/evebot-backend/internal/metrics"
	"github.com/Ananth-NQI/evebot-backend/internal/models"
	"github.com/Ananth-NQI/evebot-backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMedia struct {
	img   *Image
	err   error
	calls int
}

func (f *fakeMedia) Fetch(ctx context.Context, url, declaredType string) (*Image, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

type fakeProvider struct {
	text       string
	err        error
	panicWith  any
	calls      int
	lastPrompt string
	lastImage  *Image
}

func (f *fakeProvider) Name() string  { return "Gemini" }
func (f *fakeProvider) Model() string { return "fake-vision" }

func (f *fakeProvider) Generate(ctx context.Context, prompt string, img *Image) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	f.lastImage = img
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.text, f.err
}

func newTestVision(media MediaSource, provider VisionProvider, expose bool) (*VisionService, *storage.MemoryHistoryStore, *metrics.Metrics) {
	history := storage.NewMemoryHistoryStore(10)
	m := metrics.New(prometheus.NewRegistry())
	return NewVisionService(media, provider, history, m, expose), history, m
}

var testRequest = AnalysisRequest{
	Sender:      "+15550001",
	ImageURL:    "https://api.twilio.com/media/ME1",
	ContentType: "image/jpeg",
	Prompt:      "What breed is this dog?",
}

func TestVisionAnalyzeSuccess(t *testing.T) {
	media := &fakeMedia{img: &Image{Data: []byte("jpeg"), MIMEType: "image/jpeg"}}
	provider := &fakeProvider{text: "T"}
	vision, history, m := newTestVision(media, provider, true)

	reply := vision.Analyze(context.Background(), testRequest)

	assert.Equal(t, "T", reply)
	assert.Equal(t, "What breed is this dog?", provider.lastPrompt)
	assert.Equal(t, media.img, provider.lastImage)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisTotal.WithLabelValues("Gemini", models.OutcomeSuccess)))

	records, err := history.RecentAnalyses(context.Background(), "+15550001", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.OutcomeSuccess, records[0].Outcome)
	assert.Equal(t, "T", records[0].Reply)
	assert.Equal(t, "Gemini", records[0].Provider)
}

func TestVisionAnalyzeMediaFailureSkipsProvider(t *testing.T) {
	media := &fakeMedia{err: fmt.Errorf("%w: unexpected status 404", ErrMediaDownload)}
	provider := &fakeProvider{text: "never"}
	vision, history, _ := newTestVision(media, provider, true)

	reply := vision.Analyze(context.Background(), testRequest)

	assert.Equal(t, MsgDownloadFailed, reply)
	assert.Equal(t, 0, provider.calls)

	records, _ := history.RecentAnalyses(context.Background(), "", 10)
	require.Len(t, records, 1)
	assert.Equal(t, models.OutcomeMediaError, records[0].Outcome)
}

func TestVisionAnalyzeUpstreamStatus(t *testing.T) {
	upstream := &UpstreamStatusError{Provider: "Gemini", StatusCode: http.StatusTooManyRequests, Body: "quota exceeded"}
	media := &fakeMedia{img: &Image{Data: []byte("jpeg"), MIMEType: "image/jpeg"}}

	t.Run("exposed", func(t *testing.T) {
		vision, _, _ := newTestVision(media, &fakeProvider{err: upstream}, true)
		reply := vision.Analyze(context.Background(), testRequest)
		assert.Equal(t, "Gemini couldn't process the image: quota exceeded", reply)
	})

	t.Run("hidden", func(t *testing.T) {
		vision, history, _ := newTestVision(media, &fakeProvider{err: upstream}, false)
		reply := vision.Analyze(context.Background(), testRequest)
		assert.Equal(t, "Gemini couldn't process the image.", reply)

		records, _ := history.RecentAnalyses(context.Background(), "", 10)
		require.Len(t, records, 1)
		assert.Equal(t, models.OutcomeUpstreamError, records[0].Outcome)
	})
}

func TestVisionAnalyzeRequestFailures(t *testing.T) {
	media := &fakeMedia{img: &Image{Data: []byte("jpeg"), MIMEType: "image/jpeg"}}

	for name, provider := range map[string]*fakeProvider{
		"transport error": {err: errors.New("connection reset")},
		"malformed":       {err: fmt.Errorf("%w: unexpected EOF", ErrMalformedResponse)},
		"no candidates":   {err: ErrNoCandidates},
		"panic":           {panicWith: "index out of range"},
	} {
		t.Run(name, func(t *testing.T) {
			vision, _, _ := newTestVision(media, provider, true)
			reply := vision.Analyze(context.Background(), testRequest)
			assert.Equal(t, "Something went wrong while talking to Gemini.", reply)
		})
	}
}

type failingHistory struct{}

func (failingHistory) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	return errors.New("database is down")
}

func (failingHistory) RecentAnalyses(ctx context.Context, sender string, limit int) ([]*models.Analysis, error) {
	return nil, errors.New("database is down")
}

func (failingHistory) Ping(ctx context.Context) error { return errors.New("database is down") }

func TestVisionAnalyzeHistoryFailureDoesNotAffectReply(t *testing.T) {
	media := &fakeMedia{img: &Image{Data: []byte("jpeg"), MIMEType: "image/jpeg"}}
	vision := NewVisionService(media, &fakeProvider{text: "T"}, failingHistory{}, nil, true)

	assert.Equal(t, "T", vision.Analyze(context.Background(), testRequest))
	assert.Equal(t, "Gemini", vision.ProviderName())
}
