package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	MessagesReceived  *prometheus.CounterVec
	AnalysisTotal     *prometheus.CounterVec
	AnalysisDuration  *prometheus.HistogramVec
	PendingSessions   prometheus.Gauge
	SessionsEvicted   prometheus.Counter
	RepliesSent       *prometheus.CounterVec
	WebhookRejections prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evebot_messages_received_total",
				Help: "Inbound WhatsApp messages by state transition",
			},
			[]string{"transition"}, // image_received, no_image, prompt_received
		),
		AnalysisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evebot_analysis_total",
				Help: "Vision analyses by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evebot_analysis_duration_seconds",
				Help:    "Time taken to fetch media and generate an answer",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
			},
			[]string{"provider"},
		),
		PendingSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "evebot_pending_sessions",
				Help: "Senders with an image awaiting a prompt",
			},
		),
		SessionsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "evebot_sessions_evicted_total",
				Help: "Pending sessions removed after their TTL",
			},
		),
		RepliesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evebot_replies_sent_total",
				Help: "Replies delivered by mode and status",
			},
			[]string{"mode", "status"},
		),
		WebhookRejections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "evebot_webhook_rejections_total",
				Help: "Webhook requests rejected by signature validation",
			},
		),
	}

	reg.MustRegister(
		m.MessagesReceived,
		m.AnalysisTotal,
		m.AnalysisDuration,
		m.PendingSessions,
		m.SessionsEvicted,
		m.RepliesSent,
		m.WebhookRejections,
	)
	return m
}

func (m *Metrics) ObserveMessage(transition string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(transition).Inc()
}

func (m *Metrics) ObserveAnalysis(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.AnalysisTotal.WithLabelValues(provider, outcome).Inc()
	m.AnalysisDuration.WithLabelValues(provider).Observe(seconds)
}

func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingSessions.Set(float64(n))
}

func (m *Metrics) AddEvicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsEvicted.Add(float64(n))
}

func (m *Metrics) ObserveReply(mode, status string) {
	if m == nil {
		return
	}
	m.RepliesSent.WithLabelValues(mode, status).Inc()
}

func (m *Metrics) ObserveRejection() {
	if m == nil {
		return
	}
	m.WebhookRejections.Inc()
}
