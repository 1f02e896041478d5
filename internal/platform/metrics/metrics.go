package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CodesSent         prometheus.Counter
	CodeVerifications *prometheus.CounterVec
	ChatsCreated      prometheus.Counter
	ChatsDeleted      prometheus.Counter
	MessagesSent      prometheus.Counter
	MirrorsSkipped    prometheus.Counter
	RequestLatency    *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CodesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "touch_verification_codes_sent_total",
			Help: "Total number of verification codes issued",
		}),
		CodeVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "touch_code_verifications_total",
			Help: "Verification attempts by outcome",
		}, []string{"outcome"}),
		ChatsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "touch_chat_pairs_created_total",
			Help: "Total number of mirrored chat pairs created",
		}),
		ChatsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "touch_chats_deleted_total",
			Help: "Total number of chats deleted by their owner",
		}),
		MessagesSent: f.NewCounter(prometheus.CounterOpts{
			Name: "touch_messages_sent_total",
			Help: "Total number of messages sent",
		}),
		MirrorsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "touch_message_mirrors_skipped_total",
			Help: "Sends whose linked chat no longer existed",
		}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "touch_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (m *Metrics) IncrementCodesSent() {
	if m == nil {
		return
	}
	m.CodesSent.Inc()
}

// ObserveVerification records a verification attempt outcome
// ("success", "invalid", "expired", "no_code", "not_found").
func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.CodeVerifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementChatsCreated() {
	if m == nil {
		return
	}
	m.ChatsCreated.Inc()
}

func (m *Metrics) IncrementChatsDeleted() {
	if m == nil {
		return
	}
	m.ChatsDeleted.Inc()
}

func (m *Metrics) IncrementMessagesSent() {
	if m == nil {
		return
	}
	m.MessagesSent.Inc()
}

func (m *Metrics) IncrementMirrorsSkipped() {
	if m == nil {
		return
	}
	m.MirrorsSkipped.Inc()
}

func (m *Metrics) ObserveRequest(route, method string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, method).Observe(seconds)
}
