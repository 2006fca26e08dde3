package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	SessionEvents     *prometheus.CounterVec
	Turns             *prometheus.CounterVec
	StepTransitions   *prometheus.CounterVec
	ExtractorOutcomes *prometheus.CounterVec
	SinkOutcomes      *prometheus.CounterVec
	WebhookStatus     *prometheus.CounterVec
	WSMessages        *prometheus.CounterVec
	TurnLatency       prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of intake sessions held by the session store.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns by the step they were handled in and outcome.",
		}, []string{"step", "outcome"}),
		StepTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_transitions_total",
			Help:      "Committed step transitions.",
		}, []string{"from", "to"}),
		ExtractorOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "name_extractor_outcomes_total",
			Help:      "Name extraction calls by provider and result.",
		}, []string{"provider", "result"}),
		SinkOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_sink_outcomes_total",
			Help:      "Completion sink results by sink.",
		}, []string{"sink", "result"}),
		WebhookStatus: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_responses_total",
			Help:      "Webhook deliveries by response status class.",
		}, []string{"class"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Time to produce a reply for one chat turn in milliseconds.",
			Buckets:   []float64{5, 20, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
	}
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) ObserveSessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveTurn(step, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(step, outcome).Inc()
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.StepTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveExtractor(provider, result string) {
	if m == nil {
		return
	}
	m.ExtractorOutcomes.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) ObserveSink(sink, result string) {
	if m == nil {
		return
	}
	m.SinkOutcomes.WithLabelValues(sink, result).Inc()
}

func (m *Metrics) ObserveWebhookStatus(class string) {
	if m == nil {
		return
	}
	m.WebhookStatus.WithLabelValues(class).Inc()
}

func (m *Metrics) ObserveWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
