package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the broker's Prometheus collectors. A nil *Metrics is valid and
// records nothing, so callers in tests can omit it.
type Metrics struct {
	SessionsStarted        *prometheus.CounterVec
	Verifications          *prometheus.CounterVec
	RegistrationsCompleted prometheus.Counter
	RegistrationsAborted   prometheus.Counter
	WebhookDeliveries      *prometheus.CounterVec
	WebhookDeliveryLatency prometheus.Histogram
	DIDResolutionLatency   *prometheus.HistogramVec
	WaitingStreams         prometheus.Gauge
}

// New creates and registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_sessions_started_total",
			Help: "Authentication sessions started, by action",
		}, []string{"action"}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_verifications_total",
			Help: "Wallet responses verified, by action and outcome",
		}, []string{"action", "outcome"}),
		RegistrationsCompleted: f.NewCounter(prometheus.CounterOpts{
			Name: "didgate_registrations_completed_total",
			Help: "Sign-ups confirmed by the relying service",
		}),
		RegistrationsAborted: f.NewCounter(prometheus.CounterOpts{
			Name: "didgate_registrations_aborted_total",
			Help: "Sign-ups rejected by the relying service",
		}),
		WebhookDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "didgate_webhook_deliveries_total",
			Help: "Webhook delivery attempts, by outcome (delivered, retry, failed)",
		}, []string{"outcome"}),
		WebhookDeliveryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "didgate_webhook_delivery_duration_seconds",
			Help:    "Latency of webhook POSTs to relying services",
			Buckets: prometheus.DefBuckets,
		}),
		DIDResolutionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "didgate_did_resolution_duration_seconds",
			Help:    "Latency of universal resolver lookups, by result",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"result"}),
		WaitingStreams: f.NewGauge(prometheus.GaugeOpts{
			Name: "didgate_waiting_streams",
			Help: "Open completion streams",
		}),
	}
}

func (m *Metrics) IncSessionStarted(action string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(action).Inc()
}

func (m *Metrics) IncVerification(action, outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) IncRegistrationCompleted() {
	if m == nil {
		return
	}
	m.RegistrationsCompleted.Inc()
}

func (m *Metrics) IncRegistrationAborted() {
	if m == nil {
		return
	}
	m.RegistrationsAborted.Inc()
}

func (m *Metrics) ObserveWebhookDelivery(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.WebhookDeliveries.WithLabelValues(outcome).Inc()
	m.WebhookDeliveryLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveDIDResolution(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.DIDResolutionLatency.WithLabelValues(result).Observe(d.Seconds())
}

func (m *Metrics) StreamOpened() {
	if m == nil {
		return
	}
	m.WaitingStreams.Inc()
}

func (m *Metrics) StreamClosed() {
	if m == nil {
		return
	}
	m.WaitingStreams.Dec()
}
