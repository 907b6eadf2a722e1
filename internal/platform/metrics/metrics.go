package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the recorder service.
type Metrics struct {
	DecisionsRecorded *prometheus.CounterVec
	RequestLatency    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DecisionsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nestsync_consent_decisions_recorded_total",
			Help: "Total consent decisions persisted, by type and outcome",
		}, []string{"consent_type", "granted"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nestsync_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// RecordDecision increments the decision counter for one persisted decision.
func (m *Metrics) RecordDecision(consentType string, granted bool) {
	outcome := "false"
	if granted {
		outcome = "true"
	}
	m.DecisionsRecorded.WithLabelValues(consentType, outcome).Inc()
}
