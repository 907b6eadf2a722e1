package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks gate behavior. All methods are nil-safe so tests and
// minimal embedders can pass a nil *Metrics.
type Metrics struct {
	PromptsShown   *prometheus.CounterVec
	Decisions      *prometheus.CounterVec
	Dismissals     *prometheus.CounterVec
	RemoteFailures *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
}

// New creates and registers the gate metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		PromptsShown: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nestsync_consent_prompts_shown_total",
			Help: "Consent prompts presented to the user, by type",
		}, []string{"consent_type"}),
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nestsync_consent_decisions_total",
			Help: "Recorded consent decisions, by type and outcome",
		}, []string{"consent_type", "granted"}),
		Dismissals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nestsync_consent_dismissals_total",
			Help: "Prompts dismissed without an explicit decision, by type",
		}, []string{"consent_type"}),
		RemoteFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nestsync_consent_record_failures_total",
			Help: "Remote recorder failures that resolved fail-closed, by type",
		}, []string{"consent_type"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "nestsync_consent_cache_hits_total",
			Help: "Requests answered from the local decision cache, by type",
		}, []string{"consent_type"}),
	}
}

func (m *Metrics) PromptShown(consentType string) {
	if m == nil {
		return
	}
	m.PromptsShown.WithLabelValues(consentType).Inc()
}

func (m *Metrics) Decided(consentType string, granted bool) {
	if m == nil {
		return
	}
	outcome := "false"
	if granted {
		outcome = "true"
	}
	m.Decisions.WithLabelValues(consentType, outcome).Inc()
}

func (m *Metrics) Dismissed(consentType string) {
	if m == nil {
		return
	}
	m.Dismissals.WithLabelValues(consentType).Inc()
}

func (m *Metrics) RemoteFailure(consentType string) {
	if m == nil {
		return
	}
	m.RemoteFailures.WithLabelValues(consentType).Inc()
}

func (m *Metrics) CacheHit(consentType string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(consentType).Inc()
}
