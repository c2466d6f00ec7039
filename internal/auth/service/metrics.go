package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session lifecycle outcomes. A nil *Metrics records nothing.
type Metrics struct {
	logins      *prometheus.CounterVec
	refreshes   *prometheus.CounterVec
	revocations *prometheus.CounterVec
	cleanupRows prometheus.Counter
	cleanupRuns *prometheus.CounterVec
}

// NewMetrics creates the session collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Name:      "refreshes_total",
			Help:      "Refresh token rotations by outcome.",
		}, []string{"outcome"}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Name:      "revocations_total",
			Help:      "Revocation operations by attribution.",
		}, []string{"reason"}),
		cleanupRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sessiond",
			Name:      "cleanup_deleted_tokens_total",
			Help:      "Expired tokens deleted by cleanup.",
		}),
		cleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessiond",
			Name:      "cleanup_runs_total",
			Help:      "Cleanup runs by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.logins, m.refreshes, m.revocations, m.cleanupRows, m.cleanupRuns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) login(outcome string) {
	if m != nil {
		m.logins.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) refresh(outcome string) {
	if m != nil {
		m.refreshes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) revocation(reason string) {
	if m != nil {
		m.revocations.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) cleanup(deleted int64, err error) {
	if m == nil {
		return
	}
	m.cleanupRows.Add(float64(deleted))
	if err != nil {
		m.cleanupRuns.WithLabelValues("error").Inc()
		return
	}
	m.cleanupRuns.WithLabelValues("ok").Inc()
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return KindOf(err).String()
}
