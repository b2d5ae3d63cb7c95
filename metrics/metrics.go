// Package metrics exposes Prometheus counters for the session engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultReused   = "reused"
	OutcomeRevoked = "revoked"
	OutcomeActive  = "active"
)

// Metrics holds the engine's counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	logins           *prometheus.CounterVec
	refreshes        *prometheus.CounterVec
	logouts          prometheus.Counter
	revocationChecks *prometheus.CounterVec
}

// New registers the counters with reg. Pass prometheus.DefaultRegisterer for
// the process-global registry, or a private registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_refreshes_total",
			Help: "Refresh rotations by result.",
		}, []string{"result"}),
		logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authcore_logouts_total",
			Help: "Completed logout operations.",
		}),
		revocationChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authcore_revocation_checks_total",
			Help: "Blacklist lookups during token verification, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.logins, m.refreshes, m.logouts, m.revocationChecks)
	return m
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) Logout() {
	if m == nil {
		return
	}
	m.logouts.Inc()
}

func (m *Metrics) RevocationCheck(outcome string) {
	if m == nil {
		return
	}
	m.revocationChecks.WithLabelValues(outcome).Inc()
}
