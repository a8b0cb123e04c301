package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus counters for the auth core.
type Metrics struct {
	SignIns        *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	Resolves       *prometheus.CounterVec
	GuardDecisions *prometheus.CounterVec
	RequestErrors  *prometheus.CounterVec
}

// NewMetrics registers auth counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_sign_in_total",
			Help: "Sign-in attempts by result.",
		}, []string{"result"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_session_refresh_total",
			Help: "Session refresh attempts by result.",
		}, []string{"result"}),
		Resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_profile_resolve_total",
			Help: "Profile resolve outcomes by kind.",
		}, []string{"result"}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_guard_decision_total",
			Help: "Route guard decisions.",
		}, []string{"decision"}),
		RequestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_request_errors_total",
			Help: "HTTP errors by path, method and error kind.",
		}, []string{"path", "method", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.SignIns, m.Refreshes, m.Resolves, m.GuardDecisions, m.RequestErrors)
	}
	return m
}

// RecordSignIn increments the sign-in counter.
func (m *Metrics) RecordSignIn(result string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(result).Inc()
}

// RecordRefresh increments the refresh counter.
func (m *Metrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

// RecordResolve increments the resolve counter.
func (m *Metrics) RecordResolve(result string) {
	if m == nil {
		return
	}
	m.Resolves.WithLabelValues(result).Inc()
}

// RecordGuardDecision increments the guard decision counter.
func (m *Metrics) RecordGuardDecision(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

// RecordError increments the request error counter.
func (m *Metrics) RecordError(path, method, kind string) {
	if m == nil {
		return
	}
	m.RequestErrors.WithLabelValues(path, method, kind).Inc()
}
