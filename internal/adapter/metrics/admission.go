package metrics

import "github.com/prometheus/client_golang/prometheus"

// AdmissionMetrics holds Prometheus metrics for the connection gate.
type AdmissionMetrics struct {
	Decisions            *prometheus.CounterVec
	SlotsInUse           prometheus.Gauge
	RateLimiterFallbacks prometheus.Counter
}

// NewAdmissionMetrics creates and registers gate metrics on the given registry.
func NewAdmissionMetrics(reg prometheus.Registerer) *AdmissionMetrics {
	m := &AdmissionMetrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "decisions_total",
			Help:      "Connection admission decisions, by result and deny reason.",
		}, []string{"result", "reason"}),
		SlotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "slots_in_use",
			Help:      "Connection slots currently held by admitted clients.",
		}),
		RateLimiterFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "admission",
			Name:      "rate_limiter_fallbacks_total",
			Help:      "Connect rate checks served by the in-memory fallback.",
		}),
	}

	reg.MustRegister(m.Decisions, m.SlotsInUse, m.RateLimiterFallbacks)
	return m
}
