package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts cache lookups per namespace and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics registers the cache collectors with reg. A nil registerer leaves
// the collectors unregistered, which is handy in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "places",
				Subsystem: "cache",
				Name:      "requests_total",
				Help:      "Cache lookups by namespace and result (hit, miss, error).",
			},
			[]string{"namespace", "result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.requests)
	}
	return m
}

func (m *Metrics) observe(namespace, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(namespace, result).Inc()
}
