package docsql

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records store query latency per collection and operation.
type Metrics struct {
	duration *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "places",
				Subsystem: "store",
				Name:      "query_duration_seconds",
				Help:      "Document store query latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"collection", "op"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.duration)
	}
	return m
}

func (m *Metrics) since(collection, op string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}
