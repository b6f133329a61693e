package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	notifications *prometheus.CounterVec
	persist       prometheus.Histogram
}

// newMetrics registers the pipeline collectors on reg. A nil reg leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	m := &metrics{
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "monay_notifications_total",
			Help: "Notifications handled by the ingestion pipeline, by outcome.",
		}, []string{"outcome"}),
		persist: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "monay_persist_duration_seconds",
			Help:    "Time spent storing one parsed bill.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	for _, o := range []Outcome{OutcomeRejected, OutcomeUnparsed, OutcomeStored, OutcomeFailed} {
		m.notifications.WithLabelValues(o.String())
	}
	return m
}
