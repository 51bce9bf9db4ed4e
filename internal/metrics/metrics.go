// File: internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters are registered on the default registry and exposed through the
// HTTP adapter's /metrics endpoint.
var (
	Hits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pail_hits_total",
		Help: "Number of Get calls that found a live entry.",
	})

	Misses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pail_misses_total",
		Help: "Number of Get calls that found nothing.",
	})

	Sets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pail_sets_total",
		Help: "Number of Set calls.",
	})

	Deletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pail_deletes_total",
		Help: "Number of Delete calls that removed an entry.",
	})

	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pail_evictions_total",
		Help: "Entries evicted oldest-first to admit new writes.",
	})

	Expirations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pail_expirations_total",
		Help: "Entries removed by the TTL sweep.",
	})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pail_sweep_duration_seconds",
		Help:    "Wall time of a single TTL sweep pass over one bucket.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	})
)
