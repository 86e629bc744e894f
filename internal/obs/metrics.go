// Package obs holds the Prometheus instrumentation. Metrics are
// registered on the default registry and served by the API server at
// /metrics.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlmon_fetches_total",
			Help: "Remote dataset fetches by outcome (ok|error).",
		},
		[]string{"dataset", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hlmon_fetch_duration_seconds",
			Help:    "Remote dataset fetch latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dataset"},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlmon_cache_hits_total",
			Help: "Freshness cache hits by key.",
		},
		[]string{"key"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlmon_cache_misses_total",
			Help: "Freshness cache misses by key.",
		},
		[]string{"key"},
	)

	DeliveryFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hlmon_delivery_failures_total",
			Help: "Failed Telegram message deliveries.",
		},
	)

	MonitorCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlmon_monitor_cycles_total",
			Help: "Scheduled monitor cycles by outcome (ok|error).",
		},
		[]string{"outcome"},
	)
)
