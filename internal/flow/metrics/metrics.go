package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks completed flow runs by terminal state
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapflow_runs_total",
			Help: "Total number of flow runs",
		},
		[]string{"result"},
	)

	// AttemptsTotal tracks attempts by outcome
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapflow_attempts_total",
			Help: "Total number of flow attempts",
		},
		[]string{"outcome"},
	)

	// AttemptDuration tracks how long a single attempt takes
	AttemptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapflow_attempt_duration_seconds",
			Help:    "Duration of a single flow attempt in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RetryWaitSeconds tracks the computed backoff delays
	RetryWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapflow_retry_wait_seconds",
			Help:    "Backoff delay applied between attempts in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// CacheStoresTotal tracks best-effort cache writes
	CacheStoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapflow_cache_stores_total",
			Help: "Total number of cache store attempts",
		},
		[]string{"result"},
	)

	// ArchiveWritesTotal tracks attempt-history archive writes
	ArchiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapflow_archive_writes_total",
			Help: "Total number of attempt archive writes",
		},
		[]string{"result"},
	)
)
