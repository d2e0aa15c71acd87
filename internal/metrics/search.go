package metrics

import "github.com/prometheus/client_golang/prometheus"

// Similarity search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsim",
			Name:      "search_requests_total",
			Help:      "Total number of similarity search requests",
		},
		[]string{"status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prodsim",
			Name:      "search_duration_seconds",
			Help:      "Similarity search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"stage"}, // "search" / "details"
	)

	IndexBuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsim",
			Name:      "index_builds_total",
			Help:      "Total number of flat index builds",
		},
		[]string{"status"},
	)

	IndexBuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "prodsim",
			Name:      "index_build_duration_seconds",
			Help:      "Flat index build duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	IndexCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsim",
			Name:      "index_cache_total",
			Help:      "Index cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SkippedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsim",
			Name:      "skipped_rows_total",
			Help:      "Embedding rows excluded from index builds",
		},
		[]string{"reason"}, // "parse_error" / "dim_mismatch"
	)

	SnapshotReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prodsim",
			Name:      "snapshot_reloads_total",
			Help:      "Total number of catalog snapshot reloads",
		},
		[]string{"status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(IndexBuildsTotal)
	prometheus.MustRegister(IndexBuildDuration)
	prometheus.MustRegister(IndexCacheTotal)
	prometheus.MustRegister(SkippedRowsTotal)
	prometheus.MustRegister(SnapshotReloadsTotal)
	searchMetricsRegistered = true
}
