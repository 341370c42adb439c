package metrics

import "github.com/prometheus/client_golang/prometheus"

// Document store and search engine Prometheus metrics.
var (
	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osinter",
			Name:      "store_operations_total",
			Help:      "Total number of document store operations",
		},
		[]string{"kind", "op", "status"},
	)

	StoreConflictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osinter",
			Name:      "store_revision_conflicts_total",
			Help:      "Revision conflicts seen by the load-mutate-store loop",
		},
		[]string{"kind"},
	)

	StoreContentionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osinter",
			Name:      "store_write_contention_total",
			Help:      "Updates abandoned after exhausting write retries",
		},
		[]string{"kind"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osinter",
			Name:      "search_requests_total",
			Help:      "Total number of article search requests",
		},
		[]string{"engine", "status"},
	)

	SearchRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "osinter",
			Name:      "search_request_duration_seconds",
			Help:      "Article search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"engine"},
	)
)

var storeMetricsRegistered bool

// RegisterStoreMetrics registers store and search metrics. Must be called once from main.
func RegisterStoreMetrics() {
	if storeMetricsRegistered {
		return
	}
	prometheus.MustRegister(StoreOperationsTotal)
	prometheus.MustRegister(StoreConflictsTotal)
	prometheus.MustRegister(StoreContentionTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchRequestDuration)
	storeMetricsRegistered = true
}
