package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptdex",
			Name:      "search_requests_total",
			Help:      "Total number of template searches",
		},
		[]string{"mode"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptdex",
			Name:      "search_duration_seconds",
			Help:      "Template search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	// SearchDegradationsTotal counts retrieval branches that fell back or contributed nothing.
	SearchDegradationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "promptdex",
			Name:      "search_degradations_total",
			Help:      "Retrieval branches that degraded to a fallback or an empty result",
		},
		[]string{"branch", "reason"}, // branch: fulltext/semantic; reason: index_unavailable/index_error/embedding_error/embedding_disabled/store_error
	)

	SearchResultsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "promptdex",
			Name:      "search_results_returned",
			Help:      "Number of results on a returned page",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		},
		[]string{"mode"},
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
	prometheus.MustRegister(SearchDegradationsTotal)
	prometheus.MustRegister(SearchResultsReturned)
	searchMetricsRegistered = true
}
