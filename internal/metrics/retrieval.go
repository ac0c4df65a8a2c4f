package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeEmpty         = "empty"
	OutcomeEmbedFailed   = "embed_failed"
	OutcomeSearchFailed  = "search_failed"
	OutcomeNotReady      = "not_ready"
	OutcomeNotConfigured = "not_configured"
)

// Retrieval metrics.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_requests_total",
			Help:      "Retrieval requests by outcome",
		},
		[]string{"outcome"},
	)

	RetrievalFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_fallback_total",
			Help:      "Brand fallback activations by result (hit/miss/error)",
		},
		[]string{"result"},
	)

	RetrievalResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_results",
			Help:      "Number of products returned per retrieval",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
		},
	)
)

// Rebuild metrics.
var (
	RebuildItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuild_items_total",
			Help:      "Products processed by embedding rebuilds, by status",
		},
		[]string{"status"},
	)

	RebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of full embedding rebuilds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	RebuildRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rebuild_running",
			Help:      "1 while an embedding rebuild is in progress",
		},
	)
)

var retrievalOnce, rebuildOnce sync.Once

// RegisterRetrievalMetrics registers the retrieval collectors.
func RegisterRetrievalMetrics() {
	retrievalOnce.Do(func() {
		prometheus.MustRegister(RetrievalRequestsTotal, RetrievalFallbackTotal, RetrievalResults)
	})
}

// RegisterRebuildMetrics registers the rebuild collectors.
func RegisterRebuildMetrics() {
	rebuildOnce.Do(func() {
		prometheus.MustRegister(RebuildItemsTotal, RebuildDuration, RebuildRunning)
	})
}
