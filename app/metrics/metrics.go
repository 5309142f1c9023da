package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rss_seek",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 90},
		},
		[]string{"method", "route"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rss_seek",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	SearchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "search_outcomes_total",
			Help:      "Search results by outcome",
		},
		[]string{"outcome"}, // "match" / "no_links" / "no_items" / "no_match" / "error"
	)

	MagnetLinksExtracted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "magnet_links_extracted_total",
			Help:      "Magnet links emitted with a known size",
		},
	)

	MagnetLinksDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "magnet_links_dropped_total",
			Help:      "Magnet links dropped because no size could be inferred",
		},
	)

	OffloadOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "offload_outcomes_total",
			Help:      "Seedr offload flows by terminal outcome",
		},
		[]string{"outcome"},
	)

	SeedrRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "seedr_requests_total",
			Help:      "Seedr API calls by operation and status",
		},
		[]string{"operation", "status"},
	)

	TaskExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rss_seek",
			Name:      "task_executions_total",
			Help:      "Background task executions by type and result",
		},
		[]string{"type", "result"}, // "success" / "retry" / "failed"
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			SearchOutcomesTotal,
			MagnetLinksExtracted,
			MagnetLinksDropped,
			OffloadOutcomesTotal,
			SeedrRequestsTotal,
			TaskExecutionsTotal,
		)
	})
}
