// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests processed",
		},
		[]string{"search_type"},
	)

	SearchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_failures_total",
			Help: "Total number of search requests that failed",
		},
		[]string{"search_type", "error_code"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "search_duration_seconds",
			Help: "End-to-end duration of search request processing in seconds",
		},
		[]string{"search_type"},
	)

	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "source_query_duration_seconds",
			Help: "Duration of per-source query execution in seconds",
		},
		[]string{"source"},
	)

	SourceQueryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_query_failures_total",
			Help: "Total number of per-source query failures",
		},
		[]string{"source", "error_code"},
	)

	SourceRowsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_rows_returned_total",
			Help: "Total number of rows returned per source",
		},
		[]string{"source"},
	)

	CatalogCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Total number of catalog cache hits",
		},
		[]string{"catalog"},
	)

	CatalogCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Total number of catalog cache misses",
		},
		[]string{"catalog"},
	)
)
