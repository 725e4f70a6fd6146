// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tl_ingest_cycle_duration_seconds",
			Help:    "Duration of one full ingestion cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tl_records_fetched_total",
			Help: "Raw records fetched per source",
		},
		[]string{"source"},
	)

	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tl_source_errors_total",
			Help: "Source fetch failures",
		},
		[]string{"source"},
	)

	RecordsAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tl_records_appended_total",
			Help: "Enriched records appended to the feed",
		},
	)

	RecordsDeduped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tl_records_deduped_total",
			Help: "Records dropped as duplicates of recent cycles",
		},
	)

	RecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tl_record_failures_total",
			Help: "Per-record enrichment failures (record dropped)",
		},
	)

	AnalyzeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tl_analyze_requests_total",
			Help: "Interactive analyze requests by outcome",
		},
		[]string{"outcome"},
	)
)
