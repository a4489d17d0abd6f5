package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photovault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photovault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photovault_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Catalog metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photovault_db_queries_total",
			Help: "Total number of catalog queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photovault_db_query_duration_seconds",
			Help:    "Catalog query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Import pipeline metrics
var (
	ImportRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photovault_import_runs_total",
			Help: "Total number of import batch runs",
		},
	)

	ImportLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photovault_import_last_run_duration_seconds",
			Help: "Duration of the last import batch in seconds",
		},
	)

	ImportFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photovault_import_files_total",
			Help: "Per-file import outcomes",
		},
		[]string{"media_type", "outcome"}, // outcome: converted, skipped, failed
	)

	ImportBytesSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photovault_import_bytes_saved_total",
			Help: "Total bytes saved by transcoding (original minus vault, floored at zero)",
		},
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photovault_transcode_duration_seconds",
			Help:    "Transcode duration in seconds by media type",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"media_type"},
	)
)

// InitializeMetrics pre-populates expected label combinations so that every
// metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, op := range []string{"initialize_schema", "upsert_asset", "append_index_terms", "query", "stats"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, mt := range []string{"image", "video"} {
		for _, outcome := range []string{"converted", "skipped", "failed"} {
			ImportFilesTotal.WithLabelValues(mt, outcome)
		}
		TranscodeDuration.WithLabelValues(mt)
	}
}
