// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	RecordsReceived        *prometheus.CounterVec
	RecordsStored          *prometheus.CounterVec
	RecordsDropped         *prometheus.CounterVec
	IngestProcessingErrors *prometheus.CounterVec

	// Buffer metrics
	IngestBufferSize     prometheus.Gauge
	HighestKnowledgeDate prometheus.Gauge
	FeedConnected        prometheus.Gauge
	FeedReconnectsTotal  prometheus.Counter

	// Resolution metrics
	CellsResolved       *prometheus.CounterVec
	NullCellsResolved   *prometheus.CounterVec
	ColumnsMaterialized *prometheus.CounterVec
	MaterializeDuration *prometheus.HistogramVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	CellsExported     prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "equity_events_lab"
	}

	return &Metrics{
		// Ingestion metrics
		RecordsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_received_total",
			Help:      "Total number of event records received by dataset",
		}, []string{"dataset"}),
		RecordsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_stored_total",
			Help:      "Total number of event records stored to database",
		}, []string{"dataset"}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_dropped_total",
			Help:      "Total number of event records dropped by reason",
		}, []string{"dataset", "reason"}),
		IngestProcessingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "processing_errors_total",
			Help:      "Total number of ingestion errors by type",
		}, []string{"dataset", "error_type"}),

		// Buffer metrics
		IngestBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "buffer_size",
			Help:      "Current number of records in the ingest buffer",
		}),
		HighestKnowledgeDate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "highest_knowledge_date",
			Help:      "Highest knowledge date seen, as days since the Unix epoch",
		}),
		FeedConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_connected",
			Help:      "Whether the vendor event feed is connected (1) or not (0)",
		}),
		FeedReconnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_reconnects_total",
			Help:      "Total number of vendor feed reconnects",
		}),

		// Resolution metrics
		CellsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolution",
			Name:      "cells_resolved_total",
			Help:      "Total number of cells resolved by dataset",
		}, []string{"dataset"}),
		NullCellsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolution",
			Name:      "null_cells_resolved_total",
			Help:      "Total number of null cells resolved by dataset",
		}, []string{"dataset"}),
		ColumnsMaterialized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolution",
			Name:      "columns_materialized_total",
			Help:      "Total number of logical columns materialized",
		}, []string{"dataset"}),
		MaterializeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resolution",
			Name:      "materialize_duration_seconds",
			Help:      "Column materialization duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dataset"}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"dataset"}),
		CellsExported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cells_exported_total",
			Help:      "Total number of resolved cells written to analytic storage",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion flush",
		}),
		LastSuccessfulPipeline: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordReceived increments the records received counter for a dataset.
func RecordReceived(dataset string) {
	DefaultMetrics.RecordsReceived.WithLabelValues(dataset).Inc()
}

// RecordStored adds to the records stored counter for a dataset.
func RecordStored(dataset string, n int) {
	DefaultMetrics.RecordsStored.WithLabelValues(dataset).Add(float64(n))
}

// RecordDropped increments the records dropped counter for a dataset.
func RecordDropped(dataset, reason string) {
	DefaultMetrics.RecordsDropped.WithLabelValues(dataset, reason).Inc()
}
