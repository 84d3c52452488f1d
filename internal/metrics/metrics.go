// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	FilesIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musichistory_files_ingested_total",
			Help: "Total number of history files accepted",
		},
	)

	FilesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musichistory_files_rejected_total",
			Help: "Total number of history files rejected",
		},
		[]string{"reason"}, // "schema", "duplicate", "too_many_records", "invalid", "storage"
	)

	RecordsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musichistory_records_ingested_total",
			Help: "Total number of play records in accepted files",
		},
	)

	// Aggregation
	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musichistory_aggregation_runs_total",
			Help: "Total number of aggregation runs by outcome",
		},
		[]string{"outcome"}, // "success", "empty", "error"
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "musichistory_aggregation_duration_seconds",
			Help:    "Duration of aggregation runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AggregatedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musichistory_aggregated_events",
			Help: "Number of play events folded by the last successful run",
		},
	)

	SkippedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "musichistory_skipped_records_total",
			Help: "Total number of records skipped for an unparseable timestamp",
		},
	)

	// Queries
	SummaryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musichistory_summary_lookups_total",
			Help: "Total number of summary lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "stale", "error"
	)

	// Pipeline
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "musichistory_pipeline_requests_total",
			Help: "Total number of pipeline requests by type and response status",
		},
		[]string{"type", "status"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "musichistory_websocket_connections",
			Help: "Current number of open WebSocket connections",
		},
	)
)

// RecordFileIngested counts an accepted file and its records.
func RecordFileIngested(records int) {
	FilesIngested.Inc()
	RecordsIngested.Add(float64(records))
}

// RecordFileRejected counts a rejected file by reason.
func RecordFileRejected(reason string) {
	FilesRejected.WithLabelValues(reason).Inc()
}

// RecordAggregation records the outcome of one run.
func RecordAggregation(outcome string, duration time.Duration, events, skipped int) {
	AggregationRuns.WithLabelValues(outcome).Inc()
	AggregationDuration.Observe(duration.Seconds())
	if outcome == "success" {
		AggregatedEvents.Set(float64(events))
		SkippedRecords.Add(float64(skipped))
	}
}

// RecordSummaryLookup counts a query facade lookup.
func RecordSummaryLookup(result string) {
	SummaryLookups.WithLabelValues(result).Inc()
}

// RecordPipelineRequest counts a handled pipeline request.
func RecordPipelineRequest(reqType, status string) {
	PipelineRequests.WithLabelValues(reqType, status).Inc()
}

// TrackWebSocket adjusts the open connection gauge.
func TrackWebSocket(open bool) {
	if open {
		WebSocketConnections.Inc()
	} else {
		WebSocketConnections.Dec()
	}
}
