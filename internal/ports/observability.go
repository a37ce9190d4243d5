package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

type Observability interface {
	LogInfo(msg string, fields ...Field)
	LogError(msg string, err error, fields ...Field)
	LogCritical(msg string, err error, fields ...Field)

	IncCounter(name string, v float64)
	ObserveLatency(name string, seconds float64)

	SetGauge(name string, v float64)

	RecordDLQ(id WALEntryID, r *domain.Reading, err error)
}

type Field struct {
	Key   string
	Value any
}

// Metric names emitted by the runtime.
const (
	MetricReadingsIngested = "aquaflow_readings_ingested_total"
	MetricReadingsRejected = "aquaflow_readings_rejected_total"
	MetricDLQ              = "aquaflow_dlq_total"
	MetricQueueDropped     = "aquaflow_queue_dropped_total"
	MetricRefreshRounds    = "aquaflow_refresh_rounds_total"
	MetricStatusesWritten  = "aquaflow_statuses_written_total"

	MetricWALSize          = "aquaflow_wal_size_bytes"
	MetricQueueLength      = "aquaflow_queue_length"
	MetricPipelines        = "aquaflow_pipelines"
	MetricPipelinesFlowing = "aquaflow_pipelines_flowing"

	MetricIngestLatency  = "aquaflow_ingest_apply_latency_seconds"
	MetricRefreshLatency = "aquaflow_refresh_latency_seconds"
	MetricSinkLatency    = "aquaflow_sink_latency_seconds"
)
