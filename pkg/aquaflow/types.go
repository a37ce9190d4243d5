package aquaflow

import (
	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Reading is the unit of telemetry that flows through the WAL→queue→state pipeline.
type Reading = domain.Reading

// DeviceKind tells whether a reading belongs to a gate or a tank.
type DeviceKind = domain.DeviceKind

const (
	KindGate = domain.KindGate
	KindTank = domain.KindTank
)

// Network records and samples.
type (
	Coordinate     = domain.Coordinate
	Tank           = domain.Tank
	Gate           = domain.Gate
	Pipeline       = domain.Pipeline
	Network        = domain.Network
	GateSample     = domain.GateSample
	TankSample     = domain.TankSample
	GateSnapshot   = domain.GateSnapshot
	DeviceSnapshot = domain.DeviceSnapshot
	FlowDirection  = domain.FlowDirection
)

// Flow results.
type (
	FlowSegment    = domain.FlowSegment
	PipelineFlow   = domain.PipelineFlow
	PipelineStatus = domain.PipelineStatus
)

// QueuedReading represents an item buffered inside the bounded queue.
type QueuedReading = ports.QueuedReading

// Collector streams readings from any data source (OPC UA, simulators, MQTT, etc.) into the pipeline.
type Collector = ports.Collector

// ReadingQueue is the bounded, in-memory queue that decouples collectors from live state.
type ReadingQueue = ports.ReadingQueue

// Transformer lets callers mutate readings (unit conversion, calibration, enrichment) before they are applied.
type Transformer = ports.Transformer

// StatusSink consumes the pipeline statuses of every refresh round.
type StatusSink = ports.StatusSink

// Hydraulics estimates flow rate and pressure for a flow result.
type Hydraulics = ports.Hydraulics

// Observability emits metrics/logs about throughput, latency, and DLQ conditions.
type Observability = ports.Observability

// Field is a structured log/metric field used by Observability implementations.
type Field = ports.Field

// WAL abstracts the write-ahead log used for durability and crash recovery.
type WAL = ports.WAL

// WALStats exposes WAL metadata for observability.
type WALStats = ports.WALStats

// WALEntryID uniquely identifies a WAL entry.
type WALEntryID = ports.WALEntryID
