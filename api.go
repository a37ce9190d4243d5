package aquaflow

import (
	base "github.com/ghalamif/AquaFlow/pkg/aquaflow"
)

// Re-exported errors for convenience.
var (
	ErrQueueFull         = base.ErrQueueFull
	ErrWALFull           = base.ErrWALFull
	ErrNotStarted        = base.ErrNotStarted
	ErrNotFound          = base.ErrNotFound
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/ghalamif/AquaFlow directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	OPCUAConfig     = base.OPCUAConfig
	OPCUANodeConfig = base.OPCUANodeConfig
	SimulatorConfig = base.SimulatorConfig
	TimescaleConfig = base.TimescaleConfig
	MetricsConfig   = base.MetricsConfig
	APIConfig       = base.APIConfig
	WALConfig       = base.WALConfig
	NetworkConfig   = base.NetworkConfig
	RefreshConfig   = base.RefreshConfig
	HistoryConfig   = base.HistoryConfig
	LogConfig       = base.LogConfig
	Builder         = base.Builder
	BuilderOption   = base.BuilderOption
	StreamInOption  = base.StreamInOption
	StreamOutOption = base.StreamOutOption
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	RoundFunc       = base.RoundFunc
	StatusBatchSink = base.StatusBatchSink
	Reading         = base.Reading
	DeviceKind      = base.DeviceKind
	Coordinate      = base.Coordinate
	Tank            = base.Tank
	Gate            = base.Gate
	Pipeline        = base.Pipeline
	Network         = base.Network
	GateSample      = base.GateSample
	TankSample      = base.TankSample
	GateSnapshot    = base.GateSnapshot
	DeviceSnapshot  = base.DeviceSnapshot
	FlowDirection   = base.FlowDirection
	FlowSegment     = base.FlowSegment
	PipelineFlow    = base.PipelineFlow
	PipelineStatus  = base.PipelineStatus
	PipelineResult  = base.PipelineResult
	Collector       = base.Collector
	StatusSink      = base.StatusSink
	Transformer     = base.Transformer
	Hydraulics      = base.Hydraulics
	ReadingQueue    = base.ReadingQueue
	WAL             = base.WAL
	Observability   = base.Observability
	Field           = base.Field
	QueuedReading   = base.QueuedReading
	WALEntryID      = base.WALEntryID
	WALStats        = base.WALStats
)

const (
	KindGate = base.KindGate
	KindTank = base.KindTank
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Builder helpers.
func Conf(path string, opts ...BuilderOption) (*Builder, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...BuilderOption) (*Builder, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithRuntimeOptions(opts ...RuntimeOption) BuilderOption {
	return base.WithRuntimeOptions(opts...)
}

func StreamInCollector(col Collector) StreamInOption {
	return base.StreamInCollector(col)
}

func StreamInQueue(q ReadingQueue) StreamInOption {
	return base.StreamInQueue(q)
}

func StreamInWAL(w WAL) StreamInOption {
	return base.StreamInWAL(w)
}

func StreamInNetwork(n *Network) StreamInOption {
	return base.StreamInNetwork(n)
}

func StreamInObservability(obs Observability) StreamInOption {
	return base.StreamInObservability(obs)
}

func StreamOutSink(s StatusSink) StreamOutOption {
	return base.StreamOutSink(s)
}

func StreamOutTransformer(tr Transformer) StreamOutOption {
	return base.StreamOutTransformer(tr)
}

func StreamOutHydraulics(h Hydraulics) StreamOutOption {
	return base.StreamOutHydraulics(h)
}

func StreamOutObservability(obs Observability) StreamOutOption {
	return base.StreamOutObservability(obs)
}

func StreamOutCallback(name string, fn StatusBatchSink) StreamOutOption {
	return base.StreamOutCallback(name, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) RuntimeOption {
	return base.WithCollector(col)
}

func WithStatusSink(s StatusSink) RuntimeOption {
	return base.WithStatusSink(s)
}

func WithTransformer(tr Transformer) RuntimeOption {
	return base.WithTransformer(tr)
}

func WithWAL(w WAL) RuntimeOption {
	return base.WithWAL(w)
}

func WithReadingQueue(q ReadingQueue) RuntimeOption {
	return base.WithReadingQueue(q)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithHydraulics(h Hydraulics) RuntimeOption {
	return base.WithHydraulics(h)
}

func WithNetwork(n *Network) RuntimeOption {
	return base.WithNetwork(n)
}

func WithRoundHook(fn RoundFunc) RuntimeOption {
	return base.WithRoundHook(fn)
}

// Sink adapters.
func NewCallbackSink(name string, fn StatusBatchSink) StatusSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (StatusSink, <-chan []PipelineStatus, func()) {
	return base.NewChannelSink(name, buffer)
}

// Flow engine.
func Project(points []Coordinate, p Coordinate) float64 {
	return base.Project(points, p)
}

func PointAt(points []Coordinate, pos float64) Coordinate {
	return base.PointAt(points, pos)
}

func ComputeFlow(p *Pipeline, gates map[string]GateSnapshot, devices map[string]DeviceSnapshot) PipelineFlow {
	return base.ComputeFlow(p, gates, devices)
}

func LoadNetwork(path string) (*Network, error) {
	return base.LoadNetwork(path)
}

func Evaluate(n *Network) ([]PipelineResult, error) {
	return base.Evaluate(n)
}
