package aquaflow

import (
	"context"
	"fmt"
)

// Builder is a convenience that lets callers say Conf → StreamIN → StreamOUT
// without touching the underlying hexagonal wiring.
type Builder struct {
	cfg  *Config
	opts []RuntimeOption
}

// BuilderOption mutates the Builder after configuration is loaded.
type BuilderOption func(*Builder)

// StreamInOption configures the collector/WAL/queue side of the runtime.
type StreamInOption func(*Builder)

// StreamOutOption configures the sink/transformer/observability side of the runtime.
type StreamOutOption func(*Builder)

// Conf loads YAML from disk, applies BuilderOption values, and returns a Builder.
func Conf(path string, opts ...BuilderOption) (*Builder, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Builder from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...BuilderOption) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	b := &Builder{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (b *Builder) Config() *Config {
	if b == nil {
		return nil
	}
	return b.cfg
}

// Options appends raw RuntimeOption values to the builder for advanced scenarios.
func (b *Builder) Options(opts ...RuntimeOption) *Builder {
	if b == nil {
		return nil
	}
	b.appendOptions(opts...)
	return b
}

// StreamIN records collector-side overrides (collector, WAL, queue, network, observability).
func (b *Builder) StreamIN(opts ...StreamInOption) *Builder {
	if b == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// StreamOUT records sink-side overrides and builds a Runtime ready to run.
func (b *Builder) StreamOUT(opts ...StreamOutOption) (*Runtime, error) {
	if b == nil {
		return nil, fmt.Errorf("builder is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return NewRuntime(b.cfg, b.opts...)
}

// Run is a shortcut for StreamOUT + runtime.Run.
func (b *Builder) Run(ctx context.Context, opts ...StreamOutOption) error {
	rt, err := b.StreamOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithRuntimeOptions appends RuntimeOption values during Conf.
func WithRuntimeOptions(opts ...RuntimeOption) BuilderOption {
	return func(b *Builder) {
		if b != nil {
			b.appendOptions(opts...)
		}
	}
}

// StreamInCollector injects a custom collector (MQTT, Modbus, simulators, etc.).
func StreamInCollector(col Collector) StreamInOption {
	return func(b *Builder) {
		if b != nil && col != nil {
			b.appendOptions(WithCollector(col))
		}
	}
}

// StreamInQueue swaps the in-memory queue for a caller-provided implementation.
func StreamInQueue(q ReadingQueue) StreamInOption {
	return func(b *Builder) {
		if b != nil && q != nil {
			b.appendOptions(WithReadingQueue(q))
		}
	}
}

// StreamInWAL lets callers bring their own WAL implementation.
func StreamInWAL(w WAL) StreamInOption {
	return func(b *Builder) {
		if b != nil && w != nil {
			b.appendOptions(WithWAL(w))
		}
	}
}

// StreamInNetwork seeds the runtime from an in-memory network description.
func StreamInNetwork(n *Network) StreamInOption {
	return func(b *Builder) {
		if b != nil && n != nil {
			b.appendOptions(WithNetwork(n))
		}
	}
}

// StreamInObservability overrides the default Prometheus-based observability stack.
func StreamInObservability(obs Observability) StreamInOption {
	return func(b *Builder) {
		if b != nil && obs != nil {
			b.appendOptions(WithObservability(obs))
		}
	}
}

// StreamOutSink injects a custom StatusSink implementation.
func StreamOutSink(s StatusSink) StreamOutOption {
	return func(b *Builder) {
		if b != nil && s != nil {
			b.appendOptions(WithStatusSink(s))
		}
	}
}

// StreamOutTransformer overrides the default no-op transformer applied before readings reach live state.
func StreamOutTransformer(tr Transformer) StreamOutOption {
	return func(b *Builder) {
		if b != nil && tr != nil {
			b.appendOptions(WithTransformer(tr))
		}
	}
}

// StreamOutHydraulics overrides the flow rate and pressure estimator.
func StreamOutHydraulics(h Hydraulics) StreamOutOption {
	return func(b *Builder) {
		if b != nil && h != nil {
			b.appendOptions(WithHydraulics(h))
		}
	}
}

// StreamOutObservability replaces the default observability backend.
func StreamOutObservability(obs Observability) StreamOutOption {
	return func(b *Builder) {
		if b != nil && obs != nil {
			b.appendOptions(WithObservability(obs))
		}
	}
}

// StreamOutCallback installs a sink built from a simple callback function.
func StreamOutCallback(name string, fn StatusBatchSink) StreamOutOption {
	return func(b *Builder) {
		if b != nil {
			b.appendOptions(WithStatusSink(NewCallbackSink(name, fn)))
		}
	}
}

func (b *Builder) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			b.opts = append(b.opts, opt)
		}
	}
}
