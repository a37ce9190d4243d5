package aquaflow

import (
	"github.com/ghalamif/AquaFlow/internal/adapters/opcua"
	"github.com/ghalamif/AquaFlow/internal/adapters/simulator"
	"github.com/ghalamif/AquaFlow/internal/app/config"
	"github.com/ghalamif/AquaFlow/internal/app/logging"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// Policy controls WAL/queue thresholds.
	Policy = ports.Policy
	// OPCUAConfig holds connection + node details.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps a monitored tag to a device field.
	OPCUANodeConfig = opcua.NodeConfig
	// SimulatorConfig configures the synthetic telemetry source.
	SimulatorConfig = simulator.Config
	// TimescaleConfig configures the pipeline status sink.
	TimescaleConfig = config.TimescaleConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// APIConfig configures the JSON API server.
	APIConfig = config.APIConfig
	// WALConfig configures on-disk durability.
	WALConfig = config.WALConfig
	// NetworkConfig points at the network seed file.
	NetworkConfig = config.NetworkConfig
	// RefreshConfig sets the flow refresh cadence.
	RefreshConfig = config.RefreshConfig
	// HistoryConfig bounds the state kept per device and pipeline.
	HistoryConfig = config.HistoryConfig
	// LogConfig configures the zap logger.
	LogConfig = logging.Config
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
