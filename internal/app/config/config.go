package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/AquaFlow/internal/adapters/opcua"
	"github.com/ghalamif/AquaFlow/internal/adapters/simulator"
	"github.com/ghalamif/AquaFlow/internal/adapters/state"
	"github.com/ghalamif/AquaFlow/internal/app/logging"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

type Config struct {
	Policy    ports.Policy     `yaml:"policy"`
	OPCUA     opcua.Config     `yaml:"opcua"`
	Simulator simulator.Config `yaml:"simulator"`
	Timescale TimescaleConfig  `yaml:"timescale"`
	Metrics   MetricsConfig    `yaml:"metrics"`
	API       APIConfig        `yaml:"api"`
	WAL       WALConfig        `yaml:"wal"`
	Network   NetworkConfig    `yaml:"network"`
	Refresh   RefreshConfig    `yaml:"refresh"`
	History   HistoryConfig    `yaml:"history"`
	Log       logging.Config   `yaml:"log"`
}

// TimescaleConfig configures the pipeline status sink. An empty conn string
// disables persistence.
type TimescaleConfig struct {
	ConnString string `yaml:"conn_string"`
	Table      string `yaml:"table"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type APIConfig struct {
	Addr string `yaml:"addr"`
}

type WALConfig struct {
	Dir string `yaml:"dir"`
}

// NetworkConfig points at the YAML file with the tanks, gates and pipelines
// to load at start.
type NetworkConfig struct {
	SeedPath string `yaml:"seed_path"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// HistoryConfig bounds the samples kept per device and statuses per pipeline.
type HistoryConfig struct {
	Gate     int `yaml:"gate"`
	Tank     int `yaml:"tank"`
	Pipeline int `yaml:"pipeline"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Policy.MaxWALSizeBytes == 0 {
		c.Policy.MaxWALSizeBytes = 10 << 30
	}
	if c.Policy.MaxQueueLen == 0 {
		c.Policy.MaxQueueLen = 100_000
	}
	if c.Policy.MaxBatchSize == 0 {
		c.Policy.MaxBatchSize = 5_000
	}
	if c.Policy.IdleSleep == 0 {
		c.Policy.IdleSleep = 5 * time.Millisecond
	}
	if c.Policy.OnQueueFull == "" {
		c.Policy.OnQueueFull = "block"
	}
	if c.Policy.OnWALFull == "" {
		c.Policy.OnWALFull = "block"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Timescale.Table == "" {
		c.Timescale.Table = "pipeline_flow"
	}
	if c.WAL.Dir == "" {
		c.WAL.Dir = "./data/wal"
	}
	if c.Refresh.Interval <= 0 {
		c.Refresh.Interval = 5 * time.Minute
	}
	if c.History.Gate <= 0 {
		c.History.Gate = state.GateHistory
	}
	if c.History.Tank <= 0 {
		c.History.Tank = state.TankHistory
	}
	if c.History.Pipeline <= 0 {
		c.History.Pipeline = state.PipelineHistory
	}

	if c.OPCUA.Endpoint != "" {
		c.OPCUA.ApplyDefaults()
	}
	c.Simulator.ApplyDefaults()
	c.Log.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.OPCUA.Endpoint == "" && !c.Simulator.Enabled {
		return errors.New("a telemetry source is required: set opcua.endpoint or enable the simulator")
	}
	if c.OPCUA.Endpoint != "" {
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	}
	if c.Network.SeedPath == "" {
		return errors.New("network.seed_path is required")
	}
	if c.Metrics.Addr == "" {
		return errors.New("metrics.addr is required")
	}
	if c.WAL.Dir == "" {
		return errors.New("wal.dir is required")
	}
	if err := validatePolicy(c.Policy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}

func validatePolicy(p ports.Policy) error {
	switch p.OnWALFull {
	case "block", "drop":
	default:
		return fmt.Errorf("on_wal_full must be block or drop, got %q", p.OnWALFull)
	}
	switch p.OnQueueFull {
	case "block", "drop", "reject":
	default:
		return fmt.Errorf("on_queue_full must be block, drop or reject, got %q", p.OnQueueFull)
	}
	return nil
}
