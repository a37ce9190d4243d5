// Package logging builds the process logger: a logr front-end over zap.
package logging

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string `yaml:"level"`
	// Verbosity enables logr V(n) output up to n. It overrides Level when set.
	Verbosity   int  `yaml:"verbosity"`
	Development bool `yaml:"development"`
}

func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

func (c *Config) level() (zapcore.Level, error) {
	if c.Verbosity > 0 {
		return zapcore.Level(-1 * c.Verbosity), nil
	}
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

func (c *Config) Validate() error {
	_, err := c.level()
	return err
}

// New returns a logger and a flush function to call before exit.
func New(cfg Config) (logr.Logger, func(), error) {
	cfg.ApplyDefaults()
	lvl, err := cfg.level()
	if err != nil {
		return logr.Discard(), func() {}, err
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)

	zl, err := zc.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("build logger: %w", err)
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}
