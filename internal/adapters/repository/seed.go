package repository

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// LoadSeed reads a YAML network description from disk.
func LoadSeed(path string) (*domain.Network, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(raw)
}

// ParseSeed decodes a YAML network description. Unknown keys are rejected so
// typos in hand-written seed files surface early.
func ParseSeed(raw []byte) (*domain.Network, error) {
	var n domain.Network
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode network seed: %w", err)
	}
	return &n, nil
}

// Seed creates every record of n: tanks first, then gates, then pipelines.
// The first failure aborts seeding.
func Seed(n *domain.Network, tanks ports.TankRepository, gates ports.GateRepository, pipelines ports.PipelineRepository) error {
	if n == nil {
		return nil
	}
	for _, t := range n.Tanks {
		if _, err := tanks.Create(t); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, g := range n.Gates {
		if _, err := gates.Create(g); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	for _, p := range n.Pipelines {
		if _, err := pipelines.Create(p); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}
