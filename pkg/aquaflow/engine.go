package aquaflow

import (
	"github.com/go-logr/logr"

	"github.com/ghalamif/AquaFlow/internal/adapters/repository"
	"github.com/ghalamif/AquaFlow/internal/adapters/state"
	"github.com/ghalamif/AquaFlow/internal/app/flow"
	"github.com/ghalamif/AquaFlow/internal/app/network"
	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Project returns where p falls along the polyline, in [0,1].
func Project(points []Coordinate, p Coordinate) float64 {
	return flow.Project(points, p)
}

// PointAt returns the coordinate at position pos of the polyline.
func PointAt(points []Coordinate, pos float64) Coordinate {
	return flow.PointAt(points, pos)
}

// ComputeFlow splits p into flow segments given the latest gate and device
// snapshots. Gates and devices missing from the maps are ignored.
func ComputeFlow(p *Pipeline, gates map[string]GateSnapshot, devices map[string]DeviceSnapshot) PipelineFlow {
	return flow.Compute(p, gates, devices)
}

// LoadNetwork reads a network description (records plus optional initial
// samples) from a YAML file.
func LoadNetwork(path string) (*Network, error) {
	return repository.LoadSeed(path)
}

// PipelineResult is the evaluated flow of one pipeline.
type PipelineResult struct {
	PipelineID string       `json:"id"`
	Name       string       `json:"name"`
	Flow       PipelineFlow `json:"flow"`
	FlowRatio  float64      `json:"flowRatio"`
}

// Evaluate loads n into a throwaway in-memory network and computes the flow
// of every pipeline in declaration order.
func Evaluate(n *Network) ([]PipelineResult, error) {
	svc, err := buildService(n, HistoryConfig{}, nil, logr.Discard())
	if err != nil {
		return nil, err
	}

	pipelines := svc.Pipelines().List()
	out := make([]PipelineResult, 0, len(pipelines))
	for _, p := range pipelines {
		f, err := svc.PipelineFlow(p.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, PipelineResult{
			PipelineID: p.ID,
			Name:       p.Name,
			Flow:       f,
			FlowRatio:  f.FlowRatio(),
		})
	}
	return out, nil
}

// buildService creates in-memory repositories and state stores, seeds them
// from n when given and returns the service over them.
func buildService(n *Network, hist HistoryConfig, hyd ports.Hydraulics, log logr.Logger) (*network.Service, error) {
	if hist.Gate <= 0 {
		hist.Gate = state.GateHistory
	}
	if hist.Tank <= 0 {
		hist.Tank = state.TankHistory
	}
	if hist.Pipeline <= 0 {
		hist.Pipeline = state.PipelineHistory
	}

	svc, err := network.New(network.Deps{
		Tanks:         repository.NewTanks(),
		Gates:         repository.NewGates(),
		Pipelines:     repository.NewPipelines(),
		GateState:     state.NewStore[domain.GateSample](hist.Gate),
		TankState:     state.NewStore[domain.TankSample](hist.Tank),
		PipelineState: state.NewStore[domain.PipelineStatus](hist.Pipeline),
		Hydraulics:    hyd,
		Log:           log,
	})
	if err != nil {
		return nil, err
	}
	if n == nil {
		return svc, nil
	}
	if err := repository.Seed(n, svc.Tanks(), svc.Gates(), svc.Pipelines()); err != nil {
		return nil, err
	}
	if err := svc.ApplySamples(n.GateSamples, n.TankSamples); err != nil {
		return nil, err
	}
	return svc, nil
}
