// Package network evaluates water flow over a live distribution network:
// static records from the repositories, latest telemetry from the state
// stores and the flow engine in between.
package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/ghalamif/AquaFlow/internal/app/flow"
	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Deps are the collaborators of a Service. Repositories and state stores are
// required; the rest have defaults.
type Deps struct {
	Tanks     ports.TankRepository
	Gates     ports.GateRepository
	Pipelines ports.PipelineRepository

	GateState     ports.LiveStore[domain.GateSample]
	TankState     ports.LiveStore[domain.TankSample]
	PipelineState ports.LiveStore[domain.PipelineStatus]

	Hydraulics ports.Hydraulics
	Log        logr.Logger
	Now        func() time.Time
}

// Snapshot is the engine's view of every reporting gate and device at one
// instant. Gates that have not yet reported both direction and status are
// absent.
type Snapshot struct {
	Gates   map[string]domain.GateSnapshot
	Devices map[string]domain.DeviceSnapshot
}

// RejectedReading pairs a reading with the reason it was not applied.
type RejectedReading struct {
	Reading *domain.Reading
	Err     error
}

// versions identifies the inputs a cached flow result was computed from.
type versions struct {
	tanks, gates, pipelines uint64
	gateState, tankState    uint64
}

type Service struct {
	d Deps

	applyMu sync.Mutex

	cacheMu   sync.Mutex
	flows     *cache.Cache
	cachedVer versions
}

func New(d Deps) (*Service, error) {
	if d.Tanks == nil || d.Gates == nil || d.Pipelines == nil {
		return nil, errors.New("network: tank, gate and pipeline repositories are required")
	}
	if d.GateState == nil || d.TankState == nil || d.PipelineState == nil {
		return nil, errors.New("network: gate, tank and pipeline state stores are required")
	}
	if d.Hydraulics == nil {
		d.Hydraulics = noHydraulics{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Log = d.Log.WithName("network")

	s := &Service{
		d:     d,
		flows: cache.New(cache.NoExpiration, 10*time.Minute),
	}
	s.cachedVer = s.versions()
	return s, nil
}

func (s *Service) Tanks() ports.TankRepository         { return s.d.Tanks }
func (s *Service) Gates() ports.GateRepository         { return s.d.Gates }
func (s *Service) Pipelines() ports.PipelineRepository { return s.d.Pipelines }

func (s *Service) GateState() ports.LiveStore[domain.GateSample]         { return s.d.GateState }
func (s *Service) TankState() ports.LiveStore[domain.TankSample]         { return s.d.TankState }
func (s *Service) PipelineState() ports.LiveStore[domain.PipelineStatus] { return s.d.PipelineState }

// Snapshot builds gate and device snapshots from the current records and
// latest samples. Each store is copied under its own lock.
func (s *Service) Snapshot() Snapshot {
	gateSamples := s.d.GateState.Snapshot()
	tankSamples := s.d.TankState.Snapshot()

	snap := Snapshot{
		Gates:   make(map[string]domain.GateSnapshot, len(gateSamples)),
		Devices: make(map[string]domain.DeviceSnapshot, len(tankSamples)),
	}
	for _, g := range s.d.Gates.List() {
		if sample, ok := gateSamples[g.ID]; ok && sample.Reported() {
			snap.Gates[g.ID] = domain.SnapshotOf(g, sample)
		}
	}
	for _, t := range s.d.Tanks.List() {
		if sample, ok := tankSamples[t.ID]; ok {
			snap.Devices[t.ID] = domain.DeviceSnapshotOf(sample)
		}
	}
	return snap
}

// PipelineFlow computes the current flow of one pipeline. Results are cached
// until any record or telemetry changes.
func (s *Service) PipelineFlow(id string) (domain.PipelineFlow, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if v := s.versions(); v != s.cachedVer {
		s.flows.Flush()
		s.cachedVer = v
	}
	if cached, ok := s.flows.Get(id); ok {
		return cached.(domain.PipelineFlow), nil
	}

	p, err := s.d.Pipelines.Get(id)
	if err != nil {
		return domain.PipelineFlow{}, err
	}
	snap := s.Snapshot()
	f := flow.Compute(&p, snap.Gates, snap.Devices)
	s.flows.Set(id, f, cache.DefaultExpiration)
	return f, nil
}

// Refresh evaluates every pipeline over a single snapshot, records the
// resulting statuses in the pipeline state store and returns them.
func (s *Service) Refresh(ctx context.Context) ([]*domain.PipelineStatus, error) {
	round := uuid.NewString()
	ts := s.d.Now()
	snap := s.Snapshot()
	pipelines := s.d.Pipelines.List()

	out := make([]*domain.PipelineStatus, 0, len(pipelines))
	for i := range pipelines {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		p := &pipelines[i]
		f := flow.Compute(p, snap.Gates, snap.Devices)
		st := domain.NewPipelineStatus(p.ID, round, ts, f)
		st.FlowRate, st.Pressure = s.d.Hydraulics.Estimate(*p, f)

		s.d.PipelineState.Apply(p.ID, st)
		out = append(out, &st)
	}

	s.d.Log.V(1).Info("refresh round complete", "round", round, "pipelines", len(out))
	return out, nil
}

// Status returns the last refresh result of a pipeline.
func (s *Service) Status(id string) (domain.PipelineStatus, bool) {
	return s.d.PipelineState.Current(id)
}

// ApplyReading merges r into the latest sample of its device.
func (s *Service) ApplyReading(r *domain.Reading) error {
	if r == nil {
		return errors.New("nil reading")
	}
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	switch r.Kind {
	case domain.KindGate:
		if _, err := s.d.Gates.Get(r.DeviceID); err != nil {
			return err
		}
		base, _ := s.d.GateState.Current(r.DeviceID)
		sample, err := r.MergeGate(base)
		if err != nil {
			return err
		}
		s.d.GateState.Apply(r.DeviceID, sample)
	case domain.KindTank:
		if _, err := s.d.Tanks.Get(r.DeviceID); err != nil {
			return err
		}
		base, _ := s.d.TankState.Current(r.DeviceID)
		sample, err := r.MergeTank(base)
		if err != nil {
			return err
		}
		s.d.TankState.Apply(r.DeviceID, sample)
	default:
		return fmt.Errorf("reading %s: unknown device kind %q", r.DeviceID, r.Kind)
	}
	return nil
}

// ApplyReadings applies a batch in order. Rejected readings do not stop the batch.
func (s *Service) ApplyReadings(batch []*domain.Reading) (int, []RejectedReading) {
	var (
		applied  int
		rejected []RejectedReading
	)
	for _, r := range batch {
		if err := s.ApplyReading(r); err != nil {
			rejected = append(rejected, RejectedReading{Reading: r, Err: err})
			continue
		}
		applied++
	}
	return applied, rejected
}

// ApplySamples installs full samples, typically the initial state of a seed file.
func (s *Service) ApplySamples(gates []domain.GateSample, tanks []domain.TankSample) error {
	for _, g := range gates {
		if g.Timestamp.IsZero() {
			g.Timestamp = s.d.Now()
		}
		if err := s.ApplyReading(domain.GateReading(g)); err != nil {
			return err
		}
	}
	for _, t := range tanks {
		if t.Timestamp.IsZero() {
			t.Timestamp = s.d.Now()
		}
		if err := s.ApplyReading(domain.TankReading(t)); err != nil {
			return err
		}
	}
	return nil
}

// DeviceIDs lists every gate and tank with a record.
func (s *Service) DeviceIDs() ([]string, []string) {
	gates := s.d.Gates.List()
	tanks := s.d.Tanks.List()
	gateIDs := make([]string, len(gates))
	for i, g := range gates {
		gateIDs[i] = g.ID
	}
	tankIDs := make([]string, len(tanks))
	for i, t := range tanks {
		tankIDs[i] = t.ID
	}
	return gateIDs, tankIDs
}

// DeleteGate removes the record and its telemetry.
func (s *Service) DeleteGate(id string) (domain.Gate, error) {
	g, err := s.d.Gates.Delete(id)
	if err != nil {
		return g, err
	}
	s.d.GateState.Forget(id)
	return g, nil
}

// DeleteTank removes the record and its telemetry.
func (s *Service) DeleteTank(id string) (domain.Tank, error) {
	t, err := s.d.Tanks.Delete(id)
	if err != nil {
		return t, err
	}
	s.d.TankState.Forget(id)
	return t, nil
}

// DeletePipeline removes the record and its status history.
func (s *Service) DeletePipeline(id string) (domain.Pipeline, error) {
	p, err := s.d.Pipelines.Delete(id)
	if err != nil {
		return p, err
	}
	s.d.PipelineState.Forget(id)
	return p, nil
}

func (s *Service) versions() versions {
	return versions{
		tanks:     s.d.Tanks.Version(),
		gates:     s.d.Gates.Version(),
		pipelines: s.d.Pipelines.Version(),
		gateState: s.d.GateState.Version(),
		tankState: s.d.TankState.Version(),
	}
}

type noHydraulics struct{}

func (noHydraulics) Estimate(domain.Pipeline, domain.PipelineFlow) (float64, float64) { return 0, 0 }
