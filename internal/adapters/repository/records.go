package repository

import (
	"fmt"
	"slices"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Tanks stores tank records.
type Tanks struct {
	opts options
	t    *table[domain.Tank]
}

func NewTanks(opts ...Option) *Tanks {
	return &Tanks{opts: buildOptions(opts), t: newTable(cloneTank)}
}

func (r *Tanks) Create(t domain.Tank) (domain.Tank, error) {
	t.ApplyDefaults()
	if err := t.Validate(); err != nil {
		return domain.Tank{}, fmt.Errorf("create tank: %w", err)
	}
	now := r.opts.now()
	t.CreatedAt, t.UpdatedAt = now, now
	if err := r.t.insert(t.ID, t); err != nil {
		return domain.Tank{}, fmt.Errorf("tank %q: %w", t.ID, err)
	}
	return cloneTank(t), nil
}

func (r *Tanks) Get(id string) (domain.Tank, error) {
	t, ok := r.t.get(id)
	if !ok {
		return domain.Tank{}, fmt.Errorf("tank %q: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

func (r *Tanks) List() []domain.Tank { return r.t.list() }

func (r *Tanks) Update(id string, patch domain.TankPatch) (domain.Tank, error) {
	t, err := r.t.update(id, func(cur domain.Tank) (domain.Tank, error) {
		return patch.Apply(cur, r.opts.now())
	})
	if err != nil {
		return domain.Tank{}, fmt.Errorf("tank %q: %w", id, err)
	}
	return t, nil
}

func (r *Tanks) Delete(id string) (domain.Tank, error) {
	t, err := r.t.remove(id)
	if err != nil {
		return domain.Tank{}, fmt.Errorf("tank %q: %w", id, err)
	}
	return t, nil
}

func (r *Tanks) Clear()          { r.t.clear() }
func (r *Tanks) Version() uint64 { return r.t.ver() }

// Gates stores gate wall records.
type Gates struct {
	opts options
	t    *table[domain.Gate]
}

func NewGates(opts ...Option) *Gates {
	return &Gates{opts: buildOptions(opts), t: newTable(cloneGate)}
}

func (r *Gates) Create(g domain.Gate) (domain.Gate, error) {
	now := r.opts.now()
	g.ApplyDefaults(now)
	if err := g.Validate(); err != nil {
		return domain.Gate{}, fmt.Errorf("create gate: %w", err)
	}
	g.CreatedAt, g.UpdatedAt = now, now
	if err := r.t.insert(g.ID, g); err != nil {
		return domain.Gate{}, fmt.Errorf("gate %q: %w", g.ID, err)
	}
	return cloneGate(g), nil
}

func (r *Gates) Get(id string) (domain.Gate, error) {
	g, ok := r.t.get(id)
	if !ok {
		return domain.Gate{}, fmt.Errorf("gate %q: %w", id, domain.ErrNotFound)
	}
	return g, nil
}

func (r *Gates) List() []domain.Gate { return r.t.list() }

func (r *Gates) Update(id string, patch domain.GatePatch) (domain.Gate, error) {
	g, err := r.t.update(id, func(cur domain.Gate) (domain.Gate, error) {
		return patch.Apply(cur, r.opts.now())
	})
	if err != nil {
		return domain.Gate{}, fmt.Errorf("gate %q: %w", id, err)
	}
	return g, nil
}

func (r *Gates) Delete(id string) (domain.Gate, error) {
	g, err := r.t.remove(id)
	if err != nil {
		return domain.Gate{}, fmt.Errorf("gate %q: %w", id, err)
	}
	return g, nil
}

func (r *Gates) Clear()          { r.t.clear() }
func (r *Gates) Version() uint64 { return r.t.ver() }

// Pipelines stores pipeline records.
type Pipelines struct {
	opts options
	t    *table[domain.Pipeline]
}

func NewPipelines(opts ...Option) *Pipelines {
	return &Pipelines{opts: buildOptions(opts), t: newTable(clonePipeline)}
}

func (r *Pipelines) Create(p domain.Pipeline) (domain.Pipeline, error) {
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return domain.Pipeline{}, fmt.Errorf("create pipeline: %w", err)
	}
	now := r.opts.now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := r.t.insert(p.ID, p); err != nil {
		return domain.Pipeline{}, fmt.Errorf("pipeline %q: %w", p.ID, err)
	}
	return clonePipeline(p), nil
}

func (r *Pipelines) Get(id string) (domain.Pipeline, error) {
	p, ok := r.t.get(id)
	if !ok {
		return domain.Pipeline{}, fmt.Errorf("pipeline %q: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (r *Pipelines) List() []domain.Pipeline { return r.t.list() }

func (r *Pipelines) Update(id string, patch domain.PipelinePatch) (domain.Pipeline, error) {
	p, err := r.t.update(id, func(cur domain.Pipeline) (domain.Pipeline, error) {
		return patch.Apply(cur, r.opts.now())
	})
	if err != nil {
		return domain.Pipeline{}, fmt.Errorf("pipeline %q: %w", id, err)
	}
	return p, nil
}

func (r *Pipelines) Delete(id string) (domain.Pipeline, error) {
	p, err := r.t.remove(id)
	if err != nil {
		return domain.Pipeline{}, fmt.Errorf("pipeline %q: %w", id, err)
	}
	return p, nil
}

func (r *Pipelines) Clear()          { r.t.clear() }
func (r *Pipelines) Version() uint64 { return r.t.ver() }

func cloneTank(t domain.Tank) domain.Tank {
	t.ConnectedPipelines = slices.Clone(t.ConnectedPipelines)
	return t
}

func cloneGate(g domain.Gate) domain.Gate {
	g.ConnectedPipelines = slices.Clone(g.ConnectedPipelines)
	return g
}

func clonePipeline(p domain.Pipeline) domain.Pipeline {
	p.Points = slices.Clone(p.Points)
	p.GateIDs = slices.Clone(p.GateIDs)
	p.DeviceIDs = slices.Clone(p.DeviceIDs)
	return p
}

var (
	_ ports.TankRepository     = (*Tanks)(nil)
	_ ports.GateRepository     = (*Gates)(nil)
	_ ports.PipelineRepository = (*Pipelines)(nil)
)
