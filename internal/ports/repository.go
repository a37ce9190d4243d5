package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

// TankRepository stores static tank records.
type TankRepository interface {
	Create(t domain.Tank) (domain.Tank, error)
	Get(id string) (domain.Tank, error)
	List() []domain.Tank
	Update(id string, patch domain.TankPatch) (domain.Tank, error)
	Delete(id string) (domain.Tank, error)
	Version() uint64
}

// GateRepository stores static gate wall records.
type GateRepository interface {
	Create(g domain.Gate) (domain.Gate, error)
	Get(id string) (domain.Gate, error)
	List() []domain.Gate
	Update(id string, patch domain.GatePatch) (domain.Gate, error)
	Delete(id string) (domain.Gate, error)
	Version() uint64
}

// PipelineRepository stores static pipeline records.
type PipelineRepository interface {
	Create(p domain.Pipeline) (domain.Pipeline, error)
	Get(id string) (domain.Pipeline, error)
	List() []domain.Pipeline
	Update(id string, patch domain.PipelinePatch) (domain.Pipeline, error)
	Delete(id string) (domain.Pipeline, error)
	Version() uint64
}
