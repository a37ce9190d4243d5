package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

// Hydraulics estimates flow rate and pressure for a pipeline from its
// computed flow state. The flow engine itself models neither.
type Hydraulics interface {
	Estimate(p domain.Pipeline, f domain.PipelineFlow) (flowRate, pressure float64)
}
