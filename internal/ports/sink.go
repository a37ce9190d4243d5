package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

// StatusSink receives the pipeline statuses produced by each refresh round.
type StatusSink interface {
	WriteBatch(statuses []*domain.PipelineStatus) error
	Name() string
}
