package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

// Transformer calibrates or enriches a reading before it is applied to live state.
type Transformer interface {
	Transform(*domain.Reading) (*domain.Reading, error)
	Version() uint16
}
