package ports

import "github.com/ghalamif/AquaFlow/internal/domain"

// Collector streams field readings (OPC UA, simulators, gateways) into the pipeline.
type Collector interface {
	Start(out chan<- *domain.Reading) error
	Stop() error
}
