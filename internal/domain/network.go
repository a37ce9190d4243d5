package domain

// Network is a serialisable description of a whole distribution network,
// used to seed repositories and by offline flow evaluation.
type Network struct {
	Tanks     []Tank     `yaml:"tanks" json:"tanks"`
	Gates     []Gate     `yaml:"gates" json:"gates"`
	Pipelines []Pipeline `yaml:"pipelines" json:"pipelines"`

	GateSamples []GateSample `yaml:"gate_samples" json:"gateSamples,omitempty"`
	TankSamples []TankSample `yaml:"tank_samples" json:"tankSamples,omitempty"`
}
