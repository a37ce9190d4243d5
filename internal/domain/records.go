package domain

import (
	"math"
	"time"
)

const (
	DefaultCountry         = "India"
	DefaultTankType        = "ohsr"
	DefaultTankCapacity    = 1000
	DefaultGateType        = "straight"
	DefaultFirmwareVersion = "v1.0.0"
	DefaultMaterial        = "PVC"
	DefaultDiameter        = 100
)

// Region places an asset in the administrative hierarchy.
type Region struct {
	Country    string `json:"country" yaml:"country"`
	State      string `json:"state" yaml:"state"`
	District   string `json:"district" yaml:"district"`
	Mandal     string `json:"mandal" yaml:"mandal"`
	Habitation string `json:"habitation" yaml:"habitation"`
}

// Tank is an overhead service reservoir or any other upstream source.
type Tank struct {
	ID                 string     `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	Type               string     `json:"type" yaml:"type"`
	Capacity           float64    `json:"capacity" yaml:"capacity"`
	Region             Region     `json:"region" yaml:"region"`
	Location           Coordinate `json:"location" yaml:"location"`
	Altitude           float64    `json:"altitude" yaml:"altitude"`
	ConnectedPipelines []string   `json:"connectedPipelines" yaml:"connected_pipelines"`
	CreatedAt          time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt          time.Time  `json:"updatedAt" yaml:"-"`
}

// Gate is a directional control gate wall installed along pipelines.
type Gate struct {
	ID                 string     `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	Type               string     `json:"type" yaml:"type"`
	Region             Region     `json:"region" yaml:"region"`
	Location           Coordinate `json:"location" yaml:"location"`
	Altitude           float64    `json:"altitude" yaml:"altitude"`
	ConnectedPipelines []string   `json:"connectedPipelines" yaml:"connected_pipelines"`
	InstallationDate   time.Time  `json:"installationDate" yaml:"installation_date"`
	FirmwareVersion    string     `json:"firmwareVersion" yaml:"firmware_version"`
	ControllerID       string     `json:"controllerId" yaml:"controller_id"`
	CreatedAt          time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt          time.Time  `json:"updatedAt" yaml:"-"`
}

// Pipeline is a polyline from its source (first point) to its outlet (last point).
type Pipeline struct {
	ID        string       `json:"id" yaml:"id"`
	Name      string       `json:"name" yaml:"name"`
	Points    []Coordinate `json:"points" yaml:"points"`
	GateIDs   []string     `json:"connectedGateWalls" yaml:"connected_gate_walls"`
	DeviceIDs []string     `json:"connectedDevices" yaml:"connected_devices"`
	Material  string       `json:"material" yaml:"material"`
	Diameter  float64      `json:"diameter" yaml:"diameter"`
	Length    float64      `json:"length" yaml:"length"`
	CreatedAt time.Time    `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time    `json:"updatedAt" yaml:"-"`
}

func (r *Region) applyDefaults() {
	if r.Country == "" {
		r.Country = DefaultCountry
	}
}

// ApplyDefaults fills optional fields the way records are created in the field tools.
func (t *Tank) ApplyDefaults() {
	if t.Type == "" {
		t.Type = DefaultTankType
	}
	if t.Capacity == 0 {
		t.Capacity = DefaultTankCapacity
	}
	if t.ConnectedPipelines == nil {
		t.ConnectedPipelines = []string{}
	}
	t.Region.applyDefaults()
}

func (t *Tank) Validate() error {
	if t.ID == "" {
		return missing("id")
	}
	if t.Name == "" {
		return missing("name")
	}
	if t.Capacity < 0 {
		return invalid("capacity", "must not be negative")
	}
	return validateLocation(t.Location)
}

func (g *Gate) ApplyDefaults(now time.Time) {
	if g.Type == "" {
		g.Type = DefaultGateType
	}
	if g.FirmwareVersion == "" {
		g.FirmwareVersion = DefaultFirmwareVersion
	}
	if g.InstallationDate.IsZero() {
		g.InstallationDate = now
	}
	if g.ConnectedPipelines == nil {
		g.ConnectedPipelines = []string{}
	}
	g.Region.applyDefaults()
}

func (g *Gate) Validate() error {
	if g.ID == "" {
		return missing("id")
	}
	if g.Name == "" {
		return missing("name")
	}
	return validateLocation(g.Location)
}

func (p *Pipeline) ApplyDefaults() {
	if p.Material == "" {
		p.Material = DefaultMaterial
	}
	if p.Diameter == 0 {
		p.Diameter = DefaultDiameter
	}
	if p.GateIDs == nil {
		p.GateIDs = []string{}
	}
	if p.DeviceIDs == nil {
		p.DeviceIDs = []string{}
	}
}

func (p *Pipeline) Validate() error {
	if p.ID == "" {
		return missing("id")
	}
	if p.Name == "" {
		return missing("name")
	}
	return validatePoints(p.Points)
}

func validatePoints(points []Coordinate) error {
	if len(points) < 2 {
		return invalid("points", "must have at least 2 coordinate pairs")
	}
	for _, pt := range points {
		if err := validateLocation(pt); err != nil {
			return invalid("points", err.Error())
		}
	}
	return nil
}

func validateLocation(c Coordinate) error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return invalid("latitude", "out of range")
	}
	if math.IsNaN(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return invalid("longitude", "out of range")
	}
	return nil
}
