package domain

import "time"

// Coordinate is a geographic point. Latitude is treated as y and longitude as x
// when projecting onto a pipeline.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" msgpack:"lat"`
	Lng float64 `json:"lng" yaml:"lng" msgpack:"lng"`
}

// FlowDirection is the direction a gate wall reports water being routed.
type FlowDirection string

const (
	FlowLeft     FlowDirection = "left"
	FlowRight    FlowDirection = "right"
	FlowStraight FlowDirection = "straight"
	FlowNone     FlowDirection = "none"
)

// FlowDirections lists every valid direction in code order (0 = none).
var FlowDirections = []FlowDirection{FlowNone, FlowLeft, FlowRight, FlowStraight}

func (d FlowDirection) Valid() bool {
	switch d {
	case FlowLeft, FlowRight, FlowStraight, FlowNone:
		return true
	}
	return false
}

// GateStatus is the operational status reported by a gate controller.
type GateStatus string

const (
	GateActive GateStatus = "active"
	GateFault  GateStatus = "fault"
)

// DeviceStatus is the operational status reported by a tank.
type DeviceStatus string

const (
	DeviceActive   DeviceStatus = "active"
	DeviceInactive DeviceStatus = "inactive"
)

// GateSample is one telemetry sample reported by a gate wall.
type GateSample struct {
	GateID         string        `json:"id" yaml:"id"`
	Timestamp      time.Time     `json:"timestamp" yaml:"timestamp"`
	FlowDirection  FlowDirection `json:"flowDirection" yaml:"flow_direction"`
	ValveState     string        `json:"valveState,omitempty" yaml:"valve_state"`
	Pressure       float64       `json:"pressure" yaml:"pressure"`
	FlowRate       float64       `json:"flowRate" yaml:"flow_rate"`
	BatteryLevel   float64       `json:"batteryLevel" yaml:"battery_level"`
	SignalStrength float64       `json:"signalStrength" yaml:"signal_strength"`
	Temperature    float64       `json:"temperature" yaml:"temperature"`
	Mode           string        `json:"mode,omitempty" yaml:"mode"`
	Status         GateStatus    `json:"status" yaml:"status"`
	LastCommand    string        `json:"lastCommand,omitempty" yaml:"last_command"`
}

// Reported reports whether the sample carries both fields the flow engine
// needs. Field readings arrive one node at a time, so a fresh gate may know
// its pressure before its direction.
func (s GateSample) Reported() bool {
	return s.FlowDirection != "" && s.Status != ""
}

// TankSample is one telemetry sample reported by a tank (OHSR or sump).
type TankSample struct {
	TankID      string       `json:"tankId" yaml:"id"`
	Timestamp   time.Time    `json:"timestamp" yaml:"timestamp"`
	WaterLevel  float64      `json:"waterLevel" yaml:"water_level"`
	Pressure    float64      `json:"pressure" yaml:"pressure"`
	FlowRate    float64      `json:"flowRate" yaml:"flow_rate"`
	PHLevel     float64      `json:"phLevel" yaml:"ph_level"`
	Temperature float64      `json:"temperature" yaml:"temperature"`
	Status      DeviceStatus `json:"status" yaml:"status"`
}

// GateSnapshot is the view of a gate the flow engine works on: where it sits
// and what it last reported.
type GateSnapshot struct {
	ID            string
	Location      Coordinate
	FlowDirection FlowDirection
	Status        GateStatus
}

// IsOpen reports whether water passes the gate: it must be routing somewhere
// and be healthy.
func (g GateSnapshot) IsOpen() bool {
	return g.FlowDirection != FlowNone && g.Status == GateActive
}

// DeviceSnapshot is the view of a source device used to decide whether a
// pipeline is fed.
type DeviceSnapshot struct {
	ID         string
	Status     DeviceStatus
	WaterLevel float64
}

// Supplies reports whether the device can feed water into a pipeline.
func (d DeviceSnapshot) Supplies() bool {
	return d.Status == DeviceActive && d.WaterLevel > 0
}

// SnapshotOf builds the engine view of a gate from its record and latest sample.
func SnapshotOf(g Gate, s GateSample) GateSnapshot {
	return GateSnapshot{
		ID:            g.ID,
		Location:      g.Location,
		FlowDirection: s.FlowDirection,
		Status:        s.Status,
	}
}

// DeviceSnapshotOf builds the engine view of a tank from its latest sample.
func DeviceSnapshotOf(s TankSample) DeviceSnapshot {
	return DeviceSnapshot{ID: s.TankID, Status: s.Status, WaterLevel: s.WaterLevel}
}
