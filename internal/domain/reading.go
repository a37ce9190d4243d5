package domain

import (
	"fmt"
	"math"
	"time"
)

// DeviceKind tells which record family a reading belongs to.
type DeviceKind string

const (
	KindGate DeviceKind = "gate"
	KindTank DeviceKind = "tank"
)

// Field keys carried by readings. Enumerated fields travel as labels or as
// numeric codes in Values (see FlowDirections for the direction codes;
// status 1 = active, 0 = fault/inactive).
const (
	FieldFlowDirection  = "flow_direction"
	FieldStatus         = "status"
	FieldValveState     = "valve_state"
	FieldMode           = "mode"
	FieldLastCommand    = "last_command"
	FieldPressure       = "pressure"
	FieldFlowRate       = "flow_rate"
	FieldBatteryLevel   = "battery_level"
	FieldSignalStrength = "signal_strength"
	FieldTemperature    = "temperature"
	FieldWaterLevel     = "water_level"
	FieldPHLevel        = "ph_level"
)

// Reading is the canonical unit of field telemetry moving through the
// collector → WAL → queue pipeline. A reading may carry a single field
// (one OPC UA node) or a full sample (simulator); it is merged into the
// device's latest sample when applied.
type Reading struct {
	DeviceID     string             `json:"device_id" msgpack:"device_id"`
	Kind         DeviceKind         `json:"kind" msgpack:"kind"`
	Timestamp    time.Time          `json:"ts" msgpack:"ts"`
	Seq          uint64             `json:"seq" msgpack:"seq"`
	Values       map[string]float64 `json:"values,omitempty" msgpack:"values,omitempty"`
	Labels       map[string]string  `json:"labels,omitempty" msgpack:"labels,omitempty"`
	SourceNodeID string             `json:"source_node_id,omitempty" msgpack:"source_node_id,omitempty"`
	TransformVer uint16             `json:"transform_ver" msgpack:"transform_ver"`
}

// GateReading encodes a full gate sample.
func GateReading(s GateSample) *Reading {
	return &Reading{
		DeviceID:  s.GateID,
		Kind:      KindGate,
		Timestamp: s.Timestamp,
		Values: map[string]float64{
			FieldPressure:       s.Pressure,
			FieldFlowRate:       s.FlowRate,
			FieldBatteryLevel:   s.BatteryLevel,
			FieldSignalStrength: s.SignalStrength,
			FieldTemperature:    s.Temperature,
		},
		Labels: map[string]string{
			FieldFlowDirection: string(s.FlowDirection),
			FieldStatus:        string(s.Status),
			FieldValveState:    s.ValveState,
			FieldMode:          s.Mode,
			FieldLastCommand:   s.LastCommand,
		},
	}
}

// TankReading encodes a full tank sample.
func TankReading(s TankSample) *Reading {
	return &Reading{
		DeviceID:  s.TankID,
		Kind:      KindTank,
		Timestamp: s.Timestamp,
		Values: map[string]float64{
			FieldWaterLevel:  s.WaterLevel,
			FieldPressure:    s.Pressure,
			FieldFlowRate:    s.FlowRate,
			FieldPHLevel:     s.PHLevel,
			FieldTemperature: s.Temperature,
		},
		Labels: map[string]string{
			FieldStatus: string(s.Status),
		},
	}
}

// MergeGate overlays the fields present in r onto base.
func (r *Reading) MergeGate(base GateSample) (GateSample, error) {
	if r.Kind != KindGate {
		return base, fmt.Errorf("reading %s: kind %q is not a gate", r.DeviceID, r.Kind)
	}
	out := base
	out.GateID = r.DeviceID
	out.Timestamp = r.Timestamp

	if lbl, ok := r.Labels[FieldFlowDirection]; ok && lbl != "" {
		d := FlowDirection(lbl)
		if !d.Valid() {
			return base, fmt.Errorf("reading %s: invalid flow direction %q", r.DeviceID, lbl)
		}
		out.FlowDirection = d
	} else if v, ok := r.Values[FieldFlowDirection]; ok {
		code := int(math.Round(v))
		if code < 0 || code >= len(FlowDirections) {
			return base, fmt.Errorf("reading %s: invalid flow direction code %v", r.DeviceID, v)
		}
		out.FlowDirection = FlowDirections[code]
	}

	if lbl, ok := r.Labels[FieldStatus]; ok && lbl != "" {
		s := GateStatus(lbl)
		if s != GateActive && s != GateFault {
			return base, fmt.Errorf("reading %s: invalid gate status %q", r.DeviceID, lbl)
		}
		out.Status = s
	} else if v, ok := r.Values[FieldStatus]; ok {
		out.Status = GateFault
		if v >= 1 {
			out.Status = GateActive
		}
	}

	mergeLabel(&out.ValveState, r.Labels, FieldValveState)
	mergeLabel(&out.Mode, r.Labels, FieldMode)
	mergeLabel(&out.LastCommand, r.Labels, FieldLastCommand)
	mergeValue(&out.Pressure, r.Values, FieldPressure)
	mergeValue(&out.FlowRate, r.Values, FieldFlowRate)
	mergeValue(&out.BatteryLevel, r.Values, FieldBatteryLevel)
	mergeValue(&out.SignalStrength, r.Values, FieldSignalStrength)
	mergeValue(&out.Temperature, r.Values, FieldTemperature)
	return out, nil
}

// MergeTank overlays the fields present in r onto base.
func (r *Reading) MergeTank(base TankSample) (TankSample, error) {
	if r.Kind != KindTank {
		return base, fmt.Errorf("reading %s: kind %q is not a tank", r.DeviceID, r.Kind)
	}
	out := base
	out.TankID = r.DeviceID
	out.Timestamp = r.Timestamp

	if lbl, ok := r.Labels[FieldStatus]; ok && lbl != "" {
		s := DeviceStatus(lbl)
		if s != DeviceActive && s != DeviceInactive {
			return base, fmt.Errorf("reading %s: invalid tank status %q", r.DeviceID, lbl)
		}
		out.Status = s
	} else if v, ok := r.Values[FieldStatus]; ok {
		out.Status = DeviceInactive
		if v >= 1 {
			out.Status = DeviceActive
		}
	}

	if v, ok := r.Values[FieldWaterLevel]; ok {
		if v < 0 || math.IsNaN(v) {
			return base, fmt.Errorf("reading %s: invalid water level %v", r.DeviceID, v)
		}
		out.WaterLevel = v
	}
	mergeValue(&out.Pressure, r.Values, FieldPressure)
	mergeValue(&out.FlowRate, r.Values, FieldFlowRate)
	mergeValue(&out.PHLevel, r.Values, FieldPHLevel)
	mergeValue(&out.Temperature, r.Values, FieldTemperature)
	return out, nil
}

func mergeLabel(dst *string, labels map[string]string, key string) {
	if v, ok := labels[key]; ok {
		*dst = v
	}
}

func mergeValue(dst *float64, values map[string]float64, key string) {
	if v, ok := values[key]; ok {
		*dst = v
	}
}
