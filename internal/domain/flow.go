package domain

import "time"

const (
	StatusColorFlowing = "#2196F3"
	StatusColorDry     = "#F44336"
)

// FlowSegment is a contiguous stretch of a pipeline sharing one flow state.
// Start and End are positions on the pipeline's [0,1] parametrization.
type FlowSegment struct {
	Start      float64    `json:"start"`
	End        float64    `json:"end"`
	HasFlow    bool       `json:"hasFlow"`
	StartPoint Coordinate `json:"startPoint"`
	EndPoint   Coordinate `json:"endPoint"`
	BeforeGate string     `json:"beforeGate,omitempty"`
	AfterGate  string     `json:"afterGate,omitempty"`
}

// PipelineFlow is the instantaneous flow picture of one pipeline.
type PipelineFlow struct {
	Segments    []FlowSegment `json:"flowSegments"`
	OverallFlow bool          `json:"overallFlow"`
}

// FlowRatio is the share of segments carrying water.
func (f PipelineFlow) FlowRatio() float64 {
	flowing := 0
	for _, s := range f.Segments {
		if s.HasFlow {
			flowing++
		}
	}
	n := len(f.Segments)
	if n < 1 {
		n = 1
	}
	return float64(flowing) / float64(n)
}

// PipelineStatus is what a refresh round publishes for a pipeline.
type PipelineStatus struct {
	PipelineID string        `json:"id"`
	Round      string        `json:"round"`
	Timestamp  time.Time     `json:"timestamp"`
	FlowActive bool          `json:"flowActive"`
	Segments   []FlowSegment `json:"flowSegments"`
	FlowRate   float64       `json:"flowRate"`
	Pressure   float64       `json:"pressure"`
	Status     string        `json:"status"`
	Color      string        `json:"color"`
	FlowRatio  float64       `json:"flowRatio"`
}

// NewPipelineStatus summarises a flow result. Hydraulic estimates are filled by the caller.
func NewPipelineStatus(pipelineID, round string, ts time.Time, f PipelineFlow) PipelineStatus {
	st := PipelineStatus{
		PipelineID: pipelineID,
		Round:      round,
		Timestamp:  ts,
		FlowActive: f.OverallFlow,
		Segments:   f.Segments,
		Status:     string(DeviceInactive),
		Color:      StatusColorDry,
		FlowRatio:  f.FlowRatio(),
	}
	if f.OverallFlow {
		st.Status = string(DeviceActive)
		st.Color = StatusColorFlowing
	}
	return st
}
