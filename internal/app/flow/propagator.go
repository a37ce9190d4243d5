package flow

import (
	"sort"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

// GatePosition is a resolved gate placed on a pipeline.
type GatePosition struct {
	ID       string
	Position float64
	Open     bool
}

// Compute walks the pipeline from source to outlet and returns its flow
// segments. Water reaching a gate keeps the state it had upstream of the gate;
// a closed gate dries every segment after it, and no later gate can restore
// flow. Unknown gates and devices are ignored. Compute never fails on data
// problems, but panics on a nil pipeline.
func Compute(p *domain.Pipeline, gates map[string]domain.GateSnapshot, devices map[string]domain.DeviceSnapshot) domain.PipelineFlow {
	if p == nil {
		panic("flow: Compute called with nil pipeline")
	}
	if len(p.Points) < 2 {
		seg := domain.FlowSegment{Start: 0, End: 1}
		if len(p.Points) == 1 {
			seg.StartPoint, seg.EndPoint = p.Points[0], p.Points[0]
		}
		return domain.PipelineFlow{Segments: []domain.FlowSegment{seg}}
	}

	current := HasSource(p, devices)
	positions := Positions(p, gates)

	if len(positions) == 0 {
		return aggregate([]domain.FlowSegment{{
			Start:      0,
			End:        1,
			HasFlow:    current,
			StartPoint: p.Points[0],
			EndPoint:   p.Points[len(p.Points)-1],
		}})
	}

	segments := make([]domain.FlowSegment, 0, len(positions)+1)
	cursor := 0.0
	for _, g := range positions {
		if g.Position > cursor {
			segments = append(segments, domain.FlowSegment{
				Start:      cursor,
				End:        g.Position,
				HasFlow:    current,
				StartPoint: PointAt(p.Points, cursor),
				EndPoint:   PointAt(p.Points, g.Position),
				BeforeGate: g.ID,
			})
		}
		if !g.Open {
			current = false
		}
		cursor = g.Position
	}

	if cursor < 1 {
		segments = append(segments, domain.FlowSegment{
			Start:      cursor,
			End:        1,
			HasFlow:    current,
			StartPoint: PointAt(p.Points, cursor),
			EndPoint:   p.Points[len(p.Points)-1],
			AfterGate:  positions[len(positions)-1].ID,
		})
	}

	return aggregate(segments)
}

// HasSource reports whether water enters the pipeline. A pipeline without
// attached devices is assumed to be fed.
func HasSource(p *domain.Pipeline, devices map[string]domain.DeviceSnapshot) bool {
	if len(p.DeviceIDs) == 0 {
		return true
	}
	for _, id := range p.DeviceIDs {
		if d, ok := devices[id]; ok && d.Supplies() {
			return true
		}
	}
	return false
}

// Positions resolves the pipeline's gates against the snapshot set and sorts
// them from source to outlet. Gates sharing a position keep their attachment order.
func Positions(p *domain.Pipeline, gates map[string]domain.GateSnapshot) []GatePosition {
	out := make([]GatePosition, 0, len(p.GateIDs))
	for _, id := range p.GateIDs {
		g, ok := gates[id]
		if !ok {
			continue
		}
		out = append(out, GatePosition{
			ID:       id,
			Position: Project(p.Points, g.Location),
			Open:     g.IsOpen(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

func aggregate(segments []domain.FlowSegment) domain.PipelineFlow {
	f := domain.PipelineFlow{Segments: segments}
	for _, s := range segments {
		if s.HasFlow {
			f.OverallFlow = true
			break
		}
	}
	return f
}
