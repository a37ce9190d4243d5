package flow

import (
	"math"
	"testing"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

var bentLine = []domain.Coordinate{
	{Lat: 17.3850, Lng: 78.4867},
	{Lat: 17.3900, Lng: 78.4867},
	{Lat: 17.3900, Lng: 78.4950},
	{Lat: 17.4000, Lng: 78.5000},
}

func TestProjectVerticesMapToOrdinalIndex(t *testing.T) {
	segments := float64(len(bentLine) - 1)
	for i, v := range bentLine {
		want := float64(i) / segments
		if got := Project(bentLine, v); got != want {
			t.Fatalf("vertex %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestProjectIsIdempotent(t *testing.T) {
	p := domain.Coordinate{Lat: 17.3912, Lng: 78.4901}
	first := Project(bentLine, p)
	if second := Project(bentLine, p); first != second {
		t.Fatalf("expected identical positions, got %v and %v", first, second)
	}
	if first < 0 || first > 1 {
		t.Fatalf("position %v out of range", first)
	}
}

func TestProjectPerpendicularFoot(t *testing.T) {
	line := []domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}}

	// Above the middle of the first segment.
	if got := Project(line, domain.Coordinate{Lat: 0.1, Lng: 1}); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
	// Beside the middle of the second segment.
	if got := Project(line, domain.Coordinate{Lat: 1, Lng: 2.1}); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestProjectClampsOutsideExtent(t *testing.T) {
	line := []domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	if got := Project(line, domain.Coordinate{Lat: 0, Lng: -5}); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
	if got := Project(line, domain.Coordinate{Lat: 3, Lng: 7}); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
}

func TestProjectTieKeepsEarliestSegment(t *testing.T) {
	// Out-and-back line: every point is equally close to both segments.
	line := []domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 0}}
	got := Project(line, domain.Coordinate{Lat: 1, Lng: 0.5})
	if got != 0.25 {
		t.Fatalf("expected first segment to win the tie (0.25), got %v", got)
	}
}

func TestProjectSkipsRepeatedVertex(t *testing.T) {
	line := []domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}}
	if got := Project(line, domain.Coordinate{Lat: 0, Lng: 0.5}); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestProjectDegenerate(t *testing.T) {
	if got := Project(nil, domain.Coordinate{Lat: 1, Lng: 1}); got != 0 {
		t.Fatalf("expected 0 for empty line, got %v", got)
	}
	if got := Project([]domain.Coordinate{{Lat: 1, Lng: 1}}, domain.Coordinate{}); got != 0 {
		t.Fatalf("expected 0 for single point, got %v", got)
	}
}

func TestPointAtInterpolates(t *testing.T) {
	line := []domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 2}, {Lat: 2, Lng: 2}}
	cases := map[float64]domain.Coordinate{
		-1:   {Lat: 0, Lng: 0},
		0:    {Lat: 0, Lng: 0},
		0.25: {Lat: 0, Lng: 1},
		0.5:  {Lat: 0, Lng: 2},
		0.75: {Lat: 1, Lng: 2},
		1:    {Lat: 2, Lng: 2},
		4:    {Lat: 2, Lng: 2},
	}
	for pos, want := range cases {
		got := PointAt(line, pos)
		if math.Abs(got.Lat-want.Lat) > 1e-12 || math.Abs(got.Lng-want.Lng) > 1e-12 {
			t.Fatalf("pos %v: expected %+v, got %+v", pos, want, got)
		}
	}
}
