// Package flow decides which stretches of a pipeline carry water.
//
// Positions along a pipeline are index weighted: each of the N-1 segments
// between consecutive vertices covers 1/(N-1) of the [0,1] range regardless
// of its physical length.
package flow

import (
	"math"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

// Project maps p onto the polyline and returns its position in [0,1].
// Coordinates are treated as a flat plane (longitude x, latitude y), which is
// accurate enough at neighbourhood scale. The closest segment wins; ties keep
// the earliest segment. Fewer than two points yields 0.
func Project(points []domain.Coordinate, p domain.Coordinate) float64 {
	if len(points) < 2 {
		return 0
	}

	var (
		minDist = math.Inf(1)
		bestSeg int
		bestT   float64
	)
	for i := 0; i < len(points)-1; i++ {
		dist, t := distanceToSegment(p, points[i], points[i+1])
		if dist < minDist {
			minDist = dist
			bestSeg = i
			bestT = t
		}
	}

	return (float64(bestSeg) + bestT) / float64(len(points)-1)
}

// distanceToSegment returns the distance from p to the closest point of
// segment a→b and that point's parameter t in [0,1]. Degenerate segments
// report an infinite distance so they never win.
func distanceToSegment(p, a, b domain.Coordinate) (float64, float64) {
	dx := b.Lng - a.Lng
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Inf(1), 0
	}

	t := ((p.Lng-a.Lng)*dx + (p.Lat-a.Lat)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	closestLng := a.Lng + t*dx
	closestLat := a.Lat + t*dy
	return math.Hypot(p.Lng-closestLng, p.Lat-closestLat), t
}

// PointAt is the inverse of Project: it returns the coordinate found at
// position pos on the polyline.
func PointAt(points []domain.Coordinate, pos float64) domain.Coordinate {
	switch {
	case len(points) == 0:
		return domain.Coordinate{}
	case len(points) == 1 || pos <= 0:
		return points[0]
	case pos >= 1:
		return points[len(points)-1]
	}

	scaled := pos * float64(len(points)-1)
	seg := int(math.Floor(scaled))
	if seg >= len(points)-1 {
		return points[len(points)-1]
	}
	t := scaled - float64(seg)
	a, b := points[seg], points[seg+1]
	return domain.Coordinate{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}
}
