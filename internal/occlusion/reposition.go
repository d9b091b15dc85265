package occlusion

import (
	"math"

	"github.com/fieldline-data/position.report/internal/geo"
)

// RepositionParams tunes the anchor repositioning search.
type RepositionParams struct {
	// RingStep is the radius increment between successive search rings.
	RingStep float64

	// MaxRadius bounds the ring search around the anchor's current position.
	MaxRadius float64

	// RingSamples is the number of candidate angles tried per ring.
	RingSamples int

	// FallbackStep is how far to push a flagged anchor away from the
	// remaining anchors' centroid when no clear ring position exists.
	FallbackStep float64
}

// DefaultRepositionParams returns the standard search tuning.
func DefaultRepositionParams() RepositionParams {
	return RepositionParams{
		RingStep:     1.0,
		MaxRadius:    6.0,
		RingSamples:  12,
		FallbackStep: 2.0,
	}
}

// SuggestRepositions proposes a new position for each flagged anchor:
// the nearest point on an expanding ring around its current position with
// clear line-of-sight to the estimated target, or — when no ring position
// within MaxRadius clears the obstacles — a fixed step directly away from
// the centroid of the unflagged anchors.
//
// The suggestions are advisory. Moving an anchor does not guarantee the
// occlusion resolves; the caller re-runs the checker next tick. Rings are
// searched in the horizontal plane, which also covers the 3D case for
// ground-level obstacles.
func SuggestRepositions(res Result, positions []geo.Point, obstacles []geo.Obstacle, p RepositionParams) map[int]geo.Point {
	if !res.IsOccluded() {
		return nil
	}

	target := res.Estimate
	if target == nil && len(positions) > 0 {
		target = geo.Centroid(positions)
	}

	flagged := make(map[int]bool, len(res.Flagged))
	for _, i := range res.Flagged {
		flagged[i] = true
	}

	var clear []geo.Point
	for i, pos := range positions {
		if !flagged[i] {
			clear = append(clear, pos)
		}
	}

	suggestions := make(map[int]geo.Point, len(res.Flagged))
	for _, i := range res.Flagged {
		if i < 0 || i >= len(positions) {
			continue
		}
		if cand, ok := searchRing(positions[i], target, obstacles, p); ok {
			suggestions[i] = cand
			continue
		}
		suggestions[i] = stepAwayFromCentroid(positions[i], clear, p.FallbackStep)
	}
	return suggestions
}

// searchRing walks expanding rings around the anchor and returns the first
// sampled position with clear line-of-sight to the target.
func searchRing(anchor, target geo.Point, obstacles []geo.Obstacle, p RepositionParams) (geo.Point, bool) {
	if target == nil || p.RingStep <= 0 || p.RingSamples < 1 {
		return nil, false
	}

	for radius := p.RingStep; radius <= p.MaxRadius+1e-9; radius += p.RingStep {
		for s := 0; s < p.RingSamples; s++ {
			theta := 2 * math.Pi * float64(s) / float64(p.RingSamples)
			cand := anchor.Clone()
			cand[0] += radius * math.Cos(theta)
			cand[1] += radius * math.Sin(theta)
			if geo.HasLineOfSight(cand, target, obstacles) {
				return cand, true
			}
		}
	}
	return nil, false
}

// stepAwayFromCentroid pushes the anchor directly away from the centroid of
// the given anchors by step units. A degenerate direction (anchor sitting on
// the centroid, or no other anchors) falls back to +x.
func stepAwayFromCentroid(anchor geo.Point, others []geo.Point, step float64) geo.Point {
	away := make(geo.Point, anchor.Dim())
	away[0] = 1

	if c := geo.Centroid(others); c != nil {
		dir := anchor.Sub(c)
		if n := dir.Norm(); n > 0 {
			away = dir.Scale(1 / n)
		}
	}
	return anchor.Add(away.Scale(step))
}
