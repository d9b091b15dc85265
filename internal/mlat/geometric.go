package mlat

import (
	"math"

	"github.com/fieldline-data/position.report/internal/geo"
)

// sphereCircleSamples is the number of discrete candidates taken from each
// 3D sphere-sphere intersection circle. 24 keeps the candidate set small
// while sampling finely enough that one point lands within tolerance of the
// true intersection for realistic noise levels; the winning sample is then
// polished by the nonlinear fit, so the spacing only has to get support
// counting right, not final accuracy.
const sphereCircleSamples = 24

// solveGeometric runs the combinatorial intersection search: every anchor
// pair contributes its circle/sphere intersection points as candidates, and
// each candidate is scored by how many anchors' range constraints it
// satisfies within tolerance. The best candidate wins if its support reaches
// the dimensional minimum; otherwise the search reports no solution so the
// hybrid path can fall back to least squares.
func (c Config) solveGeometric(positions []geo.Point, distances []float64) (geo.Point, bool) {
	tol := c.tolerance()

	var candidates []geo.Point
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if c.Dimension == 2 {
				candidates = append(candidates, geo.CircleIntersection(
					positions[i], distances[i], positions[j], distances[j], tol)...)
				continue
			}
			sc, ok := geo.SphereIntersection(
				positions[i], distances[i], positions[j], distances[j], tol)
			if !ok {
				continue
			}
			candidates = append(candidates, sc.PointsOnCircle(sphereCircleSamples)...)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	minSupport := c.MinAnchors()
	var (
		best         geo.Point
		bestSupport  int
		bestResidual = math.Inf(1)
	)
	for _, cand := range candidates {
		if !cand.IsFinite() {
			continue
		}
		support := 0
		residual := 0.0
		for k := range positions {
			r := math.Abs(cand.Distance(positions[k]) - distances[k])
			if r <= tol {
				support++
				residual += r
			}
		}
		if support < minSupport {
			continue
		}
		mean := residual / float64(support)
		if support > bestSupport || (support == bestSupport && mean < bestResidual) {
			best = cand
			bestSupport = support
			bestResidual = mean
		}
	}

	if best == nil {
		return nil, false
	}

	// In 3D the candidates are discrete samples of the intersection circles,
	// so the winner can sit a fraction of the tolerance away from the true
	// position even with exact measurements. Polish it with the nonlinear fit
	// seeded at the sample, keeping the refinement only when it actually
	// lowers the total residual.
	if c.Dimension == 3 {
		if refined, err := c.refineSeed(best, positions, distances); err == nil &&
			totalResidual(refined, positions, distances) <= totalResidual(best, positions, distances) {
			best = refined
		}
	}
	return best, true
}

// totalResidual sums the absolute range residuals of a candidate over all
// anchors.
func totalResidual(cand geo.Point, positions []geo.Point, distances []float64) float64 {
	var sum float64
	for k := range positions {
		sum += math.Abs(cand.Distance(positions[k]) - distances[k])
	}
	return sum
}
