// Package occlusion decides whether any anchor's range measurement is
// geometrically inconsistent with the rest — the signature of a blocked or
// reflected (NLOS) signal path — and suggests anchor repositioning once a
// measurement is flagged.
//
// Four independent checks contribute evidence: triangle-inequality violations
// over anchor pairs, pairwise range-circle feasibility, robust statistical
// outliers over the distance set, and line-of-sight tests against known
// obstacles. Evidence is combined into a confidence score weighted by how
// direct each check is; low-confidence results clear their flags so that
// ambiguity biases toward "not occluded" rather than needless repositioning.
package occlusion

import (
	"fmt"
	"math"
	"sort"

	"github.com/fieldline-data/position.report/internal/geo"
)

// Params tunes the checker. The zero value is not valid; use DefaultParams.
type Params struct {
	// Tolerance is the absolute feasibility band shared with the solver.
	Tolerance float64

	// ZScoreThreshold flags anchors whose robust z-score exceeds it.
	ZScoreThreshold float64

	// MinSpread gates the geometric checks: when the distances are nearly
	// uniform (max-min below this), triangle and feasibility checks are
	// skipped to avoid false positives on featureless data.
	MinSpread float64

	// MinConfidence is the floor below which flags are cleared. Ambiguous
	// evidence should not trigger repositioning.
	MinConfidence float64

	// Weights for combining evidence. LOS is weighted highest (it tests
	// against ground-truth obstacle geometry); the statistical outlier check
	// lowest (indirect evidence only).
	WeightLOS         float64
	WeightTriangle    float64
	WeightFeasibility float64
	WeightOutlier     float64
}

// DefaultParams returns the standard checker tuning.
func DefaultParams() Params {
	return Params{
		Tolerance:         0.5,
		ZScoreThreshold:   5.0,
		MinSpread:         0.5,
		MinConfidence:     0.2,
		WeightLOS:         0.40,
		WeightTriangle:    0.25,
		WeightFeasibility: 0.20,
		WeightOutlier:     0.15,
	}
}

// Result reports which anchors look occluded and how strong the evidence is.
type Result struct {
	// Flagged holds the indices of suspect anchors, sorted ascending.
	Flagged []int `json:"flagged"`

	// Reasons lists one human-readable violation per piece of evidence.
	Reasons []string `json:"reasons,omitempty"`

	// Confidence is the combined evidence strength, clamped to [0,1].
	Confidence float64 `json:"confidence"`

	// Estimate is the rough target position used for the line-of-sight
	// check, when one was computed.
	Estimate geo.Point `json:"estimate,omitempty"`
}

// IsOccluded reports whether any anchor was flagged.
func (r Result) IsOccluded() bool { return len(r.Flagged) > 0 }

// Check examines anchor positions and measured target distances for
// geometric inconsistency. Obstacles may be nil; the line-of-sight check
// only runs when obstacle geometry is supplied. Fewer than three anchors
// yields an empty result (nothing can be cross-checked).
func Check(p Params, positions []geo.Point, distances []float64, obstacles []geo.Obstacle) Result {
	if len(positions) < 3 || len(positions) != len(distances) {
		return Result{}
	}

	var (
		flagged = map[int]bool{}
		reasons []string
	)

	spread := distanceSpread(distances)
	gated := spread >= p.MinSpread

	// Evidence strength per check, each in [0,1].
	var triStrength, feasStrength, outStrength, losStrength float64

	if gated {
		triStrength = checkTriangles(p, positions, distances, flagged, &reasons)
		feasStrength = checkFeasibility(p, positions, distances, flagged, &reasons)
		if len(positions) >= 4 {
			outStrength = checkOutliers(p, distances, flagged, &reasons)
		}
	}

	var estimate geo.Point
	if len(obstacles) > 0 {
		estimate = inverseDistanceEstimate(positions, distances)
		losStrength = checkLineOfSight(positions, estimate, obstacles, flagged, &reasons)
	}

	confidence := combineEvidence(p,
		losStrength, triStrength, feasStrength, outStrength,
		len(obstacles) > 0, gated, gated && len(positions) >= 4)

	if confidence < p.MinConfidence {
		// Weak or ambiguous evidence: prefer a false negative over
		// triggering an unnecessary reposition.
		return Result{Confidence: confidence, Estimate: estimate}
	}

	idx := make([]int, 0, len(flagged))
	for i := range flagged {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	return Result{
		Flagged:    idx,
		Reasons:    reasons,
		Confidence: confidence,
		Estimate:   estimate,
	}
}

func distanceSpread(distances []float64) float64 {
	min, max := distances[0], distances[0]
	for _, d := range distances[1:] {
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return max - min
}

// severity converts an absolute violation magnitude into an evidence
// strength in [0,1]. A deficit several times the tolerance is treated as
// conclusive; marginal violations score low and are likely to be cleared by
// the confidence floor.
func severity(deficit, tol float64) float64 {
	s := deficit / (5 * tol)
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}

// checkTriangles tests every anchor pair plus the target as a triangle:
// the two target ranges must be able to span the inter-anchor baseline.
// When they cannot, the anchor with the shorter leg is the suspect — its
// signal most plausibly took an attenuated or clipped path. Returns the
// worst violation's severity.
func checkTriangles(p Params, positions []geo.Point, distances []float64, flagged map[int]bool, reasons *[]string) float64 {
	var worst float64
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			base := positions[i].Distance(positions[j])
			if geo.TriangleInequalityOK(base, distances[i], distances[j], p.Tolerance) {
				continue
			}
			deficit := base - p.Tolerance - distances[i] - distances[j]
			if s := severity(deficit, p.Tolerance); s > worst {
				worst = s
			}
			suspect := i
			if distances[j] < distances[i] {
				suspect = j
			}
			flagged[suspect] = true
			*reasons = append(*reasons, fmt.Sprintf(
				"anchor %d: triangle inequality violated against anchor %d (d%d=%.2f + d%d=%.2f < baseline %.2f)",
				suspect, i+j-suspect, i, distances[i], j, distances[j], base))
		}
	}
	return worst
}

// checkFeasibility tests whether each pair's range circles can intersect at
// all given the inter-anchor distance. On failure the anchor whose range
// deviates more from the pair-midpoint expectation is flagged. Returns the
// worst violation's severity.
func checkFeasibility(p Params, positions []geo.Point, distances []float64, flagged map[int]bool, reasons *[]string) float64 {
	var worst float64
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			base := positions[i].Distance(positions[j])
			gap := base - (distances[i] + distances[j] + p.Tolerance)
			nesting := math.Abs(distances[i]-distances[j]) - p.Tolerance - base
			deficit := math.Max(gap, nesting)
			if deficit <= 0 {
				continue
			}
			if s := severity(deficit, p.Tolerance); s > worst {
				worst = s
			}
			expected := base / 2
			suspect := i
			if math.Abs(distances[j]-expected) > math.Abs(distances[i]-expected) {
				suspect = j
			}
			flagged[suspect] = true
			*reasons = append(*reasons, fmt.Sprintf(
				"anchor %d: range circle cannot intersect anchor %d's (d%d=%.2f, d%d=%.2f, baseline %.2f)",
				suspect, i+j-suspect, i, distances[i], j, distances[j], base))
		}
	}
	return worst
}

// checkOutliers applies the robust median/MAD z-score over the distance set.
func checkOutliers(p Params, distances []float64, flagged map[int]bool, reasons *[]string) float64 {
	scores, mad := robustZScores(distances)
	if mad == 0 {
		return 0
	}

	var maxScore float64
	for i, z := range scores {
		if z > maxScore {
			maxScore = z
		}
		if z <= p.ZScoreThreshold {
			continue
		}
		flagged[i] = true
		*reasons = append(*reasons, fmt.Sprintf(
			"anchor %d: distance %.2f is a robust outlier (z=%.1f, threshold %.1f)",
			i, distances[i], z, p.ZScoreThreshold))
	}

	// Strength scales with how far past the threshold the worst score is.
	strength := maxScore / (2 * p.ZScoreThreshold)
	if strength > 1 {
		strength = 1
	}
	if maxScore <= p.ZScoreThreshold {
		return 0
	}
	return strength
}

// checkLineOfSight tests the segment from each anchor to a rough target
// estimate against the supplied obstacles.
func checkLineOfSight(positions []geo.Point, estimate geo.Point, obstacles []geo.Obstacle, flagged map[int]bool, reasons *[]string) float64 {
	if estimate == nil {
		return 0
	}
	blocked := 0
	for i, pos := range positions {
		if geo.HasLineOfSight(pos, estimate, obstacles) {
			continue
		}
		blocked++
		flagged[i] = true
		*reasons = append(*reasons, fmt.Sprintf(
			"anchor %d: line of sight to estimated target blocked by obstacle", i))
	}
	if blocked == 0 {
		return 0
	}
	// A single blocked anchor is already direct evidence; the strength only
	// partially dilutes with anchor count.
	return 0.5 + 0.5*float64(blocked)/float64(len(positions))
}

// inverseDistanceEstimate is the cheap target estimate used by the LOS
// check: anchors reporting shorter ranges pull the estimate harder.
func inverseDistanceEstimate(positions []geo.Point, distances []float64) geo.Point {
	weights := make([]float64, len(distances))
	for i, d := range distances {
		weights[i] = 1 / (d + 1e-9)
	}
	return geo.WeightedCentroid(positions, weights)
}

// combineEvidence folds per-check strengths into one confidence value,
// normalised over the checks that actually ran and clamped to [0,1].
func combineEvidence(p Params, los, tri, feas, out float64, losRan, geomRan, outRan bool) float64 {
	var sum, totalWeight float64
	if losRan {
		sum += p.WeightLOS * los
		totalWeight += p.WeightLOS
	}
	if geomRan {
		sum += p.WeightTriangle*tri + p.WeightFeasibility*feas
		totalWeight += p.WeightTriangle + p.WeightFeasibility
	}
	if outRan {
		sum += p.WeightOutlier * out
		totalWeight += p.WeightOutlier
	}
	if totalWeight == 0 {
		return 0
	}
	confidence := sum / totalWeight
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
