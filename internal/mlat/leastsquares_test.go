package mlat

import (
	"testing"

	"github.com/fieldline-data/position.report/internal/geo"
)

func TestLinearizedSeed_ExactData(t *testing.T) {
	anchors := []geo.Point{geo.Pt2(0, 0), geo.Pt2(10, 0), geo.Pt2(5, 10)}
	target := geo.Pt2(5, 3)
	distances := exactDistances(anchors, target)

	cfg := DefaultConfig()
	seed := cfg.linearizedSeed(anchors, distances)
	if seed == nil {
		t.Fatal("expected a seed for well-conditioned anchors")
	}
	if got := seed.Distance(target); got > 1e-9 {
		t.Errorf("linearized seed error = %v, want near-exact on noise-free data", got)
	}
}

func TestLinearizedSeed_RankDeficient(t *testing.T) {
	// Coincident anchors produce a zero matrix; the seed must be rejected
	// rather than returning NaN.
	anchors := []geo.Point{geo.Pt2(5, 5), geo.Pt2(5, 5), geo.Pt2(5, 5)}
	cfg := DefaultConfig()
	if seed := cfg.linearizedSeed(anchors, []float64{3, 3, 3}); seed != nil && !seed.IsFinite() {
		t.Errorf("seed must be nil or finite, got %v", seed)
	}
}

func TestSolveLeastSquares_FallsBackToCentroidSeed(t *testing.T) {
	// Coincident anchors: the QR seed fails, the centroid seed kicks in.
	// Any outcome is acceptable except a panic or a non-finite estimate.
	anchors := []geo.Point{geo.Pt2(5, 5), geo.Pt2(5, 5), geo.Pt2(5, 5)}
	cfg := DefaultConfig()
	est, err := cfg.solveLeastSquares(anchors, []float64{3, 3, 3})
	if err == nil && !est.IsFinite() {
		t.Errorf("estimate contains NaN/Inf: %v", est)
	}
}

func TestSolveGeometric_InsufficientSupport(t *testing.T) {
	// Ranges that pairwise intersect but share no common point within
	// tolerance: the geometric search must decline so the hybrid can fall
	// back, not return a poorly supported candidate.
	anchors := []geo.Point{geo.Pt2(0, 0), geo.Pt2(10, 0), geo.Pt2(5, 10)}
	distances := []float64{2, 2, 2}

	cfg := DefaultConfig()
	cfg.Tolerance = 0.1
	if est, ok := cfg.solveGeometric(anchors, distances); ok {
		t.Errorf("expected no geometric solution, got %v", est)
	}
}
