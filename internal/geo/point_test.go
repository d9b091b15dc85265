package geo

import (
	"math"
	"testing"
)

func TestDistance2D(t *testing.T) {
	cases := []struct {
		name string
		p, q Point
		want float64
	}{
		{"same point", Pt2(1, 2), Pt2(1, 2), 0},
		{"unit x", Pt2(0, 0), Pt2(1, 0), 1},
		{"3-4-5", Pt2(0, 0), Pt2(3, 4), 5},
		{"negative coords", Pt2(-3, -4), Pt2(0, 0), 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.Distance(tc.q); math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Distance(%v, %v) = %v, want %v", tc.p, tc.q, got, tc.want)
			}
		})
	}
}

func TestDistance3D(t *testing.T) {
	got := Pt3(1, 2, 3).Distance(Pt3(4, 6, 3))
	if math.Abs(got-5) > 1e-12 {
		t.Errorf("expected 5, got %v", got)
	}
}

func TestCentroid(t *testing.T) {
	pts := []Point{Pt2(0, 0), Pt2(10, 0), Pt2(5, 9)}
	c := Centroid(pts)
	if math.Abs(c[0]-5) > 1e-12 || math.Abs(c[1]-3) > 1e-12 {
		t.Errorf("centroid = %v, want (5, 3)", c)
	}

	if got := Centroid(nil); got != nil {
		t.Errorf("expected nil centroid for empty input, got %v", got)
	}
}

func TestWeightedCentroid(t *testing.T) {
	pts := []Point{Pt2(0, 0), Pt2(10, 0)}

	// All weight on the second point.
	c := WeightedCentroid(pts, []float64{0, 1})
	if math.Abs(c[0]-10) > 1e-12 || math.Abs(c[1]) > 1e-12 {
		t.Errorf("weighted centroid = %v, want (10, 0)", c)
	}

	// Zero total weight falls back to the plain centroid.
	c = WeightedCentroid(pts, []float64{0, 0})
	if math.Abs(c[0]-5) > 1e-12 {
		t.Errorf("zero-weight centroid = %v, want (5, 0)", c)
	}

	// Mismatched lengths fall back too.
	c = WeightedCentroid(pts, []float64{1})
	if math.Abs(c[0]-5) > 1e-12 {
		t.Errorf("mismatched-weight centroid = %v, want (5, 0)", c)
	}
}

func TestTriangleInequalityOK(t *testing.T) {
	cases := []struct {
		name            string
		dAB, dAC, dBC   float64
		tol             float64
		want            bool
	}{
		{"consistent triangle", 10, 6, 8, 0, true},
		{"exactly degenerate", 10, 4, 6, 0, true},
		{"violation", 10, 3, 4, 0, false},
		{"violation absorbed by tolerance", 10, 4.8, 4.8, 0.5, true},
		{"violation beyond tolerance", 10, 4, 4, 0.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TriangleInequalityOK(tc.dAB, tc.dAC, tc.dBC, tc.tol); got != tc.want {
				t.Errorf("TriangleInequalityOK(%v, %v, %v, %v) = %v, want %v",
					tc.dAB, tc.dAC, tc.dBC, tc.tol, got, tc.want)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !Pt2(1, 2).IsFinite() {
		t.Error("finite point reported non-finite")
	}
	if (Point{math.NaN(), 0}).IsFinite() {
		t.Error("NaN point reported finite")
	}
	if (Point{0, math.Inf(1)}).IsFinite() {
		t.Error("Inf point reported finite")
	}
}
