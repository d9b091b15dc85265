// Package geo provides the small set of Euclidean primitives the
// multilateration solver and occlusion checker are built on: N-dimensional
// points, circle/sphere intersection, triangle-inequality feasibility and
// line-of-sight tests against circular obstacles.
//
// Points are plain float64 slices so the same code paths serve 2D and 3D;
// callers are expected to keep dimensions consistent within one operation.
package geo

import "math"

// Point is a position in 2 or 3 dimensions.
type Point []float64

// Pt2 builds a 2D point.
func Pt2(x, y float64) Point { return Point{x, y} }

// Pt3 builds a 3D point.
func Pt3(x, y, z float64) Point { return Point{x, y, z} }

// Dim returns the dimensionality of the point.
func (p Point) Dim() int { return len(p) }

// Clone returns an independent copy of the point.
func (p Point) Clone() Point {
	out := make(Point, len(p))
	copy(out, p)
	return out
}

// Sub returns p - q. Both points must share a dimension.
func (p Point) Sub(q Point) Point {
	out := make(Point, len(p))
	for i := range p {
		out[i] = p[i] - q[i]
	}
	return out
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	out := make(Point, len(p))
	for i := range p {
		out[i] = p[i] + q[i]
	}
	return out
}

// Scale returns p scaled by s.
func (p Point) Scale(s float64) Point {
	out := make(Point, len(p))
	for i := range p {
		out[i] = p[i] * s
	}
	return out
}

// Dot returns the dot product of p and q.
func (p Point) Dot(q Point) float64 {
	var sum float64
	for i := range p {
		sum += p[i] * q[i]
	}
	return sum
}

// Norm returns the Euclidean norm of p.
func (p Point) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	var sum float64
	for i := range p {
		d := p[i] - q[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// IsFinite reports whether every coordinate is a finite number.
func (p Point) IsFinite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Centroid returns the arithmetic mean of the given points, or nil for an
// empty input. All points must share a dimension.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return nil
	}
	out := make(Point, len(pts[0]))
	for _, p := range pts {
		for i := range out {
			out[i] += p[i]
		}
	}
	inv := 1.0 / float64(len(pts))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// WeightedCentroid returns the centroid of pts weighted by w. Zero or
// negative total weight falls back to the unweighted centroid.
func WeightedCentroid(pts []Point, w []float64) Point {
	if len(pts) == 0 || len(pts) != len(w) {
		return Centroid(pts)
	}
	var total float64
	for _, v := range w {
		total += v
	}
	if total <= 0 {
		return Centroid(pts)
	}
	out := make(Point, len(pts[0]))
	for k, p := range pts {
		for i := range out {
			out[i] += p[i] * w[k]
		}
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// TriangleInequalityOK reports whether three pairwise distances can belong to
// a real triangle, within an absolute tolerance that absorbs measurement
// noise. dAB is the side opposite the tested pair; the check fails when
// dAC + dBC < dAB - tol, i.e. the two legs cannot reach across the base.
func TriangleInequalityOK(dAB, dAC, dBC, tol float64) bool {
	return dAC+dBC >= dAB-tol
}
