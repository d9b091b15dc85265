package geo

import "math"

// CircleIntersection returns the intersection points of two circles lying in
// the same plane, given their centers and radii. It returns zero points when
// the circles cannot meet (concentric centers, too far apart, or one nested
// inside the other), one point when they are tangent within tol, and two
// points otherwise.
//
// The tolerance widens the feasibility band: circles whose gap or overlap
// deficit is within tol are snapped to tangency instead of rejected, which
// keeps noisy range measurements usable.
func CircleIntersection(c1 Point, r1 float64, c2 Point, r2 float64, tol float64) []Point {
	d := c1.Distance(c2)
	if d == 0 {
		// Concentric circles either miss entirely or coincide; neither
		// yields a usable discrete candidate.
		return nil
	}

	switch {
	case d > r1+r2+tol:
		return nil
	case d < math.Abs(r1-r2)-tol:
		return nil
	case d > r1+r2:
		// Within tolerance of external tangency: single midpoint candidate.
		t := r1 / d
		return []Point{{
			c1[0] + (c2[0]-c1[0])*t,
			c1[1] + (c2[1]-c1[1])*t,
		}}
	}

	// Standard two-circle intersection. a is the distance from c1 to the
	// chord's foot along the center line; h the half-chord height.
	a := (d*d + r1*r1 - r2*r2) / (2 * d)
	h2 := r1*r1 - a*a
	if h2 < 0 {
		// Numerically grazing (internal tangency within tol).
		h2 = 0
	}
	h := math.Sqrt(h2)

	ex := (c2[0] - c1[0]) / d
	ey := (c2[1] - c1[1]) / d
	px := c1[0] + a*ex
	py := c1[1] + a*ey

	if h == 0 {
		return []Point{{px, py}}
	}
	return []Point{
		{px + h*ey, py - h*ex},
		{px - h*ey, py + h*ex},
	}
}

// SphereCircle is the circle produced by intersecting two spheres: its
// center, radius, and the unit normal of the plane it lies in.
type SphereCircle struct {
	Center Point
	Radius float64
	Normal Point
}

// SphereIntersection intersects two spheres. The result is the circle of
// intersection, or ok=false when the spheres cannot meet. Tangency within
// tol degenerates to a zero-radius circle.
func SphereIntersection(c1 Point, r1 float64, c2 Point, r2 float64, tol float64) (SphereCircle, bool) {
	d := c1.Distance(c2)
	if d == 0 {
		return SphereCircle{}, false
	}
	if d > r1+r2+tol || d < math.Abs(r1-r2)-tol {
		return SphereCircle{}, false
	}

	a := (d*d + r1*r1 - r2*r2) / (2 * d)
	h2 := r1*r1 - a*a
	if h2 < 0 {
		h2 = 0
	}

	normal := c2.Sub(c1).Scale(1 / d)
	center := c1.Add(normal.Scale(a))
	return SphereCircle{
		Center: center,
		Radius: math.Sqrt(h2),
		Normal: normal,
	}, true
}

// PointsOnCircle samples n evenly spaced points on a 3D intersection circle.
// Used by the geometric solver to turn a continuous sphere-sphere
// intersection into discrete candidates. Returns nil for n < 1 or a
// degenerate normal.
func (sc SphereCircle) PointsOnCircle(n int) []Point {
	if n < 1 || len(sc.Normal) != 3 {
		return nil
	}
	if sc.Radius == 0 {
		return []Point{sc.Center.Clone()}
	}

	// Build an orthonormal basis (u, v) for the circle's plane. Pick the
	// axis least aligned with the normal to avoid a near-zero cross product.
	ref := Pt3(1, 0, 0)
	if math.Abs(sc.Normal[0]) > 0.9 {
		ref = Pt3(0, 1, 0)
	}
	u := cross3(sc.Normal, ref)
	un := u.Norm()
	if un == 0 {
		return nil
	}
	u = u.Scale(1 / un)
	v := cross3(sc.Normal, u)

	pts := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		offset := u.Scale(sc.Radius * math.Cos(theta)).Add(v.Scale(sc.Radius * math.Sin(theta)))
		pts = append(pts, sc.Center.Add(offset))
	}
	return pts
}

func cross3(a, b Point) Point {
	return Pt3(
		a[1]*b[2]-a[2]*b[1],
		a[2]*b[0]-a[0]*b[2],
		a[0]*b[1]-a[1]*b[0],
	)
}
