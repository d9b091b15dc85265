package geo

// Obstacle is a circular (2D) or spherical (3D) region that blocks
// line-of-sight between an anchor and the target.
type Obstacle struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// SegmentIntersectsCircle reports whether the segment p1–p2 passes through
// the circle (or sphere) centered at c with radius r. The test finds the
// closest point on the segment to c and compares against r.
func SegmentIntersectsCircle(p1, p2, c Point, r float64) bool {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		// Degenerate segment: both endpoints coincide.
		return p1.Distance(c) <= r
	}

	// t* minimises |p1 + t v - c|^2 over t, clamped to the segment.
	t := c.Sub(p1).Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest := p1.Add(v.Scale(t))
	return closest.Distance(c) <= r
}

// HasLineOfSight reports whether the segment from observer to target clears
// every obstacle. Endpoints sitting exactly on an obstacle boundary count as
// blocked.
func HasLineOfSight(observer, target Point, obstacles []Obstacle) bool {
	for _, ob := range obstacles {
		if SegmentIntersectsCircle(observer, target, ob.Center, ob.Radius) {
			return false
		}
	}
	return true
}
