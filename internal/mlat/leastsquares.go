package mlat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/fieldline-data/position.report/internal/geo"
)

// solveLeastSquares fits the target position by minimising the sum of
// squared range residuals. The fit is seeded with the closed-form linearized
// solution (QR on the difference-of-squares system) when that system is
// solvable, and with the anchor centroid otherwise, then refined with
// gonum's nonlinear minimiser.
func (c Config) solveLeastSquares(positions []geo.Point, distances []float64) (geo.Point, error) {
	seed := c.linearizedSeed(positions, distances)
	if seed == nil {
		seed = geo.Centroid(positions)
	}
	if seed == nil || !seed.IsFinite() {
		return nil, ErrDegenerateGeometry
	}
	return c.refineSeed(seed, positions, distances)
}

// refineSeed runs the nonlinear residual minimisation from the given seed.
// It is shared with the geometric strategy, which uses it to polish its
// winning candidate.
func (c Config) refineSeed(seed geo.Point, positions []geo.Point, distances []float64) (geo.Point, error) {
	objective := func(x []float64) float64 {
		var sum float64
		for k := range positions {
			r := geo.Point(x).Distance(positions[k]) - distances[k]
			sum += r * r
		}
		return sum
	}

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, seed, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonConvergence, err)
	}
	if err := result.Status.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNonConvergence, err)
	}

	estimate := geo.Point(result.X)
	if !estimate.IsFinite() {
		return nil, ErrDegenerateGeometry
	}
	return estimate, nil
}

// linearizedSeed solves the standard linearization of the range equations:
// subtracting the last anchor's equation from each of the others cancels the
// quadratic term and leaves the linear system A x = b with rows
// 2 (ref - p_i) and b_i = d_i² - d_ref² - |p_i|² + |ref|². Returns nil when
// the system is unsolvable (rank-deficient geometry), leaving seeding to the
// caller.
func (c Config) linearizedSeed(positions []geo.Point, distances []float64) geo.Point {
	n := len(positions)
	dim := c.Dimension
	if n < dim+1 {
		return nil
	}

	ref := positions[n-1]
	refDistSq := distances[n-1] * distances[n-1]
	refNormSq := ref.Dot(ref)

	rows := n - 1
	aData := make([]float64, rows*dim)
	bData := make([]float64, rows)
	for i := 0; i < rows; i++ {
		p := positions[i]
		for j := 0; j < dim; j++ {
			aData[i*dim+j] = 2 * (ref[j] - p[j])
		}
		bData[i] = distances[i]*distances[i] - refDistSq - p.Dot(p) + refNormSq
	}

	A := mat.NewDense(rows, dim, aData)
	b := mat.NewVecDense(rows, bData)

	var qr mat.QR
	qr.Factorize(A)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return nil
	}

	seed := make(geo.Point, dim)
	for j := 0; j < dim; j++ {
		seed[j] = x.AtVec(j)
	}
	if !seed.IsFinite() {
		return nil
	}
	return seed
}
