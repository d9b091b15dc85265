package mlat

import "github.com/fieldline-data/position.report/internal/geo"

// Solve estimates the target position from anchor positions and matching
// range measurements. It returns one of the package's sentinel errors when
// no estimate can be produced; it never panics and never returns a non-finite
// point.
//
// Distances are expected to be non-negative (the measurement layer's
// contract); violations are rejected with ErrInvalidMeasurement.
func Solve(cfg Config, positions []geo.Point, distances []float64) (geo.Point, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.validateInputs(positions, distances); err != nil {
		return nil, err
	}

	switch cfg.method() {
	case MethodGeometric:
		if est, ok := cfg.solveGeometric(positions, distances); ok {
			return est, nil
		}
		return nil, ErrDegenerateGeometry

	case MethodLeastSquares:
		return cfg.solveLeastSquares(positions, distances)

	default: // MethodHybrid
		if est, ok := cfg.solveGeometric(positions, distances); ok {
			return est, nil
		}
		return cfg.solveLeastSquares(positions, distances)
	}
}

// PositionError returns the Euclidean distance between the true and
// estimated positions, for evaluation against simulation ground truth.
func PositionError(truth, estimate geo.Point) float64 {
	return truth.Distance(estimate)
}
