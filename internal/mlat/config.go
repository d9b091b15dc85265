// Package mlat estimates a target position from noisy range measurements to
// a set of known anchor positions (multilateration). Two strategies are
// provided — a combinatorial geometric search over pairwise range-circle
// intersections, and a nonlinear least-squares fit — plus a hybrid mode that
// tries the geometric search first and falls back to least squares.
package mlat

import (
	"errors"
	"fmt"

	"github.com/fieldline-data/position.report/internal/geo"
)

// Method selects the solving strategy.
type Method string

const (
	// MethodGeometric enumerates pairwise circle/sphere intersections and
	// picks the candidate supported by the most anchors.
	MethodGeometric Method = "geometric"

	// MethodLeastSquares fits the position by minimising the sum of squared
	// range residuals.
	MethodLeastSquares Method = "least-squares"

	// MethodHybrid tries the geometric search first and falls back to least
	// squares when it finds no sufficiently supported candidate.
	MethodHybrid Method = "hybrid"
)

// DefaultTolerance is the absolute distance threshold used for intersection
// feasibility and residual acceptance. It should be of the same order as the
// expected measurement noise.
const DefaultTolerance = 0.5

// Config controls the solver. The zero value is not valid; use DefaultConfig.
type Config struct {
	// Dimension is 2 or 3.
	Dimension int

	// Method is the solving strategy. Empty means hybrid.
	Method Method

	// Tolerance is the absolute feasibility/acceptance band in distance
	// units. Zero or negative means DefaultTolerance.
	Tolerance float64
}

// DefaultConfig returns the 2D hybrid solver configuration.
func DefaultConfig() Config {
	return Config{
		Dimension: 2,
		Method:    MethodHybrid,
		Tolerance: DefaultTolerance,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Dimension != 2 && c.Dimension != 3 {
		return fmt.Errorf("dimension must be 2 or 3, got %d", c.Dimension)
	}
	switch c.Method {
	case MethodGeometric, MethodLeastSquares, MethodHybrid, "":
	default:
		return fmt.Errorf("unknown method %q", c.Method)
	}
	return nil
}

// MinAnchors returns the minimum anchor count for the configured dimension:
// 3 in 2D, 4 in 3D.
func (c Config) MinAnchors() int {
	return c.Dimension + 1
}

func (c Config) method() Method {
	if c.Method == "" {
		return MethodHybrid
	}
	return c.Method
}

func (c Config) tolerance() float64 {
	if c.Tolerance <= 0 {
		return DefaultTolerance
	}
	return c.Tolerance
}

// Solver failure taxonomy. All are recoverable: callers should treat a failed
// solve as "no estimate this tick", never as a crash.
var (
	// ErrInsufficientAnchors: fewer anchors than the dimensional minimum.
	ErrInsufficientAnchors = errors.New("mlat: insufficient anchors")

	// ErrDegenerateGeometry: coincident or collinear anchors left no usable
	// candidate and the fallback could not recover.
	ErrDegenerateGeometry = errors.New("mlat: degenerate anchor geometry")

	// ErrNonConvergence: the least-squares optimizer did not converge.
	ErrNonConvergence = errors.New("mlat: least-squares did not converge")

	// ErrInvalidMeasurement: a negative distance or mismatched input lengths.
	// Distances are a contract precondition (>= 0); this is reported rather
	// than silently clamped so upstream bugs surface.
	ErrInvalidMeasurement = errors.New("mlat: invalid measurement")
)

// validateInputs applies the shared input contract for Solve and the
// individual strategies.
func (c Config) validateInputs(positions []geo.Point, distances []float64) error {
	if len(positions) != len(distances) {
		return fmt.Errorf("%w: %d positions but %d distances", ErrInvalidMeasurement, len(positions), len(distances))
	}
	if len(positions) < c.MinAnchors() {
		return fmt.Errorf("%w: got %d, need %d for %dD", ErrInsufficientAnchors, len(positions), c.MinAnchors(), c.Dimension)
	}
	for i, p := range positions {
		if p.Dim() != c.Dimension {
			return fmt.Errorf("%w: anchor %d has dimension %d, want %d", ErrInvalidMeasurement, i, p.Dim(), c.Dimension)
		}
	}
	for i, d := range distances {
		if d < 0 {
			return fmt.Errorf("%w: anchor %d has negative distance %v", ErrInvalidMeasurement, i, d)
		}
	}
	return nil
}
