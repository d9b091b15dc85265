package sim

import (
	"math/rand"

	"github.com/fieldline-data/position.report/internal/geo"
)

// Measurer produces the simulated range measurement for each anchor:
// true distance plus Gaussian noise, with a positive NLOS bias added when an
// obstacle blocks the anchor's line-of-sight to the rover (reflected paths
// are longer than direct ones). Ranges are clamped at zero so the solver's
// non-negative precondition always holds.
type Measurer struct {
	rng *rand.Rand

	// Sigma is the standard deviation of the Gaussian range noise.
	Sigma float64

	// NLOSInflation is the bias added to a blocked anchor's range.
	NLOSInflation float64
}

// NewMeasurer builds a measurement model over the caller-owned rng.
func NewMeasurer(rng *rand.Rand, sigma, nlosInflation float64) *Measurer {
	return &Measurer{rng: rng, Sigma: sigma, NLOSInflation: nlosInflation}
}

// Measure refreshes every anchor's Distance and Quality against the rover's
// current true position.
func (m *Measurer) Measure(s *State) {
	for i := range s.Anchors {
		a := &s.Anchors[i]
		d := a.Position.Distance(s.Rover.Position)
		if m.Sigma > 0 {
			d += m.rng.NormFloat64() * m.Sigma
		}

		a.Quality = 1
		if !geo.HasLineOfSight(a.Position, s.Rover.Position, s.Obstacles) {
			d += m.NLOSInflation
			a.Quality = 0.3
		}

		if d < 0 {
			d = 0
		}
		a.Distance = d
	}
}
