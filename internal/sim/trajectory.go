package sim

import (
	"math"
	"math/rand"

	"github.com/fieldline-data/position.report/internal/geo"
)

// Trajectory advances the rover's true position each tick.
type Trajectory interface {
	Next(current geo.Point) geo.Point
}

// RandomWalk perturbs every coordinate by a uniform step each tick.
type RandomWalk struct {
	rng  *rand.Rand
	step float64
}

// NewRandomWalk builds a random-walk trajectory with the given maximum
// per-coordinate step. The rng is owned by the caller so runs stay
// reproducible under a fixed seed.
func NewRandomWalk(rng *rand.Rand, step float64) *RandomWalk {
	return &RandomWalk{rng: rng, step: step}
}

func (w *RandomWalk) Next(current geo.Point) geo.Point {
	next := current.Clone()
	for i := range next {
		next[i] += (w.rng.Float64()*2 - 1) * w.step
	}
	return next
}

// Circular moves the rover around a fixed center at a constant angular rate.
// In 3D the orbit stays in the horizontal plane of the center.
type Circular struct {
	center      geo.Point
	radius      float64
	angularStep float64
	theta       float64
}

// NewCircular builds a circular trajectory. angularStep is in radians per
// tick.
func NewCircular(center geo.Point, radius, angularStep float64) *Circular {
	return &Circular{center: center, radius: radius, angularStep: angularStep}
}

func (c *Circular) Next(current geo.Point) geo.Point {
	c.theta += c.angularStep
	next := c.center.Clone()
	next[0] += c.radius * math.Cos(c.theta)
	next[1] += c.radius * math.Sin(c.theta)
	return next
}
