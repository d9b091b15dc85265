// Package sim drives the measure → solve → check → reposition loop over a
// simulated rover and a set of range-measuring anchors (drones). Everything
// here is single-threaded and tick-driven: one Tick() call advances the
// rover, re-measures, and produces a TickResult. All simulation state lives
// in an explicit State value owned by the engine — there are no package-level
// positions for callbacks to mutate.
package sim

import (
	"github.com/fieldline-data/position.report/internal/geo"
)

// Anchor is a known-position range sensor. Its Distance and Quality are
// refreshed every tick by the measurement model.
type Anchor struct {
	ID       int       `json:"id"`
	Position geo.Point `json:"position"`

	// Distance is the most recent measured range to the rover, including
	// noise and any NLOS inflation. Always >= 0.
	Distance float64 `json:"distance"`

	// Quality is a signal-quality scalar in [0,1]. The simulation degrades
	// it when the anchor's line-of-sight is blocked.
	Quality float64 `json:"quality"`
}

// Rover carries the simulation ground truth and the solver's view of it.
type Rover struct {
	// Position is the true position (ground truth).
	Position geo.Point `json:"position"`

	// Estimate is the solver's latest estimate, nil when the last solve
	// failed. Callers should render "no estimate" rather than a stale value.
	Estimate geo.Point `json:"estimate,omitempty"`
}

// PositionError returns the distance between truth and estimate, and whether
// an estimate exists at all.
func (r Rover) PositionError() (float64, bool) {
	if r.Estimate == nil {
		return 0, false
	}
	return r.Position.Distance(r.Estimate), true
}

// State is the complete mutable simulation state for one run.
type State struct {
	Anchors   []Anchor       `json:"anchors"`
	Rover     Rover          `json:"rover"`
	Obstacles []geo.Obstacle `json:"obstacles,omitempty"`
}

// AnchorPositions returns the anchors' positions in index order.
func (s *State) AnchorPositions() []geo.Point {
	out := make([]geo.Point, len(s.Anchors))
	for i, a := range s.Anchors {
		out[i] = a.Position
	}
	return out
}

// AnchorDistances returns the anchors' latest measured ranges in index order.
func (s *State) AnchorDistances() []float64 {
	out := make([]float64, len(s.Anchors))
	for i, a := range s.Anchors {
		out[i] = a.Distance
	}
	return out
}
