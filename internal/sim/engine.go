package sim

import (
	"context"
	"math/rand"
	"time"

	"github.com/fieldline-data/position.report/internal/config"
	"github.com/fieldline-data/position.report/internal/geo"
	"github.com/fieldline-data/position.report/internal/mlat"
	"github.com/fieldline-data/position.report/internal/occlusion"
	"github.com/fieldline-data/position.report/internal/timeutil"
)

// RecoveryStrategy selects what the engine does once occlusion is detected.
type RecoveryStrategy string

const (
	// RecoveryAlgorithmic applies the repositioning heuristic to flagged
	// anchors.
	RecoveryAlgorithmic RecoveryStrategy = "algorithmic"

	// RecoveryNone detects and reports occlusion but leaves anchors alone.
	RecoveryNone RecoveryStrategy = "none"
)

// EngineConfig assembles the per-component configurations for one run.
type EngineConfig struct {
	Solver     mlat.Config
	Checker    occlusion.Params
	Reposition occlusion.RepositionParams
	Recovery   RecoveryStrategy
}

// EngineConfigFromTuning maps the JSON tuning config onto the engine's
// component configurations.
func EngineConfigFromTuning(t *config.TuningConfig) EngineConfig {
	checker := occlusion.DefaultParams()
	checker.Tolerance = t.GetTolerance()
	checker.ZScoreThreshold = t.GetZScoreThreshold()
	checker.MinSpread = t.GetMinSpread()
	checker.MinConfidence = t.GetMinConfidence()

	recovery := RecoveryNone
	if t.GetRepositionEnabled() {
		recovery = RecoveryAlgorithmic
	}

	return EngineConfig{
		Solver: mlat.Config{
			Dimension: t.GetDimension(),
			Method:    mlat.Method(t.GetMethod()),
			Tolerance: t.GetTolerance(),
		},
		Checker: checker,
		Reposition: occlusion.RepositionParams{
			RingStep:     t.GetRingStep(),
			MaxRadius:    t.GetMaxSearchRadius(),
			RingSamples:  t.GetRingSamples(),
			FallbackStep: t.GetFallbackStep(),
		},
		Recovery: recovery,
	}
}

// TickResult is everything one tick produced, for recording and rendering.
type TickResult struct {
	Tick int `json:"tick"`

	// Truth is the rover's true position at this tick.
	Truth geo.Point `json:"truth"`

	// Estimate is the solver's output, nil on failure.
	Estimate geo.Point `json:"estimate,omitempty"`

	// Error is the distance between Truth and Estimate; meaningful only
	// when Estimate is non-nil.
	Error float64 `json:"error"`

	// SolveError carries the solver failure, empty on success.
	SolveError string `json:"solve_error,omitempty"`

	// Occlusion is the checker's verdict for this tick.
	Occlusion occlusion.Result `json:"occlusion"`

	// Repositioned maps anchor index to its new position when the recovery
	// strategy moved it this tick.
	Repositioned map[int]geo.Point `json:"repositioned,omitempty"`
}

// Engine owns the simulation state and advances it tick by tick.
type Engine struct {
	cfg      EngineConfig
	state    *State
	traj     Trajectory
	measurer *Measurer
	tick     int
}

// NewEngine wires a state, trajectory and measurement model together. The
// engine takes ownership of the state; callers read it back via State().
func NewEngine(cfg EngineConfig, state *State, traj Trajectory, measurer *Measurer) *Engine {
	return &Engine{cfg: cfg, state: state, traj: traj, measurer: measurer}
}

// NewEngineFromTuning builds the whole stack — engine, trajectory and
// measurement model — from the tuning config, using a seeded rng for
// reproducible runs.
func NewEngineFromTuning(t *config.TuningConfig, state *State) *Engine {
	rng := rand.New(rand.NewSource(t.GetSeed()))

	var traj Trajectory
	switch t.GetTrajectory() {
	case "circular":
		traj = NewCircular(state.Rover.Position.Clone(), t.GetOrbitRadius(), 0.1)
	default:
		traj = NewRandomWalk(rng, t.GetStepSize())
	}

	measurer := NewMeasurer(rng, t.GetNoiseSigma(), t.GetNLOSInflation())
	return NewEngine(EngineConfigFromTuning(t), state, traj, measurer)
}

// State exposes the engine's current simulation state.
func (e *Engine) State() *State { return e.state }

// Tick advances the simulation one step: move the rover, measure, solve,
// check for occlusion, and apply the recovery strategy. Solver failures are
// recorded in the result, never raised — the rover simply has no estimate
// this tick.
func (e *Engine) Tick() TickResult {
	e.tick++
	e.state.Rover.Position = e.traj.Next(e.state.Rover.Position)
	e.measurer.Measure(e.state)

	result := TickResult{
		Tick:  e.tick,
		Truth: e.state.Rover.Position.Clone(),
	}

	positions := e.state.AnchorPositions()
	distances := e.state.AnchorDistances()

	estimate, err := mlat.Solve(e.cfg.Solver, positions, distances)
	if err != nil {
		e.state.Rover.Estimate = nil
		result.SolveError = err.Error()
	} else {
		e.state.Rover.Estimate = estimate
		result.Estimate = estimate
		result.Error = mlat.PositionError(result.Truth, estimate)
	}

	result.Occlusion = occlusion.Check(e.cfg.Checker, positions, distances, e.state.Obstacles)

	if e.cfg.Recovery == RecoveryAlgorithmic && result.Occlusion.IsOccluded() {
		suggestions := occlusion.SuggestRepositions(
			result.Occlusion, positions, e.state.Obstacles, e.cfg.Reposition)
		if len(suggestions) > 0 {
			result.Repositioned = suggestions
			for idx, pos := range suggestions {
				e.state.Anchors[idx].Position = pos
			}
		}
	}

	return result
}

// Run executes n ticks and returns their results.
func (e *Engine) Run(n int) []TickResult {
	results := make([]TickResult, 0, n)
	for i := 0; i < n; i++ {
		results = append(results, e.Tick())
	}
	return results
}

// RunPaced executes n ticks at the given real-time interval, calling fn after
// each tick. It stops early when the context is cancelled or fn returns an
// error. n <= 0 means run until cancelled.
func (e *Engine) RunPaced(ctx context.Context, clock timeutil.Clock, interval time.Duration, n int, fn func(TickResult) error) error {
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; n <= 0 || i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}
		if err := fn(e.Tick()); err != nil {
			return err
		}
	}
	return nil
}
