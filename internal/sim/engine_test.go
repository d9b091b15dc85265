package sim

import (
	"math/rand"
	"testing"

	"github.com/fieldline-data/position.report/internal/config"
	"github.com/fieldline-data/position.report/internal/geo"
	"github.com/fieldline-data/position.report/internal/mlat"
	"github.com/fieldline-data/position.report/internal/occlusion"
)

func testState() *State {
	return &State{
		Anchors: []Anchor{
			{ID: 0, Position: geo.Pt2(0, 0)},
			{ID: 1, Position: geo.Pt2(20, 0)},
			{ID: 2, Position: geo.Pt2(0, 20)},
			{ID: 3, Position: geo.Pt2(20, 20)},
		},
		Rover: Rover{Position: geo.Pt2(10, 10)},
	}
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		Solver:     mlat.Config{Dimension: 2, Method: mlat.MethodHybrid, Tolerance: 0.5},
		Checker:    occlusion.DefaultParams(),
		Reposition: occlusion.DefaultRepositionParams(),
		Recovery:   RecoveryAlgorithmic,
	}
}

func TestEngine_CleanRunTracksRover(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	state := testState()
	engine := NewEngine(testEngineConfig(), state,
		NewRandomWalk(rng, 0.2), NewMeasurer(rng, 0.05, 5))

	results := engine.Run(50)
	if len(results) != 50 {
		t.Fatalf("expected 50 tick results, got %d", len(results))
	}

	solved := 0
	for _, r := range results {
		if r.Estimate == nil {
			continue
		}
		solved++
		if r.Error > 1.0 {
			t.Errorf("tick %d: error %v too large for sigma 0.05", r.Tick, r.Error)
		}
		if r.Occlusion.IsOccluded() {
			t.Errorf("tick %d: spurious occlusion flags %v", r.Tick, r.Occlusion.Flagged)
		}
	}
	if solved < 45 {
		t.Errorf("only %d/50 ticks solved in a clean run", solved)
	}
}

func TestEngine_OccludedAnchorDetectedAndMoved(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	state := testState()
	// Obstacle square in anchor 0's sight line to the rover.
	state.Obstacles = []geo.Obstacle{{Center: geo.Pt2(5, 5), Radius: 1.5}}

	engine := NewEngine(testEngineConfig(), state,
		NewRandomWalk(rng, 0.05), NewMeasurer(rng, 0.05, 8))

	detected := false
	moved := false
	for i := 0; i < 30; i++ {
		r := engine.Tick()
		if r.Occlusion.IsOccluded() {
			detected = true
		}
		if len(r.Repositioned) > 0 {
			moved = true
			break
		}
	}
	if !detected {
		t.Error("expected the blocked anchor to be detected within 30 ticks")
	}
	if !moved {
		t.Error("expected the recovery strategy to reposition a flagged anchor")
	}
}

func TestEngine_RecoveryNoneLeavesAnchors(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	state := testState()
	state.Obstacles = []geo.Obstacle{{Center: geo.Pt2(5, 5), Radius: 1.5}}
	original := state.Anchors[0].Position.Clone()

	cfg := testEngineConfig()
	cfg.Recovery = RecoveryNone
	engine := NewEngine(cfg, state, NewRandomWalk(rng, 0.05), NewMeasurer(rng, 0.05, 8))

	for i := 0; i < 20; i++ {
		if r := engine.Tick(); len(r.Repositioned) > 0 {
			t.Fatalf("tick %d: RecoveryNone must not reposition, got %v", r.Tick, r.Repositioned)
		}
	}
	if d := state.Anchors[0].Position.Distance(original); d != 0 {
		t.Errorf("anchor 0 moved %v with recovery disabled", d)
	}
}

func TestEngine_DeterministicUnderSeed(t *testing.T) {
	run := func() []TickResult {
		rng := rand.New(rand.NewSource(11))
		engine := NewEngine(testEngineConfig(), testState(),
			NewRandomWalk(rng, 0.2), NewMeasurer(rng, 0.1, 5))
		return engine.Run(10)
	}

	a, b := run(), run()
	for i := range a {
		if a[i].Truth.Distance(b[i].Truth) != 0 {
			t.Fatalf("tick %d: truth diverged between identical seeds", i+1)
		}
		if (a[i].Estimate == nil) != (b[i].Estimate == nil) {
			t.Fatalf("tick %d: solve outcome diverged between identical seeds", i+1)
		}
	}
}

func TestEngine_SolverFailureClearsEstimate(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	state := &State{
		Anchors: []Anchor{
			{ID: 0, Position: geo.Pt2(0, 0)},
			{ID: 1, Position: geo.Pt2(20, 0)},
		},
		Rover: Rover{Position: geo.Pt2(10, 10)},
	}
	engine := NewEngine(testEngineConfig(), state,
		NewRandomWalk(rng, 0.1), NewMeasurer(rng, 0, 0))

	r := engine.Tick()
	if r.Estimate != nil || r.SolveError == "" {
		t.Errorf("two anchors must not produce an estimate, got %+v", r)
	}
	if state.Rover.Estimate != nil {
		t.Error("state must report no estimate, not a stale one")
	}
	if _, ok := state.Rover.PositionError(); ok {
		t.Error("PositionError must report absence when there is no estimate")
	}
}

func TestNewEngineFromTuning(t *testing.T) {
	cfg := &config.TuningConfig{}
	state := testState()
	engine := NewEngineFromTuning(cfg, state)
	if engine.State() != state {
		t.Error("engine should own the provided state")
	}

	r := engine.Tick()
	if r.Tick != 1 {
		t.Errorf("first tick should be numbered 1, got %d", r.Tick)
	}
	if r.Estimate == nil {
		t.Errorf("default tuning over a clean state should solve, got %q", r.SolveError)
	}
}

func TestTrajectory_Circular(t *testing.T) {
	c := NewCircular(geo.Pt2(0, 0), 5, 0.5)
	p := c.Next(geo.Pt2(5, 0))
	if d := p.Distance(geo.Pt2(0, 0)); d < 4.99 || d > 5.01 {
		t.Errorf("circular trajectory left the orbit: radius %v", d)
	}
}

func TestMeasurer_NLOSInflationAndClamp(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	state := testState()
	state.Obstacles = []geo.Obstacle{{Center: geo.Pt2(5, 5), Radius: 1.5}}

	m := NewMeasurer(rng, 0, 8)
	m.Measure(state)

	trueDist := state.Anchors[0].Position.Distance(state.Rover.Position)
	if got := state.Anchors[0].Distance; got < trueDist+7.9 {
		t.Errorf("blocked anchor should carry NLOS inflation: got %v, true %v", got, trueDist)
	}
	if state.Anchors[0].Quality >= 1 {
		t.Error("blocked anchor should have degraded quality")
	}
	if state.Anchors[1].Distance != state.Anchors[1].Position.Distance(state.Rover.Position) {
		t.Error("clear anchor with zero sigma should measure the true distance")
	}

	for _, a := range state.Anchors {
		if a.Distance < 0 {
			t.Errorf("anchor %d: negative distance %v", a.ID, a.Distance)
		}
	}
}
