package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldline-data/position.report/internal/geo"
)

// Scenario is the JSON description of a simulation's initial world: anchor
// positions, the rover's starting point, and any obstacles.
type Scenario struct {
	Anchors   [][]float64 `json:"anchors"`
	Rover     []float64   `json:"rover"`
	Obstacles []struct {
		Center []float64 `json:"center"`
		Radius float64   `json:"radius"`
	} `json:"obstacles,omitempty"`
}

// DefaultScenario is four anchors on a 20m square with the rover at the
// center and no obstacles.
func DefaultScenario() Scenario {
	return Scenario{
		Anchors: [][]float64{{0, 0}, {20, 0}, {0, 20}, {20, 20}},
		Rover:   []float64{10, 10},
	}
}

// LoadScenario reads and validates a scenario JSON file.
func LoadScenario(path string) (Scenario, error) {
	var s Scenario
	if filepath.Ext(path) != ".json" {
		return s, fmt.Errorf("scenario file must be a .json file, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read scenario file: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse scenario file %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the scenario is dimensionally consistent.
func (s Scenario) Validate() error {
	if len(s.Rover) < 2 || len(s.Rover) > 3 {
		return fmt.Errorf("rover position must be 2D or 3D, got %d coordinates", len(s.Rover))
	}
	dim := len(s.Rover)
	if len(s.Anchors) == 0 {
		return fmt.Errorf("scenario has no anchors")
	}
	for i, a := range s.Anchors {
		if len(a) != dim {
			return fmt.Errorf("anchor %d has %d coordinates, rover has %d", i, len(a), dim)
		}
	}
	for i, o := range s.Obstacles {
		if len(o.Center) != dim {
			return fmt.Errorf("obstacle %d has %d coordinates, rover has %d", i, len(o.Center), dim)
		}
		if o.Radius <= 0 {
			return fmt.Errorf("obstacle %d has non-positive radius %v", i, o.Radius)
		}
	}
	return nil
}

// State builds the initial simulation state from the scenario.
func (s Scenario) State() *State {
	state := &State{
		Anchors: make([]Anchor, len(s.Anchors)),
		Rover:   Rover{Position: geo.Point(s.Rover).Clone()},
	}
	for i, a := range s.Anchors {
		state.Anchors[i] = Anchor{ID: i, Position: geo.Point(a).Clone()}
	}
	for _, o := range s.Obstacles {
		state.Obstacles = append(state.Obstacles, geo.Obstacle{
			Center: geo.Point(o.Center).Clone(),
			Radius: o.Radius,
		})
	}
	return state
}
