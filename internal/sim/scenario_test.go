package sim

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultScenario(t *testing.T) {
	s := DefaultScenario()
	if err := s.Validate(); err != nil {
		t.Fatalf("default scenario should validate: %v", err)
	}
	state := s.State()
	if len(state.Anchors) != 4 {
		t.Errorf("default scenario should have 4 anchors, got %d", len(state.Anchors))
	}
	if state.Rover.Position.Dim() != 2 {
		t.Errorf("default scenario should be 2D")
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.json")
	contents := `{
		"anchors": [[0,0],[10,0],[5,10]],
		"rover": [5,3],
		"obstacles": [{"center": [2,2], "radius": 0.5}]
	}`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	state := s.State()
	if len(state.Anchors) != 3 || len(state.Obstacles) != 1 {
		t.Errorf("unexpected state: %d anchors, %d obstacles", len(state.Anchors), len(state.Obstacles))
	}
	if state.Anchors[2].ID != 2 {
		t.Errorf("anchor IDs should follow scenario order")
	}
}

func TestLoadScenario_Errors(t *testing.T) {
	writeTemp := func(t *testing.T, contents string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "scenario.json")
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	tests := []struct {
		name     string
		contents string
	}{
		{"malformed JSON", `{"anchors": [[0,0]`},
		{"no anchors", `{"anchors": [], "rover": [5,3]}`},
		{"dimension mismatch", `{"anchors": [[0,0,0],[1,1]], "rover": [5,3,0]}`},
		{"rover dimension", `{"anchors": [[0,0]], "rover": [5]}`},
		{"bad obstacle radius", `{"anchors": [[0,0]], "rover": [5,3], "obstacles": [{"center": [1,1], "radius": 0}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScenario(writeTemp(t, tt.contents)); err == nil {
				t.Error("expected an error")
			}
		})
	}

	t.Run("non-json extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "scenario.yaml")
		os.WriteFile(path, []byte("{}"), 0o644)
		if _, err := LoadScenario(path); err == nil {
			t.Error("expected an error for non-.json file")
		}
	})
}
