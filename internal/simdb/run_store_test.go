package simdb

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/fieldline-data/position.report/internal/geo"
	"github.com/fieldline-data/position.report/internal/occlusion"
	"github.com/fieldline-data/position.report/internal/sim"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.MigrateUp(MigrationsFS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestMigrateUpDownVersion(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	version, dirty, err := db.MigrateVersion(MigrationsFS)
	if err != nil {
		t.Fatalf("version on fresh database: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("fresh database should be at version 0 clean, got %d dirty=%v", version, dirty)
	}

	if err := db.MigrateUp(MigrationsFS); err != nil {
		t.Fatalf("migrate up: %v", err)
	}
	version, dirty, err = db.MigrateVersion(MigrationsFS)
	if err != nil {
		t.Fatalf("version after up: %v", err)
	}
	if version != 2 || dirty {
		t.Errorf("expected version 2 clean after up, got %d dirty=%v", version, dirty)
	}

	// Up again is a no-op, not an error.
	if err := db.MigrateUp(MigrationsFS); err != nil {
		t.Fatalf("repeated migrate up: %v", err)
	}

	if err := db.MigrateDown(MigrationsFS); err != nil {
		t.Fatalf("migrate down: %v", err)
	}
	version, _, err = db.MigrateVersion(MigrationsFS)
	if err != nil {
		t.Fatalf("version after down: %v", err)
	}
	if version != 1 {
		t.Errorf("expected version 1 after one step down, got %d", version)
	}
}

func TestRunStore_RoundTrip(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	cfg := json.RawMessage(`{"noise_sigma": 0.1}`)
	runID, err := store.CreateRun(cfg)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if runID == "" {
		t.Fatal("create run returned an empty ID")
	}

	ticks := []sim.TickResult{
		{
			Tick:     1,
			Truth:    geo.Pt2(5, 3),
			Estimate: geo.Pt2(5.02, 2.97),
			Error:    0.036,
		},
		{
			Tick:  2,
			Truth: geo.Pt2(5.1, 3.1),
			Occlusion: occlusion.Result{
				Flagged:    []int{0},
				Reasons:    []string{"anchor 0: line of sight blocked"},
				Confidence: 0.4,
			},
			Estimate: geo.Pt2(5.4, 3.3),
			Error:    0.36,
		},
		{
			Tick:       3,
			Truth:      geo.Pt2(5.2, 3.2),
			SolveError: "insufficient anchors",
		},
	}
	for _, tick := range ticks {
		if err := store.RecordTick(runID, tick); err != nil {
			t.Fatalf("record tick %d: %v", tick.Tick, err)
		}
	}

	if err := store.CompleteRun(runID); err != nil {
		t.Fatalf("complete run: %v", err)
	}

	run, err := store.GetRun(runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.TickCount != 3 {
		t.Errorf("tick_count = %d, want 3", run.TickCount)
	}
	if run.SolvedTicks != 2 {
		t.Errorf("solved_ticks = %d, want 2", run.SolvedTicks)
	}
	if run.OccludedTicks != 1 {
		t.Errorf("occluded_ticks = %d, want 1", run.OccludedTicks)
	}
	if run.CompletedAt == nil {
		t.Error("completed_at should be set after CompleteRun")
	}
	if run.MeanError == nil {
		t.Fatal("mean_error should be set when solved ticks exist")
	}
	if got, want := *run.MeanError, (0.036+0.36)/2; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("mean_error = %v, want %v", got, want)
	}

	got, err := store.ListTicks(runID)
	if err != nil {
		t.Fatalf("list ticks: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("listed %d ticks, want 3", len(got))
	}
	if got[0].Truth.Distance(geo.Pt2(5, 3)) != 0 {
		t.Errorf("tick 1 truth = %v, want (5,3)", got[0].Truth)
	}
	if got[0].Error == nil || *got[0].Error != 0.036 {
		t.Errorf("tick 1 error = %v, want 0.036", got[0].Error)
	}
	if !got[1].Occluded || len(got[1].Flagged) != 1 || got[1].Flagged[0] != 0 {
		t.Errorf("tick 2 should carry the occlusion flag for anchor 0, got %+v", got[1])
	}
	if got[1].Confidence != 0.4 {
		t.Errorf("tick 2 confidence = %v, want 0.4", got[1].Confidence)
	}
	if got[2].Estimate != nil || got[2].SolveError != "insufficient anchors" {
		t.Errorf("tick 3 should be a recorded solver failure, got %+v", got[2])
	}
}

func TestRunStore_ListRunsNewestFirst(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.CreateRun(nil)
		if err != nil {
			t.Fatalf("create run %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	runs, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("listed %d runs with limit 2", len(runs))
	}
	for _, run := range runs {
		if run.RunID == ids[0] && runs[0].StartedAt.Before(runs[1].StartedAt) {
			t.Error("runs should be ordered newest first")
		}
	}
}

func TestRunStore_GetRunNotFound(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	_, err := store.GetRun("no-such-run")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRunStore_NilConfigDefaultsToEmptyObject(t *testing.T) {
	store := NewRunStore(openTestDB(t))

	runID, err := store.CreateRun(nil)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	run, err := store.GetRun(runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if string(run.Config) != "{}" {
		t.Errorf("config = %q, want empty JSON object", run.Config)
	}
}
