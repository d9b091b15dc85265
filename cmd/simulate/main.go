// simulate runs a batch positioning simulation and records it to the run
// database, with optional diagnostic plots.
//
// Usage:
//
//	simulate [-ticks 100] [-db runs.db] [-config tuning.json]
//	         [-scenario scenario.json] [-plots dir]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/fieldline-data/position.report/internal/config"
	"github.com/fieldline-data/position.report/internal/monitor"
	"github.com/fieldline-data/position.report/internal/sim"
	"github.com/fieldline-data/position.report/internal/simdb"
	"github.com/fieldline-data/position.report/internal/timeutil"
)

var (
	ticks        = flag.Int("ticks", 100, "Number of simulation ticks to run")
	interval     = flag.Duration("interval", 0, "Real-time pacing between ticks; 0 runs as fast as possible")
	dbPath       = flag.String("db", "runs.db", "Path to the run database")
	configPath   = flag.String("config", "", "Path to the tuning config JSON (optional)")
	scenarioPath = flag.String("scenario", "", "Path to the scenario JSON (optional)")
	plotsDir     = flag.String("plots", "", "Directory for diagnostic plots (optional)")
)

func main() {
	flag.Parse()

	if *ticks < 1 {
		log.Fatal("ticks must be at least 1")
	}

	tuning := &config.TuningConfig{}
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}

	scenario := sim.DefaultScenario()
	if *scenarioPath != "" {
		var err error
		scenario, err = sim.LoadScenario(*scenarioPath)
		if err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}
	}

	database, err := simdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(simdb.MigrationsFS); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store := simdb.NewRunStore(database)

	configSnapshot, err := json.Marshal(map[string]interface{}{
		"tuning":   tuning,
		"scenario": scenario,
		"ticks":    *ticks,
	})
	if err != nil {
		log.Fatalf("Failed to encode run config: %v", err)
	}

	runID, err := store.CreateRun(configSnapshot)
	if err != nil {
		log.Fatalf("Failed to create run: %v", err)
	}
	log.Printf("run %s: %d ticks, %d anchors, %d obstacles",
		runID, *ticks, len(scenario.Anchors), len(scenario.Obstacles))

	engine := sim.NewEngineFromTuning(tuning, scenario.State())

	solved, occluded := 0, 0
	record := func(result sim.TickResult) error {
		if result.Estimate != nil {
			solved++
		}
		if result.Occlusion.IsOccluded() {
			occluded++
			log.Printf("tick %d: occlusion detected (confidence %.2f): %v",
				result.Tick, result.Occlusion.Confidence, result.Occlusion.Reasons)
		}
		for idx, pos := range result.Repositioned {
			log.Printf("tick %d: repositioned anchor %d to %v", result.Tick, idx, pos)
		}
		return store.RecordTick(runID, result)
	}

	if *interval > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		err := engine.RunPaced(ctx, timeutil.RealClock{}, *interval, *ticks, record)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalf("Paced run failed: %v", err)
		}
	} else {
		for i := 0; i < *ticks; i++ {
			if err := record(engine.Tick()); err != nil {
				log.Fatalf("Failed to record tick: %v", err)
			}
		}
	}

	if err := store.CompleteRun(runID); err != nil {
		log.Fatalf("Failed to complete run: %v", err)
	}

	run, err := store.GetRun(runID)
	if err != nil {
		log.Fatalf("Failed to read back run: %v", err)
	}
	log.Printf("run %s complete: %d/%d ticks solved, %d occluded", runID, solved, *ticks, occluded)
	if run.MeanError != nil {
		log.Printf("mean position error: %.4f m", *run.MeanError)
	}

	if *plotsDir != "" {
		tickRecords, err := store.ListTicks(runID)
		if err != nil {
			log.Fatalf("Failed to list ticks for plotting: %v", err)
		}
		rp, err := monitor.NewRunPlotter(*plotsDir)
		if err != nil {
			log.Fatalf("Failed to create plotter: %v", err)
		}
		files, err := rp.GenerateRunPlots(runID, tickRecords)
		if err != nil {
			log.Fatalf("Failed to generate plots: %v", err)
		}
		for _, f := range files {
			log.Printf("wrote %s", f)
		}
	}
}
