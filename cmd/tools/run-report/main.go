// run-report renders a recorded run as static artifacts: PNG time series and
// an HTML trajectory chart.
//
// Usage:
//
//	run-report -run <id> [-db runs.db] [-out report]
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/fieldline-data/position.report/internal/monitor"
	"github.com/fieldline-data/position.report/internal/simdb"
)

var (
	dbPath = flag.String("db", "runs.db", "Path to the run database")
	runID  = flag.String("run", "", "Run ID to report on")
	outDir = flag.String("out", "report", "Output directory")
)

func main() {
	flag.Parse()

	if *runID == "" {
		log.Fatal("run ID is required (-run)")
	}

	database, err := simdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	store := simdb.NewRunStore(database)

	run, err := store.GetRun(*runID)
	if err != nil {
		log.Fatalf("Failed to load run: %v", err)
	}
	ticks, err := store.ListTicks(*runID)
	if err != nil {
		log.Fatalf("Failed to load ticks: %v", err)
	}
	if len(ticks) == 0 {
		log.Fatalf("Run %s has no recorded ticks", *runID)
	}

	rp, err := monitor.NewRunPlotter(*outDir)
	if err != nil {
		log.Fatalf("Failed to create plotter: %v", err)
	}
	files, err := rp.GenerateRunPlots(*runID, ticks)
	if err != nil {
		log.Fatalf("Failed to generate plots: %v", err)
	}

	html, err := monitor.RenderTrajectoryChart(run, ticks)
	if err != nil {
		log.Fatalf("Failed to render trajectory chart: %v", err)
	}
	chartFile := filepath.Join(*outDir, "run_"+*runID+"_trajectory.html")
	if err := os.WriteFile(chartFile, html, 0o644); err != nil {
		log.Fatalf("Failed to write chart: %v", err)
	}
	files = append(files, chartFile)

	for _, f := range files {
		log.Printf("wrote %s", f)
	}
	if run.MeanError != nil {
		log.Printf("mean position error: %.4f m over %d ticks", *run.MeanError, run.TickCount)
	}
}
