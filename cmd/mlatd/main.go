// mlatd serves the positioning API and the run debugging surface over HTTP.
//
// Usage:
//
//	mlatd [-listen :8080] [-db runs.db] [-config tuning.json]
//	mlatd migrate <up|down|status|force> [-db runs.db]
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldline-data/position.report/internal/api"
	"github.com/fieldline-data/position.report/internal/config"
	"github.com/fieldline-data/position.report/internal/monitor"
	"github.com/fieldline-data/position.report/internal/simdb"
	"github.com/fieldline-data/position.report/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbPath     = flag.String("db", "runs.db", "Path to the run database")
	configPath = flag.String("config", "", "Path to the tuning config JSON (optional)")
)

func main() {
	flag.Parse()

	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		simdb.RunMigrateCommand(args[1:], *dbPath)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	log.Printf("mlatd %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	tuning := &config.TuningConfig{}
	if *configPath != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	// mount the admin debugging routes and the run chart pages
	database.AttachAdminRoutes(mux)
	monitor.AttachChartRoutes(mux, store)

	// mount the API handlers
	apiMux := api.NewServer(store, tuning).ServeMux()
	mux.Handle("/api/", apiMux)

	server := &http.Server{
		Addr:    *listen,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		os.Exit(1)
	}

	log.Printf("Graceful shutdown complete")
}
