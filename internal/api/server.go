// Package api exposes the positioning engine over HTTP: one-shot solve and
// occlusion checks, plus read access to recorded simulation runs.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fieldline-data/position.report/internal/config"
	"github.com/fieldline-data/position.report/internal/geo"
	"github.com/fieldline-data/position.report/internal/mlat"
	"github.com/fieldline-data/position.report/internal/occlusion"
	"github.com/fieldline-data/position.report/internal/simdb"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	store  *simdb.RunStore
	tuning *config.TuningConfig
}

// NewServer builds the API server. The store may be nil, in which case the
// run endpoints report 503 and only the stateless solve/check endpoints work.
func NewServer(store *simdb.RunStore, tuning *config.TuningConfig) *Server {
	if tuning == nil {
		tuning = &config.TuningConfig{}
	}
	return &Server{
		store:  store,
		tuning: tuning,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/solve", s.solvePosition)
	mux.HandleFunc("/api/occlusion", s.checkOcclusion)
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/", s.showRun)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// measurementRequest is the shared request body for solve and occlusion
// checks: anchor positions with one measured range per anchor.
type measurementRequest struct {
	Anchors   [][]float64 `json:"anchors"`
	Distances []float64   `json:"distances"`

	// Solver overrides; zero values fall back to the server's tuning.
	Method    string  `json:"method,omitempty"`
	Dimension int     `json:"dimension,omitempty"`
	Tolerance float64 `json:"tolerance,omitempty"`

	// Obstacles enables the line-of-sight check on /api/occlusion.
	Obstacles []obstacleJSON `json:"obstacles,omitempty"`
}

type obstacleJSON struct {
	Center []float64 `json:"center"`
	Radius float64   `json:"radius"`
}

func (req *measurementRequest) anchorPoints() []geo.Point {
	points := make([]geo.Point, len(req.Anchors))
	for i, a := range req.Anchors {
		points[i] = geo.Point(a)
	}
	return points
}

func (req *measurementRequest) solverConfig(t *config.TuningConfig) mlat.Config {
	cfg := mlat.Config{
		Dimension: t.GetDimension(),
		Method:    mlat.Method(t.GetMethod()),
		Tolerance: t.GetTolerance(),
	}
	if req.Dimension != 0 {
		cfg.Dimension = req.Dimension
	}
	if req.Method != "" {
		cfg.Method = mlat.Method(req.Method)
	}
	if req.Tolerance != 0 {
		cfg.Tolerance = req.Tolerance
	}
	return cfg
}

func (s *Server) decodeMeasurementRequest(w http.ResponseWriter, r *http.Request) (*measurementRequest, bool) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}

	var req measurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return nil, false
	}
	if len(req.Anchors) != len(req.Distances) {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("Anchor/distance count mismatch: %d anchors, %d distances",
				len(req.Anchors), len(req.Distances)))
		return nil, false
	}
	return &req, true
}

// solveStatus maps solver failures onto HTTP status codes: bad inputs are the
// caller's fault, unsolvable geometry is a semantic failure.
func solveStatus(err error) int {
	switch {
	case errors.Is(err, mlat.ErrInsufficientAnchors),
		errors.Is(err, mlat.ErrInvalidMeasurement):
		return http.StatusBadRequest
	case errors.Is(err, mlat.ErrDegenerateGeometry),
		errors.Is(err, mlat.ErrNonConvergence):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) solvePosition(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req, ok := s.decodeMeasurementRequest(w, r)
	if !ok {
		return
	}

	cfg := req.solverConfig(s.tuning)
	estimate, err := mlat.Solve(cfg, req.anchorPoints(), req.Distances)
	if err != nil {
		s.writeJSONError(w, solveStatus(err), fmt.Sprintf("Solve failed: %v", err))
		return
	}

	resp := map[string]interface{}{
		"estimate": estimate,
		"method":   string(cfg.Method),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write estimate")
		return
	}
}

func (s *Server) checkOcclusion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req, ok := s.decodeMeasurementRequest(w, r)
	if !ok {
		return
	}

	obstacles := make([]geo.Obstacle, len(req.Obstacles))
	for i, o := range req.Obstacles {
		obstacles[i] = geo.Obstacle{Center: geo.Point(o.Center), Radius: o.Radius}
	}

	params := occlusion.DefaultParams()
	params.Tolerance = s.tuning.GetTolerance()
	params.ZScoreThreshold = s.tuning.GetZScoreThreshold()
	params.MinSpread = s.tuning.GetMinSpread()
	params.MinConfidence = s.tuning.GetMinConfidence()
	if req.Tolerance != 0 {
		params.Tolerance = req.Tolerance
	}

	result := occlusion.Check(params, req.anchorPoints(), req.Distances, obstacles)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write occlusion result")
		return
	}
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeJSONError(w, http.StatusServiceUnavailable, "Run storage is not configured")
		return false
	}
	return true
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.requireStore(w) {
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []simdb.Run{}
	}

	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write runs")
		return
	}
}

// showRun serves /api/runs/{id} and /api/runs/{id}/ticks.
func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !s.requireStore(w) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID, sub, _ := strings.Cut(rest, "/")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing run ID")
		return
	}

	switch sub {
	case "":
		run, err := s.store.GetRun(runID)
		if errors.Is(err, simdb.ErrRunNotFound) {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", runID))
			return
		}
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to retrieve run: %v", err))
			return
		}
		if err := json.NewEncoder(w).Encode(run); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to write run")
			return
		}

	case "ticks":
		if _, err := s.store.GetRun(runID); errors.Is(err, simdb.ErrRunNotFound) {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", runID))
			return
		}
		ticks, err := s.store.ListTicks(runID)
		if err != nil {
			s.writeJSONError(w, http.StatusInternalServerError,
				fmt.Sprintf("Failed to retrieve ticks: %v", err))
			return
		}
		if ticks == nil {
			ticks = []simdb.TickRecord{}
		}
		if err := json.NewEncoder(w).Encode(ticks); err != nil {
			s.writeJSONError(w, http.StatusInternalServerError, "Failed to write ticks")
			return
		}

	default:
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Unknown resource %q", sub))
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	cfg := map[string]interface{}{
		"dimension":          s.tuning.GetDimension(),
		"method":             s.tuning.GetMethod(),
		"tolerance":          s.tuning.GetTolerance(),
		"zscore_threshold":   s.tuning.GetZScoreThreshold(),
		"min_spread":         s.tuning.GetMinSpread(),
		"min_confidence":     s.tuning.GetMinConfidence(),
		"reposition_enabled": s.tuning.GetRepositionEnabled(),
	}

	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
