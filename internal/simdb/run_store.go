package simdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline-data/position.report/internal/geo"
	"github.com/fieldline-data/position.report/internal/sim"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulation run.
type Run struct {
	RunID         string          `json:"run_id"`
	Config        json.RawMessage `json:"config"`
	StartedAt     time.Time       `json:"started_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	TickCount     int             `json:"tick_count"`
	SolvedTicks   int             `json:"solved_ticks"`
	OccludedTicks int             `json:"occluded_ticks"`
	MeanError     *float64        `json:"mean_error,omitempty"`
}

// TickRecord is the persisted form of one tick's outcome.
type TickRecord struct {
	RunID      string    `json:"run_id"`
	Tick       int       `json:"tick"`
	Truth      geo.Point `json:"truth"`
	Estimate   geo.Point `json:"estimate,omitempty"`
	Error      *float64  `json:"error,omitempty"`
	SolveError string    `json:"solve_error,omitempty"`
	Occluded   bool      `json:"occluded"`
	Flagged    []int     `json:"flagged,omitempty"`
	Confidence float64   `json:"confidence"`
}

// RunStore reads and writes simulation runs.
type RunStore struct {
	db *DB
}

// NewRunStore wraps an open database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db}
}

// CreateRun registers a new run with its tuning config snapshot and returns
// the generated run ID.
func (s *RunStore) CreateRun(config json.RawMessage) (string, error) {
	if config == nil {
		config = json.RawMessage("{}")
	}
	runID := uuid.New().String()

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(
			`INSERT INTO sim_runs (run_id, config_json, started_at) VALUES (?, ?, ?)`,
			runID, string(config), time.Now().UTC(),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}

	return runID, nil
}

// RecordTick persists one tick result for a run.
func (s *RunStore) RecordTick(runID string, r sim.TickResult) error {
	truthJSON, err := json.Marshal(r.Truth)
	if err != nil {
		return fmt.Errorf("failed to encode truth: %w", err)
	}

	var estimateJSON sql.NullString
	var posErr sql.NullFloat64
	if r.Estimate != nil {
		b, err := json.Marshal(r.Estimate)
		if err != nil {
			return fmt.Errorf("failed to encode estimate: %w", err)
		}
		estimateJSON = sql.NullString{String: string(b), Valid: true}
		posErr = sql.NullFloat64{Float64: r.Error, Valid: true}
	}

	var flaggedJSON sql.NullString
	if len(r.Occlusion.Flagged) > 0 {
		b, err := json.Marshal(r.Occlusion.Flagged)
		if err != nil {
			return fmt.Errorf("failed to encode flagged anchors: %w", err)
		}
		flaggedJSON = sql.NullString{String: string(b), Valid: true}
	}

	var solveErr sql.NullString
	if r.SolveError != "" {
		solveErr = sql.NullString{String: r.SolveError, Valid: true}
	}

	occluded := 0
	if r.Occlusion.IsOccluded() {
		occluded = 1
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(
			`INSERT INTO sim_ticks
			  (run_id, tick, truth_json, estimate_json, position_error,
			   solve_error, occluded, flagged_json, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Tick, string(truthJSON), estimateJSON, posErr,
			solveErr, occluded, flaggedJSON, r.Occlusion.Confidence,
		)
		return err
	})
}

// CompleteRun stamps a run finished and rolls up its summary statistics from
// the recorded ticks.
func (s *RunStore) CompleteRun(runID string) error {
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(
			`UPDATE sim_runs SET
			   completed_at   = ?,
			   tick_count     = (SELECT COUNT(*) FROM sim_ticks WHERE run_id = ?),
			   solved_ticks   = (SELECT COUNT(*) FROM sim_ticks WHERE run_id = ? AND estimate_json IS NOT NULL),
			   occluded_ticks = (SELECT COUNT(*) FROM sim_ticks WHERE run_id = ? AND occluded = 1),
			   mean_error     = (SELECT AVG(position_error) FROM sim_ticks WHERE run_id = ? AND position_error IS NOT NULL)
			 WHERE run_id = ?`,
			time.Now().UTC(), runID, runID, runID, runID, runID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to complete run %s: %w", runID, err)
	}
	return nil
}

// GetRun fetches one run by ID.
func (s *RunStore) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT run_id, config_json, started_at, completed_at,
		        tick_count, solved_ticks, occluded_ticks, mean_error
		 FROM sim_runs WHERE run_id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT run_id, config_json, started_at, completed_at,
		        tick_count, solved_ticks, occluded_ticks, mean_error
		 FROM sim_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListTicks returns all recorded ticks for a run in tick order.
func (s *RunStore) ListTicks(runID string) ([]TickRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, tick, truth_json, estimate_json, position_error,
		        solve_error, occluded, flagged_json, confidence
		 FROM sim_ticks WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ticks for run %s: %w", runID, err)
	}
	defer rows.Close()

	var ticks []TickRecord
	for rows.Next() {
		var (
			rec          TickRecord
			truthJSON    string
			estimateJSON sql.NullString
			posErr       sql.NullFloat64
			solveErr     sql.NullString
			occluded     int
			flaggedJSON  sql.NullString
		)
		if err := rows.Scan(&rec.RunID, &rec.Tick, &truthJSON, &estimateJSON,
			&posErr, &solveErr, &occluded, &flaggedJSON, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}

		if err := json.Unmarshal([]byte(truthJSON), &rec.Truth); err != nil {
			return nil, fmt.Errorf("failed to decode truth for tick %d: %w", rec.Tick, err)
		}
		if estimateJSON.Valid {
			if err := json.Unmarshal([]byte(estimateJSON.String), &rec.Estimate); err != nil {
				return nil, fmt.Errorf("failed to decode estimate for tick %d: %w", rec.Tick, err)
			}
		}
		if posErr.Valid {
			v := posErr.Float64
			rec.Error = &v
		}
		rec.SolveError = solveErr.String
		rec.Occluded = occluded != 0
		if flaggedJSON.Valid {
			if err := json.Unmarshal([]byte(flaggedJSON.String), &rec.Flagged); err != nil {
				return nil, fmt.Errorf("failed to decode flags for tick %d: %w", rec.Tick, err)
			}
		}

		ticks = append(ticks, rec)
	}
	return ticks, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run         Run
		configJSON  string
		completedAt sql.NullTime
		meanError   sql.NullFloat64
	)
	err := row.Scan(&run.RunID, &configJSON, &run.StartedAt, &completedAt,
		&run.TickCount, &run.SolvedTicks, &run.OccludedTicks, &meanError)
	if err != nil {
		return nil, err
	}

	run.Config = json.RawMessage(configJSON)
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	if meanError.Valid {
		v := meanError.Float64
		run.MeanError = &v
	}
	return &run, nil
}
