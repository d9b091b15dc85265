// Package monitor renders recorded simulation runs: static PNG time series
// via gonum/plot and interactive HTML trajectory charts via go-echarts.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldline-data/position.report/internal/simdb"
)

// RunPlotter writes per-run diagnostic plots to an output directory.
type RunPlotter struct {
	outputDir string
}

// NewRunPlotter creates the output directory if needed.
func NewRunPlotter(outputDir string) (*RunPlotter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot output dir: %w", err)
	}
	return &RunPlotter{outputDir: outputDir}, nil
}

// GenerateRunPlots renders the position-error and occlusion-confidence time
// series for one run and returns the file paths written.
func (rp *RunPlotter) GenerateRunPlots(runID string, ticks []simdb.TickRecord) ([]string, error) {
	if len(ticks) == 0 {
		return nil, fmt.Errorf("run %s has no recorded ticks", runID)
	}

	errPts := make(plotter.XYs, 0, len(ticks))
	confPts := make(plotter.XYs, 0, len(ticks))
	for _, tick := range ticks {
		// Ticks without an estimate have no error sample.
		if tick.Error != nil {
			errPts = append(errPts, plotter.XY{X: float64(tick.Tick), Y: *tick.Error})
		}
		confPts = append(confPts, plotter.XY{X: float64(tick.Tick), Y: tick.Confidence})
	}

	pErr := plot.New()
	pErr.Title.Text = fmt.Sprintf("Run %s - Position Error", runID)
	pErr.X.Label.Text = "Tick"
	pErr.Y.Label.Text = "Error (m)"

	pConf := plot.New()
	pConf.Title.Text = fmt.Sprintf("Run %s - Occlusion Confidence", runID)
	pConf.X.Label.Text = "Tick"
	pConf.Y.Label.Text = "Confidence"
	pConf.Y.Min = 0
	pConf.Y.Max = 1

	if len(errPts) > 0 {
		errLine, err := plotter.NewLine(errPts)
		if err != nil {
			return nil, err
		}
		errLine.Color = color.RGBA{R: 196, G: 60, B: 57, A: 255}
		errLine.Width = vg.Points(1)
		pErr.Add(errLine)
		pErr.Legend.Add("position error", errLine)
	}

	confLine, err := plotter.NewLine(confPts)
	if err != nil {
		return nil, err
	}
	confLine.Color = color.RGBA{R: 57, G: 106, B: 177, A: 255}
	confLine.Width = vg.Points(1)
	pConf.Add(confLine)
	pConf.Legend.Add("confidence", confLine)

	pErr.Legend.Top = true
	pErr.Legend.Left = false
	pConf.Legend.Top = true
	pConf.Legend.Left = false

	errFile := filepath.Join(rp.outputDir, fmt.Sprintf("run_%s_error.png", runID))
	if err := pErr.Save(14*vg.Inch, 6*vg.Inch, errFile); err != nil {
		return nil, fmt.Errorf("save error plot: %w", err)
	}

	confFile := filepath.Join(rp.outputDir, fmt.Sprintf("run_%s_confidence.png", runID))
	if err := pConf.Save(14*vg.Inch, 6*vg.Inch, confFile); err != nil {
		return nil, fmt.Errorf("save confidence plot: %w", err)
	}

	return []string{errFile, confFile}, nil
}
