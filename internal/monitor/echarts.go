package monitor

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/fieldline-data/position.report/internal/simdb"
)

// RenderTrajectoryChart renders the true and estimated rover trajectories of
// one run as an interactive scatter chart. Points carry the tick index so the
// visual map shows time progression.
func RenderTrajectoryChart(run *simdb.Run, ticks []simdb.TickRecord) ([]byte, error) {
	truth := make([]opts.ScatterData, 0, len(ticks))
	estimates := make([]opts.ScatterData, 0, len(ticks))
	maxTick := 0
	for _, tick := range ticks {
		if tick.Tick > maxTick {
			maxTick = tick.Tick
		}
		if len(tick.Truth) >= 2 {
			truth = append(truth, opts.ScatterData{
				Value: []interface{}{tick.Truth[0], tick.Truth[1], tick.Tick},
			})
		}
		if len(tick.Estimate) >= 2 {
			estimates = append(estimates, opts.ScatterData{
				Value: []interface{}{tick.Estimate[0], tick.Estimate[1], tick.Tick},
			})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Run Trajectory", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Rover Trajectory: Truth vs Estimate", Subtitle: fmt.Sprintf("run=%s ticks=%d", run.RunID, len(ticks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxTick),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("truth", truth, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	scatter.AddSeries("estimate", estimates, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, fmt.Errorf("render trajectory chart: %w", err)
	}
	return buf.Bytes(), nil
}

// AttachChartRoutes mounts the run chart pages on the mux.
func AttachChartRoutes(mux *http.ServeMux, store *simdb.RunStore) {
	mux.HandleFunc("/debug/charts/run", func(w http.ResponseWriter, r *http.Request) {
		runID := r.URL.Query().Get("id")
		if runID == "" {
			http.Error(w, "missing 'id' parameter", http.StatusBadRequest)
			return
		}

		run, err := store.GetRun(runID)
		if err != nil {
			http.Error(w, fmt.Sprintf("run %s: %v", runID, err), http.StatusNotFound)
			return
		}
		ticks, err := store.ListTicks(runID)
		if err != nil {
			http.Error(w, fmt.Sprintf("ticks for run %s: %v", runID, err), http.StatusInternalServerError)
			return
		}

		html, err := RenderTrajectoryChart(run, ticks)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(html)
	})
}
