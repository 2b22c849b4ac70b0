package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/training"
)

// Chart file names written by SaveCharts.
const (
	EnsembleChart = "ensemble_production.png"
	modelChartFmt = "models_%s.png"
)

// SaveCharts renders the ensemble production of every scenario and the
// per-model production of the focus scenario into dir. It returns the
// written paths.
func SaveCharts(res *forecast.Result, focus, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chart directory: %w", err)
	}

	var paths []string
	p := newPlot("Ensemble production by scenario", "Year", "Production (units)")
	var lines []any
	for _, name := range res.Scenarios {
		if s, ok := res.Series(name, training.Ensemble); ok {
			lines = append(lines, DisplayName(name), yearXYs(res.Years, s.Production))
		}
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return nil, fmt.Errorf("failed to add ensemble lines: %w", err)
	}
	path := filepath.Join(dir, EnsembleChart)
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("failed to save chart: %w", err)
	}
	paths = append(paths, path)

	if focus == "" {
		return paths, nil
	}
	p = newPlot(DisplayName(focus)+": production by model", "Year", "Production (units)")
	lines = lines[:0]
	for _, kind := range res.Models(focus) {
		s, _ := res.Series(focus, kind)
		lines = append(lines, DisplayName(string(kind)), yearXYs(res.Years, s.Production))
	}
	if len(lines) == 0 {
		return paths, nil
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return nil, fmt.Errorf("failed to add model lines: %w", err)
	}
	path = filepath.Join(dir, fmt.Sprintf(modelChartFmt, focus))
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return nil, fmt.Errorf("failed to save chart: %w", err)
	}
	return append(paths, path), nil
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func yearXYs(years []int, values []float64) plotter.XYs {
	n := min(len(years), len(values))
	xys := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		xys[i].X = float64(years[i])
		xys[i].Y = values[i]
	}
	return xys
}
