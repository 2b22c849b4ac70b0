package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/training"
)

func sampleResult() *forecast.Result {
	years := []int{2024, 2025, 2026}
	res := &forecast.Result{
		Years:     years,
		Scenarios: []string{"status_quo", "protectionist", "empty"},
		Weights:   forecast.DefaultWeights(),
	}
	add := func(name string, kind training.Kind, prod []float64) {
		for i, y := range years {
			res.Records = append(res.Records, forecast.Record{
				Scenario: name, Model: kind, Year: y, Production: prod[i], Price: 30000 + float64(i),
			})
		}
	}
	add("status_quo", training.Boosted, []float64{100, 110, 120})
	add("status_quo", training.Ensemble, []float64{100, 110, 120})
	add("protectionist", training.Ensemble, []float64{100, 95, 90})
	add("empty", training.Ensemble, []float64{0, 0, 0})
	return res
}

func TestRecommend(t *testing.T) {
	rec := Recommend(sampleResult())

	es := rec.ExecutiveSummary
	assert.Equal(t, "status_quo", es.BestScenario)
	assert.InDelta(t, 20, es.BestGrowth, 1e-9)
	assert.Equal(t, "protectionist", es.WorstScenario)
	assert.InDelta(t, -10, es.WorstGrowth, 1e-9)

	require.Len(t, rec.ScenarioGrowth, 2)
	assert.Equal(t, 120.0, rec.ScenarioGrowth[0].FinalProduction)
	assert.Len(t, rec.StrategicPriorities, 5)
	assert.Len(t, rec.Manufacturers, 3)
}

func TestRecommendWithoutForecasts(t *testing.T) {
	rec := Recommend(&forecast.Result{})
	assert.Equal(t, NotAvailable, rec.ExecutiveSummary.BestScenario)
	assert.Equal(t, NotAvailable, FormatGrowth(rec.ExecutiveSummary.BestScenario, 0))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Status Quo", DisplayName("status_quo"))
	assert.Equal(t, "Ira Full Implementation", DisplayName("ira_full_implementation"))
	assert.Equal(t, "Status Quo (+20.0%)", FormatGrowth("status_quo", 20))
	assert.Equal(t, "Protectionist (-10.0%)", FormatGrowth("protectionist", -10))
}

func TestResultsRoundTrip(t *testing.T) {
	res := sampleResult()
	models := []training.Metadata{
		{Kind: training.Boosted, Target: training.Production},
		{Kind: training.Boosted, Target: training.Price},
		{Kind: training.Linear, Target: training.Production},
	}
	r := NewResults(models, res, Recommend(res))
	assert.NotEmpty(t, r.Metadata.RunID)
	assert.Equal(t, []string{"boosted", "linear"}, r.Summary.ModelsUsed)
	assert.Equal(t, 3, r.Summary.TotalScenarios)
	assert.Equal(t, "Status Quo (+20.0%)", r.Summary.BestScenario)

	path := filepath.Join(t.TempDir(), "out", "results.json")
	require.NoError(t, SaveResults(path, r))

	loaded, err := LoadResults(path)
	require.NoError(t, err)
	assert.Equal(t, r.Metadata.RunID, loaded.Metadata.RunID)
	assert.Equal(t, res.Records, loaded.Forecasts.Records)
	assert.Equal(t, r.Recommendations.ExecutiveSummary, loaded.Recommendations.ExecutiveSummary)
}

func TestSaveWorkbook(t *testing.T) {
	res := sampleResult()
	r := NewResults([]training.Metadata{{Kind: training.Linear, Target: training.Production, R2: 0.5}}, res, Recommend(res))

	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveWorkbook(r, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetExecutive, SheetScenarios, SheetRecs, SheetModels, SheetForecasts}, f.GetSheetList())

	rows, err := f.GetRows(SheetForecasts)
	require.NoError(t, err)
	assert.Len(t, rows, len(res.Records)+1)
	assert.Equal(t, "Scenario", rows[0][0])

	rows, err = f.GetRows(SheetScenarios)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Status Quo", rows[1][0])
	assert.Equal(t, "20.0%", rows[1][1])
}

func TestSaveCharts(t *testing.T) {
	dir := t.TempDir()
	paths, err := SaveCharts(sampleResult(), "status_quo", dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
	assert.Equal(t, filepath.Join(dir, "models_status_quo.png"), paths[1])
}
