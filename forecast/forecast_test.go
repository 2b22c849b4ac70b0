package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sartorproj/autoscenario/arima"
	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/scenario"
	"github.com/sartorproj/autoscenario/seasonal"
	"github.com/sartorproj/autoscenario/training"
)

// constModel predicts a fixed value, or fails when err is set.
type constModel struct {
	v   float64
	err error
}

func (c constModel) Predict(x []float64) (float64, error) { return c.v, c.err }

// recorder remembers every row it was asked to predict.
type recorder struct {
	rows [][]float64
}

func (r *recorder) Predict(x []float64) (float64, error) {
	r.rows = append(r.rows, append([]float64(nil), x...))
	return 1, nil
}

func trainedBundle(t *testing.T) *training.Bundle {
	t.Helper()
	p, err := panel.Generate(panel.Config{
		Start:  time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC),
		Months: 48,
		Seed:   11,
	})
	require.NoError(t, err)
	cfg := training.DefaultConfig()
	cfg.CVFolds = 2
	cfg.Boosting.NumTrees = 5
	cfg.Boosting.MaxDepth = 3
	b, err := training.Train(p, cfg, nil)
	require.NoError(t, err)
	return b
}

func TestScenarioFeaturesStatusQuo(t *testing.T) {
	sq, err := scenario.Defaults().Get("status_quo")
	require.NoError(t, err)

	base := panel.Features{GDPGrowth: 0.5, SteelPrice: 1, EVShare: 0.3, OilPrice: 1, InterestRate: 1}
	got := ScenarioFeatures(base, sq, 0, sq.EVGrowth(), DefaultConfig())
	want := panel.Features{
		GDPGrowth:    0.02,
		SteelPrice:   700,
		USTariffRate: 0.035,
		USEVSubsidy:  7500,
		EVShare:      0.15,
		OilPrice:     70,
		InterestRate: 0.03,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}

	later := ScenarioFeatures(base, sq, 6, 0.25, DefaultConfig())
	assert.InDelta(t, 0.8, later.EVShare, 1e-12)
	assert.InDelta(t, 82, later.OilPrice, 1e-12)
	assert.InDelta(t, 0.03+0.01*math.Sin(3), later.InterestRate, 1e-12)
}

func TestEnsembleWeights(t *testing.T) {
	w := DefaultWeights()
	series := map[training.Kind]Series{
		training.Boosted:        {Production: []float64{100}, Price: []float64{10}},
		training.Seasonal:       {Production: []float64{200}, Price: []float64{20}},
		training.Linear:         {Production: []float64{300}, Price: []float64{30}},
		training.Autoregressive: {Production: []float64{400}, Price: []float64{40}},
	}
	all := Ensemble(series, w, 1)
	assert.InDelta(t, 0.4*100+0.3*200+0.2*300+0.1*400, all.Production[0], 1e-9)
	assert.InDelta(t, 0.4*10+0.3*20+0.2*30+0.1*40, all.Price[0], 1e-9)

	delete(series, training.Seasonal)
	three := Ensemble(series, w, 1)
	assert.InDelta(t, (0.4*100+0.2*300+0.1*400)/0.7, three.Production[0], 1e-9)

	none := Ensemble(nil, w, 3)
	assert.Equal(t, []float64{0, 0, 0}, none.Production)
}

func TestRowForecastUsesScenarioRows(t *testing.T) {
	rec := &recorder{}
	s, err := scenario.Defaults().Get("status_quo")
	require.NoError(t, err)

	series, err := rowForecast(rec, constModel{v: 30000}, panel.Features{}, s, s.EVGrowth(), DefaultConfig())
	require.NoError(t, err)
	require.Len(t, rec.rows, 7)
	assert.Equal(t, []float64{0.02, 700, 0.035, 7500, 0.15, 70, 0.03}, rec.rows[0])
	assert.Equal(t, 30000.0, series.Price[0])
	assert.Equal(t, 1.0, series.Production[6])
}

func TestRunFullPipeline(t *testing.T) {
	b := trainedBundle(t)
	res, err := Run(b, scenario.Defaults(), DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []int{2024, 2025, 2026, 2027, 2028, 2029, 2030}, res.Years)
	assert.Len(t, res.Scenarios, 9)

	kinds := 5
	if b.Autoregressive == nil {
		kinds = 4
	}
	assert.Len(t, res.Records, 9*kinds*7)
	assert.Empty(t, res.Failures)

	for _, r := range res.Records {
		assert.GreaterOrEqual(t, r.Production, 0.0)
		assert.GreaterOrEqual(t, r.Price, 0.0)
	}

	first := res.Records[0]
	assert.Equal(t, "status_quo", first.Scenario)
	assert.Equal(t, training.Boosted, first.Model)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, training.Ensemble, res.Models("status_quo")[kinds-1])

	seas, ok := res.Series("status_quo", training.Seasonal)
	require.True(t, ok)
	assert.Equal(t, 30000.0, seas.Price[0])
	assert.Equal(t, 36000.0, seas.Price[6])
	for _, r := range res.Filter("status_quo", training.Seasonal) {
		assert.True(t, r.Approximate)
	}

	_, ok = res.Growth("status_quo")
	assert.True(t, ok)
}

func TestRunScenarioIsolation(t *testing.T) {
	b := trainedBundle(t)
	base, err := Run(b, scenario.Defaults(), DefaultConfig(), nil)
	require.NoError(t, err)

	tbl := scenario.Defaults()
	require.NoError(t, tbl.Set(scenario.Scenario{
		Name:     "protectionist",
		Category: scenario.PoliticalUS,
		Params:   map[string]float64{scenario.TariffRate: 0.5, scenario.SteelPriceFactor: 3, scenario.GDPGrowth: -0.05},
	}))
	changed, err := Run(b, tbl, DefaultConfig(), nil)
	require.NoError(t, err)

	for _, name := range tbl.Names() {
		if name == "protectionist" {
			continue
		}
		if diff := cmp.Diff(base.Filter(name, ""), changed.Filter(name, "")); diff != "" {
			t.Errorf("scenario %s changed (-before +after):\n%s", name, diff)
		}
	}
}

func TestRunIsolatesModelFailures(t *testing.T) {
	b := trainedBundle(t)
	b.Autoregressive = &training.ARModel{Model: arima.New(2, 1, 2)}

	res, err := Run(b, scenario.Defaults(), DefaultConfig(), nil)
	require.NoError(t, err)
	require.Len(t, res.Failures, 9)
	assert.Equal(t, training.Autoregressive, res.Failures[0].Model)
	assert.Empty(t, res.Filter("", training.Autoregressive))

	ens, ok := res.Series("status_quo", training.Ensemble)
	require.True(t, ok)
	boosted, _ := res.Series("status_quo", training.Boosted)
	seas, _ := res.Series("status_quo", training.Seasonal)
	lin, _ := res.Series("status_quo", training.Linear)
	want := (0.4*boosted.Production[0] + 0.3*seas.Production[0] + 0.2*lin.Production[0]) / 0.9
	assert.InDelta(t, want, ens.Production[0], 1e-6)
}

func TestRunMissingModelsAreSkipped(t *testing.T) {
	b := &training.Bundle{}
	res, err := Run(b, scenario.Defaults(), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Len(t, res.Records, 9*7)
	for _, r := range res.Records {
		assert.Equal(t, training.Ensemble, r.Model)
		assert.Zero(t, r.Production)
	}
}

func TestFlooring(t *testing.T) {
	assert.Equal(t, 0.0, floor(-5))
	assert.Equal(t, 0.0, floor(math.NaN()))
	assert.Equal(t, 3.0, floor(3))

	s, _ := scenario.Defaults().Get("status_quo")
	series, err := rowForecast(constModel{v: -100}, constModel{v: -1}, panel.Features{}, s, 0.15, DefaultConfig())
	require.NoError(t, err)
	for i := range series.Production {
		assert.Zero(t, series.Production[i])
		assert.Zero(t, series.Price[i])
	}

	_, err = rowForecast(constModel{err: errors.New("boom")}, constModel{}, panel.Features{}, s, 0.15, DefaultConfig())
	assert.Error(t, err)
}

func TestARMultiplier(t *testing.T) {
	s, _ := scenario.Defaults().Get("raw_materials_crisis")
	assert.InDelta(t, math.Pow(1.5, -0.2)*math.Pow(1.01, 3), ARMultiplier(s), 1e-12)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizon = 0
	_, err := Run(&training.Bundle{}, scenario.Defaults(), cfg, nil)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Weights[training.Linear] = -1
	assert.Error(t, cfg.Validate())
}

func TestRunRequiresInputs(t *testing.T) {
	_, err := Run(nil, scenario.Defaults(), DefaultConfig(), nil)
	assert.Error(t, err)
	_, err = Run(&training.Bundle{}, nil, DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestSeasonalForecastEvaluatesForecastYears(t *testing.T) {
	b := trainedBundle(t)
	require.NotNil(t, b.Seasonal)
	cfg := DefaultConfig()
	s, err := scenario.Defaults().Get("status_quo")
	require.NoError(t, err)

	got, err := seasonalForecast(b, s, cfg)
	require.NoError(t, err)

	frame := seasonal.Frame{
		Regressors: map[string][]float64{
			training.SteelRegressor: make([]float64, cfg.Horizon),
			training.GDPRegressor:   make([]float64, cfg.Horizon),
		},
	}
	for i, year := range cfg.Years() {
		frame.Dates = append(frame.Dates, time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC))
		frame.Regressors[training.SteelRegressor][i] = cfg.BaseSteelPrice * s.SteelFactor()
		frame.Regressors[training.GDPRegressor][i] = s.GDP()
	}
	want, err := b.Seasonal.Model.Predict(frame)
	require.NoError(t, err)

	for i := range want {
		assert.InDelta(t, floor(want[i]), got.Production[i], 1e-6, "year %d", cfg.Years()[i])
	}
}
