package forecast

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/scenario"
	"github.com/sartorproj/autoscenario/training"
)

// ErrMissingModel is returned when a model needed for a forecast is absent.
var ErrMissingModel = errors.New("forecast: model not available")

// Record is one forecast value.
type Record struct {
	Scenario    string        `json:"scenario"`
	Model       training.Kind `json:"model"`
	Year        int           `json:"year"`
	Production  float64       `json:"production"`
	Price       float64       `json:"price"`
	Approximate bool          `json:"price_approximate,omitempty"`
}

// Failure records a model that could not forecast a scenario.
type Failure struct {
	Scenario string        `json:"scenario"`
	Model    training.Kind `json:"model"`
	Error    string        `json:"error"`
}

// Series is a per-year production and price path.
type Series struct {
	Production []float64 `json:"production"`
	Price      []float64 `json:"price"`
}

// Result is the output of Run.
type Result struct {
	Years     []int                     `json:"years"`
	Scenarios []string                  `json:"scenarios"`
	Weights   map[training.Kind]float64 `json:"weights"`
	Records   []Record                  `json:"records"`
	Failures  []Failure                 `json:"failures,omitempty"`
}

// Config holds the forecast horizon and the covariate paths applied to
// every scenario.
type Config struct {
	StartYear int `yaml:"start_year"`
	Horizon   int `yaml:"horizon"`

	BaseEVShare       float64 `yaml:"base_ev_share"`
	EVShareCap        float64 `yaml:"ev_share_cap"`
	LinearEVIncrement float64 `yaml:"linear_ev_increment"`
	BaseSteelPrice    float64 `yaml:"base_steel_price"`
	BaseOilPrice      float64 `yaml:"base_oil_price"`
	OilIncrement      float64 `yaml:"oil_increment"`
	BaseInterestRate  float64 `yaml:"base_interest_rate"`
	InterestAmplitude float64 `yaml:"interest_amplitude"`
	InterestFrequency float64 `yaml:"interest_frequency"`

	SeasonalPriceBase float64 `yaml:"seasonal_price_base"`
	SeasonalPriceStep float64 `yaml:"seasonal_price_step"`
	ARPriceBase       float64 `yaml:"ar_price_base"`
	ARPriceStep       float64 `yaml:"ar_price_step"`

	Weights map[training.Kind]float64 `yaml:"weights"`
}

// DefaultConfig forecasts 2024 to 2030.
func DefaultConfig() Config {
	return Config{
		StartYear:         2024,
		Horizon:           7,
		BaseEVShare:       0.15,
		EVShareCap:        0.8,
		LinearEVIncrement: 0.10,
		BaseSteelPrice:    700,
		BaseOilPrice:      70,
		OilIncrement:      2,
		BaseInterestRate:  0.03,
		InterestAmplitude: 0.01,
		InterestFrequency: 0.5,
		SeasonalPriceBase: 30000,
		SeasonalPriceStep: 1000,
		ARPriceBase:       28000,
		ARPriceStep:       800,
		Weights:           DefaultWeights(),
	}
}

// DefaultWeights returns the ensemble weights.
func DefaultWeights() map[training.Kind]float64 {
	return map[training.Kind]float64{
		training.Boosted:        0.4,
		training.Seasonal:       0.3,
		training.Linear:         0.2,
		training.Autoregressive: 0.1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Horizon < 1 {
		return errors.New("forecast: horizon must be at least 1")
	}
	for k, w := range c.Weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("forecast: weight of %s must not be negative", k)
		}
	}
	return nil
}

// Years returns the forecast years.
func (c Config) Years() []int {
	years := make([]int, c.Horizon)
	for i := range years {
		years[i] = c.StartYear + i
	}
	return years
}

// ScenarioFeatures returns the covariate row for year offset i: base with
// the scenario policy and macro values substituted, EV share advanced by
// evGrowth per year from the base share, oil rising linearly and interest
// oscillating.
func ScenarioFeatures(base panel.Features, s scenario.Scenario, i int, evGrowth float64, cfg Config) panel.Features {
	f := base
	f.USTariffRate = s.Tariff()
	f.USEVSubsidy = s.Subsidy()
	f.GDPGrowth = s.GDP()
	f.SteelPrice = cfg.BaseSteelPrice * s.SteelFactor()
	f.EVShare = math.Min(cfg.BaseEVShare+float64(i)*evGrowth, cfg.EVShareCap)
	f.OilPrice = cfg.BaseOilPrice + float64(i)*cfg.OilIncrement
	f.InterestRate = cfg.BaseInterestRate + cfg.InterestAmplitude*math.Sin(float64(i)*cfg.InterestFrequency)
	return f
}

// ARMultiplier is the scenario adjustment applied to ARIMA forecasts.
func ARMultiplier(s scenario.Scenario) float64 {
	return math.Pow(s.SteelFactor(), -0.2) * math.Pow(1+s.GDP(), 3)
}

// Run forecasts every scenario of table with every model in b. A model
// missing from b is skipped; a model that fails is logged, recorded in
// Result.Failures and left out of that scenario's ensemble.
func Run(b *training.Bundle, table *scenario.Table, cfg Config, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if b == nil || table == nil {
		return nil, errors.New("forecast: bundle and scenario table are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Years:     cfg.Years(),
		Scenarios: table.Names(),
		Weights:   cfg.Weights,
	}
	for _, s := range table.All() {
		log.Info("forecasting scenario", zap.String("scenario", s.Name), zap.String("category", s.Category))

		present := make(map[training.Kind]Series, len(training.Kinds))
		for _, kind := range training.Kinds {
			series, err := safeForecast(b, kind, s, cfg)
			if errors.Is(err, ErrMissingModel) {
				log.Debug("model not available", zap.String("scenario", s.Name), zap.String("model", string(kind)))
				continue
			}
			if err != nil {
				log.Warn("model forecast failed",
					zap.String("scenario", s.Name),
					zap.String("model", string(kind)),
					zap.Error(err))
				res.Failures = append(res.Failures, Failure{Scenario: s.Name, Model: kind, Error: err.Error()})
				continue
			}
			present[kind] = series
			res.Records = appendSeries(res.Records, s.Name, kind, series, res.Years, kind == training.Seasonal || kind == training.Autoregressive)
		}

		ens := Ensemble(present, cfg.Weights, cfg.Horizon)
		res.Records = appendSeries(res.Records, s.Name, training.Ensemble, ens, res.Years, false)
		if len(ens.Production) > 0 {
			log.Info("ensemble forecast",
				zap.String("scenario", s.Name),
				zap.Int("year", res.Years[len(res.Years)-1]),
				zap.Float64("production", ens.Production[len(ens.Production)-1]))
		}
	}
	return res, nil
}

// Ensemble returns the weighted average of the present series for each of
// the first years entries. Weights are renormalised over the models present
// at each year; a year with no model is 0.
func Ensemble(series map[training.Kind]Series, weights map[training.Kind]float64, years int) Series {
	out := Series{Production: make([]float64, years), Price: make([]float64, years)}
	for i := 0; i < years; i++ {
		var prod, price, total float64
		for _, kind := range training.Kinds {
			s, ok := series[kind]
			w := weights[kind]
			if !ok || w == 0 || i >= len(s.Production) || i >= len(s.Price) {
				continue
			}
			prod += w * s.Production[i]
			price += w * s.Price[i]
			total += w
		}
		if total > 0 {
			out.Production[i] = prod / total
			out.Price[i] = price / total
		}
	}
	return out
}

func appendSeries(records []Record, name string, kind training.Kind, s Series, years []int, approx bool) []Record {
	for i, y := range years {
		if i >= len(s.Production) {
			break
		}
		records = append(records, Record{
			Scenario:    name,
			Model:       kind,
			Year:        y,
			Production:  s.Production[i],
			Price:       s.Price[i],
			Approximate: approx,
		})
	}
	return records
}

func safeForecast(b *training.Bundle, kind training.Kind, s scenario.Scenario, cfg Config) (series Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("forecast panicked: %v", r)
		}
	}()

	switch kind {
	case training.Boosted:
		return bundleRowForecast(b, kind, s, s.EVGrowth(), cfg)
	case training.Linear:
		return bundleRowForecast(b, kind, s, cfg.LinearEVIncrement, cfg)
	case training.Seasonal:
		return seasonalForecast(b, s, cfg)
	case training.Autoregressive:
		return arForecast(b, s, cfg)
	}
	return Series{}, fmt.Errorf("forecast: unknown model kind %q", kind)
}

func bundleRowForecast(b *training.Bundle, kind training.Kind, s scenario.Scenario, evGrowth float64, cfg Config) (Series, error) {
	prodModel, ok := b.Predictor(kind, training.Production)
	if !ok {
		return Series{}, ErrMissingModel
	}
	priceModel, ok := b.Predictor(kind, training.Price)
	if !ok {
		return Series{}, fmt.Errorf("%s price model is missing", kind)
	}
	return rowForecast(prodModel, priceModel, b.LastRow, s, evGrowth, cfg)
}

// rowForecast predicts each year independently from its scenario row.
func rowForecast(prodModel, priceModel training.Predictor, base panel.Features, s scenario.Scenario, evGrowth float64, cfg Config) (Series, error) {
	out := Series{Production: make([]float64, cfg.Horizon), Price: make([]float64, cfg.Horizon)}
	for i := 0; i < cfg.Horizon; i++ {
		x := ScenarioFeatures(base, s, i, evGrowth, cfg).Vector()
		prod, err := prodModel.Predict(x)
		if err != nil {
			return Series{}, err
		}
		price, err := priceModel.Predict(x)
		if err != nil {
			return Series{}, err
		}
		out.Production[i] = floor(prod)
		out.Price[i] = floor(price)
	}
	return out, nil
}

func seasonalForecast(b *training.Bundle, s scenario.Scenario, cfg Config) (Series, error) {
	if b.Seasonal == nil || b.Seasonal.Model == nil {
		return Series{}, ErrMissingModel
	}
	m := b.Seasonal.Model
	future := m.MakeFuture(cfg.StartYear, cfg.Horizon)
	n := future.Len()
	for i := n - cfg.Horizon; i < n; i++ {
		future.Regressors[training.SteelRegressor][i] = cfg.BaseSteelPrice * s.SteelFactor()
		future.Regressors[training.GDPRegressor][i] = s.GDP()
	}

	yhat, err := m.Predict(future)
	if err != nil {
		return Series{}, err
	}
	out := Series{Production: make([]float64, cfg.Horizon), Price: make([]float64, cfg.Horizon)}
	for i := range out.Production {
		out.Production[i] = floor(yhat[n-cfg.Horizon+i])
		out.Price[i] = cfg.SeasonalPriceBase + float64(i)*cfg.SeasonalPriceStep
	}
	return out, nil
}

func arForecast(b *training.Bundle, s scenario.Scenario, cfg Config) (Series, error) {
	if b.Autoregressive == nil || b.Autoregressive.Model == nil {
		return Series{}, ErrMissingModel
	}
	pred, err := b.Autoregressive.Model.Predict(cfg.Horizon)
	if err != nil {
		return Series{}, err
	}
	factor := ARMultiplier(s)
	out := Series{Production: make([]float64, cfg.Horizon), Price: make([]float64, cfg.Horizon)}
	for i, v := range pred {
		out.Production[i] = floor(v * factor)
		out.Price[i] = cfg.ARPriceBase + float64(i)*cfg.ARPriceStep
	}
	return out, nil
}

func floor(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
