package training

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sartorproj/autoscenario/arima"
	"github.com/sartorproj/autoscenario/gbt"
	"github.com/sartorproj/autoscenario/linreg"
	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/seasonal"
	"github.com/sartorproj/autoscenario/stats"
)

// Kind identifies a model family.
type Kind string

// Model kinds. Ensemble is never trained; it names the weighted combination.
const (
	Boosted        Kind = "boosted"
	Seasonal       Kind = "seasonal"
	Linear         Kind = "linear"
	Autoregressive Kind = "autoregressive"
	Ensemble       Kind = "ensemble"
)

// Kinds lists the trained model kinds in forecast order.
var Kinds = []Kind{Boosted, Seasonal, Linear, Autoregressive}

// Target is a regression target.
type Target string

// Targets.
const (
	Production Target = "production"
	Price      Target = "price"
)

// Targets lists both targets.
var Targets = []Target{Production, Price}

// Regressor names of the seasonal model, matching panel.MonthlyPoint.
const (
	SteelRegressor = "steel_price"
	GDPRegressor   = "gdp_growth"
)

// Metadata describes a fitted model and its validation scores.
type Metadata struct {
	Kind        Kind               `json:"kind"`
	Target      Target             `json:"target"`
	Features    []string           `json:"features"`
	Rows        int                `json:"rows"`
	R2          float64            `json:"r2"`
	MAE         float64            `json:"mae"`
	CVR2Mean    float64            `json:"cv_r2_mean,omitempty"`
	CVR2Std     float64            `json:"cv_r2_std,omitempty"`
	CVFolds     int                `json:"cv_folds,omitempty"`
	Importance  map[string]float64 `json:"feature_importance,omitempty"`
	Order       string             `json:"order,omitempty"`
	AIC         float64            `json:"aic,omitempty"`
	BIC         float64            `json:"bic,omitempty"`
	Diagnostics *Diagnostics       `json:"diagnostics,omitempty"`
	TrainedAt   time.Time          `json:"trained_at"`
}

// Diagnostics are the residual and stationarity checks of the ARIMA fit.
type Diagnostics struct {
	Summary *arima.Summary   `json:"summary,omitempty"`
	ADF     *stats.ADFResult `json:"adf,omitempty"`
	NDiffs  int              `json:"ndiffs"`
}

// Predictor predicts one target from a covariate row.
type Predictor interface {
	Predict(x []float64) (float64, error)
}

// LinearModel is a fitted OLS model with its metadata.
type LinearModel struct {
	Model *linreg.Model `json:"model"`
	Meta  Metadata      `json:"metadata"`
}

// BoostedModel is a fitted tree ensemble with its metadata.
type BoostedModel struct {
	Model *gbt.Model `json:"model"`
	Meta  Metadata   `json:"metadata"`
}

// SeasonalModel is the fitted monthly seasonal model with its metadata.
type SeasonalModel struct {
	Model *seasonal.Model `json:"model"`
	Meta  Metadata        `json:"metadata"`
}

// ARModel is the fitted ARIMA model of monthly production.
type ARModel struct {
	Model *arima.Model
	Meta  Metadata
}

// Bundle holds every fitted model of a run. Seasonal and Autoregressive
// are nil when unavailable.
type Bundle struct {
	Features       []string
	Linear         map[Target]*LinearModel
	Boosted        map[Target]*BoostedModel
	Seasonal       *SeasonalModel
	Autoregressive *ARModel
	LastRow        panel.Features
}

// Predictor returns the row model of kind for target, if present.
func (b *Bundle) Predictor(kind Kind, target Target) (Predictor, bool) {
	switch kind {
	case Linear:
		if m, ok := b.Linear[target]; ok && m != nil && m.Model != nil {
			return m.Model, true
		}
	case Boosted:
		if m, ok := b.Boosted[target]; ok && m != nil && m.Model != nil {
			return m.Model, true
		}
	}
	return nil, false
}

// Metadata returns the metadata of every model in kind then target order.
func (b *Bundle) Metadata() []Metadata {
	var out []Metadata
	for _, kind := range Kinds {
		switch kind {
		case Boosted:
			for _, t := range Targets {
				if m := b.Boosted[t]; m != nil {
					out = append(out, m.Meta)
				}
			}
		case Linear:
			for _, t := range Targets {
				if m := b.Linear[t]; m != nil {
					out = append(out, m.Meta)
				}
			}
		case Seasonal:
			if b.Seasonal != nil {
				out = append(out, b.Seasonal.Meta)
			}
		case Autoregressive:
			if b.Autoregressive != nil {
				out = append(out, b.Autoregressive.Meta)
			}
		}
	}
	return out
}

// Config holds the trainer settings.
type Config struct {
	CVFolds  int                 `yaml:"cv_folds"`
	Boosting gbt.Params          `yaml:"boosting"`
	Seasonal seasonal.Options    `yaml:"seasonal"`
	AROrder  arima.Order         `yaml:"ar_order"`
	// ARSearch, when set, replaces the fixed p and q of AROrder with a
	// stepwise search at AROrder.D.
	ARSearch *arima.SearchConfig `yaml:"ar_search,omitempty"`
}

// DefaultConfig returns 5-fold validation, the default boosting and
// seasonal settings and an ARIMA(2,1,2).
func DefaultConfig() Config {
	return Config{
		CVFolds:  5,
		Boosting: gbt.DefaultParams(),
		Seasonal: seasonal.DefaultOptions(),
		AROrder:  arima.Order{P: 2, D: 1, Q: 2},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.CVFolds < 2 {
		return errors.New("training: cv_folds must be at least 2")
	}
	if c.AROrder.P < 0 || c.AROrder.D < 0 || c.AROrder.Q < 0 {
		return fmt.Errorf("training: invalid ar order %s", c.AROrder)
	}
	if c.ARSearch != nil {
		if err := c.ARSearch.Validate(); err != nil {
			return fmt.Errorf("training: %w", err)
		}
	}
	return c.Boosting.Validate()
}

// Train fits all models on p. Row and seasonal model failures are returned
// as errors; an ARIMA failure is logged and leaves Autoregressive nil.
func Train(p *panel.Panel, cfg Config, log *zap.Logger) (*Bundle, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if p == nil || p.Len() == 0 {
		return nil, panel.ErrEmptyPanel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ds := p.Extract()
	last, _ := p.LastFeatures()
	b := &Bundle{
		Features: ds.Features,
		Linear:   make(map[Target]*LinearModel, len(Targets)),
		Boosted:  make(map[Target]*BoostedModel, len(Targets)),
		LastRow:  last,
	}

	for _, target := range Targets {
		y := ds.Production
		if target == Price {
			y = ds.Price
		}

		lm, err := trainLinear(ds, y, target, now)
		if err != nil {
			return nil, err
		}
		b.Linear[target] = lm
		log.Info("trained model",
			zap.String("model", string(Linear)),
			zap.String("target", string(target)),
			zap.Float64("r2", lm.Meta.R2),
			zap.Float64("mae", lm.Meta.MAE))

		bm, err := trainBoosted(ds, y, target, cfg, now)
		if err != nil {
			return nil, err
		}
		b.Boosted[target] = bm
		log.Info("trained model",
			zap.String("model", string(Boosted)),
			zap.String("target", string(target)),
			zap.Float64("cv_r2_mean", bm.Meta.CVR2Mean),
			zap.Float64("cv_r2_std", bm.Meta.CVR2Std))
	}

	points := p.Aggregate()
	sm, err := trainSeasonal(points, cfg.Seasonal, now)
	if err != nil {
		return nil, err
	}
	b.Seasonal = sm
	log.Info("trained model",
		zap.String("model", string(Seasonal)),
		zap.String("target", string(Production)),
		zap.Int("months", len(points)),
		zap.Float64("r2", sm.Meta.R2))

	am, err := trainAR(points, cfg.AROrder, cfg.ARSearch, now)
	if err != nil {
		log.Warn("autoregressive model unavailable",
			zap.String("model", string(Autoregressive)),
			zap.String("target", string(Production)),
			zap.Error(err))
	} else {
		b.Autoregressive = am
		log.Info("trained model",
			zap.String("model", string(Autoregressive)),
			zap.String("target", string(Production)),
			zap.String("order", am.Meta.Order),
			zap.Float64("aic", am.Meta.AIC),
			zap.Int("ndiffs", am.Meta.Diagnostics.NDiffs),
			zap.Bool("residuals_white", am.Meta.Diagnostics.Summary.LjungBox.White(0.05)))
	}

	return b, nil
}

func trainLinear(ds *panel.Dataset, y []float64, target Target, now time.Time) (*LinearModel, error) {
	m := linreg.New()
	if err := m.Fit(ds.X, y); err != nil {
		return nil, fmt.Errorf("failed to fit linear %s model: %w", target, err)
	}
	pred, err := m.PredictBatch(ds.X)
	if err != nil {
		return nil, err
	}
	return &LinearModel{
		Model: m,
		Meta: Metadata{
			Kind:      Linear,
			Target:    target,
			Features:  append([]string(nil), ds.Features...),
			Rows:      ds.Len(),
			R2:        finite(stats.R2(y, pred)),
			MAE:       finite(stats.MAE(y, pred)),
			TrainedAt: now,
		},
	}, nil
}

func trainBoosted(ds *panel.Dataset, y []float64, target Target, cfg Config, now time.Time) (*BoostedModel, error) {
	folds := TimeSeriesSplit(ds.Len(), cfg.CVFolds)
	scores := make([]float64, 0, len(folds))
	for i, f := range folds {
		train, test := ds.Rows(0, f.TrainEnd), ds.Rows(f.TestStart, f.TestEnd)
		m := gbt.New(cfg.Boosting)
		if err := m.Fit(train.X, y[:f.TrainEnd]); err != nil {
			return nil, fmt.Errorf("failed to fit boosted %s model on fold %d: %w", target, i, err)
		}
		pred, err := m.PredictBatch(test.X)
		if err != nil {
			return nil, err
		}
		scores = append(scores, finite(stats.R2(y[f.TestStart:f.TestEnd], pred)))
	}
	cvMean, cvStd := 0.0, 0.0
	if len(scores) > 0 {
		cvMean, cvStd = stats.MeanStd(scores)
	}

	m := gbt.New(cfg.Boosting)
	if err := m.Fit(ds.X, y); err != nil {
		return nil, fmt.Errorf("failed to fit boosted %s model: %w", target, err)
	}
	pred, err := m.PredictBatch(ds.X)
	if err != nil {
		return nil, err
	}

	importance := make(map[string]float64, len(ds.Features))
	for j, v := range m.FeatureImportance() {
		importance[ds.Features[j]] = v
	}

	return &BoostedModel{
		Model: m,
		Meta: Metadata{
			Kind:       Boosted,
			Target:     target,
			Features:   append([]string(nil), ds.Features...),
			Rows:       ds.Len(),
			R2:         finite(stats.R2(y, pred)),
			MAE:        finite(stats.MAE(y, pred)),
			CVR2Mean:   cvMean,
			CVR2Std:    cvStd,
			CVFolds:    len(folds),
			Importance: importance,
			TrainedAt:  now,
		},
	}, nil
}

// SeasonalFrame converts monthly points into a seasonal model frame with
// the steel price and GDP growth regressors.
func SeasonalFrame(points []panel.MonthlyPoint) seasonal.Frame {
	f := seasonal.Frame{
		Dates: make([]time.Time, len(points)),
		Y:     make([]float64, len(points)),
		Regressors: map[string][]float64{
			SteelRegressor: make([]float64, len(points)),
			GDPRegressor:   make([]float64, len(points)),
		},
	}
	for i, pt := range points {
		f.Dates[i] = pt.Date
		f.Y[i] = pt.Production
		f.Regressors[SteelRegressor][i] = pt.SteelPrice
		f.Regressors[GDPRegressor][i] = pt.GDPGrowth
	}
	return f
}

func trainSeasonal(points []panel.MonthlyPoint, opts seasonal.Options, now time.Time) (*SeasonalModel, error) {
	m := seasonal.New(opts)
	for _, r := range []string{SteelRegressor, GDPRegressor} {
		if err := m.AddRegressor(r); err != nil {
			return nil, err
		}
	}
	frame := SeasonalFrame(points)
	if err := m.Fit(frame); err != nil {
		return nil, fmt.Errorf("failed to fit seasonal model: %w", err)
	}
	pred, err := m.Predict(frame)
	if err != nil {
		return nil, err
	}
	return &SeasonalModel{
		Model: m,
		Meta: Metadata{
			Kind:      Seasonal,
			Target:    Production,
			Features:  []string{SteelRegressor, GDPRegressor},
			Rows:      len(points),
			R2:        finite(stats.R2(frame.Y, pred)),
			MAE:       finite(stats.MAE(frame.Y, pred)),
			TrainedAt: now,
		},
	}, nil
}

func trainAR(points []panel.MonthlyPoint, order arima.Order, search *arima.SearchConfig, now time.Time) (*ARModel, error) {
	series := panel.ProductionSeries(points)
	var m *arima.Model
	if search != nil {
		res, err := arima.Search(series, order.D, *search)
		if err != nil {
			return nil, err
		}
		m = res.Model
	} else {
		m = arima.New(order.P, order.D, order.Q)
		if err := m.Fit(series); err != nil {
			return nil, err
		}
	}
	return &ARModel{Model: m, Meta: arMetadata(m, series.Len(), now, diagnose(m, points))}, nil
}

func diagnose(m *arima.Model, points []panel.MonthlyPoint) *Diagnostics {
	series := panel.ProductionSeries(points)
	return &Diagnostics{
		Summary: m.Summary(),
		ADF:     stats.ADF(series, 0),
		NDiffs:  stats.NDiffs(series, 2),
	}
}

func arMetadata(m *arima.Model, rows int, now time.Time, d *Diagnostics) Metadata {
	var mae float64
	if resid := m.Residuals(); len(resid) > 0 {
		for _, r := range resid {
			mae += math.Abs(r)
		}
		mae = finite(mae / float64(len(resid)))
	}
	return Metadata{
		Kind:        Autoregressive,
		Target:      Production,
		Rows:        rows,
		MAE:         mae,
		Order:       m.Order.String(),
		AIC:         finite(m.AIC),
		BIC:         finite(m.BIC),
		Diagnostics: d,
		TrainedAt:   now,
	}
}

// Importance returns the boosted feature importances for target sorted by
// decreasing weight.
func (b *Bundle) Importance(target Target) []FeatureWeight {
	bm := b.Boosted[target]
	if bm == nil {
		return nil
	}
	out := make([]FeatureWeight, 0, len(bm.Meta.Importance))
	for name, w := range bm.Meta.Importance {
		out = append(out, FeatureWeight{Feature: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

// FeatureWeight pairs a feature with its importance.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
