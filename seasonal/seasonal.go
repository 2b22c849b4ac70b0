package seasonal

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFitted is returned when predicting with an unfitted model.
	ErrNotFitted = errors.New("seasonal: model is not fitted")
	// ErrInsufficientData is returned when the history is too short.
	ErrInsufficientData = errors.New("seasonal: insufficient history")
)

const (
	yearDays = 365.25
	dayNanos = float64(24 * time.Hour)
)

// Options configures the model components and priors.
type Options struct {
	YearlySeasonality  bool    `yaml:"yearly_seasonality" json:"yearly_seasonality"`
	WeeklySeasonality  bool    `yaml:"weekly_seasonality" json:"weekly_seasonality"`
	DailySeasonality   bool    `yaml:"daily_seasonality" json:"daily_seasonality"`
	FourierOrderYearly int     `yaml:"fourier_order_yearly" json:"fourier_order_yearly"`
	FourierOrderWeekly int     `yaml:"fourier_order_weekly" json:"fourier_order_weekly"`
	FourierOrderDaily  int     `yaml:"fourier_order_daily" json:"fourier_order_daily"`
	NumChangePoints    int     `yaml:"num_changepoints" json:"num_changepoints"`
	ChangePointRange   float64 `yaml:"changepoint_range" json:"changepoint_range"`
	ChangePointScale   float64 `yaml:"changepoint_prior_scale" json:"changepoint_prior_scale"`
	SeasonalityScale   float64 `yaml:"seasonality_prior_scale" json:"seasonality_prior_scale"`
	RegressorScale     float64 `yaml:"regressor_prior_scale" json:"regressor_prior_scale"`
}

// DefaultOptions enables yearly seasonality only, which suits monthly data.
func DefaultOptions() Options {
	return Options{
		YearlySeasonality:  true,
		FourierOrderYearly: 10,
		FourierOrderWeekly: 3,
		FourierOrderDaily:  4,
		NumChangePoints:    25,
		ChangePointRange:   0.8,
		ChangePointScale:   0.05,
		SeasonalityScale:   10,
		RegressorScale:     10,
	}
}

type seasonality struct {
	period float64
	order  int
}

func (o Options) seasonalities() []seasonality {
	var out []seasonality
	if o.YearlySeasonality && o.FourierOrderYearly > 0 {
		out = append(out, seasonality{yearDays, o.FourierOrderYearly})
	}
	if o.WeeklySeasonality && o.FourierOrderWeekly > 0 {
		out = append(out, seasonality{7, o.FourierOrderWeekly})
	}
	if o.DailySeasonality && o.FourierOrderDaily > 0 {
		out = append(out, seasonality{1, o.FourierOrderDaily})
	}
	return out
}

// Frame holds dated observations and regressor columns aligned with Dates.
type Frame struct {
	Dates      []time.Time          `json:"ds"`
	Y          []float64            `json:"y,omitempty"`
	Regressors map[string][]float64 `json:"regressors,omitempty"`
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Dates)
}

// State is the fitted parameter set.
type State struct {
	Start        time.Time `json:"start"`
	TScale       float64   `json:"t_scale"`
	YScale       float64   `json:"y_scale"`
	Changepoints []float64 `json:"changepoints"`
	RegMean      []float64 `json:"reg_mean"`
	RegStd       []float64 `json:"reg_std"`
	Beta         []float64 `json:"beta"`
	Sigma        float64   `json:"sigma"`
}

// Model is an additive trend + seasonality + regressors model.
type Model struct {
	Options    Options  `json:"options"`
	Regressors []string `json:"regressors"`
	History    Frame    `json:"history"`
	State      *State   `json:"state,omitempty"`
}

// New returns an unfitted model.
func New(opts Options) *Model {
	return &Model{Options: opts}
}

// AddRegressor registers an external regressor. It must be called before Fit.
func (m *Model) AddRegressor(name string) error {
	if m.State != nil {
		return errors.New("seasonal: regressors must be added before fitting")
	}
	for _, r := range m.Regressors {
		if r == name {
			return fmt.Errorf("seasonal: duplicate regressor %q", name)
		}
	}
	m.Regressors = append(m.Regressors, name)
	return nil
}

// Fit estimates the model on the history frame, which must carry Y and
// every registered regressor.
func (m *Model) Fit(history Frame) error {
	n := history.Len()
	if n < 3 || len(history.Y) != n {
		return fmt.Errorf("%w: %d dates, %d values", ErrInsufficientData, n, len(history.Y))
	}
	if err := m.checkRegressors(history); err != nil {
		return err
	}
	if !sort.SliceIsSorted(history.Dates, func(i, j int) bool { return history.Dates[i].Before(history.Dates[j]) }) {
		return errors.New("seasonal: history dates must be ascending")
	}

	st := &State{Start: history.Dates[0]}
	st.TScale = float64(history.Dates[n-1].Sub(st.Start))
	if st.TScale <= 0 {
		return fmt.Errorf("%w: history spans no time", ErrInsufficientData)
	}
	st.YScale = floats.Max(absAll(history.Y))
	if st.YScale == 0 {
		st.YScale = 1
	}

	t := make([]float64, n)
	for i, d := range history.Dates {
		t[i] = float64(d.Sub(st.Start)) / st.TScale
	}
	st.Changepoints = changepoints(t, m.Options.NumChangePoints, m.Options.ChangePointRange)

	st.RegMean = make([]float64, len(m.Regressors))
	st.RegStd = make([]float64, len(m.Regressors))
	for j, name := range m.Regressors {
		col := history.Regressors[name]
		mean := floats.Sum(col) / float64(n)
		ss := 0.0
		for _, v := range col {
			ss += (v - mean) * (v - mean)
		}
		std := math.Sqrt(ss / float64(n))
		if std == 0 {
			std = 1
		}
		st.RegMean[j], st.RegStd[j] = mean, std
	}

	m.State = st
	x := m.design(history)
	_, k := x.Dims()

	penalty := m.penalties(k)
	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for j, p := range penalty {
		xtx.SetSym(j, j, xtx.At(j, j)+p)
	}

	y := mat.NewVecDense(n, nil)
	for i, v := range history.Y {
		y.SetVec(i, v/st.YScale)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		m.State = nil
		return errors.New("seasonal: normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		m.State = nil
		return fmt.Errorf("seasonal: solve failed: %w", err)
	}
	st.Beta = make([]float64, k)
	for j := range st.Beta {
		st.Beta[j] = beta.AtVec(j)
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &beta)
	resid.SubVec(y, &fitted)
	st.Sigma = math.Sqrt(mat.Dot(&resid, &resid)/float64(n)) * st.YScale

	m.History = copyFrame(history)
	return nil
}

// Fitted reports whether Fit has succeeded.
func (m *Model) Fitted() bool {
	return m.State != nil
}

// Predict returns yhat for every row of f.
func (m *Model) Predict(f Frame) ([]float64, error) {
	if m.State == nil {
		return nil, ErrNotFitted
	}
	if f.Len() == 0 {
		return nil, nil
	}
	if err := m.checkRegressors(f); err != nil {
		return nil, err
	}

	x := m.design(f)
	var yhat mat.VecDense
	yhat.MulVec(x, mat.NewVecDense(len(m.State.Beta), m.State.Beta))
	out := make([]float64, f.Len())
	for i := range out {
		out[i] = yhat.AtVec(i) * m.State.YScale
	}
	return out, nil
}

// MakeFuture returns the history dates followed by periods year-end dates,
// December 31 of startYear, startYear+1 and so on. Regressor columns keep
// their historical values and are padded with the last observed value;
// callers overwrite the appended rows as needed.
func (m *Model) MakeFuture(startYear, periods int) Frame {
	h := m.History
	n := h.Len()
	f := Frame{
		Dates:      make([]time.Time, n, n+periods),
		Regressors: make(map[string][]float64, len(m.Regressors)),
	}
	copy(f.Dates, h.Dates)

	for p := 0; p < periods; p++ {
		f.Dates = append(f.Dates, time.Date(startYear+p, time.December, 31, 0, 0, 0, 0, time.UTC))
	}

	for _, name := range m.Regressors {
		col := make([]float64, n, n+periods)
		copy(col, h.Regressors[name])
		pad := 0.0
		if n > 0 {
			pad = col[n-1]
		}
		for p := 0; p < periods; p++ {
			col = append(col, pad)
		}
		f.Regressors[name] = col
	}
	return f
}

func (m *Model) checkRegressors(f Frame) error {
	for _, name := range m.Regressors {
		col, ok := f.Regressors[name]
		if !ok {
			return fmt.Errorf("seasonal: missing regressor %q", name)
		}
		if len(col) != f.Len() {
			return fmt.Errorf("seasonal: regressor %q has %d values for %d dates", name, len(col), f.Len())
		}
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("seasonal: regressor %q is not finite at row %d", name, i)
			}
		}
	}
	return nil
}

// design lays out the columns: offset, slope, changepoint hinges, Fourier
// terms, then standardised regressors.
func (m *Model) design(f Frame) *mat.Dense {
	st := m.State
	seas := m.Options.seasonalities()
	k := 2 + len(st.Changepoints) + len(m.Regressors)
	for _, s := range seas {
		k += 2 * s.order
	}

	x := mat.NewDense(f.Len(), k, nil)
	for i, d := range f.Dates {
		t := float64(d.Sub(st.Start)) / st.TScale
		c := 0
		x.Set(i, c, 1)
		x.Set(i, c+1, t)
		c += 2
		for _, cp := range st.Changepoints {
			x.Set(i, c, math.Max(t-cp, 0))
			c++
		}

		days := float64(d.UnixNano()) / dayNanos
		for _, s := range seas {
			for o := 1; o <= s.order; o++ {
				arg := 2 * math.Pi * float64(o) * days / s.period
				x.Set(i, c, math.Sin(arg))
				x.Set(i, c+1, math.Cos(arg))
				c += 2
			}
		}

		for j, name := range m.Regressors {
			x.Set(i, c, (f.Regressors[name][i]-st.RegMean[j])/st.RegStd[j])
			c++
		}
	}
	return x
}

// penalties returns the ridge weight of each column, 1/scale^2 of its prior.
func (m *Model) penalties(k int) []float64 {
	p := make([]float64, k)
	p[0], p[1] = 1.0/25, 1.0/25
	c := 2
	for range m.State.Changepoints {
		p[c] = 1 / (m.Options.ChangePointScale * m.Options.ChangePointScale)
		c++
	}
	for c < k-len(m.Regressors) {
		p[c] = 1 / (m.Options.SeasonalityScale * m.Options.SeasonalityScale)
		c++
	}
	for ; c < k; c++ {
		p[c] = 1 / (m.Options.RegressorScale * m.Options.RegressorScale)
	}
	return p
}

// changepoints spreads up to num candidates evenly over the first frac of
// the scaled history, skipping the origin.
func changepoints(t []float64, num int, frac float64) []float64 {
	hist := int(math.Floor(float64(len(t)) * frac))
	if num <= 0 || hist < 2 {
		return nil
	}
	num = min(num, hist-1)

	out := make([]float64, 0, num)
	for j := 1; j <= num; j++ {
		idx := int(math.Round(float64(j) * float64(hist-1) / float64(num)))
		cp := t[idx]
		if len(out) == 0 || cp > out[len(out)-1] {
			out = append(out, cp)
		}
	}
	return out
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}

func copyFrame(f Frame) Frame {
	out := Frame{
		Dates: append([]time.Time(nil), f.Dates...),
		Y:     append([]float64(nil), f.Y...),
	}
	if f.Regressors != nil {
		out.Regressors = make(map[string][]float64, len(f.Regressors))
		for k, v := range f.Regressors {
			out.Regressors[k] = append([]float64(nil), v...)
		}
	}
	return out
}
