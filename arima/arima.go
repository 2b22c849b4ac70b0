package arima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/autoscenario/stats"
	"github.com/sartorproj/autoscenario/timeseries"
)

var (
	// ErrInsufficientData is returned when the series is too short for the order.
	ErrInsufficientData = errors.New("insufficient data points for the specified order")
	// ErrNotConverged is returned when estimation yields no usable parameters,
	// for example on a constant series or diverging coefficients.
	ErrNotConverged = errors.New("arima estimation did not converge")
	// ErrNotFitted is returned when predicting with an unfitted model.
	ErrNotFitted = errors.New("model must be fitted before prediction")
)

const (
	maxIter      = 200
	tolerance    = 1e-8
	learningRate = 0.05
	coeffBound   = 0.99
)

// Order represents ARIMA model order (p, d, q).
type Order struct {
	P int `json:"p"` // AR order
	D int `json:"d"` // Differencing order
	Q int `json:"q"` // MA order
}

// String formats the order as (p,d,q).
func (o Order) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model represents an ARIMA model estimated by conditional sum of squares.
type Model struct {
	Order     Order
	ARCoeffs  []float64 // phi
	MACoeffs  []float64 // theta
	Intercept float64   // mean of the differenced series
	Variance  float64   // residual variance
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64
	Converged bool
	fitted    bool
	history   []float64
	diffData  []float64
	residuals []float64
	fitVals   []float64
}

// New creates a new ARIMA model with the specified order.
func New(p, d, q int) *Model {
	return &Model{
		Order:    Order{P: p, D: d, Q: q},
		ARCoeffs: make([]float64, p),
		MACoeffs: make([]float64, q),
	}
}

// Fit fits the ARIMA model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.Len() < m.Order.P+m.Order.Q+m.Order.D+10 {
		return ErrInsufficientData
	}

	diffSeries := series.DiffN(m.Order.D)
	if m.Order.D == 0 {
		diffSeries = series.Copy()
	}

	m.history = append([]float64(nil), series.Values...)
	m.diffData = diffSeries.Values

	if err := m.fitCSS(diffSeries); err != nil {
		return err
	}
	if !m.finite() {
		return ErrNotConverged
	}

	m.calculateIC()
	m.fitted = true
	return nil
}

// fitCSS estimates coefficients on the standardised differenced series so
// that the step size does not depend on the scale of the data.
func (m *Model) fitCSS(diffSeries *timeseries.Series) error {
	y := diffSeries.Values
	mean := diffSeries.Mean()
	sd := diffSeries.Std()
	if sd == 0 || math.IsNaN(sd) {
		return fmt.Errorf("%w: differenced series has zero variance", ErrNotConverged)
	}
	m.Intercept = mean

	z := make([]float64, len(y))
	for i, v := range y {
		z[i] = (v - mean) / sd
	}

	if m.Order.P > 0 {
		if acf := stats.ACF(diffSeries, m.Order.P); acf != nil {
			m.ARCoeffs = yuleWalker(acf, m.Order.P)
		}
		for i := range m.ARCoeffs {
			m.ARCoeffs[i] = clamp(m.ARCoeffs[i])
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}

	if m.Order.P+m.Order.Q > 0 {
		m.optimizeCSS(z)
	} else {
		m.Converged = true
	}

	resid, fitted := m.filter(z)
	m.residuals = make([]float64, len(y))
	m.fitVals = make([]float64, len(y))
	for t := range y {
		m.residuals[t] = resid[t] * sd
		m.fitVals[t] = fitted[t]*sd + mean
	}

	start := max(m.Order.P, m.Order.Q)
	sse := 0.0
	for t := start; t < len(y); t++ {
		sse += m.residuals[t] * m.residuals[t]
	}
	count := len(y) - start
	k := m.Order.P + m.Order.Q + 1
	if count > k {
		m.Variance = sse / float64(count-k)
	} else {
		m.Variance = sse / float64(count)
	}
	return nil
}

// filter runs the ARMA recursion over a centred series and returns the
// one-step residuals and fitted values.
func (m *Model) filter(z []float64) (resid, fitted []float64) {
	n := len(z)
	resid = make([]float64, n)
	fitted = make([]float64, n)
	start := max(m.Order.P, m.Order.Q)
	for t := 0; t < n; t++ {
		if t < start {
			resid[t] = z[t]
			continue
		}
		pred := 0.0
		for i, phi := range m.ARCoeffs {
			pred += phi * z[t-i-1]
		}
		for i, theta := range m.MACoeffs {
			pred += theta * resid[t-i-1]
		}
		fitted[t] = pred
		resid[t] = z[t] - pred
	}
	return resid, fitted
}

func (m *Model) sse(z []float64) float64 {
	resid, _ := m.filter(z)
	start := max(m.Order.P, m.Order.Q)
	total := 0.0
	for t := start; t < len(z); t++ {
		total += resid[t] * resid[t]
	}
	return total
}

// optimizeCSS refines the coefficients by gradient descent, keeping the best
// parameter set seen.
func (m *Model) optimizeCSS(z []float64) {
	n := len(z)
	p, q := m.Order.P, m.Order.Q
	start := max(p, q)

	bestAR := append([]float64(nil), m.ARCoeffs...)
	bestMA := append([]float64(nil), m.MACoeffs...)
	bestSSE := m.sse(z)

	for iter := 0; iter < maxIter; iter++ {
		resid, _ := m.filter(z)

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		for t := start; t < n; t++ {
			for i := 0; i < p; i++ {
				arGrad[i] -= 2 * resid[t] * z[t-i-1]
			}
			for i := 0; i < q; i++ {
				maGrad[i] -= 2 * resid[t] * resid[t-i-1]
			}
		}

		for i := range m.ARCoeffs {
			m.ARCoeffs[i] = clamp(m.ARCoeffs[i] - learningRate*arGrad[i]/float64(n))
		}
		for i := range m.MACoeffs {
			m.MACoeffs[i] = clamp(m.MACoeffs[i] - learningRate*maGrad[i]/float64(n))
		}

		newSSE := m.sse(z)
		if math.IsNaN(newSSE) || math.IsInf(newSSE, 0) {
			break
		}
		improvement := bestSSE - newSSE
		if newSSE < bestSSE {
			bestSSE = newSSE
			copy(bestAR, m.ARCoeffs)
			copy(bestMA, m.MACoeffs)
		}
		if math.Abs(improvement) < tolerance*math.Max(bestSSE, 1) {
			m.Converged = true
			break
		}
	}

	copy(m.ARCoeffs, bestAR)
	copy(m.MACoeffs, bestMA)
}

func clamp(v float64) float64 {
	return math.Max(-coeffBound, math.Min(coeffBound, v))
}

func (m *Model) finite() bool {
	check := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if !check(m.Intercept) || !check(m.Variance) || m.Variance <= 0 {
		return false
	}
	for _, c := range m.ARCoeffs {
		if !check(c) {
			return false
		}
	}
	for _, c := range m.MACoeffs {
		if !check(c) {
			return false
		}
	}
	return true
}

// calculateIC calculates AIC, AICc, and BIC assuming Gaussian errors.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	logLik := -float64(n)/2*math.Log(2*math.Pi) - float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	ic := stats.CalculateIC(logLik, n, m.Order.P+m.Order.Q+1)
	m.LogLik = ic.LogLik
	m.AIC = ic.AIC
	m.AICc = ic.AICc
	m.BIC = ic.BIC
}

// Predict generates forecasts on the original scale for the given number
// of steps after the end of the fitted series.
func (m *Model) Predict(steps int) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, errors.New("steps must be at least 1")
	}

	n := len(m.diffData)
	extY := make([]float64, n+steps)
	for i, v := range m.diffData {
		extY[i] = v - m.Intercept
	}
	extResid := make([]float64, n+steps)
	copy(extResid, m.residuals)

	for t := n; t < n+steps; t++ {
		pred := 0.0
		for i, phi := range m.ARCoeffs {
			if t-i-1 >= 0 {
				pred += phi * extY[t-i-1]
			}
		}
		for i, theta := range m.MACoeffs {
			if t-i-1 >= 0 {
				pred += theta * extResid[t-i-1]
			}
		}
		extY[t] = pred
	}

	forecasts := make([]float64, steps)
	for h := range forecasts {
		forecasts[h] = extY[n+h] + m.Intercept
	}
	return m.integrate(forecasts), nil
}

// integrate undoes d rounds of differencing using the tail of each
// intermediate level of the history.
func (m *Model) integrate(forecasts []float64) []float64 {
	levels := [][]float64{m.history}
	for k := 1; k < m.Order.D; k++ {
		prev := levels[k-1]
		next := make([]float64, len(prev)-1)
		for i := range next {
			next[i] = prev[i+1] - prev[i]
		}
		levels = append(levels, next)
	}

	result := append([]float64(nil), forecasts...)
	for k := m.Order.D - 1; k >= 0; k-- {
		last := levels[k][len(levels[k])-1]
		for j := range result {
			last += result[j]
			result[j] = last
		}
	}
	return result
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// FittedValues returns the one-step fitted values on the differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.fitVals...)
}

// Summary describes a fitted model.
type Summary struct {
	Order     Order                 `json:"order"`
	ARCoeffs  []float64             `json:"ar_coeffs"`
	MACoeffs  []float64             `json:"ma_coeffs"`
	Intercept float64               `json:"intercept"`
	Variance  float64               `json:"variance"`
	AIC       float64               `json:"aic"`
	AICc      float64               `json:"aicc"`
	BIC       float64               `json:"bic"`
	LogLik    float64               `json:"log_lik"`
	NObs      int                   `json:"n_obs"`
	Converged bool                  `json:"converged"`
	LjungBox  *stats.LjungBoxResult `json:"ljung_box,omitempty"`
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	resid := &timeseries.Series{Values: m.residuals}
	return &Summary{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      len(m.history),
		Converged: m.Converged,
		LjungBox:  stats.LjungBox(resid, 10, m.Order.P+m.Order.Q),
	}
}

// yuleWalker estimates AR coefficients from autocorrelations with the
// Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return make([]float64, max(order, 0))
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}
