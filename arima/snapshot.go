package arima

import (
	"errors"

	"github.com/sartorproj/autoscenario/timeseries"
)

// Snapshot is the serialisable state of a fitted model. It carries the
// fitted history so that a restored model forecasts from the same origin.
type Snapshot struct {
	Order     Order     `json:"order"`
	ARCoeffs  []float64 `json:"ar_coeffs"`
	MACoeffs  []float64 `json:"ma_coeffs"`
	Intercept float64   `json:"intercept"`
	Variance  float64   `json:"variance"`
	AIC       float64   `json:"aic"`
	AICc      float64   `json:"aicc"`
	BIC       float64   `json:"bic"`
	LogLik    float64   `json:"log_lik"`
	Converged bool      `json:"converged"`
	History   []float64 `json:"history"`
	Residuals []float64 `json:"residuals"`
}

// Snapshot captures the fitted state of the model.
func (m *Model) Snapshot() (*Snapshot, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return &Snapshot{
		Order:     m.Order,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		Converged: m.Converged,
		History:   append([]float64(nil), m.history...),
		Residuals: append([]float64(nil), m.residuals...),
	}, nil
}

// FromSnapshot rebuilds a fitted model from a snapshot.
func FromSnapshot(s *Snapshot) (*Model, error) {
	if s == nil {
		return nil, errors.New("nil snapshot")
	}
	if len(s.ARCoeffs) != s.Order.P || len(s.MACoeffs) != s.Order.Q {
		return nil, errors.New("snapshot coefficients do not match order")
	}

	series := &timeseries.Series{Values: s.History}
	diff := series.DiffN(s.Order.D).Values
	if s.Order.D == 0 {
		diff = append([]float64(nil), s.History...)
	}
	if len(diff) == 0 || len(diff) != len(s.Residuals) {
		return nil, ErrInsufficientData
	}

	fitted := make([]float64, len(diff))
	for i := range diff {
		fitted[i] = diff[i] - s.Residuals[i]
	}

	m := &Model{
		Order:     s.Order,
		ARCoeffs:  append([]float64(nil), s.ARCoeffs...),
		MACoeffs:  append([]float64(nil), s.MACoeffs...),
		Intercept: s.Intercept,
		Variance:  s.Variance,
		AIC:       s.AIC,
		AICc:      s.AICc,
		BIC:       s.BIC,
		LogLik:    s.LogLik,
		Converged: s.Converged,
		fitted:    true,
		history:   append([]float64(nil), s.History...),
		diffData:  diff,
		residuals: append([]float64(nil), s.Residuals...),
		fitVals:   fitted,
	}
	if !m.finite() {
		return nil, ErrNotConverged
	}
	return m, nil
}
