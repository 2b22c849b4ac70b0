// Package linreg fits ordinary least squares regressions with an intercept.
package linreg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrNotFitted is returned when predicting with an unfitted model.
	ErrNotFitted = errors.New("linreg: model is not fitted")
	// ErrDimension is returned for inconsistent input shapes.
	ErrDimension = errors.New("linreg: dimension mismatch")
)

// Model is a linear model y = Intercept + Coefficients . x.
type Model struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Fitted       bool      `json:"fitted"`
}

// New returns an unfitted model.
func New() *Model {
	return &Model{}
}

// Fit estimates the coefficients by least squares. Columns are standardised
// before a QR solve; constant columns receive a zero coefficient.
func (m *Model) Fit(x [][]float64, y []float64) error {
	n := len(x)
	if n == 0 || n != len(y) {
		return fmt.Errorf("%w: %d rows for %d targets", ErrDimension, n, len(y))
	}
	k := len(x[0])

	means := make([]float64, k)
	scales := make([]float64, k)
	var active []int
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		for i := range x {
			if len(x[i]) != k {
				return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimension, i, len(x[i]), k)
			}
			col[i] = x[i][j]
		}
		means[j], scales[j] = stat.MeanStdDev(col, nil)
		if scales[j] > 0 && !math.IsNaN(scales[j]) {
			active = append(active, j)
		}
	}

	yMean := stat.Mean(y, nil)
	coeffs := make([]float64, k)
	if len(active) > 0 {
		if n <= len(active) {
			return fmt.Errorf("%w: %d rows for %d free coefficients", ErrDimension, n, len(active))
		}
		design := mat.NewDense(n, len(active), nil)
		for i := range x {
			for c, j := range active {
				design.Set(i, c, (x[i][j]-means[j])/scales[j])
			}
		}
		target := mat.NewVecDense(n, nil)
		for i, v := range y {
			target.SetVec(i, v-yMean)
		}

		var qr mat.QR
		qr.Factorize(design)
		var beta mat.VecDense
		if err := qr.SolveVecTo(&beta, false, target); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return fmt.Errorf("linreg: least squares solve failed: %w", err)
			}
		}
		for c, j := range active {
			coeffs[j] = beta.AtVec(c) / scales[j]
		}
	}

	intercept := yMean
	for j, b := range coeffs {
		intercept -= b * means[j]
	}

	m.Intercept = intercept
	m.Coefficients = coeffs
	m.Fitted = true
	return nil
}

// Predict returns the prediction for one feature row.
func (m *Model) Predict(x []float64) (float64, error) {
	if !m.Fitted {
		return 0, ErrNotFitted
	}
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimension, len(x), len(m.Coefficients))
	}
	return m.Intercept + floats.Dot(x, m.Coefficients), nil
}

// PredictBatch predicts every row of x.
func (m *Model) PredictBatch(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		v, err := m.Predict(row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
