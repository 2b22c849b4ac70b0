package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoscenario/timeseries"
)

// ACF returns the sample autocorrelations of series for lags 0..maxLag,
// truncated to the series length. It returns nil for an empty or constant
// series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if n == 0 || maxLag < 0 {
		return nil
	}
	maxLag = min(maxLag, n-1)

	x := make([]float64, n)
	copy(x, series.Values)
	floats.AddConst(-stat.Mean(x, nil), x)

	c0 := floats.Dot(x, x)
	if c0 == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := range acf {
		acf[k] = floats.Dot(x[k:], x[:n-k]) / c0
	}
	return acf
}
