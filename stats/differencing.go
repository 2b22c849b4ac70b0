package stats

import (
	"math"

	"github.com/sartorproj/autoscenario/timeseries"
)

// minDiffPoints is the shortest series NDiffs will still test.
const minDiffPoints = 10

// NDiffs returns how many first differences (at most maxD, default 2) the
// series needs before the ADF test rejects a unit root. Differencing stops
// early once fewer than ten points remain.
func NDiffs(series *timeseries.Series, maxD int) int {
	if maxD <= 0 {
		maxD = 2
	}

	d := 0
	for ; d < maxD; d++ {
		if ADF(series, 0).Stationary() {
			break
		}
		series = series.Diff()
		if series.Len() < minDiffPoints {
			break
		}
	}
	return d
}

// InformationCriteria are the Gaussian likelihood criteria of a fit.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC derives AIC, BIC and the small-sample AICc from a
// log-likelihood. AICc is +Inf when nObs <= nParams+1.
func CalculateIC(logLik float64, nObs, nParams int) *InformationCriteria {
	k, n := float64(nParams), float64(nObs)
	ic := &InformationCriteria{
		LogLik: logLik,
		AIC:    2*k - 2*logLik,
		BIC:    k*math.Log(n) - 2*logLik,
		AICc:   math.Inf(1),
	}
	if n > k+1 {
		ic.AICc = ic.AIC + 2*k*(k+1)/(n-k-1)
	}
	return ic
}
