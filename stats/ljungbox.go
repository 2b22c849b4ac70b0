package stats

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/autoscenario/timeseries"
)

// LjungBoxResult is the portmanteau statistic over the first Lags
// autocorrelations and its chi-squared p-value with DOF degrees of freedom.
type LjungBoxResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	Lags      int     `json:"lags"`
	DOF       int     `json:"dof"`
}

// White reports whether the residuals pass as white noise at level alpha.
func (r *LjungBoxResult) White(alpha float64) bool {
	return r != nil && r.PValue > alpha
}

// LjungBox tests residuals for autocorrelation up to lags. fitdf is the
// number of estimated coefficients (p+q for ARIMA) and is subtracted from
// the degrees of freedom, which never drop below one. It returns nil for
// fewer than ten points or a constant series.
func LjungBox(residuals *timeseries.Series, lags, fitdf int) *LjungBoxResult {
	n := residuals.Len()
	if n < 10 || lags < 1 {
		return nil
	}
	lags = min(lags, n-1)

	acf := ACF(residuals, lags)
	if acf == nil {
		return nil
	}

	var q float64
	for k, r := range acf[1:] {
		q += r * r / float64(n-k-1)
	}
	q *= float64(n) * float64(n+2)

	dof := max(lags-fitdf, 1)
	return &LjungBoxResult{
		Statistic: q,
		PValue:    distuv.ChiSquared{K: float64(dof)}.Survival(q),
		Lags:      lags,
		DOF:       dof,
	}
}
