package stats

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/autoscenario/timeseries"
)

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64            `json:"statistic"`
	PValue       float64            `json:"p_value"`
	Lags         int                `json:"lags"`
	NObs         int                `json:"n_obs"`
	CriticalVals map[string]float64 `json:"critical_values"`
	IsStationary bool               `json:"is_stationary"`
}

// ADF performs the Augmented Dickey-Fuller test for unit root with a
// constant term. The null hypothesis is that the series is non-stationary.
// Stationary reports whether the test rejected a unit root. A nil result
// is not stationary.
func (r *ADFResult) Stationary() bool {
	return r != nil && r.IsStationary
}

// maxLag <= 0 selects floor((n-1)^(1/3)) lagged differences.
func ADF(series *timeseries.Series, maxLag int) *ADFResult {
	n := series.Len()
	if n < 10 {
		return nil
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := series.Diff()

	// delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i})
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil
	}

	k := 2 + maxLag
	x := mat.NewDense(nObs, k, nil)
	y := mat.NewVecDense(nObs, nil)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.SetVec(i, diff.Values[t])
		x.Set(i, 0, 1)
		x.Set(i, 1, series.Values[t])
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff.Values[t-j])
		}
	}

	coeffs, se, ok := olsRegression(x, y)
	if !ok {
		return nil
	}

	tStat := coeffs.AtVec(1) / se[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic: tStat,
		PValue:    pValue,
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: pValue < 0.05,
	}
}

// olsRegression returns least squares coefficients and their standard errors.
func olsRegression(x *mat.Dense, y *mat.VecDense) (*mat.VecDense, []float64, bool) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, false
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, nil, false
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)
	var coeffs mat.VecDense
	if err := chol.SolveVecTo(&coeffs, &xty); err != nil {
		return nil, nil, false
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(x, &coeffs)
	resid.SubVec(y, &fitted)
	s2 := mat.Dot(&resid, &resid) / float64(n-k)

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, nil, false
	}
	se := make([]float64, k)
	for i := range se {
		se[i] = math.Sqrt(s2 * inv.At(i, i))
		if se[i] == 0 || math.IsNaN(se[i]) {
			return nil, nil, false
		}
	}
	return &coeffs, se, true
}

// mackinnonPValue approximates the p-value of a constant-only ADF statistic
// by interpolating MacKinnon's asymptotic critical values.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}
