// Package stats provides the statistical routines used to diagnose monthly
// series and score fitted models.
//
// # Stationarity
//
//	adf := stats.ADF(series, 0)
//	d := stats.NDiffs(series, 2)
//
// # Autocorrelation and Residual Diagnostics
//
//	acf := stats.ACF(series, 24)
//	lb := stats.LjungBox(residuals, 10, p+q)
//	if lb.White(0.05) {
//	    // residuals look like white noise
//	}
//
// # Decomposition
//
//	decomp := stats.Decompose(series, 12)
//	// decomp.Profile holds the 12 monthly seasonal indices
//
// # Fit Metrics
//
//	r2 := stats.R2(actual, predicted)
//	mae := stats.MAE(actual, predicted)
package stats
