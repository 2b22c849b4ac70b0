// Package seasonal implements an additive time series model in the style of
// Prophet: a piecewise linear trend with automatic changepoints, Fourier
// seasonalities and standardised external regressors, estimated jointly by
// penalised least squares.
//
// Basic usage:
//
//	m := seasonal.New(seasonal.DefaultOptions())
//	_ = m.AddRegressor("steel_price")
//	if err := m.Fit(history); err != nil {
//		log.Fatal(err)
//	}
//	future := m.MakeFuture(2024, 7)
//	yhat, err := m.Predict(future)
package seasonal
