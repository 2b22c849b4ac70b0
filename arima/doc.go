// Package arima implements non-seasonal ARIMA(p,d,q) models fitted by
// conditional sum of squares.
//
// A model differences the series d times, estimates p autoregressive and q
// moving-average coefficients on the differenced values and integrates its
// forecasts back to the original scale:
//
//	model := arima.New(2, 1, 2)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, err := model.Predict(12)
//
// Summary reports the coefficients, information criteria and a Ljung-Box
// test of the residuals. Snapshot captures a fitted model as JSON so it can
// be restored without the training data.
//
// Search runs a stepwise order search at a fixed d and keeps the model with
// the lowest AIC, AICc or BIC.
package arima
