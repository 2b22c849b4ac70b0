// Package forecast produces the annual scenario forecasts.
//
// Run conditions every trained model on every scenario and returns a flat,
// ordered list of records (scenario, model, year, production, price) plus
// the weighted ensemble of the models present for each scenario. Seasonal
// and ARIMA prices are linear placeholders, flagged on their records as
// approximations, since neither model forecasts price.
package forecast
