// Package autoscenario forecasts US automotive production and prices under
// policy scenarios.
//
// The module generates a synthetic monthly panel of manufacturers, regions
// and vehicle categories with macro covariates, fits four models on it and
// projects each scenario over 2024 to 2030:
//
//   - boosted: gradient boosted trees on the row features
//   - seasonal: piecewise linear trend with Fourier seasonality and regressors
//   - linear: ordinary least squares on the row features
//   - autoregressive: ARIMA on aggregated monthly production
//
// A weighted ensemble combines the per-model paths. The results are written
// as JSON, an Excel workbook and PNG charts, optionally stored in SQLite or
// PostgreSQL, and served by a read-only HTTP API.
//
// # Packages
//
//   - timeseries, stats, arima: series primitives, diagnostics and ARIMA
//   - panel: panel generation, CSV and Excel I/O and aggregation
//   - linreg, gbt, seasonal: the row and trend models
//   - scenario: the policy scenario table
//   - training: model fitting, cross-validation and artifacts
//   - forecast: per-scenario forecasts and the ensemble
//   - kpi, report: panel KPIs, recommendations and report outputs
//   - store, api: run persistence and the HTTP API
//   - config, pipeline: configuration and stage wiring
//
// The autoscenario command in cmd/autoscenario drives the pipeline.
package autoscenario
