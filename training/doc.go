// Package training fits the four forecasting models on a panel.
//
// The linear and boosted models are fitted row-wise on the panel covariates,
// once per target. The seasonal model and the ARIMA model work on the panel
// collapsed to monthly totals. Train returns every fitted model together
// with its metadata in a Bundle; SaveArtifacts and LoadArtifacts persist a
// bundle as one JSON document per model and target.
package training
