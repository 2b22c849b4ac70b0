// Package panel generates, persists and reshapes the synthetic automotive
// production panel: one Observation per (month, manufacturer, category,
// region) with production, price and macro and policy covariates.
//
// # Generating
//
//	p, err := panel.Generate(panel.DefaultConfig())
//	// p.Len() == 168 * 6 * 3 * 4
//
// # Persisting
//
//	err := panel.SaveCSV(p, "data/automotive_panel.csv")
//	p, err = panel.LoadCSV("data/automotive_panel.csv")
//
// # Reshaping
//
// Extract returns the covariate matrix and both targets for row-level
// regressors; Aggregate collapses the panel to one point per month for
// the time series models.
package panel
