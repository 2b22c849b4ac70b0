// Package timeseries provides the monthly Series type shared by the
// statistical and forecasting packages.
//
// # Creating a Series
//
// Monthly aggregates are the usual input:
//
//	start := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
//	series := timeseries.NewMonthly(start, production)
//
// # Statistics and Differencing
//
//	mean := series.Mean()
//	std := series.Std()
//	diff := series.Diff()     // first difference
//	diff2 := series.DiffN(2)  // second order difference
//
// # CSV
//
// Series round-trip through two-column ds,y files:
//
//	err := timeseries.SaveCSV(series, "monthly_production.csv")
//	loaded, err := timeseries.LoadCSV("monthly_production.csv", nil)
package timeseries
