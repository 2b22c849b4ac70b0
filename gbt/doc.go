// Package gbt implements gradient-boosted regression trees for squared
// error loss.
//
// Features are bucketed into quantile bins once per fit and every tree is
// grown depth-first on bin histograms. Each tree sees a random subset of
// rows and of features, and leaf weights are shrunk by the learning rate
// and an L2 penalty:
//
//	m := gbt.New(gbt.DefaultParams())
//	if err := m.Fit(x, y); err != nil {
//	    return err
//	}
//	v, err := m.Predict(row)
//	importance := m.FeatureImportance()
package gbt
