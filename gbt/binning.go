package gbt

import (
	"sort"
)

// thresholds returns ascending split candidates for one feature. When a
// feature has at most maxBins distinct values every midpoint is a
// candidate, otherwise candidates sit at evenly spaced quantiles.
func thresholds(values []float64, maxBins int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	distinct := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	if len(distinct) <= maxBins {
		out := make([]float64, len(distinct)-1)
		for i := range out {
			out[i] = (distinct[i] + distinct[i+1]) / 2
		}
		return out
	}

	out := make([]float64, 0, maxBins-1)
	n := len(sorted)
	for b := 1; b < maxBins; b++ {
		pos := b * n / maxBins
		if pos <= 0 || pos >= n {
			continue
		}
		cut := (sorted[pos-1] + sorted[pos]) / 2
		if sorted[pos-1] == sorted[pos] {
			cut = sorted[pos]
		}
		if len(out) == 0 || cut > out[len(out)-1] {
			out = append(out, cut)
		}
	}
	return out
}

// binIndex maps v to the first threshold >= v, so bin(v) <= j exactly when
// v <= thresholds[j].
func binIndex(cuts []float64, v float64) int {
	return sort.SearchFloat64s(cuts, v)
}
