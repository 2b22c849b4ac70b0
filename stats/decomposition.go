package stats

import (
	"math"

	"github.com/sartorproj/autoscenario/timeseries"
)

// DecompositionResult holds an additive classical decomposition
// Y = Trend + Seasonal + Residual.
type DecompositionResult struct {
	Trend    *timeseries.Series
	Seasonal *timeseries.Series
	Residual *timeseries.Series
	// Profile is the seasonal index of each position in the period,
	// centred to sum to zero.
	Profile []float64
	Period  int
}

// Decompose performs an additive decomposition with a centred moving
// average trend. It returns nil unless the series covers two full periods.
func Decompose(series *timeseries.Series, period int) *DecompositionResult {
	n := series.Len()
	if period < 2 || n < 2*period {
		return nil
	}

	trend := centredMovingAverage(series.Values, period)

	profile := make([]float64, period)
	counts := make([]int, period)
	for i, v := range series.Values {
		if math.IsNaN(trend[i]) {
			continue
		}
		profile[i%period] += v - trend[i]
		counts[i%period]++
	}

	mean := 0.0
	for i := range profile {
		if counts[i] > 0 {
			profile[i] /= float64(counts[i])
		}
		mean += profile[i]
	}
	mean /= float64(period)
	for i := range profile {
		profile[i] -= mean
	}

	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i, v := range series.Values {
		seasonal[i] = profile[i%period]
		if math.IsNaN(trend[i]) {
			residual[i] = math.NaN()
			continue
		}
		residual[i] = v - trend[i] - seasonal[i]
	}

	component := func(values []float64, name string) *timeseries.Series {
		return &timeseries.Series{Timestamps: series.Timestamps, Values: values, Name: name}
	}

	return &DecompositionResult{
		Trend:    component(trend, "trend"),
		Seasonal: component(seasonal, "seasonal"),
		Residual: component(residual, "residual"),
		Profile:  profile,
		Period:   period,
	}
}

// centredMovingAverage uses a 2xperiod average for even periods. Positions
// without a full window are NaN.
func centredMovingAverage(values []float64, period int) []float64 {
	n := len(values)
	trend := make([]float64, n)
	for i := range trend {
		trend[i] = math.NaN()
	}

	half := period / 2
	for i := half; i < n-half; i++ {
		sum := 0.0
		if period%2 == 0 {
			sum += 0.5*values[i-half] + 0.5*values[i+half]
			for j := i - half + 1; j < i+half; j++ {
				sum += values[j]
			}
		} else {
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend
}
