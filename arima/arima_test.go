package arima

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/sartorproj/autoscenario/timeseries"
)

func monthly(values []float64) *timeseries.Series {
	return timeseries.NewMonthly(time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), values)
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 2)

	if model.Order != (Order{P: 2, D: 1, Q: 2}) {
		t.Errorf("Unexpected order %v", model.Order)
	}
	if model.Order.String() != "(2,1,2)" {
		t.Errorf("Expected (2,1,2), got %s", model.Order.String())
	}
}

func TestARIMAFitAR1(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 300
	phi := 0.7
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = phi*(values[i-1]-100) + 100 + rng.NormFloat64()
	}

	model := New(1, 0, 0)
	if err := model.Fit(monthly(values)); err != nil {
		t.Fatalf("Failed to fit AR(1) model: %v", err)
	}

	t.Logf("True AR coeff: %f, Estimated: %f", phi, model.ARCoeffs[0])
	if math.Abs(model.ARCoeffs[0]-phi) > 0.2 {
		t.Errorf("AR coefficient estimate off: true=%f, est=%f", phi, model.ARCoeffs[0])
	}
	if len(model.Residuals()) != n {
		t.Errorf("Expected %d residuals, got %d", n, len(model.Residuals()))
	}
}

func TestARIMAMonthlyProduction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 168
	values := make([]float64, n)
	level := 1.5e6
	for i := range values {
		level += 2000 + rng.NormFloat64()*30000
		values[i] = level + 50000*math.Sin(2*math.Pi*float64(i)/12)
	}

	model := New(2, 1, 2)
	if err := model.Fit(monthly(values)); err != nil {
		t.Fatalf("Failed to fit ARIMA(2,1,2): %v", err)
	}

	forecasts, err := model.Predict(7)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if len(forecasts) != 7 {
		t.Fatalf("Expected 7 forecasts, got %d", len(forecasts))
	}
	for i, f := range forecasts {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Errorf("Forecast %d is not finite", i)
		}
		if math.Abs(f-values[n-1]) > 1e6 {
			t.Errorf("Forecast %d drifted too far: %f (last %f)", i, f, values[n-1])
		}
	}
	for _, c := range append(model.ARCoeffs, model.MACoeffs...) {
		if math.Abs(c) > coeffBound {
			t.Errorf("Coefficient %f outside bounds", c)
		}
	}
	if math.IsNaN(model.AIC) || math.IsInf(model.AIC, 0) {
		t.Errorf("AIC should be finite, got %f", model.AIC)
	}
}

func TestARIMAConstantSeriesNotConverged(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 10 + float64(i)
	}

	err := New(2, 1, 2).Fit(monthly(values))
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("Expected ErrNotConverged for a deterministic trend, got %v", err)
	}
}

func TestARIMAInsufficientData(t *testing.T) {
	err := New(5, 2, 5).Fit(monthly([]float64{1, 2, 3}))
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestARIMAPredictBeforeFit(t *testing.T) {
	if _, err := New(1, 0, 0).Predict(3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted, got %v", err)
	}
	if New(1, 0, 0).Summary() != nil {
		t.Errorf("Expected nil summary before fitting")
	}
}

func TestIntegrate(t *testing.T) {
	m := &Model{Order: Order{D: 1}, history: []float64{1, 2, 4}}
	got := m.integrate([]float64{1, 1})
	if got[0] != 5 || got[1] != 6 {
		t.Errorf("Expected [5 6], got %v", got)
	}

	m = &Model{Order: Order{D: 2}, history: []float64{1, 2, 4, 7}}
	got = m.integrate([]float64{1, 1})
	// level-1 tail is 3, so first differences become 4, 5
	if got[0] != 11 || got[1] != 16 {
		t.Errorf("Expected [11 16], got %v", got)
	}
}

func TestARIMASummary(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := 120
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + rng.NormFloat64()
	}

	model := New(1, 0, 1)
	if err := model.Fit(monthly(values)); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	summary := model.Summary()
	if summary == nil {
		t.Fatal("Summary should not be nil")
	}
	if summary.NObs != n {
		t.Errorf("Expected NObs=%d, got %d", n, summary.NObs)
	}
	if summary.LjungBox == nil {
		t.Fatal("Expected Ljung-Box diagnostics")
	}
	t.Logf("Summary - AIC: %f, Ljung-Box p: %f", summary.AIC, summary.LjungBox.PValue)
}

func TestSnapshotRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	values := make([]float64, 100)
	for i := 1; i < len(values); i++ {
		values[i] = values[i-1] + 1 + rng.NormFloat64()
	}

	model := New(2, 1, 2)
	if err := model.Fit(monthly(values)); err != nil {
		t.Fatalf("Failed to fit: %v", err)
	}
	want, err := model.Predict(7)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}

	snap, err := model.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	restored, err := FromSnapshot(&decoded)
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	got, err := restored.Predict(7)
	if err != nil {
		t.Fatalf("Restored predict failed: %v", err)
	}
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-9 {
			t.Errorf("Forecast %d: expected %f, got %f", i, want[i], got[i])
		}
	}

	if _, err := New(1, 0, 0).Snapshot(); !errors.Is(err, ErrNotFitted) {
		t.Errorf("Expected ErrNotFitted for unfitted snapshot, got %v", err)
	}
}

func TestYuleWalker(t *testing.T) {
	// ACF of an AR(1) process with phi=0.6
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.13}

	coeffs := yuleWalker(acf, 2)
	if len(coeffs) != 2 {
		t.Fatalf("Expected 2 coefficients, got %d", len(coeffs))
	}
	if math.Abs(coeffs[0]-0.6) > 1e-9 || math.Abs(coeffs[1]) > 1e-9 {
		t.Errorf("Expected [0.6 0], got %v", coeffs)
	}
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR2", 2, 0, 0},
		{"MA1", 0, 0, 1},
		{"ARMA11", 1, 0, 1},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA212", 2, 1, 2},
	}

	rng := rand.New(rand.NewSource(9))
	values := make([]float64, 150)
	values[0] = 100
	for i := 1; i < len(values); i++ {
		values[i] = 0.6*(values[i-1]-100) + 100 + rng.NormFloat64()
	}
	series := monthly(values)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			if err := model.Fit(series); err != nil {
				t.Fatalf("Model %s failed to fit: %v", tt.name, err)
			}

			forecasts, err := model.Predict(3)
			if err != nil {
				t.Fatalf("Prediction failed: %v", err)
			}
			if len(forecasts) != 3 {
				t.Errorf("Expected 3 forecasts, got %d", len(forecasts))
			}
			t.Logf("%s - AIC: %.2f, Forecasts: %v", tt.name, model.AIC, forecasts)
		})
	}
}

func TestSearchFindsLowerCriterion(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	n := 240
	values := make([]float64, n)
	for i := 1; i < n; i++ {
		values[i] = 0.6*values[i-1] + rng.NormFloat64()
	}
	series := monthly(values)

	res, err := Search(series, 0, DefaultSearchConfig())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	t.Logf("Selected %s after %d fits, AICc=%.2f", res.Model.Order, res.Evaluated, res.Score)

	if res.Evaluated < 5 {
		t.Errorf("Expected at least the 5 starting fits, got %d", res.Evaluated)
	}
	if res.Model.Order.P > 3 || res.Model.Order.Q > 3 {
		t.Errorf("Order %s exceeds search bounds", res.Model.Order)
	}

	white := New(0, 0, 0)
	if err := white.Fit(series); err != nil {
		t.Fatalf("Failed to fit white noise: %v", err)
	}
	if res.Score > white.AICc {
		t.Errorf("Selected AICc %.2f worse than ARIMA(0,0,0) %.2f", res.Score, white.AICc)
	}
}

func TestSearchInvalidConfig(t *testing.T) {
	series := monthly([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	if _, err := Search(series, 0, SearchConfig{MaxP: -1}); err == nil {
		t.Error("Expected error for negative bound")
	}
	if _, err := Search(series, 0, SearchConfig{Criterion: "hqic"}); err == nil {
		t.Error("Expected error for unknown criterion")
	}
}
