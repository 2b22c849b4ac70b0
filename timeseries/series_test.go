package timeseries

import (
	"math"
	"testing"
	"time"
)

func monthly(values []float64) *Series {
	return NewMonthly(time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), values)
}

func TestNewMonthly(t *testing.T) {
	start := time.Date(2010, time.January, 17, 9, 0, 0, 0, time.UTC)
	s := NewMonthly(start, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13})

	if s.Len() != 13 {
		t.Fatalf("Expected length 13, got %d", s.Len())
	}
	if !s.Timestamps[0].Equal(time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected first timestamp 2010-01-01, got %v", s.Timestamps[0])
	}
	if !s.Timestamps[12].Equal(time.Date(2011, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected 13th timestamp 2011-01-01, got %v", s.Timestamps[12])
	}
}

func TestNewWithTimestampsMismatch(t *testing.T) {
	_, err := NewWithTimestamps([]time.Time{time.Now()}, []float64{1, 2})
	if err != ErrLengthMismatch {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := monthly(tt.values)
			result := s.Mean()
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected mean %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	s := monthly([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	expected := 4.571428571428571

	if result := s.Variance(); math.Abs(result-expected) > 1e-10 {
		t.Errorf("Expected variance %f, got %f", expected, result)
	}
	if result := s.Std(); math.Abs(result-math.Sqrt(expected)) > 1e-10 {
		t.Errorf("Expected std %f, got %f", math.Sqrt(expected), result)
	}
	if v := monthly([]float64{3}).Variance(); v != 0 {
		t.Errorf("Expected zero variance for a single value, got %f", v)
	}
}

func TestMinMaxSum(t *testing.T) {
	s := monthly([]float64{5, 2, 8, 1, 9, 3})

	if s.Min() != 1 {
		t.Errorf("Expected min 1, got %f", s.Min())
	}
	if s.Max() != 9 {
		t.Errorf("Expected max 9, got %f", s.Max())
	}
	if s.Sum() != 28 {
		t.Errorf("Expected sum 28, got %f", s.Sum())
	}
	if !math.IsNaN(monthly(nil).Min()) {
		t.Errorf("Expected NaN min for empty series")
	}
}

func TestDiff(t *testing.T) {
	s := monthly([]float64{1, 3, 6, 10, 15})
	diff := s.Diff()

	expected := []float64{2, 3, 4, 5}
	if len(diff.Values) != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), len(diff.Values))
	}
	for i, v := range diff.Values {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
	if !diff.Timestamps[0].Equal(s.Timestamps[1]) {
		t.Errorf("Differenced series should start at the second timestamp")
	}
}

func TestDiffN(t *testing.T) {
	s := monthly([]float64{1, 3, 6, 10, 15, 21})
	diff2 := s.DiffN(2)

	expected := []float64{1, 1, 1, 1}
	if len(diff2.Values) != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), len(diff2.Values))
	}
	for i, v := range diff2.Values {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
	if s.Values[0] != 1 {
		t.Errorf("DiffN must not modify the receiver")
	}
}

func TestSlice(t *testing.T) {
	s := monthly([]float64{1, 2, 3, 4, 5})
	sliced := s.Slice(1, 4)

	expected := []float64{2, 3, 4}
	if len(sliced.Values) != len(expected) {
		t.Fatalf("Expected length %d, got %d", len(expected), len(sliced.Values))
	}
	for i, v := range sliced.Values {
		if math.Abs(v-expected[i]) > 1e-10 {
			t.Errorf("Expected %f at index %d, got %f", expected[i], i, v)
		}
	}
	if empty := s.Slice(4, 2); empty.Len() != 0 {
		t.Errorf("Expected empty slice, got %d values", empty.Len())
	}
}

func TestCopyAndLast(t *testing.T) {
	s := monthly([]float64{1, 2, 3})
	copied := s.Copy()

	s.Values[0] = 100
	if copied.Values[0] != 1 {
		t.Errorf("Copy was modified when original changed")
	}

	ts, v, ok := copied.Last()
	if !ok || v != 3 || !ts.Equal(copied.Timestamps[2]) {
		t.Errorf("Unexpected Last result: %v %f %v", ts, v, ok)
	}
	if _, _, ok := monthly(nil).Last(); ok {
		t.Errorf("Expected ok=false for empty series")
	}
}
