package timeseries

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadCSV(t *testing.T) {
	csvData := `ds,y
2020-01-01,100
2020-02-01,101
2020-03-01,NA
2020-04-01,103`

	series, err := ReadCSV(strings.NewReader(csvData), nil)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if series.Len() != 3 {
		t.Errorf("Expected 3 observations, got %d", series.Len())
	}
	expected := []float64{100, 101, 103}
	for i, v := range expected {
		if series.Values[i] != v {
			t.Errorf("Value at index %d: expected %f, got %f", i, v, series.Values[i])
		}
	}
	if series.Timestamps[2].Month() != time.April {
		t.Errorf("Expected NA row to be skipped with its date, got %v", series.Timestamps[2])
	}
	if series.Name != "y" || len(series.Timestamps) != series.Len() {
		t.Errorf("Expected a dated series named y, got %q with %d timestamps", series.Name, len(series.Timestamps))
	}
}

func TestReadCSVCustomColumns(t *testing.T) {
	csvData := `month;production;price
2020-01-01;5;1
2020-02-01;6;2`

	opts := &CSVOptions{DateColumn: "month", ValueColumn: "production", Delimiter: ';'}
	series, err := ReadCSV(strings.NewReader(csvData), opts)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}
	if series.Len() != 2 || series.Values[1] != 6 {
		t.Errorf("Unexpected values: %v", series.Values)
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader(""), nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData for empty input, got %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("ds,y\n"), nil); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData for header only, got %v", err)
	}
	if _, err := ReadCSV(strings.NewReader("ds,z\n2020-01-01,1\n"), nil); err == nil {
		t.Errorf("Expected error for missing value column")
	}
	if _, err := ReadCSV(strings.NewReader("ds,y\n2020-01-01,abc\n"), nil); err == nil {
		t.Errorf("Expected error for malformed value")
	}
}

func TestSaveAndLoadCSV(t *testing.T) {
	start := time.Date(2015, time.June, 1, 0, 0, 0, 0, time.UTC)
	original := NewMonthly(start, []float64{1.5, 2.25, 3})
	path := filepath.Join(t.TempDir(), "series.csv")

	if err := SaveCSV(original, path); err != nil {
		t.Fatalf("SaveCSV failed: %v", err)
	}
	loaded, err := LoadCSV(path, nil)
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	for i := range original.Values {
		if loaded.Values[i] != original.Values[i] {
			t.Errorf("Value %d: expected %f, got %f", i, original.Values[i], loaded.Values[i])
		}
		if !loaded.Timestamps[i].Equal(original.Timestamps[i]) {
			t.Errorf("Timestamp %d: expected %v, got %v", i, original.Timestamps[i], loaded.Timestamps[i])
		}
	}
}

func TestWriteCSVLengthMismatch(t *testing.T) {
	s := &Series{Values: []float64{1}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}
