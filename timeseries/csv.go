package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when a CSV source holds no parseable observations.
var ErrNoData = errors.New("no valid data found in CSV")

// DateLayout is the layout used for the ds column.
const DateLayout = "2006-01-02"

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn  string // Column name for dates (default: "ds")
	ValueColumn string // Column name for values (default: "y")
	DateFormat  string // Date format (default: DateLayout)
	Delimiter   rune   // Field delimiter (default: ',')
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn:  "ds",
		ValueColumn: "y",
		DateFormat:  DateLayout,
		Delimiter:   ',',
	}
}

// LoadCSV loads a time series from a CSV file with a header row.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open series csv: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, opts)
}

// ReadCSV reads a time series from r. Rows whose value is empty, NA or NaN
// are skipped; an unparseable date or value is an error.
func ReadCSV(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	dateIdx, valueIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case opts.DateColumn:
			dateIdx = i
		case opts.ValueColumn:
			valueIdx = i
		}
	}
	if valueIdx == -1 {
		return nil, fmt.Errorf("value column %q not found", opts.ValueColumn)
	}

	layout := opts.DateFormat
	if layout == "" {
		layout = DateLayout
	}

	s := &Series{Name: opts.ValueColumn}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		raw := strings.TrimSpace(record[valueIdx])
		if raw == "" || raw == "NA" || raw == "NaN" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid value %q: %w", line, raw, err)
		}

		if dateIdx >= 0 {
			ts, err := time.Parse(layout, strings.TrimSpace(record[dateIdx]))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid date: %w", line, err)
			}
			s.Timestamps = append(s.Timestamps, ts)
		}
		s.Values = append(s.Values, v)
	}

	if len(s.Values) == 0 {
		return nil, ErrNoData
	}
	if dateIdx == -1 {
		out := NewMonthly(time.Now(), s.Values)
		out.Name = s.Name
		return out, nil
	}
	dated, err := NewWithTimestamps(s.Timestamps, s.Values)
	if err != nil {
		return nil, err
	}
	dated.Name = s.Name
	return dated, nil
}

// WriteCSV writes the series as ds,y rows.
func WriteCSV(w io.Writer, series *Series) error {
	if len(series.Timestamps) != len(series.Values) {
		return ErrLengthMismatch
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"ds", "y"}); err != nil {
		return err
	}
	for i, v := range series.Values {
		row := []string{
			series.Timestamps[i].Format(DateLayout),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV saves a time series to a CSV file, creating parent directories.
func SaveCSV(series *Series, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create series directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create series csv: %w", err)
	}
	if err := WriteCSV(file, series); err != nil {
		file.Close()
		return fmt.Errorf("failed to write series csv: %w", err)
	}
	return file.Close()
}
