package panel

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

var (
	// ErrEmptyPanel is returned when a CSV source holds no observations.
	ErrEmptyPanel = errors.New("panel csv contains no observations")
	// ErrMalformedRow is returned for a row that cannot be parsed.
	ErrMalformedRow = errors.New("malformed panel row")
)

// Columns is the persisted column order.
var Columns = []string{
	"Date",
	"Manufacturer",
	"Category",
	"Region",
	"Production_Volume",
	"Average_Price",
	"GDP_Growth",
	"Steel_Price",
	"Oil_Price",
	"Interest_Rate",
	"US_Tariff_Rate",
	"US_EV_Subsidy",
	"EV_Share",
}

// DateLayout is the layout of the Date column.
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, "2006-01-02 15:04:05", time.RFC3339}

// WriteCSV writes the panel with one header row.
func WriteCSV(w io.Writer, p *Panel) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return err
	}
	for _, o := range p.Observations {
		if err := writer.Write(record(o)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func record(o Observation) []string {
	return []string{
		o.Date.Format(DateLayout),
		o.Manufacturer,
		string(o.Category),
		string(o.Region),
		strconv.Itoa(o.ProductionVolume),
		fToStr(o.AveragePrice),
		fToStr(o.GDPGrowth),
		fToStr(o.SteelPrice),
		fToStr(o.OilPrice),
		fToStr(o.InterestRate),
		fToStr(o.USTariffRate),
		fToStr(o.USEVSubsidy),
		fToStr(o.EVShare),
	}
}

func fToStr(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SaveCSV writes the panel to path, creating parent directories.
func SaveCSV(p *Panel, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create panel csv: %w", err)
	}
	if err := WriteCSV(file, p); err != nil {
		file.Close()
		return fmt.Errorf("failed to write panel csv: %w", err)
	}
	return file.Close()
}

// LoadCSV reads a panel from path.
func LoadCSV(path string) (*Panel, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel csv: %w", err)
	}
	defer file.Close()
	return ReadCSV(file)
}

// ReadCSV parses a panel. Columns are matched by header name, so extra
// columns and a different column order are accepted.
func ReadCSV(r io.Reader) (*Panel, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyPanel
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read panel header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformedRow, c)
		}
	}

	p := &Panel{}
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		o, err := parseRecord(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		p.Observations = append(p.Observations, o)
	}

	if len(p.Observations) == 0 {
		return nil, ErrEmptyPanel
	}
	return p, nil
}

func parseRecord(rec []string, idx map[string]int) (Observation, error) {
	field := func(name string) string {
		return strings.TrimSpace(rec[idx[name]])
	}

	var (
		o   Observation
		err error
	)
	if o.Date, err = parseDate(field("Date")); err != nil {
		return o, err
	}
	o.Manufacturer = field("Manufacturer")
	o.Category = Category(field("Category"))
	o.Region = Region(field("Region"))

	volume, err := strconv.ParseFloat(field("Production_Volume"), 64)
	if err != nil {
		return o, fmt.Errorf("Production_Volume: %w", err)
	}
	o.ProductionVolume = int(volume)

	floats := []struct {
		name string
		dst  *float64
	}{
		{"Average_Price", &o.AveragePrice},
		{"GDP_Growth", &o.GDPGrowth},
		{"Steel_Price", &o.SteelPrice},
		{"Oil_Price", &o.OilPrice},
		{"Interest_Rate", &o.InterestRate},
		{"US_Tariff_Rate", &o.USTariffRate},
		{"US_EV_Subsidy", &o.USEVSubsidy},
		{"EV_Share", &o.EVShare},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(field(f.name), 64)
		if err != nil {
			return o, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	return o, nil
}

func parseDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("Date: %w", firstErr)
}
