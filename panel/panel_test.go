package panel

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func generateDefault(t *testing.T) *Panel {
	t.Helper()
	p, err := Generate(DefaultConfig())
	require.NoError(t, err)
	return p
}

func TestGenerateCompleteGrid(t *testing.T) {
	p := generateDefault(t)
	require.Equal(t, 168*6*3*4, p.Len())

	type key struct {
		date         time.Time
		manufacturer string
		category     Category
		region       Region
	}
	seen := make(map[key]int)
	for _, o := range p.Observations {
		seen[key{o.Date, o.Manufacturer, o.Category, o.Region}]++
	}
	assert.Len(t, seen, 12096)
	for k, n := range seen {
		if n != 1 {
			t.Fatalf("duplicate row for %+v", k)
		}
	}

	first, last := p.Span()
	assert.Equal(t, time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), first)
	assert.Equal(t, time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), last)
}

func TestGenerateInvariants(t *testing.T) {
	p := generateDefault(t)
	for _, o := range p.Observations {
		require.GreaterOrEqual(t, o.ProductionVolume, 1000)
		require.GreaterOrEqual(t, o.AveragePrice, 0.0)
		require.GreaterOrEqual(t, o.SteelPrice, 400.0)
		require.GreaterOrEqual(t, o.OilPrice, 30.0)
		require.GreaterOrEqual(t, o.InterestRate, 0.001)

		year := o.Date.Year()
		switch {
		case year < 2018:
			require.Equal(t, 0.025, o.USTariffRate)
		case year < 2021:
			require.Equal(t, 0.05, o.USTariffRate)
		default:
			require.Equal(t, 0.035, o.USTariffRate)
		}
	}
}

func TestEVShareMonotonic(t *testing.T) {
	prev := EVShare(2010)
	for year := 2011; year <= 2040; year++ {
		cur := EVShare(year)
		assert.GreaterOrEqual(t, cur, prev, "year %d", year)
		assert.Less(t, cur, 0.4)
		prev = cur
	}
	assert.InDelta(t, 0.2, EVShare(2018), 1e-12)
}

func TestPolicySteps(t *testing.T) {
	assert.Equal(t, 7500.0, EVSubsidy(2021))
	assert.Equal(t, 7500.0, EVSubsidy(2022))
	assert.Equal(t, 8500.0, EVSubsidy(2023))
	assert.Equal(t, 0.025, TariffRate(2017))
	assert.Equal(t, 0.05, TariffRate(2020))
	assert.Equal(t, 0.035, TariffRate(2021))
}

func TestGenerateSeeded(t *testing.T) {
	cfg := Config{Start: time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC), Months: 12, Seed: 7}
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)
	if diff := cmp.Diff(a.Observations, b.Observations); diff != "" {
		t.Fatalf("same seed produced different panels (-a +b):\n%s", diff)
	}

	cfg.Seed = 8
	c, err := Generate(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Observations[0].AveragePrice, c.Observations[0].AveragePrice)

	_, err = Generate(Config{Months: 0})
	assert.Error(t, err)
}

func TestCSVRoundTrip(t *testing.T) {
	p := generateDefault(t)
	path := filepath.Join(t.TempDir(), "data", "panel.csv")
	require.NoError(t, SaveCSV(p, path))

	loaded, err := LoadCSV(path)
	require.NoError(t, err)
	require.Equal(t, p.Len(), loaded.Len())
	if diff := cmp.Diff(p.Observations, loaded.Observations); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrEmptyPanel))

	_, err = ReadCSV(strings.NewReader(strings.Join(Columns, ",") + "\n"))
	assert.True(t, errors.Is(err, ErrEmptyPanel))

	_, err = ReadCSV(strings.NewReader("Date,Manufacturer\n2010-01-01,Ford\n"))
	assert.True(t, errors.Is(err, ErrMalformedRow))

	bad := strings.Join(Columns, ",") + "\n2010-01-01,Ford,Passenger_Cars,Europe,abc,1,1,1,1,1,1,1,1\n"
	_, err = ReadCSV(strings.NewReader(bad))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRow))
	assert.Contains(t, err.Error(), "line 2")

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestReadCSVAcceptsTimestampDates(t *testing.T) {
	in := strings.Join(Columns, ",") + "\n2010-01-31 00:00:00,GM,Electric_Vehicles,China,1200,40000.5,0.02,700,70,0.03,0.025,7500,0.0334\n"
	p, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, time.Month(1), p.Observations[0].Date.Month())
	assert.Equal(t, ElectricVehicles, p.Observations[0].Category)
	assert.Equal(t, 1200, p.Observations[0].ProductionVolume)
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &Panel{}))
	assert.Equal(t, strings.Join(Columns, ",")+"\n", buf.String())
}

func TestAggregate(t *testing.T) {
	p := generateDefault(t)
	points := p.Aggregate()
	require.Len(t, points, 168)

	var want float64
	var steel float64
	for _, o := range p.Observations[:72] {
		want += float64(o.ProductionVolume)
		steel += o.SteelPrice
	}
	assert.Equal(t, want, points[0].Production)
	assert.InDelta(t, steel/72, points[0].SteelPrice, 1e-9)
	assert.True(t, points[0].Date.Before(points[1].Date))

	s := ProductionSeries(points)
	assert.Equal(t, 168, s.Len())
	assert.Equal(t, points[167].Production, s.Values[167])
}

func TestExtract(t *testing.T) {
	p := generateDefault(t)
	d := p.Extract()
	require.Equal(t, p.Len(), d.Len())
	assert.Equal(t, FeatureNames, d.Features)
	assert.Len(t, d.X[0], len(FeatureNames))

	o := p.Observations[10]
	assert.Equal(t, []float64{o.GDPGrowth, o.SteelPrice, o.USTariffRate, o.USEVSubsidy, o.EVShare, o.OilPrice, o.InterestRate}, d.X[10])
	assert.Equal(t, float64(o.ProductionVolume), d.Production[10])
	assert.Equal(t, o.AveragePrice, d.Price[10])

	sub := d.Rows(5, 15)
	assert.Equal(t, 10, sub.Len())
	assert.Equal(t, d.Price[5], sub.Price[0])

	last, ok := p.LastFeatures()
	require.True(t, ok)
	assert.Equal(t, p.Observations[p.Len()-1].Features(), last)
}

func TestSaveXLSX(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Months = 2
	p, err := Generate(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "panel.xlsx")
	require.NoError(t, SaveXLSX(p, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Panel")
	require.NoError(t, err)
	require.Len(t, rows, p.Len()+1)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, "Toyota", rows[1][1])
}
