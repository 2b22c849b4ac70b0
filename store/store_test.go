package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/training"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []forecast.Record {
	return []forecast.Record{
		{Scenario: "status_quo", Model: training.Boosted, Year: 2024, Production: 100, Price: 30000},
		{Scenario: "status_quo", Model: training.Seasonal, Year: 2024, Production: 90, Price: 30000, Approximate: true},
		{Scenario: "status_quo", Model: training.Ensemble, Year: 2024, Production: 95.5, Price: 30000},
		{Scenario: "protectionist", Model: training.Ensemble, Year: 2024, Production: 80, Price: 31000},
	}
}

func TestSaveAndQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run := Run{
		ID:           "run-1",
		CreatedAt:    time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC),
		Description:  "test run",
		BestScenario: "status_quo",
		Scenarios:    2,
	}
	require.NoError(t, s.SaveRun(ctx, run, sampleRecords()))

	got, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	run.Records = 4
	assert.Equal(t, run, got)

	all, err := s.Forecasts(ctx, "run-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), all)

	ens, err := s.Forecasts(ctx, "run-1", "status_quo", training.Ensemble)
	require.NoError(t, err)
	require.Len(t, ens, 1)
	assert.Equal(t, 95.5, ens[0].Production)

	none, err := s.Forecasts(ctx, "missing", "", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRunsOrdering(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	older := Run{ID: "a", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := Run{ID: "b", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 500, time.UTC)}
	require.NoError(t, s.SaveRun(ctx, older, nil))
	require.NoError(t, s.SaveRun(ctx, newer, nil))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)

	latest, err := s.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", latest.ID)

	_, err = s.GetRun(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateRunRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	run := Run{ID: "dup", CreatedAt: time.Now()}
	require.NoError(t, s.SaveRun(ctx, run, sampleRecords()))
	require.Error(t, s.SaveRun(ctx, run, sampleRecords()))

	recs, err := s.Forecasts(ctx, "dup", "", "")
	require.NoError(t, err)
	assert.Len(t, recs, 4)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}
