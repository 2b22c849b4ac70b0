package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/training"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("store: not found")

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Run is the stored header of a forecast run.
type Run struct {
	ID           string    `db:"id" json:"id"`
	CreatedAt    time.Time `db:"-" json:"created_at"`
	Description  string    `db:"description" json:"description"`
	BestScenario string    `db:"best_scenario" json:"best_scenario"`
	Scenarios    int       `db:"scenarios" json:"scenarios"`
	Records      int       `db:"records" json:"records"`
}

type runRow struct {
	Run
	Created string `db:"created_at"`
}

type recordRow struct {
	Scenario    string  `db:"scenario"`
	Model       string  `db:"model"`
	Year        int     `db:"year"`
	Production  float64 `db:"production"`
	Price       float64 `db:"price"`
	Approximate bool    `db:"approximate"`
}

// Store is a forecast run repository.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	s := NewStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an existing connection. The schema is not applied.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables when missing.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			description TEXT NOT NULL,
			best_scenario TEXT NOT NULL,
			scenarios INTEGER NOT NULL,
			records INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS forecast_records (
			run_id TEXT NOT NULL REFERENCES forecast_runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			scenario TEXT NOT NULL,
			model TEXT NOT NULL,
			year INTEGER NOT NULL,
			production DOUBLE PRECISION NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			approximate BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, scenario, model, year)
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores run and its records in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run, records []forecast.Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const insertRun = `
		INSERT INTO forecast_runs (id, created_at, description, best_scenario, scenarios, records)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, tx.Rebind(insertRun),
		run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Description,
		run.BestScenario, run.Scenarios, len(records),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	const insertRecord = `
		INSERT INTO forecast_records (run_id, seq, scenario, model, year, production, price, approximate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insertRecord))
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.Scenario, string(r.Model), r.Year, r.Production, r.Price, r.Approximate); err != nil {
			return fmt.Errorf("failed to insert record %s/%s/%d: %w", r.Scenario, r.Model, r.Year, err)
		}
	}
	return tx.Commit()
}

// Runs lists stored runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	const query = `
		SELECT id, created_at, description, best_scenario, scenarios, records
		FROM forecast_runs
		ORDER BY created_at DESC, id`
	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]Run, len(rows))
	for i, r := range rows {
		run, err := r.decode()
		if err != nil {
			return nil, err
		}
		out[i] = run
	}
	return out, nil
}

// LatestRun returns the most recent run.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	runs, err := s.Runs(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrNotFound
	}
	return runs[0], nil
}

// GetRun returns one run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	const query = `
		SELECT id, created_at, description, best_scenario, scenarios, records
		FROM forecast_runs
		WHERE id = ?`
	var row runRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: run %s", ErrNotFound, id)
		}
		return Run{}, fmt.Errorf("failed to get run: %w", err)
	}
	return row.decode()
}

// Forecasts returns the records of a run in insertion order. Empty
// scenario or model match everything.
func (s *Store) Forecasts(ctx context.Context, runID, scenarioName string, model training.Kind) ([]forecast.Record, error) {
	query := `
		SELECT scenario, model, year, production, price, approximate
		FROM forecast_records
		WHERE run_id = ?`
	args := []any{runID}
	if scenarioName != "" {
		query += ` AND scenario = ?`
		args = append(args, scenarioName)
	}
	if model != "" {
		query += ` AND model = ?`
		args = append(args, string(model))
	}

	query += ` ORDER BY seq`

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query forecasts: %w", err)
	}
	out := make([]forecast.Record, len(rows))
	for i, r := range rows {
		out[i] = forecast.Record{
			Scenario:    r.Scenario,
			Model:       training.Kind(r.Model),
			Year:        r.Year,
			Production:  r.Production,
			Price:       r.Price,
			Approximate: r.Approximate,
		}
	}
	return out, nil
}

func (r runRow) decode() (Run, error) {
	run := r.Run
	t, err := time.Parse(timeLayout, r.Created)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse run time %q: %w", r.Created, err)
	}
	run.CreatedAt = t
	return run, nil
}
