// Package pipeline wires the stages together: load or generate the panel,
// train the models, forecast every scenario and publish the results. Each
// stage is a plain function of its inputs; nothing is carried between
// calls.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sartorproj/autoscenario/config"
	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/report"
	"github.com/sartorproj/autoscenario/scenario"
	"github.com/sartorproj/autoscenario/store"
	"github.com/sartorproj/autoscenario/timeseries"
	"github.com/sartorproj/autoscenario/training"
)

// LoadOrGenerate reads the panel at path, or generates it with gen and
// saves it there when the file does not exist.
func LoadOrGenerate(path string, gen panel.Config, log *zap.Logger) (*panel.Panel, error) {
	if log == nil {
		log = zap.NewNop()
	}

	p, err := panel.LoadCSV(path)
	if err == nil {
		log.Info("loaded panel", zap.String("path", path), zap.Int("rows", p.Len()))
		return p, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load panel %s: %w", path, err)
	}

	p, err = panel.Generate(gen)
	if err != nil {
		return nil, err
	}
	if err := panel.SaveCSV(p, path); err != nil {
		return nil, err
	}
	log.Info("generated panel", zap.String("path", path), zap.Int("rows", p.Len()), zap.Int64("seed", gen.Seed))
	return p, nil
}

// Scenarios returns the configured scenario table, or the built-in one.
func Scenarios(cfg *config.Config) (*scenario.Table, error) {
	if cfg.Scenarios.Path == "" {
		return scenario.Defaults(), nil
	}
	return scenario.LoadYAML(cfg.Scenarios.Path)
}

// Train loads or generates the panel, fits the models and saves their
// artifacts. An artifact failure is logged; the bundle is still returned.
func Train(cfg *config.Config, log *zap.Logger) (*panel.Panel, *training.Bundle, error) {
	if log == nil {
		log = zap.NewNop()
	}

	p, err := LoadOrGenerate(cfg.Data.Path, cfg.Data.Generator, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Data.ExportXLSX {
		xlsx := strings.TrimSuffix(cfg.Data.Path, filepath.Ext(cfg.Data.Path)) + ".xlsx"
		if err := panel.SaveXLSX(p, xlsx); err != nil {
			log.Warn("failed to export panel workbook", zap.String("path", xlsx), zap.Error(err))
		}
	}

	monthly := panel.ProductionSeries(p.Aggregate())
	if err := timeseries.SaveCSV(monthly, cfg.MonthlyPath()); err != nil {
		log.Warn("failed to export monthly production", zap.String("path", cfg.MonthlyPath()), zap.Error(err))
	}

	b, err := training.Train(p, cfg.Training, log)
	if err != nil {
		return nil, nil, err
	}
	if err := training.SaveArtifacts(cfg.ModelsDir(), b); err != nil {
		log.Warn("failed to save some model artifacts", zap.String("dir", cfg.ModelsDir()), zap.Error(err))
	}
	return p, b, nil
}

// Forecast runs the forecaster over the configured scenarios.
func Forecast(cfg *config.Config, b *training.Bundle, log *zap.Logger) (*forecast.Result, error) {
	table, err := Scenarios(cfg)
	if err != nil {
		return nil, err
	}
	return forecast.Run(b, table, cfg.Forecast, log)
}

// Publish assembles the results document and writes it with the workbook,
// the charts and, when enabled, the run store. Only a failure to write the
// results document is returned; the other outputs log their failures.
func Publish(ctx context.Context, cfg *config.Config, models []training.Metadata, res *forecast.Result, log *zap.Logger) (*report.Results, error) {
	if log == nil {
		log = zap.NewNop()
	}

	results := report.NewResults(models, res, report.Recommend(res))
	if err := report.SaveResults(cfg.ResultsPath(), results); err != nil {
		return nil, err
	}
	log.Info("saved results", zap.String("path", cfg.ResultsPath()), zap.String("run_id", results.Metadata.RunID))

	if err := report.SaveWorkbook(results, cfg.WorkbookPath()); err != nil {
		log.Warn("failed to save workbook", zap.String("path", cfg.WorkbookPath()), zap.Error(err))
	}
	if paths, err := report.SaveCharts(res, cfg.Output.FocusScenario, cfg.ChartsDir()); err != nil {
		log.Warn("failed to save charts", zap.String("dir", cfg.ChartsDir()), zap.Error(err))
	} else {
		log.Info("saved charts", zap.Strings("paths", paths))
	}

	if cfg.Store.Enabled {
		if err := saveRun(ctx, cfg.Store, results); err != nil {
			log.Warn("failed to store forecast run", zap.String("driver", cfg.Store.Driver), zap.Error(err))
		}
	}
	return results, nil
}

// Run executes the full pipeline.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) (*report.Results, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	_, b, err := Train(cfg, log)
	if err != nil {
		return nil, err
	}
	res, err := Forecast(cfg, b, log)
	if err != nil {
		return nil, err
	}
	return Publish(ctx, cfg, b.Metadata(), res, log)
}

func saveRun(ctx context.Context, sc config.StoreConfig, r *report.Results) error {
	if sc.Driver == store.DriverSQLite {
		if dir := filepath.Dir(sc.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}
		}
	}
	s, err := store.Open(ctx, sc.Driver, sc.DSN)
	if err != nil {
		return err
	}
	defer s.Close()

	run := store.Run{
		ID:           r.Metadata.RunID,
		CreatedAt:    r.Metadata.AnalysisDate,
		Description:  r.Metadata.Description,
		BestScenario: r.Recommendations.ExecutiveSummary.BestScenario,
		Scenarios:    len(r.Forecasts.Scenarios),
	}
	return s.SaveRun(ctx, run, r.Forecasts.Records)
}
