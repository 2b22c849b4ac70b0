package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/autoscenario/api"
	"github.com/sartorproj/autoscenario/kpi"
	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/pipeline"
	"github.com/sartorproj/autoscenario/report"
	"github.com/sartorproj/autoscenario/store"
	"github.com/sartorproj/autoscenario/training"
)

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func newGenerateCmd(a *app) *cobra.Command {
	var xlsx bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the synthetic panel and save it as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := panel.Generate(a.cfg.Data.Generator)
			if err != nil {
				return err
			}
			path := a.cfg.Data.Path
			if err := panel.SaveCSV(p, path); err != nil {
				return err
			}
			a.logger.Info("saved panel", zap.String("path", path), zap.Int("rows", p.Len()))

			if xlsx || a.cfg.Data.ExportXLSX {
				out := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
				if err := panel.SaveXLSX(p, out); err != nil {
					return err
				}
				a.logger.Info("saved panel workbook", zap.String("path", out))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d observations in %s\n", p.Len(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write the panel as an Excel workbook")
	return cmd
}

func newTrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train every model and save the artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, err := pipeline.Train(a.cfg, a.logger)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODEL\tTARGET\tR2\tMAE\tCV R2")
			for _, m := range b.Metadata() {
				fmt.Fprintf(w, "%s\t%s\t%.4f\t%.2f\t%.4f ± %.4f\n", m.Kind, m.Target, m.R2, m.MAE, m.CVR2Mean, m.CVR2Std)
			}
			return w.Flush()
		},
	}
}

func newForecastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forecast",
		Short: "Forecast every scenario from saved model artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			b, err := training.LoadArtifacts(a.cfg.ModelsDir(), a.logger)
			if b == nil {
				return fmt.Errorf("no trained models in %s, run train first: %w", a.cfg.ModelsDir(), err)
			}
			if err != nil {
				a.logger.Warn("some model artifacts could not be loaded", zap.Error(err))
			}

			res, err := pipeline.Forecast(a.cfg, b, a.logger)
			if err != nil {
				return err
			}
			results, err := pipeline.Publish(ctx, a.cfg, b.Metadata(), res, a.logger)
			if err != nil {
				return err
			}
			printSummary(cmd, results)
			return nil
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: data, training, forecasts and reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			results, err := pipeline.Run(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			printSummary(cmd, results)
			return nil
		},
	}
}

func newKPICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kpi",
		Short: "Print the panel KPI report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.LoadOrGenerate(a.cfg.Data.Path, a.cfg.Data.Generator, a.logger)
			if err != nil {
				return err
			}
			rep, err := kpi.Analyze(p)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
}

func newScenariosCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the policy scenarios or save them as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := pipeline.Scenarios(a.cfg)
			if err != nil {
				return err
			}
			if out != "" {
				if err := table.SaveYAML(out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d scenarios to %s\n", table.Len(), out)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tDESCRIPTION")
			for _, s := range table.All() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Category, s.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the scenario table to this YAML file")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve KPIs and forecast results over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd)
			defer cancel()

			h := &api.Handler{}

			table, err := pipeline.Scenarios(a.cfg)
			if err != nil {
				return err
			}
			h.Scenarios = table

			if p, err := panel.LoadCSV(a.cfg.Data.Path); err != nil {
				a.logger.Warn("panel not available", zap.String("path", a.cfg.Data.Path), zap.Error(err))
			} else if h.KPI, err = kpi.Analyze(p); err != nil {
				a.logger.Warn("failed to analyze panel", zap.Error(err))
			}

			if h.Results, err = report.LoadResults(a.cfg.ResultsPath()); err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				a.logger.Warn("no results yet, run forecast first", zap.String("path", a.cfg.ResultsPath()))
			}

			if a.cfg.Store.Enabled {
				s, err := store.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.DSN)
				if err != nil {
					return err
				}
				defer s.Close()
				h.Store = s
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return api.NewServer(addr, h, a.logger).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func printSummary(cmd *cobra.Command, r *report.Results) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s\n", r.Metadata.RunID)
	fmt.Fprintf(out, "scenarios analyzed: %d\n", r.Summary.TotalScenarios)
	fmt.Fprintf(out, "models used:        %s\n", strings.Join(r.Summary.ModelsUsed, ", "))
	fmt.Fprintf(out, "best scenario:      %s\n", r.Summary.BestScenario)
	if r.Recommendations != nil {
		es := r.Recommendations.ExecutiveSummary
		fmt.Fprintf(out, "worst scenario:     %s\n", report.FormatGrowth(es.WorstScenario, es.WorstGrowth))
		fmt.Fprintf(out, "insight:            %s\n", es.KeyInsight)
	}
	for _, f := range r.Forecasts.Failures {
		fmt.Fprintf(out, "warning: %s/%s failed: %s\n", f.Scenario, f.Model, f.Error)
	}
}
