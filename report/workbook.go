package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetExecutive = "Executive_Summary"
	SheetScenarios = "Scenario_Performance"
	SheetRecs      = "Recommendations"
	SheetModels    = "Model_Performance"
	SheetForecasts = "Forecasts"
)

// SaveWorkbook writes the Excel report of r to path.
func SaveWorkbook(r *Results, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExecutive); err != nil {
		return err
	}
	for _, name := range []string{SheetScenarios, SheetRecs, SheetModels, SheetForecasts} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	es := r.Recommendations.ExecutiveSummary
	if err := writeSheet(f, SheetExecutive, []string{"Metric", "Value"}, [][]any{
		{"Run Id", r.Metadata.RunID},
		{"Best Scenario", FormatGrowth(es.BestScenario, es.BestGrowth)},
		{"Worst Scenario", FormatGrowth(es.WorstScenario, es.WorstGrowth)},
		{"Key Insight", es.KeyInsight},
		{"Optimal Strategy", es.OptimalStrategy},
	}); err != nil {
		return err
	}

	var rows [][]any
	for _, g := range r.Recommendations.ScenarioGrowth {
		rows = append(rows, []any{
			DisplayName(g.Scenario),
			fmt.Sprintf("%.1f%%", g.GrowthPct),
			g.FinalProduction,
			g.FinalPrice,
		})
	}
	if err := writeSheet(f, SheetScenarios, []string{"Scenario", "Growth_2030", "Final_Production", "Final_Price"}, rows); err != nil {
		return err
	}

	rows = nil
	for _, p := range r.Recommendations.StrategicPriorities {
		rows = append(rows, []any{"Strategic Priority", p})
	}
	for _, p := range r.Recommendations.Policies {
		rows = append(rows, []any{"Policy - " + p.Area, p.Recommendation})
	}
	for _, g := range r.Recommendations.Manufacturers {
		rows = append(rows, []any{"Manufacturers - " + g.Group, fmt.Sprintf("%s: %s", strings.Join(g.Companies, ", "), g.Strategy)})
	}
	if err := writeSheet(f, SheetRecs, []string{"Type", "Recommendation"}, rows); err != nil {
		return err
	}

	rows = nil
	for _, m := range r.ModelPerformance {
		rows = append(rows, []any{
			DisplayName(string(m.Kind)), string(m.Target), m.Rows,
			m.R2, m.MAE, m.CVR2Mean, m.CVR2Std, m.Order, m.AIC, m.BIC,
			m.TrainedAt.Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeSheet(f, SheetModels, []string{
		"Model", "Target", "Rows", "R2", "MAE", "CV_R2_Mean", "CV_R2_Std", "Order", "AIC", "BIC", "Trained_At",
	}, rows); err != nil {
		return err
	}

	rows = nil
	for _, rec := range r.Forecasts.Records {
		rows = append(rows, []any{rec.Scenario, string(rec.Model), rec.Year, rec.Production, rec.Price, rec.Approximate})
	}
	if err := writeSheet(f, SheetForecasts, []string{"Scenario", "Model", "Year", "Production", "Price", "Price_Approximate"}, rows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col := cell[:len(cell)-1]
		if err := f.SetColWidth(sheet, col, col, 20); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
