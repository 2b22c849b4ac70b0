package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/training"
)

// Version is the results document version.
const Version = "1.0"

// AnalysisMetadata identifies a run.
type AnalysisMetadata struct {
	RunID        string    `json:"run_id"`
	AnalysisDate time.Time `json:"analysis_date"`
	Version      string    `json:"version"`
	Description  string    `json:"description"`
}

// Summary is the headline block of the results document.
type Summary struct {
	TotalScenarios int      `json:"total_scenarios"`
	ModelsUsed     []string `json:"models_used"`
	BestScenario   string   `json:"best_scenario"`
	KeyInsight     string   `json:"key_insight"`
}

// Results is the persisted outcome of a run.
type Results struct {
	Metadata         AnalysisMetadata    `json:"analysis_metadata"`
	ModelPerformance []training.Metadata `json:"model_performance"`
	Forecasts        *forecast.Result    `json:"forecasts"`
	Recommendations  *Recommendations    `json:"recommendations"`
	Summary          Summary             `json:"summary"`
}

// NewResults assembles a results document under a fresh run id.
func NewResults(models []training.Metadata, res *forecast.Result, rec *Recommendations) *Results {
	seen := make(map[string]bool)
	var used []string
	for _, m := range models {
		name := string(m.Kind)
		if !seen[name] {
			seen[name] = true
			used = append(used, name)
		}
	}

	return &Results{
		Metadata: AnalysisMetadata{
			RunID:        uuid.NewString(),
			AnalysisDate: time.Now().UTC(),
			Version:      Version,
			Description:  "Automotive scenario analysis with forecasts to 2030",
		},
		ModelPerformance: models,
		Forecasts:        res,
		Recommendations:  rec,
		Summary: Summary{
			TotalScenarios: len(res.Scenarios),
			ModelsUsed:     used,
			BestScenario:   FormatGrowth(rec.ExecutiveSummary.BestScenario, rec.ExecutiveSummary.BestGrowth),
			KeyInsight:     rec.ExecutiveSummary.KeyInsight,
		},
	}
}

// SaveResults writes r as indented JSON, creating parent directories.
func SaveResults(path string, r *Results) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// LoadResults reads a results document.
func LoadResults(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	var r Results
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse results: %w", err)
	}
	if r.Forecasts == nil {
		r.Forecasts = &forecast.Result{}
	}
	if r.Recommendations == nil {
		r.Recommendations = &Recommendations{}
	}
	return &r, nil
}
