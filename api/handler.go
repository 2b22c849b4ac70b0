package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sartorproj/autoscenario/kpi"
	"github.com/sartorproj/autoscenario/report"
	"github.com/sartorproj/autoscenario/scenario"
	"github.com/sartorproj/autoscenario/store"
	"github.com/sartorproj/autoscenario/training"
)

// Handler serves the API from data loaded at startup. Any field may be nil;
// the matching routes then answer 503.
type Handler struct {
	KPI       *kpi.Report
	Results   *report.Results
	Scenarios *scenario.Table
	Store     *store.Store
}

// ScenarioView is a scenario with its ensemble outcome, when forecast.
type ScenarioView struct {
	scenario.Scenario
	GrowthPct       *float64 `json:"growth_pct,omitempty"`
	FinalProduction *float64 `json:"final_production,omitempty"`
}

func unavailable(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " not available"})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// KPIs returns the panel KPI report.
func (h *Handler) KPIs(c *gin.Context) {
	if h.KPI == nil {
		unavailable(c, "kpi report")
		return
	}
	c.JSON(http.StatusOK, h.KPI)
}

// ListScenarios returns the scenario table joined with ensemble growth.
func (h *Handler) ListScenarios(c *gin.Context) {
	if h.Scenarios == nil {
		unavailable(c, "scenarios")
		return
	}

	growth := make(map[string]report.ScenarioGrowth)
	if h.Results != nil && h.Results.Recommendations != nil {
		for _, g := range h.Results.Recommendations.ScenarioGrowth {
			growth[g.Scenario] = g
		}
	}

	all := h.Scenarios.All()
	out := make([]ScenarioView, len(all))
	for i, s := range all {
		out[i] = ScenarioView{Scenario: s}
		if g, ok := growth[s.Name]; ok {
			out[i].GrowthPct = &g.GrowthPct
			out[i].FinalProduction = &g.FinalProduction
		}
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}

// Models returns the model metadata of the latest results.
func (h *Handler) Models(c *gin.Context) {
	if h.Results == nil {
		unavailable(c, "results")
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": h.Results.ModelPerformance})
}

// Forecasts returns forecast records filtered by scenario and model. With a
// run parameter the records come from the run store.
func (h *Handler) Forecasts(c *gin.Context) {
	scenarioName := c.Query("scenario")
	model := training.Kind(c.Query("model"))

	if runID := c.Query("run"); runID != "" {
		if h.Store == nil {
			unavailable(c, "run store")
			return
		}
		ctx := c.Request.Context()
		if _, err := h.Store.GetRun(ctx, runID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		recs, err := h.Store.Forecasts(ctx, runID, scenarioName, model)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"run": runID, "records": nonNil(recs)})
		return
	}

	if h.Results == nil || h.Results.Forecasts == nil {
		unavailable(c, "results")
		return
	}
	if scenarioName != "" && !contains(h.Results.Forecasts.Scenarios, scenarioName) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown scenario"})
		return
	}
	recs := h.Results.Forecasts.Filter(scenarioName, model)
	c.JSON(http.StatusOK, gin.H{
		"run":     h.Results.Metadata.RunID,
		"years":   h.Results.Forecasts.Years,
		"records": nonNil(recs),
	})
}

// Recommendations returns the strategic recommendations.
func (h *Handler) Recommendations(c *gin.Context) {
	if h.Results == nil || h.Results.Recommendations == nil {
		unavailable(c, "results")
		return
	}
	c.JSON(http.StatusOK, h.Results.Recommendations)
}

// Runs lists the stored runs.
func (h *Handler) Runs(c *gin.Context) {
	if h.Store == nil {
		unavailable(c, "run store")
		return
	}
	runs, err := h.Store.Runs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": nonNil(runs)})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
