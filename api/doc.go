// Package api serves the persisted panel KPIs, forecast results and stored
// runs over a read-only HTTP API built on gin.
//
// Routes:
//
//	GET /health
//	GET /api/v1/kpi
//	GET /api/v1/scenarios
//	GET /api/v1/models
//	GET /api/v1/forecasts?scenario=&model=&run=
//	GET /api/v1/recommendations
//	GET /api/v1/runs
package api
