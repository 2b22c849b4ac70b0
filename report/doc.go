// Package report turns forecast results into the run deliverables: the
// strategic recommendation tables, the results JSON document, the Excel
// workbook and PNG charts.
package report
