// Package store persists forecast runs in a SQL database through sqlx.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, the default,
// pure Go) and "postgres" (github.com/lib/pq). Queries are written with
// question mark placeholders and rebound for the active driver.
package store
