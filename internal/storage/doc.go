// Package storage persists the pipeline outputs in a relational database
// and answers the read queries of the HTTP API.
//
// Two drivers are supported: "sqlite" (modernc.org/sqlite, the default) and
// "postgres" (github.com/lib/pq). Queries are written with '?' placeholders
// and rebound for Postgres. Tables are created with CREATE TABLE IF NOT
// EXISTS when the store is opened and are never altered.
//
// The Loader reads the row-level and aggregate CSV files produced by the
// processor and replaces the contents of the three tables in a single
// transaction.
package storage
