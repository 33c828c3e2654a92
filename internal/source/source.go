// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package source implements the transaction source: an embedded DuckDB
// database that ingests raw order-line files, applies the standard cleaning
// rules, and serves the clean table plus the cross-cutting sink aggregations
// (monthly sales, top products, top countries).
//
// Cleaning on ingest mirrors the upstream dataset conventions:
//
//   - rows without a customer id are dropped
//   - cancelled invoices (invoice id starting with 'C') are dropped
//   - the derived line total is quantity * unit_price, computed in queries
//
// The analytical engines never mutate the store; every accessor returns
// fresh slices.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/logging"
)

// schema is the order-line fact table. total_price is derived in queries
// rather than stored, so the table stays a plain copy of the cleaned input.
const schema = `
CREATE TABLE IF NOT EXISTS order_lines (
	invoice_id   VARCHAR NOT NULL,
	stock_code   VARCHAR NOT NULL,
	description  VARCHAR,
	quantity     INTEGER NOT NULL,
	invoice_date TIMESTAMP NOT NULL,
	unit_price   DOUBLE NOT NULL,
	customer_id  VARCHAR NOT NULL,
	country      VARCHAR
)`

// Store wraps the DuckDB connection backing one analysis run.
type Store struct {
	conn         *sql.DB
	queryTimeout time.Duration
}

// Open creates the DuckDB database and initializes the schema.
// The default ":memory:" path keeps the entire run in memory.
func Open(cfg *config.DatabaseConfig) (*Store, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	connStr := fmt.Sprintf("%s?threads=%d", path, threads)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// DuckDB connections are cheap but the store is used synchronously.
	conn.SetMaxOpenConns(threads)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logging.Debug().Str("path", path).Int("threads", threads).Msg("Transaction store opened")

	return &Store{conn: conn, queryTimeout: timeout}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// CountLines returns the number of clean order lines currently loaded.
func (s *Store) CountLines(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_lines`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count order lines: %w", err)
	}
	return n, nil
}
