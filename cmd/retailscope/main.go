// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package main is the entry point for the RetailScope analysis run.
//
// RetailScope analyzes a retail transaction dataset in one batch pass:
//
//  1. Configuration: load settings from config file and environment (Koanf v2)
//  2. Ingest: bulk-load and clean the transaction file into embedded DuckDB
//  3. Segmentation: RFM profiles clustered into named behavioral tiers
//  4. Market basket: Apriori rule mining over the purchase matrix
//  5. Recommendations: rule-based product suggestions per customer
//  6. Reports: JSON/CSV/XLSX exports plus a metrics summary
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables with the RETAILSCOPE_ prefix
//   - Config file (config.yaml, or the path in CONFIG_PATH)
//   - Built-in defaults
//
// # Example Usage
//
// Analyze a CSV export with defaults:
//
//	export RETAILSCOPE_INPUT_PATH=online_retail.csv
//	./retailscope
//
// Analyze a spreadsheet with a custom cluster count:
//
//	export RETAILSCOPE_INPUT_PATH=online_retail.xlsx
//	export RETAILSCOPE_ANALYSIS_CLUSTERS=5
//	export RETAILSCOPE_ANALYSIS_SEGMENT_LABELS=VIP,Loyal,Promising,Potential,At Risk
//	./retailscope
//
// The run is interruptible: SIGINT and SIGTERM cancel in-flight queries and
// exit without writing partial reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/pipeline"
	"github.com/tomtom215/retailscope/internal/reports"
	"github.com/tomtom215/retailscope/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Analysis failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("input", cfg.Input.Path).
		Str("db_path", cfg.Database.Path).
		Int("clusters", cfg.Analysis.Clusters).
		Msg("Starting RetailScope")

	store, err := source.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open transaction store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing transaction store")
		}
	}()

	if err := ingest(ctx, store, &cfg.Input); err != nil {
		return err
	}

	result, err := pipeline.New(store, cfg).Run(ctx)
	if err != nil {
		return err
	}

	written, err := reports.NewExporter(&cfg.Output).Export(result)
	if err != nil {
		return err
	}

	logging.Info().
		Str("run_id", result.RunID).
		Int("reports", len(written)).
		Msg("RetailScope finished")

	return nil
}

// ingest loads the input file through the format-appropriate path. "auto"
// picks by file extension.
func ingest(ctx context.Context, store *source.Store, in *config.InputConfig) error {
	format := in.Format
	if format == "auto" {
		if strings.EqualFold(filepath.Ext(in.Path), ".xlsx") {
			format = "xlsx"
		} else {
			format = "csv"
		}
	}

	var (
		rows int
		err  error
	)
	switch format {
	case "xlsx":
		rows, err = store.IngestXLSX(ctx, in.Path, in.Sheet)
	default:
		rows, err = store.IngestCSV(ctx, in.Path)
	}
	if err != nil {
		return fmt.Errorf("ingest %s: %w", in.Path, err)
	}
	if rows == 0 {
		logging.Warn().Str("path", in.Path).Msg("No usable rows after cleaning")
	}

	return nil
}
