// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package config loads and validates RetailScope configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//
//   - Environment variables with the RETAILSCOPE_ prefix
//   - Config file (config.yaml, or the path in CONFIG_PATH)
//   - Built-in defaults
//
// Env var names map section and key with underscores, e.g.
// RETAILSCOPE_ANALYSIS_CLUSTERS=5 overrides analysis.clusters.
package config

import "time"

// Config is the root configuration for a RetailScope run.
type Config struct {
	Input    InputConfig    `koanf:"input" json:"input"`
	Database DatabaseConfig `koanf:"database" json:"database"`
	Analysis AnalysisConfig `koanf:"analysis" json:"analysis"`
	Output   OutputConfig   `koanf:"output" json:"output"`
	Logging  LoggingConfig  `koanf:"logging" json:"logging"`
}

// InputConfig describes the transaction dataset to ingest.
type InputConfig struct {
	// Path is the transaction file to analyze. Required.
	Path string `koanf:"path" json:"path" validate:"required"`

	// Format selects the ingestion path: csv, xlsx, or auto to pick by
	// file extension.
	Format string `koanf:"format" json:"format" validate:"oneof=csv xlsx auto"`

	// Sheet is the worksheet name for xlsx input. Empty selects the first
	// sheet in the workbook.
	Sheet string `koanf:"sheet" json:"sheet"`
}

// DatabaseConfig configures the embedded DuckDB instance backing the
// transaction source.
type DatabaseConfig struct {
	// Path is the DuckDB database location. The default ":memory:" keeps
	// the whole run in memory; a file path is only useful for debugging.
	Path string `koanf:"path" json:"path"`

	// Threads limits DuckDB's internal parallelism. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" json:"threads" validate:"gte=0"`

	// QueryTimeout bounds individual analytical queries.
	QueryTimeout time.Duration `koanf:"query_timeout" json:"query_timeout"`
}

// AnalysisConfig holds the tunables of the two analytical engines.
type AnalysisConfig struct {
	// Clusters is the number of k-means clusters for segmentation.
	Clusters int `koanf:"clusters" json:"clusters" validate:"gte=2"`

	// Seed is the random seed for clustering. Fixed by default so repeat
	// runs over the same data are byte-for-byte reproducible.
	Seed int64 `koanf:"seed" json:"seed"`

	// SegmentLabels is the ordered label tier list, best cluster first.
	// Clusters are ranked by mean monetary value descending and labeled by
	// rank. Must contain exactly Clusters entries.
	SegmentLabels []string `koanf:"segment_labels" json:"segment_labels"`

	// MinItemCustomers is the popularity floor for rule mining: products
	// purchased by fewer distinct customers are excluded before the
	// itemset search. Bounds the combinatorial space, not correctness.
	MinItemCustomers int `koanf:"min_item_customers" json:"min_item_customers" validate:"gte=1"`

	// MinSupport is the minimum itemset support for the Apriori search.
	MinSupport float64 `koanf:"min_support" json:"min_support" validate:"gt=0,lte=1"`

	// RuleMetric selects which statistic the rule threshold applies to:
	// lift or confidence.
	RuleMetric string `koanf:"rule_metric" json:"rule_metric" validate:"oneof=lift confidence"`

	// RuleThreshold is the minimum value of RuleMetric for a rule to be
	// retained.
	RuleThreshold float64 `koanf:"rule_threshold" json:"rule_threshold" validate:"gt=0"`

	// TopN is the maximum number of recommendations returned per customer.
	TopN int `koanf:"top_n" json:"top_n" validate:"gte=1"`
}

// OutputConfig describes where and how reports are written.
type OutputConfig struct {
	// Dir is the directory report files are written into.
	Dir string `koanf:"dir" json:"dir" validate:"required"`

	// Formats lists the export formats to produce: json, csv, xlsx.
	Formats []string `koanf:"formats" json:"formats" validate:"min=1,dive,oneof=json csv xlsx"`
}

// LoggingConfig configures the zerolog-based logger.
type LoggingConfig struct {
	// Level is the minimum log level.
	Level string `koanf:"level" json:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`

	// Format is json or console.
	Format string `koanf:"format" json:"format" validate:"oneof=json console"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Path:   "",
			Format: "auto",
		},
		Database: DatabaseConfig{
			Path:         ":memory:",
			Threads:      0, // 0 = use runtime.NumCPU()
			QueryTimeout: 30 * time.Second,
		},
		Analysis: AnalysisConfig{
			Clusters:         4,
			Seed:             42,
			SegmentLabels:    []string{"VIP", "Loyal", "Potential", "At Risk"},
			MinItemCustomers: 20,
			MinSupport:       0.03,
			RuleMetric:       "lift",
			RuleThreshold:    1.0,
			TopN:             5,
		},
		Output: OutputConfig{
			Dir:     "reports",
			Formats: []string{"json", "csv"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Default returns the built-in default configuration. Callers embedding the
// engines directly (without file/env layering) can start from this and
// adjust fields before validation.
func Default() *Config {
	return defaultConfig()
}
