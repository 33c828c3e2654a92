// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Input.Path = "orders.csv"
	return cfg
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Analysis.Clusters != 4 {
		t.Errorf("Clusters = %d, want 4", cfg.Analysis.Clusters)
	}
	if cfg.Analysis.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Analysis.Seed)
	}
	if cfg.Analysis.MinItemCustomers != 20 {
		t.Errorf("MinItemCustomers = %d, want 20", cfg.Analysis.MinItemCustomers)
	}
	if cfg.Analysis.MinSupport != 0.03 {
		t.Errorf("MinSupport = %v, want 0.03", cfg.Analysis.MinSupport)
	}
	if cfg.Analysis.RuleMetric != "lift" {
		t.Errorf("RuleMetric = %q, want lift", cfg.Analysis.RuleMetric)
	}
	if cfg.Analysis.RuleThreshold != 1.0 {
		t.Errorf("RuleThreshold = %v, want 1.0", cfg.Analysis.RuleThreshold)
	}
	if cfg.Analysis.TopN != 5 {
		t.Errorf("TopN = %d, want 5", cfg.Analysis.TopN)
	}
	if len(cfg.Analysis.SegmentLabels) != cfg.Analysis.Clusters {
		t.Errorf("default labels (%d) do not match clusters (%d)",
			len(cfg.Analysis.SegmentLabels), cfg.Analysis.Clusters)
	}
	if cfg.Database.Path != ":memory:" {
		t.Errorf("Database.Path = %q, want :memory:", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid defaults with input path",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing input path",
			mutate:  func(c *Config) { c.Input.Path = "" },
			wantErr: true,
		},
		{
			name:    "label count mismatch",
			mutate:  func(c *Config) { c.Analysis.SegmentLabels = []string{"VIP", "Loyal"} },
			wantErr: true,
		},
		{
			name: "more clusters need more labels",
			mutate: func(c *Config) {
				c.Analysis.Clusters = 5
				c.Analysis.SegmentLabels = []string{"A", "B", "C", "D", "E"}
			},
			wantErr: false,
		},
		{
			name:    "blank label",
			mutate:  func(c *Config) { c.Analysis.SegmentLabels = []string{"VIP", "Loyal", " ", "At Risk"} },
			wantErr: true,
		},
		{
			name:    "single cluster rejected",
			mutate:  func(c *Config) { c.Analysis.Clusters = 1; c.Analysis.SegmentLabels = []string{"Only"} },
			wantErr: true,
		},
		{
			name:    "support above one rejected",
			mutate:  func(c *Config) { c.Analysis.MinSupport = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero support rejected",
			mutate:  func(c *Config) { c.Analysis.MinSupport = 0 },
			wantErr: true,
		},
		{
			name:    "unknown rule metric rejected",
			mutate:  func(c *Config) { c.Analysis.RuleMetric = "conviction" },
			wantErr: true,
		},
		{
			name:    "confidence metric accepted",
			mutate:  func(c *Config) { c.Analysis.RuleMetric = "confidence" },
			wantErr: false,
		},
		{
			name:    "zero top_n rejected",
			mutate:  func(c *Config) { c.Analysis.TopN = 0 },
			wantErr: true,
		},
		{
			name:    "unrecognized extension with auto format",
			mutate:  func(c *Config) { c.Input.Path = "orders.parquet" },
			wantErr: true,
		},
		{
			name: "explicit format bypasses extension check",
			mutate: func(c *Config) {
				c.Input.Path = "orders.dat"
				c.Input.Format = "csv"
			},
			wantErr: false,
		},
		{
			name:    "unknown output format rejected",
			mutate:  func(c *Config) { c.Output.Formats = []string{"pdf"} },
			wantErr: true,
		},
		{
			name:    "xlsx output accepted",
			mutate:  func(c *Config) { c.Output.Formats = []string{"json", "xlsx"} },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RETAILSCOPE_ANALYSIS_MIN_SUPPORT", "analysis.min_support"},
		{"RETAILSCOPE_ANALYSIS_CLUSTERS", "analysis.clusters"},
		{"RETAILSCOPE_INPUT_PATH", "input.path"},
		{"RETAILSCOPE_LOGGING_LEVEL", "logging.level"},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	yamlBody := `
input:
  path: orders.csv
analysis:
  clusters: 3
  segment_labels: [Gold, Silver, Bronze]
`
	if err := os.WriteFile(configPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("RETAILSCOPE_ANALYSIS_TOP_N", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// File overrides defaults
	if cfg.Analysis.Clusters != 3 {
		t.Errorf("Clusters = %d, want 3 (from file)", cfg.Analysis.Clusters)
	}
	if len(cfg.Analysis.SegmentLabels) != 3 || cfg.Analysis.SegmentLabels[0] != "Gold" {
		t.Errorf("SegmentLabels = %v, want [Gold Silver Bronze]", cfg.Analysis.SegmentLabels)
	}

	// Env overrides file and defaults
	if cfg.Analysis.TopN != 7 {
		t.Errorf("TopN = %d, want 7 (from env)", cfg.Analysis.TopN)
	}

	// Untouched values fall through to defaults
	if cfg.Analysis.MinSupport != 0.03 {
		t.Errorf("MinSupport = %v, want default 0.03", cfg.Analysis.MinSupport)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	// clusters without matching labels must fail validation
	yamlBody := `
input:
  path: orders.csv
analysis:
  clusters: 6
`
	if err := os.WriteFile(configPath, []byte(yamlBody), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, configPath)

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded with 6 clusters and 4 labels, want error")
	}
}

func TestCamelToSnake(t *testing.T) {
	tests := []struct{ in, want string }{
		{"MinSupport", "min_support"},
		{"TopN", "top_n"},
		{"Clusters", "clusters"},
		{"RuleThreshold", "rule_threshold"},
	}
	for _, tt := range tests {
		if got := camelToSnake(tt.in); got != tt.want {
			t.Errorf("camelToSnake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
