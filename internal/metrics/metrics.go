// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package metrics provides Prometheus instrumentation for the analysis
// pipeline. A batch run has no scrape endpoint; collectors are registered on
// the default registry and gathered once at the end of the run so the summary
// can be logged and exported alongside the reports.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StageDuration observes wall-clock time per pipeline stage.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailscope_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// RowsProcessed counts records flowing out of each stage.
	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_rows_processed_total",
			Help: "Records produced by each pipeline stage",
		},
		[]string{"stage"},
	)

	// StageErrors counts hard failures per stage.
	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retailscope_stage_errors_total",
			Help: "Hard failures per pipeline stage",
		},
		[]string{"stage"},
	)

	// RulesMined records the size of the mined rule set for the run.
	RulesMined = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retailscope_rules_mined",
			Help: "Association rules produced by the last mining run",
		},
	)

	// FrequentItemsets records the frequent-itemset count for the run.
	FrequentItemsets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "retailscope_frequent_itemsets",
			Help: "Frequent itemsets found by the last mining run",
		},
	)

	// IngestDuration observes dataset load time by input format.
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "retailscope_ingest_duration_seconds",
			Help:    "Duration of dataset ingestion in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"format"},
	)
)

// ObserveStage records a completed stage: duration plus output row count.
func ObserveStage(stage string, start time.Time, rows int) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	RowsProcessed.WithLabelValues(stage).Add(float64(rows))
}

// Summary is a flattened metric sample used in the run report.
type Summary struct {
	Name  string  `json:"name"`
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

// Gather flattens the default registry into report-friendly samples.
// Histogram families are reported as their sample sums.
func Gather() ([]Summary, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	var out []Summary
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			s := Summary{Name: fam.GetName()}
			for _, lp := range m.GetLabel() {
				if s.Label != "" {
					s.Label += ","
				}
				s.Label += lp.GetName() + "=" + lp.GetValue()
			}
			switch {
			case m.GetHistogram() != nil:
				s.Value = m.GetHistogram().GetSampleSum()
			case m.GetCounter() != nil:
				s.Value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				s.Value = m.GetGauge().GetValue()
			default:
				continue
			}
			out = append(out, s)
		}
	}

	return out, nil
}
