// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package metrics

import (
	"testing"
	"time"
)

func TestObserveStage(t *testing.T) {
	start := time.Now().Add(-10 * time.Millisecond)
	ObserveStage("rfm", start, 250)

	samples, err := Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	var foundDuration, foundRows bool
	for _, s := range samples {
		switch s.Name {
		case "retailscope_stage_duration_seconds":
			if s.Label == "stage=rfm" && s.Value > 0 {
				foundDuration = true
			}
		case "retailscope_rows_processed_total":
			if s.Label == "stage=rfm" && s.Value >= 250 {
				foundRows = true
			}
		}
	}

	if !foundDuration {
		t.Error("stage duration sample for rfm not gathered")
	}
	if !foundRows {
		t.Error("rows processed sample for rfm not gathered")
	}
}

func TestGaugesAppearInGather(t *testing.T) {
	RulesMined.Set(12)
	FrequentItemsets.Set(34)

	samples, err := Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := map[string]float64{
		"retailscope_rules_mined":       12,
		"retailscope_frequent_itemsets": 34,
	}
	for _, s := range samples {
		if v, ok := want[s.Name]; ok && s.Value == v {
			delete(want, s.Name)
		}
	}
	if len(want) != 0 {
		t.Errorf("missing gauge samples: %v", want)
	}
}
