// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package recommend

import (
	"testing"
	"time"

	"github.com/tomtom215/retailscope/internal/basket"
	"github.com/tomtom215/retailscope/internal/models"
)

func line(customer, code string, qty int) models.Transaction {
	return models.Transaction{
		CustomerID:  customer,
		StockCode:   code,
		Quantity:    qty,
		UnitPrice:   1,
		InvoiceID:   customer + "-" + code,
		InvoiceDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func matrixFor(baskets map[string][]string) *basket.Matrix {
	var txns []models.Transaction
	for customer, codes := range baskets {
		for _, code := range codes {
			txns = append(txns, line(customer, code, 1))
		}
	}
	return basket.BuildMatrix(txns)
}

func rule(antecedent, consequent []string, lift float64) models.AssociationRule {
	return models.AssociationRule{
		Antecedent: antecedent,
		Consequent: consequent,
		Support:    0.5,
		Confidence: 0.8,
		Lift:       lift,
	}
}

func TestRecommendUnknownCustomer(t *testing.T) {
	matrix := matrixFor(map[string][]string{"A": {"X"}})
	rules := []models.AssociationRule{rule([]string{"X"}, []string{"Y"}, 2)}

	r := NewRanker(5)
	if got := r.Recommend("nobody", matrix, rules, MapCatalog{}); len(got) != 0 {
		t.Errorf("Recommend(unknown) = %v, want empty", got)
	}
}

func TestRecommendExcludesPurchased(t *testing.T) {
	// A already owns X and Y, so the X->Y rule must not resurface Y for A;
	// a customer who only bought X gets Y.
	matrix := matrixFor(map[string][]string{
		"A": {"X", "Y"},
		"B": {"X", "Y", "Z"},
		"C": {"X"},
	})
	rules := []models.AssociationRule{rule([]string{"X"}, []string{"Y"}, 1.5)}
	catalog := MapCatalog{"X": "Widget X", "Y": "Widget Y"}

	r := NewRanker(5)

	if got := r.Recommend("A", matrix, rules, catalog); len(got) != 0 {
		t.Errorf("Recommend(A) = %v, want empty (Y already purchased)", got)
	}

	got := r.Recommend("C", matrix, rules, catalog)
	if len(got) != 1 {
		t.Fatalf("Recommend(C) = %v, want one entry", got)
	}
	if got[0].StockCode != "Y" || got[0].Lift != 1.5 || got[0].Description != "Widget Y" {
		t.Errorf("Recommend(C)[0] = %+v, want Y/Widget Y/1.5", got[0])
	}
}

func TestRecommendMaxLiftAcrossRules(t *testing.T) {
	matrix := matrixFor(map[string][]string{"A": {"X", "W"}})
	rules := []models.AssociationRule{
		rule([]string{"X"}, []string{"Y"}, 1.2),
		rule([]string{"W"}, []string{"Y"}, 3.0), // higher lift wins
		rule([]string{"X", "W"}, []string{"Y"}, 2.0),
	}

	r := NewRanker(5)
	got := r.Recommend("A", matrix, rules, MapCatalog{"Y": "Widget Y"})
	if len(got) != 1 {
		t.Fatalf("got %v, want one entry", got)
	}
	if got[0].Lift != 3.0 {
		t.Errorf("lift = %v, want max across rules 3.0", got[0].Lift)
	}
}

func TestRecommendAntecedentMustBeFullySatisfied(t *testing.T) {
	matrix := matrixFor(map[string][]string{"A": {"X"}})
	rules := []models.AssociationRule{
		rule([]string{"X", "W"}, []string{"Y"}, 5.0), // A lacks W
		rule([]string{"X"}, []string{"Z"}, 1.1),
	}

	r := NewRanker(5)
	got := r.Recommend("A", matrix, rules, MapCatalog{})
	if len(got) != 1 || got[0].StockCode != "Z" {
		t.Errorf("got %v, want only Z", got)
	}
}

func TestRecommendOrderingAndTruncation(t *testing.T) {
	matrix := matrixFor(map[string][]string{"A": {"X"}})
	rules := []models.AssociationRule{
		rule([]string{"X"}, []string{"P"}, 2.0),
		rule([]string{"X"}, []string{"Q"}, 3.0),
		rule([]string{"X"}, []string{"R"}, 2.0), // ties with P, code breaks tie
		rule([]string{"X"}, []string{"S"}, 1.5),
	}

	r := NewRanker(3)
	got := r.Recommend("A", matrix, rules, MapCatalog{})

	if len(got) != 3 {
		t.Fatalf("got %d entries, want top_n=3", len(got))
	}
	wantOrder := []string{"Q", "P", "R"} // 3.0, then 2.0 ties by code
	for i, code := range wantOrder {
		if got[i].StockCode != code {
			t.Errorf("rank %d = %s, want %s (full order %v)", i, got[i].StockCode, code, got)
		}
	}
}

func TestRecommendUnknownProductSentinel(t *testing.T) {
	matrix := matrixFor(map[string][]string{"A": {"X"}})
	rules := []models.AssociationRule{rule([]string{"X"}, []string{"Y"}, 2.0)}

	r := NewRanker(5)
	got := r.Recommend("A", matrix, rules, MapCatalog{})
	if len(got) != 1 {
		t.Fatalf("got %v, want one entry", got)
	}
	if got[0].Description != UnknownProduct {
		t.Errorf("description = %q, want %q", got[0].Description, UnknownProduct)
	}
}

func TestRecommendEmptyRuleSet(t *testing.T) {
	matrix := matrixFor(map[string][]string{"A": {"X"}})

	r := NewRanker(5)
	if got := r.Recommend("A", matrix, nil, MapCatalog{}); len(got) != 0 {
		t.Errorf("Recommend with no rules = %v, want empty", got)
	}
}

func TestNewRankerDefaultTopN(t *testing.T) {
	r := NewRanker(0)
	if r.topN != 5 {
		t.Errorf("topN = %d, want default 5", r.topN)
	}
}
