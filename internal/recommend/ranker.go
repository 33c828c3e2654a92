// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package recommend ranks unpurchased products for a customer using mined
// association rules.
//
// A candidate product is any consequent item of a rule whose antecedent the
// customer has fully purchased, minus what they already own. Each candidate
// is scored with the maximum lift across all rules that produced it.
package recommend

import (
	"sort"

	"github.com/tomtom215/retailscope/internal/basket"
	"github.com/tomtom215/retailscope/internal/models"
)

// UnknownProduct is the sentinel description substituted when the catalog
// has no entry for a recommended stock code.
const UnknownProduct = "Unknown Product"

// Catalog resolves stock codes to product descriptions. The boolean result
// distinguishes "no description on file" from an empty description.
type Catalog interface {
	Describe(stockCode string) (string, bool)
}

// MapCatalog is a Catalog backed by a plain map.
type MapCatalog map[string]string

// Describe implements Catalog.
func (c MapCatalog) Describe(stockCode string) (string, bool) {
	desc, ok := c[stockCode]
	return desc, ok
}

// Ranker produces ranked product recommendations.
type Ranker struct {
	topN int
}

// NewRanker creates a Ranker returning at most topN recommendations per
// customer. A non-positive topN falls back to 5.
func NewRanker(topN int) *Ranker {
	if topN < 1 {
		topN = 5
	}
	return &Ranker{topN: topN}
}

// Recommend returns a ranked recommendation list for the customer.
//
// A customer absent from the matrix yields an empty list, not an error; so
// does an empty rule set. Purchased products are never recommended, and the
// result never exceeds the configured top-N.
//
// Candidates are ordered by lift descending; equal-lift candidates are
// ordered by ascending stock code so the ranking is reproducible regardless
// of rule traversal order.
func (r *Ranker) Recommend(customerID string, matrix *basket.Matrix, rules []models.AssociationRule, catalog Catalog) []models.Recommendation {
	purchased := matrix.Purchased(customerID)
	if len(purchased) == 0 {
		return nil
	}

	// Best lift seen per candidate stock code.
	scores := make(map[string]float64)
	for _, rule := range rules {
		if !containsAll(purchased, rule.Antecedent) {
			continue
		}
		for _, item := range rule.Consequent {
			if _, owned := purchased[item]; owned {
				continue
			}
			if rule.Lift > scores[item] {
				scores[item] = rule.Lift
			}
		}
	}

	if len(scores) == 0 {
		return nil
	}

	codes := make([]string, 0, len(scores))
	for code := range scores {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if scores[codes[i]] != scores[codes[j]] {
			return scores[codes[i]] > scores[codes[j]]
		}
		return codes[i] < codes[j]
	})

	if len(codes) > r.topN {
		codes = codes[:r.topN]
	}

	recs := make([]models.Recommendation, len(codes))
	for i, code := range codes {
		desc, ok := catalog.Describe(code)
		if !ok {
			desc = UnknownProduct
		}
		recs[i] = models.Recommendation{
			StockCode:   code,
			Description: desc,
			Lift:        scores[code],
		}
	}

	return recs
}

// containsAll reports whether every item is present in the set.
func containsAll(set map[string]struct{}, items []string) bool {
	for _, item := range items {
		if _, ok := set[item]; !ok {
			return false
		}
	}
	return true
}
