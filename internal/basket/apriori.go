// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package basket

import (
	"sort"
	"strings"

	"github.com/tomtom215/retailscope/internal/models"
)

// MetricLift and MetricConfidence select which rule statistic the retention
// threshold applies to.
const (
	MetricLift       = "lift"
	MetricConfidence = "confidence"
)

// MinerConfig contains configuration for the association rule miner.
type MinerConfig struct {
	// MinItemCustomers is the popularity floor: products purchased by
	// fewer distinct customers are excluded before the itemset search.
	// This bounds the combinatorial space; it trades recall for runtime.
	MinItemCustomers int

	// MinSupport is the minimum fraction of customers an itemset must
	// appear in to be considered frequent.
	MinSupport float64

	// Metric is the statistic the retention threshold applies to:
	// MetricLift or MetricConfidence.
	Metric string

	// Threshold is the minimum metric value for a rule to be retained.
	Threshold float64
}

// DefaultMinerConfig returns the default mining configuration.
func DefaultMinerConfig() MinerConfig {
	return MinerConfig{
		MinItemCustomers: 20,
		MinSupport:       0.03,
		Metric:           MetricLift,
		Threshold:        1.0,
	}
}

// Itemset is a frequent set of stock codes with its support.
type Itemset struct {
	// Items is the sorted stock-code set.
	Items []string `json:"items"`

	// Support is the fraction of customers whose purchases contain every
	// item in the set.
	Support float64 `json:"support"`
}

// MineResult carries the outcome of one mining run. Empty slices mean "no
// rules" and are an ordinary outcome, not an error; downstream
// recommendation degrades to a no-op.
type MineResult struct {
	// Itemsets are the frequent itemsets in lexicographic order.
	Itemsets []Itemset

	// Rules are the retained association rules, ordered by antecedent
	// then consequent.
	Rules []models.AssociationRule
}

// Miner discovers frequent itemsets and association rules over a purchase
// incidence matrix. Mining is fully deterministic: identical input and
// thresholds produce an identical rule set in identical order.
type Miner struct {
	cfg MinerConfig
}

// NewMiner creates a Miner, applying defaults for zero config fields.
func NewMiner(cfg MinerConfig) *Miner {
	def := DefaultMinerConfig()
	if cfg.MinItemCustomers < 1 {
		cfg.MinItemCustomers = def.MinItemCustomers
	}
	if cfg.MinSupport <= 0 || cfg.MinSupport > 1 {
		cfg.MinSupport = def.MinSupport
	}
	if cfg.Metric != MetricLift && cfg.Metric != MetricConfidence {
		cfg.Metric = def.Metric
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	return &Miner{cfg: cfg}
}

// Mine runs the level-wise (Apriori) frequent-itemset search and derives
// rules from every frequent itemset of two or more items.
//
// Support is measured against all customers in the matrix. Rules keep the
// invariants: antecedent and consequent disjoint, and the configured metric
// at or above the threshold.
func (m *Miner) Mine(matrix *Matrix) *MineResult {
	result := &MineResult{}

	n := matrix.NumCustomers()
	if n == 0 {
		return result
	}
	total := float64(n)

	// Popularity floor before mining.
	var items []string
	for _, code := range matrix.Products() {
		if len(matrix.ProductCustomers(code)) >= m.cfg.MinItemCustomers {
			items = append(items, code)
		}
	}
	if len(items) == 0 {
		return result
	}

	// support keyed by canonical itemset key, for O(1) subset lookups
	// during rule generation.
	support := make(map[string]float64)

	// Level 1: frequent single items.
	var level [][]string
	for _, code := range items {
		sup := float64(len(matrix.ProductCustomers(code))) / total
		if sup >= m.cfg.MinSupport {
			set := []string{code}
			level = append(level, set)
			support[itemsetKey(set)] = sup
			result.Itemsets = append(result.Itemsets, Itemset{Items: set, Support: sup})
		}
	}

	// Levels k >= 2: candidate generation, pruning, support counting.
	for len(level) > 1 {
		candidates := generateCandidates(level, support)

		var next [][]string
		for _, cand := range candidates {
			count := m.countSupport(matrix, cand)
			sup := float64(count) / total
			if sup >= m.cfg.MinSupport {
				next = append(next, cand)
				support[itemsetKey(cand)] = sup
				result.Itemsets = append(result.Itemsets, Itemset{Items: cand, Support: sup})
			}
		}

		level = next
	}

	result.Rules = m.deriveRules(result.Itemsets, support)
	return result
}

// countSupport counts customers whose purchase set contains every item of
// the candidate. Iterates the rarest item's customer set and probes the rest.
func (m *Miner) countSupport(matrix *Matrix, itemset []string) int {
	rarest := itemset[0]
	for _, code := range itemset[1:] {
		if len(matrix.ProductCustomers(code)) < len(matrix.ProductCustomers(rarest)) {
			rarest = code
		}
	}

	count := 0
	for customer := range matrix.ProductCustomers(rarest) {
		hasAll := true
		for _, code := range itemset {
			if code == rarest {
				continue
			}
			if !matrix.Has(customer, code) {
				hasAll = false
				break
			}
		}
		if hasAll {
			count++
		}
	}
	return count
}

// generateCandidates joins frequent (k-1)-itemsets sharing their first k-2
// items and prunes candidates with an infrequent subset (downward closure).
// Input and output itemsets are sorted, and candidates come out in
// lexicographic order.
func generateCandidates(level [][]string, support map[string]float64) [][]string {
	sort.Slice(level, func(i, j int) bool {
		return itemsetKey(level[i]) < itemsetKey(level[j])
	})

	k := len(level[0])
	var candidates [][]string

	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			if !samePrefix(level[i], level[j], k-1) {
				// Sorted order means no later j can share the prefix either.
				break
			}

			cand := make([]string, k+1)
			copy(cand, level[i])
			cand[k] = level[j][k-1]
			if cand[k-1] > cand[k] {
				cand[k-1], cand[k] = cand[k], cand[k-1]
			}

			if allSubsetsFrequent(cand, support) {
				candidates = append(candidates, cand)
			}
		}
	}

	return candidates
}

// samePrefix reports whether a and b share their first n items.
func samePrefix(a, b []string, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allSubsetsFrequent checks the downward-closure prune: every (k-1)-subset
// of the candidate must itself be frequent.
func allSubsetsFrequent(cand []string, support map[string]float64) bool {
	sub := make([]string, 0, len(cand)-1)
	for skip := range cand {
		sub = sub[:0]
		for i, item := range cand {
			if i != skip {
				sub = append(sub, item)
			}
		}
		if _, ok := support[itemsetKey(sub)]; !ok {
			return false
		}
	}
	return true
}

// deriveRules generates antecedent/consequent splits for every frequent
// itemset with at least two items and retains rules meeting the metric
// threshold.
func (m *Miner) deriveRules(itemsets []Itemset, support map[string]float64) []models.AssociationRule {
	var rules []models.AssociationRule

	for _, is := range itemsets {
		if len(is.Items) < 2 {
			continue
		}

		// Every non-empty proper subset as antecedent.
		for mask := 1; mask < (1<<len(is.Items))-1; mask++ {
			var antecedent, consequent []string
			for i, item := range is.Items {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, item)
				} else {
					consequent = append(consequent, item)
				}
			}

			supA, okA := support[itemsetKey(antecedent)]
			supC, okC := support[itemsetKey(consequent)]
			if !okA || !okC || supA == 0 || supC == 0 {
				// Downward closure guarantees both subsets are frequent,
				// so their supports are always present here.
				continue
			}

			confidence := is.Support / supA
			lift := confidence / supC

			metric := lift
			if m.cfg.Metric == MetricConfidence {
				metric = confidence
			}
			if metric < m.cfg.Threshold {
				continue
			}

			rules = append(rules, models.AssociationRule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    is.Support,
				Confidence: confidence,
				Lift:       lift,
			})
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		ka, kb := itemsetKey(rules[i].Antecedent), itemsetKey(rules[j].Antecedent)
		if ka != kb {
			return ka < kb
		}
		return itemsetKey(rules[i].Consequent) < itemsetKey(rules[j].Consequent)
	})

	return rules
}

// itemsetKey renders a sorted itemset as a canonical map key.
func itemsetKey(items []string) string {
	return strings.Join(items, "\x1f")
}
