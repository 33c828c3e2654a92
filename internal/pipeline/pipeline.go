// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package pipeline orchestrates one full analysis run: load the clean
// transactions, compute RFM profiles, cluster them into segments, mine
// association rules over the purchase matrix, and collect the sink
// aggregations. Each stage is timed and counted through the metrics package.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/retailscope/internal/basket"
	"github.com/tomtom215/retailscope/internal/config"
	"github.com/tomtom215/retailscope/internal/logging"
	"github.com/tomtom215/retailscope/internal/metrics"
	"github.com/tomtom215/retailscope/internal/models"
	"github.com/tomtom215/retailscope/internal/recommend"
	"github.com/tomtom215/retailscope/internal/rfm"
	"github.com/tomtom215/retailscope/internal/segment"
	"github.com/tomtom215/retailscope/internal/source"
)

// ErrNoTransactions indicates the store holds no clean order lines, so
// there is nothing to analyze.
var ErrNoTransactions = errors.New("pipeline: no transactions to analyze")

// topAggregates bounds the product and country leaderboards in the run
// report.
const topAggregates = 10

// Pipeline wires the analytical engines over one transaction store.
type Pipeline struct {
	store *source.Store
	cfg   *config.Config
}

// New creates a Pipeline over an opened store.
func New(store *source.Store, cfg *config.Config) *Pipeline {
	return &Pipeline{store: store, cfg: cfg}
}

// Result is the complete output of one analysis run.
type Result struct {
	// RunID uniquely identifies this run across report files and logs.
	RunID string `json:"run_id"`

	// StartedAt and CompletedAt bound the run wall-clock time.
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	// OrderLines is the number of clean order lines analyzed.
	OrderLines int `json:"order_lines"`

	// Profiles are the segmented customer profiles, by customer id.
	Profiles []models.SegmentedProfile `json:"profiles"`

	// Clusters are the per-cluster summaries, best tier first.
	Clusters []models.ClusterSummary `json:"clusters"`

	// Itemsets are the frequent itemsets found by the miner.
	Itemsets []basket.Itemset `json:"itemsets"`

	// Rules are the retained association rules.
	Rules []models.AssociationRule `json:"rules"`

	// SampleCustomerID is the customer the sample recommendations below
	// were produced for: the first profiled customer in id order.
	SampleCustomerID string `json:"sample_customer_id,omitempty"`

	// SampleRecommendations demonstrate the recommender output for the
	// sample customer. May be empty when no rule applies.
	SampleRecommendations []models.Recommendation `json:"sample_recommendations"`

	// MonthlySales, TopProducts and TopCountries are the cross-cutting
	// revenue aggregations.
	MonthlySales []models.MonthlySales   `json:"monthly_sales"`
	TopProducts  []models.ProductRevenue `json:"top_products"`
	TopCountries []models.CountryRevenue `json:"top_countries"`

	matrix  *basket.Matrix
	ranker  *recommend.Ranker
	catalog recommend.Catalog
}

// Recommend ranks product suggestions for any customer using the rules
// mined during the run. Unknown customers get no recommendations.
func (r *Result) Recommend(customerID string) []models.Recommendation {
	return r.ranker.Recommend(customerID, r.matrix, r.Rules, r.catalog)
}

// Run executes the full pipeline and returns the assembled result.
//
// Mining finding no rules is an ordinary outcome; recommendation degrades to
// empty output. An empty store or fewer customers than clusters is an error.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	log := logging.With().Str("run_id", result.RunID).Logger()
	log.Info().Msg("Analysis run started")

	txns, catalog, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	result.OrderLines = len(txns)
	result.catalog = recommend.MapCatalog(catalog)

	profiles, err := p.profile(txns)
	if err != nil {
		return nil, err
	}

	segmented, clusters, err := p.segmentProfiles(profiles)
	if err != nil {
		return nil, err
	}
	result.Profiles = segmented
	result.Clusters = clusters

	matrix, mined := p.mine(txns)
	result.matrix = matrix
	result.Itemsets = mined.Itemsets
	result.Rules = mined.Rules

	result.ranker = recommend.NewRanker(p.cfg.Analysis.TopN)
	if len(profiles) > 0 {
		start := time.Now()
		result.SampleCustomerID = profiles[0].CustomerID
		result.SampleRecommendations = result.Recommend(result.SampleCustomerID)
		metrics.ObserveStage("recommend", start, len(result.SampleRecommendations))
	}

	if err := p.aggregate(ctx, result); err != nil {
		return nil, err
	}

	result.CompletedAt = time.Now().UTC()
	log.Info().
		Int("order_lines", result.OrderLines).
		Int("customers", len(result.Profiles)).
		Int("rules", len(result.Rules)).
		Dur("elapsed", result.CompletedAt.Sub(result.StartedAt)).
		Msg("Analysis run completed")

	return result, nil
}

// load fetches the clean transactions and the product catalog.
func (p *Pipeline) load(ctx context.Context) ([]models.Transaction, map[string]string, error) {
	start := time.Now()

	txns, err := p.store.Transactions(ctx)
	if err != nil {
		metrics.StageErrors.WithLabelValues("load").Inc()
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}
	if len(txns) == 0 {
		metrics.StageErrors.WithLabelValues("load").Inc()
		return nil, nil, ErrNoTransactions
	}

	catalog, err := p.store.Catalog(ctx)
	if err != nil {
		metrics.StageErrors.WithLabelValues("load").Inc()
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}

	metrics.ObserveStage("load", start, len(txns))
	logging.Debug().Int("order_lines", len(txns)).Int("products", len(catalog)).Msg("Transactions loaded")

	return txns, catalog, nil
}

// profile computes RFM profiles from the transaction stream.
func (p *Pipeline) profile(txns []models.Transaction) ([]models.RFMProfile, error) {
	start := time.Now()

	profiles := rfm.Calculate(txns)
	if len(profiles) == 0 {
		metrics.StageErrors.WithLabelValues("rfm").Inc()
		return nil, errors.New("pipeline: no customers with positive spend")
	}

	metrics.ObserveStage("rfm", start, len(profiles))
	logging.Debug().Int("customers", len(profiles)).Msg("RFM profiles computed")

	return profiles, nil
}

// segmentProfiles clusters the profiles into labeled segments.
func (p *Pipeline) segmentProfiles(profiles []models.RFMProfile) ([]models.SegmentedProfile, []models.ClusterSummary, error) {
	start := time.Now()

	seg, err := segment.New(segment.Config{
		Clusters: p.cfg.Analysis.Clusters,
		Seed:     p.cfg.Analysis.Seed,
		Labels:   p.cfg.Analysis.SegmentLabels,
	})
	if err != nil {
		metrics.StageErrors.WithLabelValues("segment").Inc()
		return nil, nil, err
	}

	segmented, clusters, err := seg.Segment(profiles)
	if err != nil {
		metrics.StageErrors.WithLabelValues("segment").Inc()
		return nil, nil, fmt.Errorf("segment customers: %w", err)
	}

	metrics.ObserveStage("segment", start, len(segmented))
	for _, c := range clusters {
		logging.Debug().
			Str("segment", c.Segment).
			Int("size", c.Size).
			Float64("mean_monetary", c.MeanMonetary).
			Msg("Cluster labeled")
	}

	return segmented, clusters, nil
}

// mine builds the purchase matrix and runs the rule miner over it.
func (p *Pipeline) mine(txns []models.Transaction) (*basket.Matrix, *basket.MineResult) {
	start := time.Now()
	matrix := basket.BuildMatrix(txns)
	metrics.ObserveStage("matrix", start, matrix.NumCustomers())

	start = time.Now()
	miner := basket.NewMiner(basket.MinerConfig{
		MinItemCustomers: p.cfg.Analysis.MinItemCustomers,
		MinSupport:       p.cfg.Analysis.MinSupport,
		Metric:           p.cfg.Analysis.RuleMetric,
		Threshold:        p.cfg.Analysis.RuleThreshold,
	})
	mined := miner.Mine(matrix)
	metrics.ObserveStage("mine", start, len(mined.Rules))
	metrics.FrequentItemsets.Set(float64(len(mined.Itemsets)))
	metrics.RulesMined.Set(float64(len(mined.Rules)))

	logging.Debug().
		Int("itemsets", len(mined.Itemsets)).
		Int("rules", len(mined.Rules)).
		Msg("Rule mining finished")

	return matrix, mined
}

// aggregate attaches the revenue reports computed inside the store.
func (p *Pipeline) aggregate(ctx context.Context, result *Result) error {
	start := time.Now()

	var err error
	if result.MonthlySales, err = p.store.MonthlySales(ctx); err != nil {
		metrics.StageErrors.WithLabelValues("aggregate").Inc()
		return fmt.Errorf("aggregate monthly sales: %w", err)
	}
	if result.TopProducts, err = p.store.TopProducts(ctx, topAggregates); err != nil {
		metrics.StageErrors.WithLabelValues("aggregate").Inc()
		return fmt.Errorf("aggregate top products: %w", err)
	}
	if result.TopCountries, err = p.store.TopCountries(ctx, topAggregates); err != nil {
		metrics.StageErrors.WithLabelValues("aggregate").Inc()
		return fmt.Errorf("aggregate top countries: %w", err)
	}

	rows := len(result.MonthlySales) + len(result.TopProducts) + len(result.TopCountries)
	metrics.ObserveStage("aggregate", start, rows)

	return nil
}
