// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

// Package segment clusters RFM profiles into named behavioral segments.
//
// The engine log-transforms and standardizes the three RFM metrics, runs a
// seeded k-means over the resulting feature vectors, and labels each cluster
// by its rank on mean monetary value. Labels are a function of rank only;
// the raw cluster ids the algorithm happens to assign carry no meaning.
package segment

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/retailscope/internal/models"
)

var (
	// ErrTooFewProfiles indicates fewer profiles than requested clusters.
	// Clustering is undefined in that configuration.
	ErrTooFewProfiles = errors.New("segment: fewer profiles than clusters")

	// ErrDegenerateFeatures indicates a feature column with zero variance,
	// which makes standardization a division by zero.
	ErrDegenerateFeatures = errors.New("segment: zero-variance feature column")

	// ErrLabelMismatch indicates the label tier list does not match the
	// cluster count.
	ErrLabelMismatch = errors.New("segment: label count must equal cluster count")
)

// Config holds the segmentation tunables.
type Config struct {
	// Clusters is the number of k-means clusters.
	Clusters int

	// Seed drives all clustering randomness.
	Seed int64

	// Labels is the ordered tier list, assigned by descending mean
	// monetary rank. Must contain exactly Clusters entries.
	Labels []string
}

// DefaultConfig returns the canonical four-tier configuration.
func DefaultConfig() Config {
	return Config{
		Clusters: 4,
		Seed:     42,
		Labels:   []string{"VIP", "Loyal", "Potential", "At Risk"},
	}
}

// Segmenter clusters customers into behavioral segments.
type Segmenter struct {
	cfg Config
}

// New creates a Segmenter, rejecting configurations whose label tier list
// does not match the cluster count.
func New(cfg Config) (*Segmenter, error) {
	if cfg.Clusters < 2 {
		return nil, fmt.Errorf("segment: clusters must be >= 2, got %d", cfg.Clusters)
	}
	if len(cfg.Labels) != cfg.Clusters {
		return nil, fmt.Errorf("%w: %d labels for %d clusters", ErrLabelMismatch, len(cfg.Labels), cfg.Clusters)
	}
	return &Segmenter{cfg: cfg}, nil
}

// Segment assigns every profile to a cluster and attaches segment labels.
//
// Returns the augmented profiles (input order preserved) and per-cluster
// summaries sorted by descending mean monetary value. The input slice is not
// mutated.
//
// Precondition violations (too few profiles, zero-variance features) are
// returned as errors before any clustering runs.
func (s *Segmenter) Segment(profiles []models.RFMProfile) ([]models.SegmentedProfile, []models.ClusterSummary, error) {
	k := s.cfg.Clusters
	if len(profiles) < k {
		return nil, nil, fmt.Errorf("%w: %d profiles, %d clusters", ErrTooFewProfiles, len(profiles), k)
	}

	features, err := buildFeatureMatrix(profiles)
	if err != nil {
		return nil, nil, err
	}

	assignments := runKMeans(features, k, s.cfg.Seed)

	summaries := summarize(profiles, assignments, k)

	// Rank clusters by mean monetary, best first, and label by rank.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].MeanMonetary > summaries[j].MeanMonetary
	})
	labelByCluster := make(map[int]string, k)
	for rank := range summaries {
		summaries[rank].Segment = s.cfg.Labels[rank]
		labelByCluster[summaries[rank].ClusterID] = s.cfg.Labels[rank]
	}

	segmented := make([]models.SegmentedProfile, len(profiles))
	for i, p := range profiles {
		segmented[i] = models.SegmentedProfile{
			RFMProfile: p,
			ClusterID:  assignments[i],
			Segment:    labelByCluster[assignments[i]],
		}
	}

	return segmented, summaries, nil
}

// buildFeatureMatrix log-transforms each RFM metric with log1p and
// standardizes each column to zero mean and unit variance.
//
// log1p tames the heavy right skew of frequency and monetary data;
// standardization keeps monetary from dominating Euclidean distances.
func buildFeatureMatrix(profiles []models.RFMProfile) ([][]float64, error) {
	n := len(profiles)
	features := make([][]float64, n)
	for i, p := range profiles {
		features[i] = []float64{
			math.Log1p(float64(p.Recency)),
			math.Log1p(float64(p.Frequency)),
			math.Log1p(p.Monetary),
		}
	}

	const dims = 3
	for d := 0; d < dims; d++ {
		var mean float64
		for i := range features {
			mean += features[i][d]
		}
		mean /= float64(n)

		var variance float64
		for i := range features {
			diff := features[i][d] - mean
			variance += diff * diff
		}
		variance /= float64(n)

		if variance == 0 {
			return nil, fmt.Errorf("%w: feature %s is constant across all profiles",
				ErrDegenerateFeatures, featureName(d))
		}

		std := math.Sqrt(variance)
		for i := range features {
			features[i][d] = (features[i][d] - mean) / std
		}
	}

	return features, nil
}

// featureName maps a feature column index to its metric name.
func featureName(d int) string {
	switch d {
	case 0:
		return "recency"
	case 1:
		return "frequency"
	default:
		return "monetary"
	}
}

// summarize computes per-cluster sizes and means of the ORIGINAL RFM values.
// Means of the untransformed metrics keep the summaries interpretable and
// drive the monetary ranking used for labels.
func summarize(profiles []models.RFMProfile, assignments []int, k int) []models.ClusterSummary {
	summaries := make([]models.ClusterSummary, k)
	for c := range summaries {
		summaries[c].ClusterID = c
	}

	for i, p := range profiles {
		c := assignments[i]
		summaries[c].Size++
		summaries[c].MeanRecency += float64(p.Recency)
		summaries[c].MeanFrequency += float64(p.Frequency)
		summaries[c].MeanMonetary += p.Monetary
	}

	for c := range summaries {
		if summaries[c].Size == 0 {
			continue
		}
		n := float64(summaries[c].Size)
		summaries[c].MeanRecency /= n
		summaries[c].MeanFrequency /= n
		summaries[c].MeanMonetary /= n
	}

	return summaries
}
