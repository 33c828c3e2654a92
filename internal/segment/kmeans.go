// RetailScope - E-Commerce Customer Segmentation and Market Basket Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retailscope

package segment

import (
	"math"
	"math/rand"
)

// kmeansMaxIterations bounds the Lloyd iteration loop. Convergence on RFM
// feature matrices is typically reached within a couple dozen iterations.
const kmeansMaxIterations = 300

// kmeansRestarts is the number of independent initializations per run. A
// single Lloyd descent can settle in a poor local optimum even on cleanly
// separated data; keeping the lowest-inertia solution across restarts makes
// the partition depend on the data, not on which initialization a seed
// happens to draw.
const kmeansRestarts = 10

// runKMeans partitions points into k clusters minimizing within-cluster sum
// of squared Euclidean distances. Returns the cluster assignment per point.
//
// The search restarts kmeansRestarts times and keeps the assignment with the
// lowest inertia. All randomness flows from the seeded source, so identical
// inputs, k and seed produce identical assignments on every run. Callers
// guarantee len(points) >= k.
func runKMeans(points [][]float64, k int, seed int64) []int {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic clustering, not cryptography

	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < kmeansRestarts; r++ {
		assignments, inertia := lloyd(points, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			best = assignments
		}
	}

	return best
}

// lloyd runs one k-means++ initialization followed by Lloyd iterations to
// convergence. Returns the assignment and its inertia (within-cluster sum of
// squared distances to the final cluster means).
func lloyd(points [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := seedCentroids(points, k, rng)
	assignments := make([]int, len(points))
	for i := range assignments {
		assignments[i] = -1
	}

	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false

		// Assignment step. On the first iteration every point moves off the
		// -1 sentinel, so the loop always reaches the update step once.
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		centroids = recomputeCentroids(points, assignments, k)

		// An empty cluster would leave its centroid undefined; re-seed it
		// with the point farthest from its current centroid.
		repairEmptyClusters(points, assignments, centroids, k)
	}

	centroids = recomputeCentroids(points, assignments, k)
	var inertia float64
	for i, p := range points {
		inertia += squaredDistance(p, centroids[assignments[i]])
	}

	return assignments, inertia
}

// seedCentroids picks initial centroids with the k-means++ strategy: the
// first uniformly, each subsequent one weighted by squared distance to the
// nearest centroid chosen so far. Spreads the seeds and makes the common
// pathological initializations unlikely.
func seedCentroids(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	dims := len(points[0])
	centroids := make([][]float64, 0, k)

	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dists := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if sq := squaredDistance(p, c); sq < d {
					d = sq
				}
			}
			dists[i] = d
			total += d
		}

		var idx int
		if total == 0 {
			// All remaining points coincide with a centroid; any pick works.
			idx = rng.Intn(len(points))
		} else {
			target := rng.Float64() * total
			var cum float64
			for i, d := range dists {
				cum += d
				if cum >= target {
					idx = i
					break
				}
			}
		}

		c := make([]float64, dims)
		copy(c, points[idx])
		centroids = append(centroids, c)
	}

	return centroids
}

// nearestCentroid returns the index of the closest centroid, preferring the
// lower index on exact ties so assignment is stable.
func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := squaredDistance(p, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := squaredDistance(p, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// recomputeCentroids returns the mean point of each cluster.
func recomputeCentroids(points [][]float64, assignments []int, k int) [][]float64 {
	dims := len(points[0])
	centroids := make([][]float64, k)
	counts := make([]int, k)
	for c := range centroids {
		centroids[c] = make([]float64, dims)
	}

	for i, p := range points {
		c := assignments[i]
		counts[c]++
		for d, v := range p {
			centroids[c][d] += v
		}
	}

	for c := range centroids {
		if counts[c] == 0 {
			continue
		}
		for d := range centroids[c] {
			centroids[c][d] /= float64(counts[c])
		}
	}

	return centroids
}

// repairEmptyClusters re-seeds any empty cluster with the point farthest
// from its assigned centroid, then steals that point for the empty cluster.
func repairEmptyClusters(points [][]float64, assignments []int, centroids [][]float64, k int) {
	counts := make([]int, k)
	for _, c := range assignments {
		counts[c]++
	}

	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}

		farIdx := -1
		farDist := -1.0
		for i, p := range points {
			owner := assignments[i]
			if counts[owner] <= 1 {
				continue // don't empty another cluster
			}
			if d := squaredDistance(p, centroids[owner]); d > farDist {
				farDist = d
				farIdx = i
			}
		}
		if farIdx < 0 {
			continue
		}

		counts[assignments[farIdx]]--
		assignments[farIdx] = c
		counts[c]++
		copy(centroids[c], points[farIdx])
	}
}

// squaredDistance returns the squared Euclidean distance between two vectors.
func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
