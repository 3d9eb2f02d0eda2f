package kmeans

import (
	"math"
	"math/rand"

	"github.com/KaramelBytes/clusterbench-cli/internal/metrics"
)

// Fit is the raw output of one optimizer run.
type Fit struct {
	Assignments []int
	Centroids   [][]float64
}

// Optimizer produces a fit for k clusters. Implementations must draw all
// randomness from rng.
type Optimizer interface {
	Optimize(features [][]float64, k int, rng *rand.Rand) (*Fit, error)
}

// Lloyd is the standard assign/update iteration seeded with k-means++.
type Lloyd struct {
	MaxIterations int
}

// Optimize implements Optimizer. An empty cluster keeps its previous centroid,
// so the fit may come back with empty clusters; the Runner rejects those.
func (l Lloyd) Optimize(features [][]float64, k int, rng *rand.Rand) (*Fit, error) {
	n := len(features)
	if n == 0 {
		return nil, ErrNoFeatures
	}
	if k < 1 || k > n {
		return nil, ErrInvalidK
	}
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	dim := len(features[0])
	centroids := seedPlusPlus(features, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, x := range features {
			best := nearest(x, centroids)
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dim)
		}
		for i, x := range features {
			c := labels[i]
			counts[c]++
			for d := range x {
				sums[c][d] += x[d]
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range sums[c] {
				sums[c][d] /= float64(counts[c])
			}
			centroids[c] = sums[c]
		}
	}
	return &Fit{Assignments: labels, Centroids: centroids}, nil
}

// seedPlusPlus picks k initial centroids with probability proportional to the
// squared distance from the nearest centroid chosen so far.
func seedPlusPlus(features [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(features)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(features[rng.Intn(n)]))

	dists := make([]float64, n)
	for len(centroids) < k {
		total := 0.0
		for j, x := range features {
			d := math.MaxFloat64
			for _, c := range centroids {
				if s := metrics.SquaredDistance(x, c); s < d {
					d = s
				}
			}
			dists[j] = d
			total += d
		}
		if total == 0 {
			centroids = append(centroids, clone(features[rng.Intn(n)]))
			continue
		}
		threshold := rng.Float64() * total
		chosen := n - 1
		cum := 0.0
		for j, d := range dists {
			cum += d
			if cum >= threshold && d > 0 {
				chosen = j
				break
			}
		}
		centroids = append(centroids, clone(features[chosen]))
	}
	return centroids
}

func nearest(x []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, center := range centroids {
		if d := metrics.SquaredDistance(x, center); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
