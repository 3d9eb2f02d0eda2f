// Package metrics scores a clustering: within-cluster sum of squares and the
// Davies-Bouldin index, plus the helpers both are built from.
package metrics

import (
	"gonum.org/v1/gonum/floats"
)

// coincident is the centroid distance below which a DBI pair is ignored.
const coincident = 1e-12

// SquaredDistance returns the squared Euclidean distance between a and b.
func SquaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// Centroid returns the component-wise mean of points, or nil if there are none.
func Centroid(points [][]float64) []float64 {
	if len(points) == 0 {
		return nil
	}
	c := make([]float64, len(points[0]))
	for _, p := range points {
		floats.Add(c, p)
	}
	floats.Scale(1/float64(len(points)), c)
	return c
}

// WCSS sums the squared distance of every point to its assigned centroid.
// Points with an out-of-range assignment are skipped.
func WCSS(features [][]float64, assignments []int, centroids [][]float64) float64 {
	var sum float64
	for i, x := range features {
		if i >= len(assignments) {
			break
		}
		c := assignments[i]
		if c < 0 || c >= len(centroids) {
			continue
		}
		sum += SquaredDistance(x, centroids[c])
	}
	return sum
}

// TotalSumOfSquares is the WCSS of a single cluster centred on the global mean.
func TotalSumOfSquares(features [][]float64) float64 {
	mean := Centroid(features)
	var sum float64
	for _, x := range features {
		sum += SquaredDistance(x, mean)
	}
	return sum
}

// Sizes counts the points assigned to each of k clusters.
func Sizes(assignments []int, k int) []int {
	sizes := make([]int, k)
	for _, c := range assignments {
		if c >= 0 && c < k {
			sizes[c]++
		}
	}
	return sizes
}

// DaviesBouldin returns the Davies-Bouldin index of the clustering, lower is
// better. It is 0 for a single cluster. Pairs of coincident centroids are
// skipped and a cluster without any valid pair contributes 0.
func DaviesBouldin(features [][]float64, assignments []int, centroids [][]float64) float64 {
	k := len(centroids)
	if k <= 1 {
		return 0
	}
	scatter := make([]float64, k)
	counts := make([]int, k)
	for i, x := range features {
		if i >= len(assignments) {
			break
		}
		c := assignments[i]
		if c < 0 || c >= k {
			continue
		}
		scatter[c] += floats.Distance(x, centroids[c], 2)
		counts[c]++
	}
	for c := range scatter {
		if counts[c] > 0 {
			scatter[c] /= float64(counts[c])
		}
	}

	var total float64
	for i := 0; i < k; i++ {
		worst, found := 0.0, false
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			m := floats.Distance(centroids[i], centroids[j], 2)
			if m < coincident {
				continue
			}
			r := (scatter[i] + scatter[j]) / m
			if !found || r > worst {
				worst, found = r, true
			}
		}
		total += worst
	}
	return total / float64(k)
}
