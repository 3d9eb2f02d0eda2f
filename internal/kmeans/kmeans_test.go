package kmeans

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blobs(seed int64, centers [][]float64, per int, sigma float64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	var out [][]float64
	for _, c := range centers {
		for i := 0; i < per; i++ {
			p := make([]float64, len(c))
			for d := range c {
				p[d] = c[d] + rng.NormFloat64()*sigma
			}
			out = append(out, p)
		}
	}
	return out
}

func requireValid(t *testing.T, out *Outcome, n, k, dim int) {
	t.Helper()
	require.Len(t, out.Assignments, n)
	require.Len(t, out.Centroids, k)
	sizes := make([]int, k)
	for _, c := range out.Assignments {
		require.GreaterOrEqual(t, c, 0)
		require.Less(t, c, k)
		sizes[c]++
	}
	total := 0
	for c, s := range sizes {
		assert.NotZero(t, s, "cluster %d is empty", c)
		total += s
	}
	assert.Equal(t, n, total)
	for _, c := range out.Centroids {
		require.Len(t, c, dim)
		for _, v := range c {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestRunnerStructuralValidity(t *testing.T) {
	features := blobs(7, [][]float64{{0, 0, 0}, {5, 5, 0}, {0, 5, 5}, {5, 0, 5}}, 10, 1.0)
	n := len(features)
	r := &Runner{Seed: 42}
	for k := 2; k <= min(10, n/3); k++ {
		out, err := r.Run(features, k)
		require.NoError(t, err, "k=%d", k)
		requireValid(t, out, n, k, 3)
		assert.Equal(t, DefaultAttempts, out.Attempts)
		assert.Positive(t, out.Accepted)
	}
}

func TestRunnerSeparatesBlobs(t *testing.T) {
	features := blobs(1, [][]float64{{0, 0}, {20, 20}}, 15, 0.5)
	out, err := (&Runner{Seed: 3}).Run(features, 2)
	require.NoError(t, err)
	for i := 1; i < 15; i++ {
		assert.Equal(t, out.Assignments[0], out.Assignments[i])
		assert.Equal(t, out.Assignments[15], out.Assignments[15+i])
	}
	assert.NotEqual(t, out.Assignments[0], out.Assignments[15])
	assert.False(t, out.Repaired)
}

func TestRunnerIsReproducible(t *testing.T) {
	features := blobs(9, [][]float64{{0, 0}, {4, 0}, {2, 4}}, 12, 1.2)
	a, err := (&Runner{Seed: 11}).Run(features, 3)
	require.NoError(t, err)
	b, err := (&Runner{Seed: 11}).Run(features, 3)
	require.NoError(t, err)
	assert.Equal(t, a.Assignments, b.Assignments)
	assert.Equal(t, a.WCSS, b.WCSS)
}

func TestRunnerValidation(t *testing.T) {
	r := &Runner{}
	_, err := r.Run(nil, 2)
	assert.ErrorIs(t, err, ErrNoFeatures)

	features := [][]float64{{1, 1}, {1, 1}, {1, 1}, {2, 2}}
	_, err = r.Run(features, 0)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = r.Run(features, 5)
	assert.ErrorIs(t, err, ErrInvalidK)
	_, err = r.Run(features, 3)
	assert.ErrorIs(t, err, ErrTooFewDistinct)

	out, err := r.Run(features, 2)
	require.NoError(t, err)
	requireValid(t, out, 4, 2, 2)
}

// truncating returns one assignment too few and one centroid too few.
type truncating struct{}

func (truncating) Optimize(features [][]float64, k int, _ *rand.Rand) (*Fit, error) {
	assign := make([]int, len(features)-1)
	cents := make([][]float64, k-1)
	for i := range cents {
		cents[i] = []float64{math.NaN()}
	}
	return &Fit{Assignments: assign, Centroids: cents}, nil
}

func TestRunnerRepairsMalformedFit(t *testing.T) {
	features := blobs(5, [][]float64{{0, 0}, {10, 10}, {0, 10}}, 6, 0.3)
	out, err := (&Runner{Optimizer: truncating{}, Attempts: 2}).Run(features, 3)
	require.NoError(t, err)
	requireValid(t, out, len(features), 3, 2)
	assert.True(t, out.Repaired)
	assert.NotEmpty(t, out.RepairNotes)
	assert.Equal(t, []int{0, 1, 2, 0}, out.Assignments[:4])
}

type failing struct{}

func (failing) Optimize([][]float64, int, *rand.Rand) (*Fit, error) {
	return nil, errors.New("diverged")
}

type emptyCluster struct{}

func (emptyCluster) Optimize(features [][]float64, k int, _ *rand.Rand) (*Fit, error) {
	cents := make([][]float64, k)
	for i := range cents {
		cents[i] = make([]float64, len(features[0]))
	}
	return &Fit{Assignments: make([]int, len(features)), Centroids: cents}, nil
}

func TestRunnerRejectsAllAttempts(t *testing.T) {
	features := blobs(2, [][]float64{{0, 0}, {3, 3}}, 5, 0.5)
	for _, opt := range []Optimizer{failing{}, emptyCluster{}} {
		_, err := (&Runner{Optimizer: opt, Attempts: 3}).Run(features, 2)
		require.ErrorIs(t, err, ErrAllAttemptsRejected)
		var rej *RejectedError
		require.True(t, errors.As(err, &rej))
		assert.Equal(t, 3, rej.Attempts)
		assert.Equal(t, 2, rej.K)
	}
}

func TestRepairOutOfRangeAndNonFinite(t *testing.T) {
	features := [][]float64{{0}, {1}, {2}, {3}}
	fit := &Fit{
		Assignments: []int{0, 7, -1, 1},
		Centroids:   [][]float64{{0}, {math.Inf(1)}},
	}
	out, notes := Repair(fit, features, 2, rand.New(rand.NewSource(1)))
	assert.Equal(t, []int{0, 1, 0, 1}, out.Assignments)
	assert.Equal(t, [][]float64{{1}, {2}}, out.Centroids)
	assert.NotEmpty(t, notes)

	clean := &Fit{Assignments: []int{0, 0, 1, 1}, Centroids: [][]float64{{0.5}, {math.NaN()}}}
	out, notes = Repair(clean, features, 2, rand.New(rand.NewSource(1)))
	assert.Equal(t, [][]float64{{0.5}, {0}}, out.Centroids)
	assert.Len(t, notes, 1)
	assert.True(t, math.IsNaN(clean.Centroids[1][0]), "input must not be modified")
}

func TestRepairFillsEmptyCluster(t *testing.T) {
	features := [][]float64{{0}, {1}, {2}}
	out, _ := Repair(&Fit{Assignments: []int{0, 0, 0}, Centroids: [][]float64{{1}, {1}}}, features, 2, rand.New(rand.NewSource(1)))
	assert.Equal(t, []int{0, 0, 1}, out.Assignments)
	assert.Equal(t, [][]float64{{0.5}, {2}}, out.Centroids)
}

func TestDistinctCount(t *testing.T) {
	assert.Equal(t, 2, DistinctCount([][]float64{{0, 1}, {math.Copysign(0, -1), 1}, {1, 0}}))
}
