package kmeans

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"

	"github.com/KaramelBytes/clusterbench-cli/internal/metrics"
)

const (
	DefaultAttempts      = 5
	DefaultMaxIterations = 100
	DefaultSeedStep      = 1009
)

var (
	// ErrInvalidK is returned when k is below 1 or above the number of rows.
	ErrInvalidK = errors.New("invalid cluster count")
	// ErrTooFewDistinct is returned when there are fewer distinct vectors than clusters.
	ErrTooFewDistinct = errors.New("fewer distinct feature vectors than clusters")
	// ErrNoFeatures is returned for an empty feature matrix.
	ErrNoFeatures = errors.New("no features")
	// ErrAllAttemptsRejected is matched by *RejectedError.
	ErrAllAttemptsRejected = errors.New("all attempts rejected")
)

// RejectedError reports that no attempt produced an acceptable fit.
type RejectedError struct {
	K        int
	Attempts int
	// Last is the reason the final attempt was rejected.
	Last error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("k=%d: all %d attempts rejected: %v", e.K, e.Attempts, e.Last)
}

func (e *RejectedError) Unwrap() error { return e.Last }

func (e *RejectedError) Is(target error) bool { return target == ErrAllAttemptsRejected }

var errEmptyCluster = errors.New("empty cluster")

// Runner restarts an Optimizer several times and keeps the best fit.
type Runner struct {
	Attempts      int
	MaxIterations int
	// Seed and SeedStep derive the RNG of attempt a as Seed + a*SeedStep.
	Seed      int64
	SeedStep  int64
	Optimizer Optimizer
	Logger    *slog.Logger
}

// Outcome is the chosen, repaired fit together with run bookkeeping.
type Outcome struct {
	Fit
	WCSS     float64
	Attempts int
	Accepted int
	// Repaired is set when Repair had to change the chosen fit.
	Repaired    bool
	RepairNotes []string
}

func (r *Runner) defaults() (attempts int, step int64, opt Optimizer, log *slog.Logger) {
	attempts, step, opt, log = r.Attempts, r.SeedStep, r.Optimizer, r.Logger
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if step == 0 {
		step = DefaultSeedStep
	}
	if opt == nil {
		opt = Lloyd{MaxIterations: r.MaxIterations}
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return
}

// Run clusters features into k groups.
func (r *Runner) Run(features [][]float64, k int) (*Outcome, error) {
	if len(features) == 0 || len(features[0]) == 0 {
		return nil, ErrNoFeatures
	}
	if k < 1 || k > len(features) {
		return nil, fmt.Errorf("%w: k=%d with %d rows", ErrInvalidK, k, len(features))
	}
	if d := DistinctCount(features); d < k {
		return nil, fmt.Errorf("%w: k=%d, %d distinct", ErrTooFewDistinct, k, d)
	}
	attempts, step, opt, log := r.defaults()
	log = log.With("k", k)

	var (
		best     *Outcome
		accepted int
		last     error
	)
	for a := 0; a < attempts; a++ {
		rng := rand.New(rand.NewSource(r.Seed + int64(a)*step))
		fit, err := opt.Optimize(features, k, rng)
		if err == nil {
			err = checkFit(fit, len(features), k)
		}
		if err != nil {
			last = err
			log.Debug("attempt rejected", "attempt", a, "error", err)
			continue
		}
		accepted++
		repaired, notes := Repair(fit, features, k, rng)
		wcss := metrics.WCSS(features, repaired.Assignments, repaired.Centroids)
		log.Debug("attempt accepted", "attempt", a, "wcss", wcss, "repairs", len(notes))
		if best == nil || wcss < best.WCSS {
			best = &Outcome{Fit: *repaired, WCSS: wcss, Repaired: len(notes) > 0, RepairNotes: notes}
		}
	}
	if best == nil {
		return nil, &RejectedError{K: k, Attempts: attempts, Last: last}
	}
	best.Attempts, best.Accepted = attempts, accepted
	return best, nil
}

// checkFit rejects nil fits and, for fits with one assignment per row, any
// empty cluster. Fits of the wrong shape are left to Repair.
func checkFit(fit *Fit, n, k int) error {
	if fit == nil {
		return errors.New("optimizer returned no fit")
	}
	if len(fit.Assignments) != n {
		return nil
	}
	for c, size := range metrics.Sizes(fit.Assignments, k) {
		if size == 0 {
			return fmt.Errorf("%w: cluster %d", errEmptyCluster, c)
		}
	}
	return nil
}

// Repair returns a structurally valid copy of fit: exactly one in-range
// assignment per row, no empty cluster when len(features) >= k, and k finite
// centroids of the feature dimension. notes lists what was changed.
func Repair(fit *Fit, features [][]float64, k int, rng *rand.Rand) (*Fit, []string) {
	n := len(features)
	dim := 0
	if n > 0 {
		dim = len(features[0])
	}
	var notes []string
	out := &Fit{}

	if fit == nil || len(fit.Assignments) != n {
		got := 0
		if fit != nil {
			got = len(fit.Assignments)
		}
		out.Assignments = make([]int, n)
		for i := range out.Assignments {
			out.Assignments[i] = i % k
		}
		notes = append(notes, fmt.Sprintf("rebuilt %d assignments round-robin (optimizer returned %d)", n, got))
	} else {
		out.Assignments = append([]int(nil), fit.Assignments...)
		fixed := 0
		for i, c := range out.Assignments {
			if c < 0 || c >= k {
				out.Assignments[i] = i % k
				fixed++
			}
		}
		if fixed > 0 {
			notes = append(notes, fmt.Sprintf("reassigned %d out-of-range assignments", fixed))
		}
	}

	if n >= k {
		if moved := fillEmpty(out.Assignments, k); moved > 0 {
			notes = append(notes, fmt.Sprintf("moved %d points into empty clusters", moved))
		}
	}

	recompute := fit == nil || len(fit.Centroids) != k || len(notes) > 0
	if !recompute {
		for _, c := range fit.Centroids {
			if len(c) != dim {
				recompute = true
				break
			}
		}
	}
	if recompute {
		out.Centroids = means(features, out.Assignments, k, dim, rng)
		if fit == nil || len(fit.Centroids) != k {
			notes = append(notes, fmt.Sprintf("recomputed centroids (optimizer returned %d, want %d)", centroidCount(fit), k))
		} else {
			notes = append(notes, "recomputed centroids from repaired assignments")
		}
	} else {
		out.Centroids = make([][]float64, k)
		for c := range fit.Centroids {
			out.Centroids[c] = clone(fit.Centroids[c])
		}
	}

	zeroed := 0
	for _, c := range out.Centroids {
		for d, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				c[d] = 0
				zeroed++
			}
		}
	}
	if zeroed > 0 {
		notes = append(notes, fmt.Sprintf("zeroed %d non-finite centroid components", zeroed))
	}
	return out, notes
}

func centroidCount(fit *Fit) int {
	if fit == nil {
		return 0
	}
	return len(fit.Centroids)
}

// fillEmpty moves one point from the currently largest cluster into each
// empty cluster. It returns the number of points moved.
func fillEmpty(assign []int, k int) int {
	sizes := metrics.Sizes(assign, k)
	moved := 0
	for c := range sizes {
		if sizes[c] > 0 {
			continue
		}
		donor := 0
		for j := range sizes {
			if sizes[j] > sizes[donor] {
				donor = j
			}
		}
		for i := len(assign) - 1; i >= 0; i-- {
			if assign[i] == donor {
				assign[i] = c
				break
			}
		}
		sizes[donor]--
		sizes[c]++
		moved++
	}
	return moved
}

// means averages the points of each cluster; a cluster without points gets
// a random feature vector.
func means(features [][]float64, assign []int, k, dim int, rng *rand.Rand) [][]float64 {
	groups := make([][][]float64, k)
	for i, c := range assign {
		groups[c] = append(groups[c], features[i])
	}
	out := make([][]float64, k)
	for c, g := range groups {
		switch {
		case len(g) > 0:
			out[c] = metrics.Centroid(g)
		case len(features) > 0:
			out[c] = clone(features[rng.Intn(len(features))])
		default:
			out[c] = make([]float64, dim)
		}
	}
	return out
}

// DistinctCount returns the number of distinct vectors in features.
func DistinctCount(features [][]float64) int {
	seen := make(map[string]struct{}, len(features))
	buf := make([]byte, 0, 64)
	for _, x := range features {
		buf = buf[:0]
		for _, v := range x {
			if v == 0 {
				v = 0 // fold -0 into +0
			}
			b := math.Float64bits(v)
			for s := 0; s < 64; s += 8 {
				buf = append(buf, byte(b>>s))
			}
		}
		seen[string(buf)] = struct{}{}
	}
	return len(seen)
}
