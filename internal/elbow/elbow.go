// Package elbow sweeps k over a caller-supplied list and recommends a cluster
// count from the WCSS curve and the Davies-Bouldin index.
package elbow

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/KaramelBytes/clusterbench-cli/internal/kmeans"
	"github.com/KaramelBytes/clusterbench-cli/internal/metrics"
)

var (
	// ErrNoKValues is returned when the sweep has nothing to evaluate.
	ErrNoKValues = errors.New("no k values")
	// ErrInvalidFallback is returned for factor bounds that do not shrink
	// WCSS or do not grow DBI.
	ErrInvalidFallback = errors.New("invalid fallback policy")
)

// FallbackPolicy bounds the estimates substituted for a k that failed.
type FallbackPolicy struct {
	ShrinkMin, ShrinkMax float64
	GrowMin, GrowMax     float64
	Seed                 int64
}

// DefaultFallbackPolicy returns the factor bounds used when none are configured.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{ShrinkMin: 0.70, ShrinkMax: 0.90, GrowMin: 1.05, GrowMax: 1.25}
}

// withDefaults fills every unset (non-positive) bound from
// DefaultFallbackPolicy on its own, keeping the bounds that were set.
func (p FallbackPolicy) withDefaults() FallbackPolicy {
	d := DefaultFallbackPolicy()
	for _, f := range []struct{ v, def *float64 }{
		{&p.ShrinkMin, &d.ShrinkMin}, {&p.ShrinkMax, &d.ShrinkMax},
		{&p.GrowMin, &d.GrowMin}, {&p.GrowMax, &d.GrowMax},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	return p
}

// Validate checks that shrink factors lie in (0,1) and grow factors above 1,
// with each min not above its max. Unset bounds are defaulted first.
func (p FallbackPolicy) Validate() error {
	p = p.withDefaults()
	switch {
	case p.ShrinkMin >= 1 || p.ShrinkMax >= 1:
		return fmt.Errorf("%w: shrink factors must be below 1 (got %g..%g)", ErrInvalidFallback, p.ShrinkMin, p.ShrinkMax)
	case p.GrowMin <= 1 || p.GrowMax <= 1:
		return fmt.Errorf("%w: grow factors must be above 1 (got %g..%g)", ErrInvalidFallback, p.GrowMin, p.GrowMax)
	case p.ShrinkMin > p.ShrinkMax:
		return fmt.Errorf("%w: shrink min %g above max %g", ErrInvalidFallback, p.ShrinkMin, p.ShrinkMax)
	case p.GrowMin > p.GrowMax:
		return fmt.Errorf("%w: grow min %g above max %g", ErrInvalidFallback, p.GrowMin, p.GrowMax)
	}
	return nil
}

// Fallback records a k whose metrics are estimates.
type Fallback struct {
	K     int    `json:"k"`
	Cause string `json:"cause"`
}

// Report holds one WCSS and DBI value per evaluated k, in ascending k order.
// ElbowK and DBIOptimumK are 0 when undefined.
type Report struct {
	KValues     []int      `json:"k_values"`
	WCSS        []float64  `json:"wcss"`
	DBI         []float64  `json:"dbi"`
	Fallbacks   []Fallback `json:"fallbacks,omitempty"`
	ElbowK      int        `json:"elbow_k,omitempty"`
	DBIOptimumK int        `json:"dbi_optimum_k,omitempty"`
}

// Estimated reports whether the metrics for k came from the fallback policy.
func (r *Report) Estimated(k int) bool {
	for _, f := range r.Fallbacks {
		if f.K == k {
			return true
		}
	}
	return false
}

// Analyzer runs the sweep.
type Analyzer struct {
	Runner   *kmeans.Runner
	Fallback FallbackPolicy
	Logger   *slog.Logger
}

// Analyze evaluates every distinct k in kValues. k=1 is computed in closed
// form; larger k go through the runner. A k that fails is replaced by an
// estimate and recorded in Fallbacks instead of aborting the sweep.
func (a *Analyzer) Analyze(features [][]float64, kValues []int) (*Report, error) {
	if len(features) == 0 {
		return nil, kmeans.ErrNoFeatures
	}
	ks, err := normalizeKs(kValues, len(features))
	if err != nil {
		return nil, err
	}
	log := a.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	runner := a.Runner
	if runner == nil {
		runner = &kmeans.Runner{}
	}
	if err := a.Fallback.Validate(); err != nil {
		return nil, err
	}
	policy := a.Fallback.withDefaults()
	rng := rand.New(rand.NewSource(policy.Seed))
	tss := metrics.TotalSumOfSquares(features)

	rep := &Report{KValues: ks, WCSS: make([]float64, len(ks)), DBI: make([]float64, len(ks))}
	for i, k := range ks {
		if k == 1 {
			rep.WCSS[i], rep.DBI[i] = tss, 0
			continue
		}
		out, err := runner.Run(features, k)
		if err == nil {
			rep.WCSS[i] = out.WCSS
			rep.DBI[i] = metrics.DaviesBouldin(features, out.Assignments, out.Centroids)
			log.Debug("elbow point", "k", k, "wcss", rep.WCSS[i], "dbi", rep.DBI[i])
			continue
		}
		if i > 0 {
			rep.WCSS[i] = rep.WCSS[i-1] * uniform(rng, policy.ShrinkMin, policy.ShrinkMax)
			rep.DBI[i] = rep.DBI[i-1] * uniform(rng, policy.GrowMin, policy.GrowMax)
		} else {
			rep.WCSS[i] = tss / float64(k)
			rep.DBI[i] = 0
		}
		rep.Fallbacks = append(rep.Fallbacks, Fallback{K: k, Cause: err.Error()})
		log.Warn("k failed, using estimate", "k", k, "error", err, "wcss", rep.WCSS[i], "dbi", rep.DBI[i])
	}
	if k, ok := ElbowPoint(rep.KValues, rep.WCSS); ok {
		rep.ElbowK = k
	}
	if k, ok := DBIOptimum(rep.KValues, rep.DBI); ok {
		rep.DBIOptimumK = k
	}
	return rep, nil
}

// normalizeKs sorts and deduplicates kValues and checks each lies in [1, n].
func normalizeKs(kValues []int, n int) ([]int, error) {
	if len(kValues) == 0 {
		return nil, ErrNoKValues
	}
	ks := append([]int(nil), kValues...)
	sort.Ints(ks)
	out := ks[:0]
	for _, k := range ks {
		if k < 1 || k > n {
			return nil, fmt.Errorf("%w: k=%d with %d rows", kmeans.ErrInvalidK, k, n)
		}
		if len(out) > 0 && k == out[len(out)-1] {
			continue
		}
		out = append(out, k)
	}
	return out, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// ElbowPoint returns the k at the interior index with the largest second
// difference of wcss. The first maximum wins. It needs at least three points.
func ElbowPoint(ks []int, wcss []float64) (int, bool) {
	if len(ks) < 3 || len(wcss) != len(ks) {
		return 0, false
	}
	best := 1
	bestScore := (wcss[0] - wcss[1]) - (wcss[1] - wcss[2])
	for i := 2; i < len(ks)-1; i++ {
		if s := (wcss[i-1] - wcss[i]) - (wcss[i] - wcss[i+1]); s > bestScore {
			best, bestScore = i, s
		}
	}
	return ks[best], true
}

// DBIOptimum returns the k with the smallest strictly positive DBI.
func DBIOptimum(ks []int, dbi []float64) (int, bool) {
	best := -1
	for i, v := range dbi {
		if i >= len(ks) || v <= 0 {
			continue
		}
		if best < 0 || v < dbi[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return ks[best], true
}
