// Package experiment runs a grid of clustering configurations over one
// dataset and ranks the outcomes.
package experiment

import (
	"sort"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"github.com/KaramelBytes/clusterbench-cli/internal/engine"
	"github.com/google/uuid"
)

// Grid lists the values combined into experiments.
type Grid struct {
	Encodings      []dataprep.EncodeMode
	Normalizations []dataprep.NormalizeMode
	KValues        []int
}

// Experiment is one configuration of the grid.
type Experiment struct {
	ID            string                 `json:"id"`
	Encoding      dataprep.EncodeMode    `json:"encoding"`
	Normalization dataprep.NormalizeMode `json:"normalization"`
	K             int                    `json:"k"`
}

// Outcome pairs an experiment with its result or error.
type Outcome struct {
	Experiment Experiment               `json:"experiment"`
	Result     *engine.ClusteringResult `json:"result,omitempty"`
	Features   []string                 `json:"features,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
	Err        error                    `json:"-"`
	Error      string                   `json:"error,omitempty"`
}

// Expand returns every combination of g in encoding, normalization, k order.
// Each experiment gets a fresh ID.
func (g Grid) Expand() []Experiment {
	var out []Experiment
	for _, enc := range g.Encodings {
		for _, norm := range g.Normalizations {
			for _, k := range g.KValues {
				out = append(out, Experiment{ID: uuid.NewString(), Encoding: enc, Normalization: norm, K: k})
			}
		}
	}
	return out
}

// Runner executes experiments with a shared pipeline template.
type Runner struct {
	// Base supplies everything but the encoding mode and normalization.
	Base engine.Pipeline
	// OnProgress, when set, is called before experiment i (1-based) of n runs.
	OnProgress func(i, n int, e Experiment)
}

// Run executes every experiment of g on ds. A failing experiment is recorded
// in its Outcome and the batch carries on.
func (r *Runner) Run(ds *dataset.Dataset, g Grid) []Outcome {
	exps := g.Expand()
	out := make([]Outcome, 0, len(exps))
	for i, e := range exps {
		if r.OnProgress != nil {
			r.OnProgress(i+1, len(exps), e)
		}
		p := r.Base
		p.OnPhase = nil
		p.Encode.Mode = e.Encoding
		p.Normalize = e.Normalization
		o := Outcome{Experiment: e}
		res, err := p.Run(ds, e.K)
		if err != nil {
			o.Err, o.Error = err, err.Error()
			if lg := p.Options.Logger; lg != nil {
				lg.Warn("experiment failed", "id", e.ID, "k", e.K, "error", err)
			}
		} else {
			o.Result, o.Features, o.Warnings = res.Result, res.Features, res.Warnings
			o.Warnings = append(o.Warnings, res.Result.Warnings...)
		}
		out = append(out, o)
	}
	return out
}

// Rank orders outcomes best first: positive DBI ascending, then successful
// runs without a DBI (k=1), then failures. The sort is stable.
func Rank(outcomes []Outcome) []Outcome {
	ranked := append([]Outcome(nil), outcomes...)
	class := func(o Outcome) int {
		switch {
		case o.Result == nil:
			return 2
		case o.Result.DBI <= 0:
			return 1
		}
		return 0
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := class(ranked[i]), class(ranked[j])
		if ci != cj {
			return ci < cj
		}
		if ci == 0 {
			return ranked[i].Result.DBI < ranked[j].Result.DBI
		}
		return false
	})
	return ranked
}
