// Package engine exposes the clustering operations used by the CLI: encode,
// normalize, cluster and elbow. Every operation validates its input, works on
// a copy of the dataset and reports non-fatal issues as warnings.
package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"github.com/KaramelBytes/clusterbench-cli/internal/elbow"
	"github.com/KaramelBytes/clusterbench-cli/internal/kmeans"
	"github.com/KaramelBytes/clusterbench-cli/internal/metrics"
	"github.com/google/uuid"
)

// Options tunes the clustering operations. Zero values use package defaults.
type Options struct {
	Attempts      int
	MaxIterations int
	Seed          int64
	SeedStep      int64
	Fallback      elbow.FallbackPolicy
	// Optimizer replaces Lloyd's algorithm when set.
	Optimizer kmeans.Optimizer
	Logger    *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (o Options) runner() *kmeans.Runner {
	return &kmeans.Runner{
		Attempts:      o.Attempts,
		MaxIterations: o.MaxIterations,
		Seed:          o.Seed,
		SeedStep:      o.SeedStep,
		Optimizer:     o.Optimizer,
		Logger:        o.logger(),
	}
}

type (
	EncodeResult    = dataprep.Encoded
	NormalizeResult = dataprep.Normalized
)

// ClusteringResult is a structurally valid clustering of every dataset row.
type ClusteringResult struct {
	RunID       string      `json:"run_id"`
	K           int         `json:"k"`
	Columns     []string    `json:"columns"`
	Assignments []int       `json:"assignments"`
	Centroids   [][]float64 `json:"centroids"`
	Sizes       []int       `json:"sizes"`
	WCSS        float64     `json:"wcss"`
	DBI         float64     `json:"dbi"`
	Attempts    int         `json:"attempts"`
	Accepted    int         `json:"accepted"`
	Repaired    bool        `json:"repaired"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// ElbowReport is an elbow sweep over a column selection.
type ElbowReport struct {
	RunID   string   `json:"run_id"`
	Columns []string `json:"columns"`
	*elbow.Report
	Warnings []string `json:"warnings,omitempty"`
}

// Encode encodes the categorical columns of ds.
func Encode(ds *dataset.Dataset, categorical []string, opt dataprep.EncodeOptions) (*EncodeResult, error) {
	if ds.Len() == 0 {
		return nil, invalid("dataset", "no rows")
	}
	out, err := dataprep.Encode(ds, categorical, opt)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// Normalize scales the numeric columns of ds.
func Normalize(ds *dataset.Dataset, numeric []string, mode dataprep.NormalizeMode) (*NormalizeResult, error) {
	if ds.Len() == 0 {
		return nil, invalid("dataset", "no rows")
	}
	out, err := dataprep.Normalize(ds, numeric, mode)
	if err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

// features validates a column selection and extracts its feature matrix.
func features(ds *dataset.Dataset, columns []string) (dataprep.FeatureMatrix, []string, error) {
	if ds.Len() == 0 {
		return nil, nil, invalid("dataset", "no rows")
	}
	if len(columns) == 0 {
		return nil, nil, invalid("columns", "no usable columns")
	}
	for _, c := range columns {
		if !ds.HasColumn(c) || dataset.IsReserved(c) {
			return nil, nil, invalid("columns", "unknown column %q", c)
		}
	}
	m, coerced := dataprep.ExtractFeatures(ds, columns)
	var warnings []string
	if coerced > 0 {
		warnings = append(warnings, fmt.Sprintf("%d non-numeric or non-finite value(s) coerced to 0", coerced))
	}
	return m, warnings, nil
}

// Cluster partitions the rows of ds into k clusters over columns.
func Cluster(ds *dataset.Dataset, columns []string, k int, opt Options) (*ClusteringResult, error) {
	m, warnings, err := features(ds, columns)
	if err != nil {
		return nil, err
	}
	if k < 1 || k > len(m) {
		return nil, invalid("k", "k=%d outside [1, %d]", k, len(m))
	}
	if d := kmeans.DistinctCount(m); d < k {
		return nil, invalid("k", "k=%d exceeds the %d distinct feature vectors", k, d)
	}
	log := opt.logger().With("k", k)

	out, err := opt.runner().Run(m, k)
	if err != nil {
		err = translateError(err)
		log.Error("clustering failed", "error", err)
		return nil, err
	}
	res := &ClusteringResult{
		RunID:       uuid.NewString(),
		K:           k,
		Columns:     append([]string(nil), columns...),
		Assignments: out.Assignments,
		Centroids:   out.Centroids,
		Sizes:       metrics.Sizes(out.Assignments, k),
		WCSS:        out.WCSS,
		DBI:         metrics.DaviesBouldin(m, out.Assignments, out.Centroids),
		Attempts:    out.Attempts,
		Accepted:    out.Accepted,
		Repaired:    out.Repaired,
		Warnings:    warnings,
	}
	for _, n := range out.RepairNotes {
		res.Warnings = append(res.Warnings, "repair: "+n)
	}
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	log.Info("clustered", "run_id", res.RunID, "wcss", res.WCSS, "dbi", res.DBI, "accepted", res.Accepted, "attempts", res.Attempts)
	return res, nil
}

// Elbow sweeps kValues over columns. Per-k failures are absorbed by the
// fallback policy; only invalid input is returned as an error.
func Elbow(ds *dataset.Dataset, columns []string, kValues []int, opt Options) (*ElbowReport, error) {
	m, warnings, err := features(ds, columns)
	if err != nil {
		return nil, err
	}
	if len(kValues) == 0 {
		return nil, invalid("k values", "empty list")
	}
	for _, k := range kValues {
		if k < 1 || k > len(m) {
			return nil, invalid("k values", "k=%d outside [1, %d]", k, len(m))
		}
	}
	a := &elbow.Analyzer{Runner: opt.runner(), Fallback: opt.Fallback, Logger: opt.logger()}
	if a.Fallback.Seed == 0 {
		a.Fallback.Seed = opt.Seed
	}
	rep, err := a.Analyze(m, kValues)
	if err != nil {
		return nil, translateError(err)
	}
	out := &ElbowReport{RunID: uuid.NewString(), Columns: append([]string(nil), columns...), Report: rep, Warnings: warnings}
	for _, f := range rep.Fallbacks {
		out.Warnings = append(out.Warnings, fmt.Sprintf("k=%d estimated: %s", f.K, f.Cause))
	}
	return out, nil
}

// Annotate returns a copy of ds with the cluster of every row in the
// cluster column.
func Annotate(ds *dataset.Dataset, res *ClusteringResult) (*dataset.Dataset, error) {
	if res == nil || len(res.Assignments) != ds.Len() {
		return nil, invalid("result", "assignments do not match the dataset rows")
	}
	out := ds.Clone()
	if !out.HasColumn(dataset.ClusterColumn) {
		out.Columns = append(out.Columns, dataset.ClusterColumn)
	}
	for i, r := range out.Rows {
		r[dataset.ClusterColumn] = float64(res.Assignments[i])
	}
	return out, nil
}
