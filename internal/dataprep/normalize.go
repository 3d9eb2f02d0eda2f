package dataprep

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NormalizeMode selects the numeric scaling strategy.
type NormalizeMode string

const (
	NormalizeMinMax NormalizeMode = "minmax"
	NormalizeZScore NormalizeMode = "zscore"
	NormalizeNone   NormalizeMode = "none"
)

// ParseNormalizeMode accepts the config/flag spellings of a normalization mode.
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minmax", "min-max", "min_max":
		return NormalizeMinMax, nil
	case "zscore", "z-score", "z_score", "standard", "":
		return NormalizeZScore, nil
	case "none", "off":
		return NormalizeNone, nil
	}
	return "", fmt.Errorf("%w: normalization %q (use minmax|zscore|none)", ErrUnknownMode, s)
}

// ColumnStats holds the statistics of a column's finite values. All four are
// reported in every mode; Degenerate marks a column the active mode could not
// scale.
type ColumnStats struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	Degenerate bool    `json:"degenerate,omitempty"`
}

func columnStats(vals []float64) ColumnStats {
	mean, std := stat.PopMeanStdDev(vals, nil)
	return ColumnStats{Min: floats.Min(vals), Max: floats.Max(vals), Mean: mean, Std: std}
}

// Normalized is the result of Normalize. Dataset is a rewritten copy of the input.
type Normalized struct {
	Dataset  *dataset.Dataset
	Stats    map[string]ColumnStats
	Warnings []string
}

type scaler struct {
	degenerate func(s ColumnStats) bool
	transform  func(x float64, s ColumnStats) float64
}

var scalers = map[NormalizeMode]scaler{
	NormalizeMinMax: {
		degenerate: func(s ColumnStats) bool { return s.Max == s.Min },
		transform:  func(x float64, s ColumnStats) float64 { return (x - s.Min) / (s.Max - s.Min) },
	},
	NormalizeZScore: {
		degenerate: func(s ColumnStats) bool { return s.Std == 0 },
		transform:  func(x float64, s ColumnStats) float64 { return (x - s.Mean) / s.Std },
	},
}

// Normalize scales the given numeric columns of a copy of ds. Statistics are
// computed over each full column before any row is rewritten. Cells that do
// not hold a finite number are written as 0 and reported.
func Normalize(ds *dataset.Dataset, columns []string, mode NormalizeMode) (*Normalized, error) {
	if err := checkColumns(ds, columns); err != nil {
		return nil, err
	}
	out := &Normalized{Dataset: ds.Clone(), Stats: map[string]ColumnStats{}}
	if mode == NormalizeNone {
		return out, nil
	}
	sc, ok := scalers[mode]
	if !ok {
		return nil, fmt.Errorf("%w: normalization %q", ErrUnknownMode, mode)
	}
	for _, col := range columns {
		vals := make([]float64, 0, out.Dataset.Len())
		for _, r := range out.Dataset.Rows {
			if x, ok := dataset.ToFloat(r[col]); ok {
				vals = append(vals, x)
			}
		}
		s := ColumnStats{Degenerate: true}
		if len(vals) > 0 {
			s = columnStats(vals)
			s.Degenerate = sc.degenerate(s)
		}
		out.Stats[col] = s
		if s.Degenerate {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q is constant; normalized to 0", col))
		}
		coerced := 0
		for _, r := range out.Dataset.Rows {
			x, ok := dataset.ToFloat(r[col])
			if !ok {
				r[col] = 0.0
				coerced++
				continue
			}
			if s.Degenerate {
				r[col] = 0.0
				continue
			}
			r[col] = sc.transform(x, s)
		}
		if coerced > 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q: %d non-numeric value(s) set to 0", col, coerced))
		}
	}
	return out, nil
}
