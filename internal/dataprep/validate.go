package dataprep

import (
	"fmt"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
)

const (
	DefaultSparsityWarnRatio   = 0.5
	DefaultUniquenessWarnRatio = 0.8
)

// ValidateOptions configures ValidateEncoding. Zero ratios use the defaults.
type ValidateOptions struct {
	Encode              EncodeOptions
	SparsityWarnRatio   float64
	UniquenessWarnRatio float64
}

// Validation summarises how well a column selection will cluster once encoded.
type Validation struct {
	Rows          int                `json:"rows"`
	FeatureCount  int                `json:"feature_count"`
	SparsityRatio float64            `json:"sparsity_ratio"`
	Uniqueness    map[string]float64 `json:"uniqueness"`
	Warnings      []string           `json:"warnings,omitempty"`
	// Recommendations are suggested column or mode changes; nothing is applied.
	Recommendations []string `json:"recommendations,omitempty"`
}

// ValidateEncoding predicts the post-encoding feature count of the selection
// and flags overly sparse or near-unique columns. It never fails: findings are
// advisory and returned as warnings and recommendations.
func ValidateEncoding(ds *dataset.Dataset, categorical, numeric []string, opt ValidateOptions) *Validation {
	if opt.SparsityWarnRatio <= 0 {
		opt.SparsityWarnRatio = DefaultSparsityWarnRatio
	}
	if opt.UniquenessWarnRatio <= 0 {
		opt.UniquenessWarnRatio = DefaultUniquenessWarnRatio
	}
	maxCard := opt.Encode.MaxCardinality
	if maxCard <= 0 {
		maxCard = DefaultMaxCardinality
	}
	mode := opt.Encode.Mode
	if mode == "" {
		mode = EncodeOneHot
	}

	v := &Validation{Rows: ds.Len(), FeatureCount: len(numeric), Uniqueness: map[string]float64{}}
	for _, col := range categorical {
		values := distinctValues(ds, col)
		nonNull := 0
		for _, r := range ds.Rows {
			if !dataset.IsNull(r[col]) {
				nonNull++
			}
		}
		ratio := 0.0
		if nonNull > 0 {
			ratio = float64(len(values)) / float64(nonNull)
		}
		v.Uniqueness[col] = ratio

		switch {
		case mode == EncodeLabel:
			v.FeatureCount++
		case len(values) <= maxCard:
			v.FeatureCount += len(values)
		}

		if nonNull > 1 && ratio >= opt.UniquenessWarnRatio {
			v.Warnings = append(v.Warnings, fmt.Sprintf("column %q is %.0f%% unique", col, ratio*100))
			v.Recommendations = append(v.Recommendations, fmt.Sprintf("column %q is too unique for clustering; consider dropping it", col))
		} else if mode == EncodeOneHot && len(values) > maxCard {
			v.Recommendations = append(v.Recommendations, fmt.Sprintf("column %q (%d values) will be excluded by one-hot encoding; use label encoding to keep it", col, len(values)))
		}
	}
	if v.Rows > 0 {
		v.SparsityRatio = float64(v.FeatureCount) / float64(v.Rows)
	}
	if v.Rows > 0 && v.SparsityRatio > opt.SparsityWarnRatio {
		v.Warnings = append(v.Warnings, fmt.Sprintf("%d features for %d rows (ratio %.2f > %.2f); clusters will be unstable",
			v.FeatureCount, v.Rows, v.SparsityRatio, opt.SparsityWarnRatio))
		v.Recommendations = append(v.Recommendations, "reduce categorical columns or lower onehot_max_cardinality")
	}
	if v.FeatureCount == 0 {
		v.Warnings = append(v.Warnings, "selection produces no features")
	}
	return v
}
