package analysis

import (
	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
)

// DefaultSampleRows is how many leading rows are inspected per column.
const DefaultSampleRows = 100

// Kind classifies a column for the clustering pipeline.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// ColumnProfile describes one analyzed column. Cardinality is only set for
// categorical columns.
type ColumnProfile struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	Cardinality int    `json:"cardinality,omitempty"`
}

// ColumnTypes is the outcome of AnalyzeColumns. Numeric and Categorical are
// disjoint and follow the dataset column order.
type ColumnTypes struct {
	Numeric     []string
	Categorical []string
	Profiles    []ColumnProfile
}

// AnalyzeColumns classifies every non-reserved column from the non-null values
// found in the first sampleRows rows. A column is numeric iff every sampled
// value parses to a finite number. Columns with nothing to sample are skipped.
func AnalyzeColumns(ds *dataset.Dataset, sampleRows int) ColumnTypes {
	var out ColumnTypes
	if ds == nil {
		return out
	}
	if sampleRows <= 0 {
		sampleRows = DefaultSampleRows
	}
	limit := min(sampleRows, ds.Len())
	for _, col := range ds.Columns {
		if dataset.IsReserved(col) {
			continue
		}
		sampled, numeric := 0, true
		for _, r := range ds.Rows[:limit] {
			v := r[col]
			if dataset.IsNull(v) {
				continue
			}
			sampled++
			if _, ok := dataset.ToFloat(v); !ok {
				numeric = false
			}
		}
		if sampled == 0 {
			continue
		}
		if numeric {
			out.Numeric = append(out.Numeric, col)
			out.Profiles = append(out.Profiles, ColumnProfile{Name: col, Kind: KindNumeric})
			continue
		}
		out.Categorical = append(out.Categorical, col)
		out.Profiles = append(out.Profiles, ColumnProfile{
			Name:        col,
			Kind:        KindCategorical,
			Cardinality: Cardinality(ds, col),
		})
	}
	return out
}

// Cardinality counts distinct non-null values of col across all rows.
func Cardinality(ds *dataset.Dataset, col string) int {
	seen := make(map[string]struct{})
	for _, r := range ds.Rows {
		v := r[col]
		if dataset.IsNull(v) {
			continue
		}
		seen[dataset.Stringify(v)] = struct{}{}
	}
	return len(seen)
}
