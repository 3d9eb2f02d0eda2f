package dataprep

import (
	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
)

// FeatureMatrix holds one dense vector per dataset row; every vector has one
// component per selected column.
type FeatureMatrix [][]float64

// Dim returns the vector length, or 0 for an empty matrix.
func (m FeatureMatrix) Dim() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// ExtractFeatures projects columns into a FeatureMatrix in the given order.
// Missing, non-numeric and non-finite cells become 0 and are counted in
// coerced; rows are never dropped so indices stay aligned with ds.Rows.
func ExtractFeatures(ds *dataset.Dataset, columns []string) (m FeatureMatrix, coerced int) {
	m = make(FeatureMatrix, ds.Len())
	for i, r := range ds.Rows {
		vec := make([]float64, len(columns))
		for j, col := range columns {
			x, ok := dataset.ToFloat(r[col])
			if !ok {
				coerced++
				continue
			}
			vec[j] = x
		}
		m[i] = vec
	}
	return m, coerced
}
