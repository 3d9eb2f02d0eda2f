package dataprep

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
)

// DefaultMaxCardinality is the one-hot exclusion threshold used when none is configured.
const DefaultMaxCardinality = 10

var (
	// ErrUnknownColumn is returned when a requested column is not in the dataset.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownMode is returned for unsupported strategy names.
	ErrUnknownMode = errors.New("unknown mode")
)

// EncodeMode selects the categorical encoding strategy.
type EncodeMode string

const (
	EncodeLabel  EncodeMode = "label"
	EncodeOneHot EncodeMode = "onehot"
)

// ParseEncodeMode accepts the config/flag spellings of an encoding mode.
func ParseEncodeMode(s string) (EncodeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "label", "ordinal":
		return EncodeLabel, nil
	case "onehot", "one-hot", "one_hot", "":
		return EncodeOneHot, nil
	}
	return "", fmt.Errorf("%w: encoding %q (use label|onehot)", ErrUnknownMode, s)
}

// EncodeOptions configures Encode.
type EncodeOptions struct {
	Mode EncodeMode
	// MaxCardinality excludes one-hot columns with more distinct values.
	// Values <= 0 fall back to DefaultMaxCardinality.
	MaxCardinality int
}

// ColumnEncoding records how one categorical column was encoded. Labels is
// set in label mode, Indicators (value -> indicator column) in one-hot mode.
type ColumnEncoding struct {
	Labels     map[string]int    `json:"labels,omitempty"`
	Indicators map[string]string `json:"indicators,omitempty"`
}

// EncodingMap is keyed by the original column name.
type EncodingMap map[string]ColumnEncoding

// ExcludedColumn is a categorical column dropped instead of being encoded.
type ExcludedColumn struct {
	Column      string `json:"column"`
	Cardinality int    `json:"cardinality"`
	Reason      string `json:"reason"`
}

// Encoded is the result of Encode. Dataset is a rewritten copy of the input.
type Encoded struct {
	Dataset *dataset.Dataset
	Map     EncodingMap
	// NewColumns lists generated indicator columns (one-hot only).
	NewColumns []string
	Excluded   []ExcludedColumn
	Warnings   []string
	// Features lists the columns that now carry the encoded values.
	Features []string
}

type encodeFunc func(ds *dataset.Dataset, columns []string, opt EncodeOptions) *Encoded

var encoders = map[EncodeMode]encodeFunc{
	EncodeLabel:  labelEncode,
	EncodeOneHot: oneHotEncode,
}

// Encode rewrites the given categorical columns of a copy of ds.
func Encode(ds *dataset.Dataset, columns []string, opt EncodeOptions) (*Encoded, error) {
	fn, ok := encoders[opt.Mode]
	if !ok {
		return nil, fmt.Errorf("%w: encoding %q", ErrUnknownMode, opt.Mode)
	}
	if err := checkColumns(ds, columns); err != nil {
		return nil, err
	}
	if opt.MaxCardinality <= 0 {
		opt.MaxCardinality = DefaultMaxCardinality
	}
	return fn(ds.Clone(), columns, opt), nil
}

func checkColumns(ds *dataset.Dataset, columns []string) error {
	for _, c := range columns {
		if !ds.HasColumn(c) || dataset.IsReserved(c) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, c)
		}
	}
	return nil
}

// distinctValues returns the sorted distinct non-null stringified values of col.
func distinctValues(ds *dataset.Dataset, col string) []string {
	seen := map[string]struct{}{}
	for _, r := range ds.Rows {
		v := r[col]
		if dataset.IsNull(v) {
			continue
		}
		seen[dataset.Stringify(v)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// labelEncode assigns alphabetical ordinals; nulls fall back to 0.
func labelEncode(ds *dataset.Dataset, columns []string, _ EncodeOptions) *Encoded {
	out := &Encoded{Dataset: ds, Map: EncodingMap{}}
	for _, col := range columns {
		labels := map[string]int{}
		for i, v := range distinctValues(ds, col) {
			labels[v] = i
		}
		missing := 0
		for _, r := range ds.Rows {
			idx, ok := labels[dataset.Stringify(r[col])]
			if !ok {
				idx = 0
				missing++
			}
			r[col] = float64(idx)
		}
		if missing > 0 {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q: %d missing value(s) encoded as 0", col, missing))
		}
		out.Map[col] = ColumnEncoding{Labels: labels}
		out.Features = append(out.Features, col)
	}
	return out
}

// oneHotEncode expands low-cardinality columns into 0/1 indicator columns and
// drops columns whose cardinality exceeds opt.MaxCardinality.
func oneHotEncode(ds *dataset.Dataset, columns []string, opt EncodeOptions) *Encoded {
	out := &Encoded{Dataset: ds, Map: EncodingMap{}}
	for _, col := range columns {
		values := distinctValues(ds, col)
		if len(values) > opt.MaxCardinality {
			ds.DropColumn(col)
			out.Excluded = append(out.Excluded, ExcludedColumn{
				Column:      col,
				Cardinality: len(values),
				Reason: fmt.Sprintf("%d distinct values exceed the one-hot limit of %d; too many sparse features for clustering",
					len(values), opt.MaxCardinality),
			})
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %q excluded from one-hot encoding (%d distinct values > %d)", col, len(values), opt.MaxCardinality))
			continue
		}
		indicators := make(map[string]string, len(values))
		names := make([]string, len(values))
		for i, v := range values {
			name := uniqueColumnName(ds, col+"_"+sanitize(v))
			names[i] = name
			indicators[v] = name
			ds.Columns = append(ds.Columns, name)
		}
		for _, r := range ds.Rows {
			for _, name := range names {
				r[name] = 0.0
			}
			if !dataset.IsNull(r[col]) {
				if name, ok := indicators[dataset.Stringify(r[col])]; ok {
					r[name] = 1.0
				}
			}
		}
		ds.DropColumn(col)
		out.Map[col] = ColumnEncoding{Indicators: indicators}
		out.NewColumns = append(out.NewColumns, names...)
		out.Features = append(out.Features, names...)
	}
	return out
}

// sanitize keeps ASCII letters and digits and maps everything else to '_'.
func sanitize(v string) string {
	var b strings.Builder
	for _, r := range v {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func uniqueColumnName(ds *dataset.Dataset, base string) string {
	if !ds.HasColumn(base) {
		return base
	}
	for i := 2; ; i++ {
		cand := fmt.Sprintf("%s_%d", base, i)
		if !ds.HasColumn(cand) {
			return cand
		}
	}
}
