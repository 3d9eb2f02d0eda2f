package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Reserved column names. IDColumn is synthetic and assigned by the loaders;
// ClusterColumn is written once a clustering result is applied.
const (
	IDColumn      = "id"
	ClusterColumn = "cluster"
)

// Row maps a column name to a raw value: float64, string, or nil.
// Integer and boolean values are tolerated and coerced where needed.
type Row map[string]any

// Dataset is an ordered set of rows with a fixed column order.
type Dataset struct {
	Columns []string
	Rows    []Row
	// Truncated is set by the loaders when rows past Options.MaxRows were skipped.
	Truncated bool
}

// New returns a dataset with the given column order and no rows.
func New(columns ...string) *Dataset {
	return &Dataset{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether name is part of the column order.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row and registers any unseen columns in insertion order of the
// provided names. Values not listed in names are still stored.
func (d *Dataset) Append(r Row, names ...string) {
	for _, n := range names {
		if !d.HasColumn(n) {
			d.Columns = append(d.Columns, n)
		}
	}
	d.Rows = append(d.Rows, r)
}

// Clone returns a copy whose rows can be rewritten without touching d.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns:   append([]string(nil), d.Columns...),
		Rows:      make([]Row, len(d.Rows)),
		Truncated: d.Truncated,
	}
	for i, r := range d.Rows {
		cp := make(Row, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// DropColumn removes name from the column order and from every row.
func (d *Dataset) DropColumn(name string) {
	kept := d.Columns[:0]
	for _, c := range d.Columns {
		if c != name {
			kept = append(kept, c)
		}
	}
	d.Columns = kept
	for _, r := range d.Rows {
		delete(r, name)
	}
}

// Column returns the raw values of one column in row order.
func (d *Dataset) Column(name string) []any {
	out := make([]any, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r[name]
	}
	return out
}

// IsReserved reports whether name is one of the engine-managed columns.
func IsReserved(name string) bool {
	return name == IDColumn || name == ClusterColumn
}

// IsNull reports whether v is missing. Blank strings count as missing.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}

// ToFloat coerces a raw value to a finite float64. The second return is false
// when the value is missing, unparsable, or not finite.
func ToFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Stringify renders a raw value the way categorical encoders compare values.
// Missing values render as the empty string.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}
