package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options controls profile generation.
type Options struct {
	// SampleRows is forwarded to AnalyzeColumns.
	SampleRows int
	// TopValues caps the categorical values listed per column.
	TopValues int
	// MaxCardinality flags categorical columns that one-hot encoding would drop.
	MaxCardinality int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: DefaultSampleRows, TopValues: 8, MaxCardinality: 10}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Warnings []string
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    Kind
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Categorical top values
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// Profile analyzes the columns of ds and summarizes each of them.
func Profile(name string, ds *dataset.Dataset, opt Options) *Report {
	rep := &Report{Name: name, Rows: ds.Len()}
	types := AnalyzeColumns(ds, opt.SampleRows)
	for _, p := range types.Profiles {
		s := ColumnSummary{Name: p.Name, Kind: p.Kind}
		var nums []float64
		cats := map[string]int{}
		for _, r := range ds.Rows {
			v := r[p.Name]
			if dataset.IsNull(v) {
				s.Missing++
				continue
			}
			s.NonNull++
			if p.Kind == KindNumeric {
				if x, ok := dataset.ToFloat(v); ok {
					nums = append(nums, x)
				}
				continue
			}
			cats[dataset.Stringify(v)]++
		}
		if p.Kind == KindNumeric && len(nums) > 0 {
			s.Min = floats.Min(nums)
			s.Max = floats.Max(nums)
			s.Mean, s.Std = stat.MeanStdDev(nums, nil)
			if len(nums) < 2 {
				s.Std = 0
			}
			if s.Min == s.Max {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q is constant; normalization maps it to 0", p.Name))
			}
			if len(nums) < s.NonNull {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q has %d non-numeric values after the sampled rows; they will be coerced to 0", p.Name, s.NonNull-len(nums)))
			}
		}
		if p.Kind == KindCategorical {
			s.Unique = len(cats)
			s.TopValues = topValues(cats, opt.TopValues)
			if opt.MaxCardinality > 0 && s.Unique > opt.MaxCardinality {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q has %d distinct values (> %d); one-hot encoding will exclude it", p.Name, s.Unique, opt.MaxCardinality))
			}
		}
		rep.Cols = append(rep.Cols, s)
	}
	if skipped := len(ds.Columns) - len(types.Profiles) - reservedCount(ds); skipped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d column(s) have no values in the first %d rows and were skipped", skipped, sampleRowsOrDefault(opt.SampleRows)))
	}
	return rep
}

func reservedCount(ds *dataset.Dataset) int {
	n := 0
	for _, c := range ds.Columns {
		if dataset.IsReserved(c) {
			n++
		}
	}
	return n
}

func sampleRowsOrDefault(n int) int {
	if n <= 0 {
		return DefaultSampleRows
	}
	return n
}

func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
			b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
		}
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
