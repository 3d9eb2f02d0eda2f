package analysis

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
)

func sampleDataset() *dataset.Dataset {
	ds := dataset.New(dataset.IDColumn, "age", "city", "score", "empty", "mixed")
	rows := []dataset.Row{
		{"age": 31.0, "city": "Oslo", "score": "7.5", "empty": nil, "mixed": 1.0},
		{"age": 42.0, "city": "Rome", "score": "8", "empty": "", "mixed": "two"},
		{"age": nil, "city": "Oslo", "score": 9.0, "empty": nil, "mixed": 3.0},
	}
	for i, r := range rows {
		r[dataset.IDColumn] = float64(i + 1)
		ds.Append(r)
	}
	return ds
}

func TestAnalyzeColumnsClassifiesAndSkips(t *testing.T) {
	types := AnalyzeColumns(sampleDataset(), 0)
	if got := strings.Join(types.Numeric, ","); got != "age,score" {
		t.Fatalf("numeric = %q", got)
	}
	if got := strings.Join(types.Categorical, ","); got != "city,mixed" {
		t.Fatalf("categorical = %q", got)
	}
	if len(types.Profiles) != 4 {
		t.Fatalf("profiles = %#v", types.Profiles)
	}
	for _, p := range types.Profiles {
		if p.Name == "city" && p.Cardinality != 2 {
			t.Fatalf("city cardinality = %d, want 2", p.Cardinality)
		}
		if p.Kind == KindNumeric && p.Cardinality != 0 {
			t.Fatalf("numeric column %q carries cardinality", p.Name)
		}
	}
}

func TestAnalyzeColumnsOnlySamplesLeadingRows(t *testing.T) {
	ds := dataset.New("v")
	for i := 0; i < 5; i++ {
		ds.Append(dataset.Row{"v": float64(i)})
	}
	ds.Append(dataset.Row{"v": "text after the sample"})
	types := AnalyzeColumns(ds, 5)
	if len(types.Numeric) != 1 || types.Numeric[0] != "v" {
		t.Fatalf("expected v numeric from the sample, got %#v", types)
	}
	types = AnalyzeColumns(ds, 6)
	if len(types.Categorical) != 1 {
		t.Fatalf("expected v categorical with the full sample, got %#v", types)
	}
}

func TestAnalyzeColumnsRejectsNonFinite(t *testing.T) {
	ds := dataset.New("v")
	ds.Append(dataset.Row{"v": 1.0})
	ds.Append(dataset.Row{"v": math.Inf(1)})
	types := AnalyzeColumns(ds, 0)
	if len(types.Numeric) != 0 || len(types.Categorical) != 1 {
		t.Fatalf("non-finite values must make the column categorical: %#v", types)
	}
}

func TestProfileMarkdown(t *testing.T) {
	ds := sampleDataset()
	for i := 0; i < 12; i++ {
		ds.Append(dataset.Row{"city": fmt.Sprintf("c%02d", i), "age": 20.0, "score": 1.0, "mixed": 1.0})
	}
	opt := DefaultOptions()
	rep := Profile("people.csv", ds, opt)
	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: people.csv",
		"Rows: 15",
		"- age: numeric (non-null 14, missing 6.7%)",
		"- city: categorical",
		"unique=14",
		"[NOTES]",
		"one-hot encoding will exclude it",
		"were skipped",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}
