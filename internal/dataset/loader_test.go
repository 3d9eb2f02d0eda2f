package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSVTypesAndSyntheticID(t *testing.T) {
	p := writeFile(t, "harvest.csv", "id,plot,alpha_acids,moisture\n"+
		"x1,A1,12.5%,74\n"+
		"x2,B3,,71\n"+
		"x3,B3,10.2%\n")
	ds, err := LoadCSV(p, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	want := []string{"id", "id_2", "plot", "alpha_acids", "moisture"}
	if len(ds.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", ds.Columns, want)
	}
	for i := range want {
		if ds.Columns[i] != want[i] {
			t.Fatalf("columns = %v, want %v", ds.Columns, want)
		}
	}
	if ds.Len() != 3 {
		t.Fatalf("rows = %d, want 3", ds.Len())
	}
	if ds.Rows[2][IDColumn] != float64(3) {
		t.Fatalf("synthetic id = %#v", ds.Rows[2][IDColumn])
	}
	if ds.Rows[0]["id_2"] != "x1" {
		t.Fatalf("renamed id column = %#v", ds.Rows[0]["id_2"])
	}
	if ds.Rows[0]["alpha_acids"] != 12.5 {
		t.Fatalf("percent value = %#v", ds.Rows[0]["alpha_acids"])
	}
	if ds.Rows[1]["alpha_acids"] != nil {
		t.Fatalf("blank cell = %#v, want nil", ds.Rows[1]["alpha_acids"])
	}
	if ds.Rows[2]["moisture"] != nil {
		t.Fatalf("short record cell = %#v, want nil", ds.Rows[2]["moisture"])
	}
}

func TestLoadCSVMaxRowsAndTSV(t *testing.T) {
	p := writeFile(t, "data.tsv", "a\tb\n1\tx\n2\ty\n3\tz\n")
	opt := DefaultOptions()
	opt.MaxRows = 2
	ds, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("rows = %d, want 2", ds.Len())
	}
	if ds.Rows[1]["b"] != "y" {
		t.Fatalf("b = %#v", ds.Rows[1]["b"])
	}
	if !ds.Truncated {
		t.Fatalf("expected Truncated after skipping rows past the cap")
	}

	opt.MaxRows = 3
	ds, err = Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 3 || ds.Truncated {
		t.Fatalf("rows = %d truncated = %v, want 3 and false", ds.Len(), ds.Truncated)
	}
}

func TestLoadCSVEmptyFile(t *testing.T) {
	p := writeFile(t, "empty.csv", "")
	ds, err := LoadCSV(p, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if ds.Len() != 0 {
		t.Fatalf("rows = %d, want 0", ds.Len())
	}
}

func TestParseNumericLocales(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"1.000,5", Options{}, 1000.5, true},
		{"1,000.5", Options{}, 1000.5, true},
		{"0,25", Options{}, 0.25, true},
		{"1 234", Options{DecimalSeparator: '.', ThousandsSeparator: ' '}, 1234, true},
		{"3e2", Options{}, 300, true},
		{"NaN", Options{}, 0, false},
		{"Inf", Options{}, 0, false},
		{"2024-08-10", Options{}, 0, false},
		{"abc", Options{}, 0, false},
	}
	for _, c := range cases {
		got, ok := parseNumeric(c.in, c.opt)
		if ok != c.ok || (ok && math.Abs(got-c.want) > 1e-9) {
			t.Errorf("parseNumeric(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestToFloatAndStringify(t *testing.T) {
	if _, ok := ToFloat(math.NaN()); ok {
		t.Fatalf("NaN must not coerce")
	}
	if _, ok := ToFloat(math.Inf(1)); ok {
		t.Fatalf("Inf must not coerce")
	}
	if v, ok := ToFloat(" 4.5 "); !ok || v != 4.5 {
		t.Fatalf("string coercion = %v,%v", v, ok)
	}
	if v, ok := ToFloat(3); !ok || v != 3 {
		t.Fatalf("int coercion = %v,%v", v, ok)
	}
	if Stringify(2.0) != "2" || Stringify(nil) != "" || Stringify(" B ") != "B" {
		t.Fatalf("unexpected stringify output")
	}
	if !IsNull("   ") || IsNull(0.0) {
		t.Fatalf("unexpected null detection")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ds := New("a")
	ds.Append(Row{"a": 1.0})
	cp := ds.Clone()
	cp.Rows[0]["a"] = 2.0
	cp.DropColumn("a")
	if ds.Rows[0]["a"] != 1.0 || !ds.HasColumn("a") {
		t.Fatalf("clone mutated the source dataset")
	}
}
