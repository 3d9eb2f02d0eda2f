package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args and return stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, _ := runCmdOutput(t, args...)
	return out
}

// runCmdOutput executes the root command and returns stdout and stderr.
func runCmdOutput(t *testing.T, args ...string) (string, string) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\nstderr: %s", args, err, errOut.String())
	}
	return out.String(), errOut.String()
}

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home
}

func writeShops(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,revenue,visits,region\n")
	for i := 0; i < 10; i++ {
		region := "north"
		if i%2 == 1 {
			region = "south"
		}
		fmt.Fprintf(&b, "%d,%d,%d,%s\n", i+1, 100+i, 20+i%3, region)
		fmt.Fprintf(&b, "%d,%d,%d,%s\n", i+11, 900+i, 80+i%3, region)
	}
	path := filepath.Join(dir, "shops.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestCLI_Profile(t *testing.T) {
	home := withHome(t)
	csv := writeShops(t, home)

	out := runCmd(t, "profile", csv, "-q")
	for _, want := range []string{"revenue", "visits", "region"} {
		if !strings.Contains(out, want) {
			t.Fatalf("profile output missing %q:\n%s", want, out)
		}
	}

	md := filepath.Join(home, "reports", "shops.md")
	out = runCmd(t, "profile", csv, "-q", "-o", md)
	if !strings.Contains(out, "✓ Wrote") {
		t.Fatalf("expected write confirmation, got %q", out)
	}
	if _, err := os.Stat(md); err != nil {
		t.Fatalf("profile not written: %v", err)
	}
}

func TestCLI_MaxRowsWarnsWhenTruncated(t *testing.T) {
	home := withHome(t)
	csv := writeShops(t, home)

	_, stderr := runCmdOutput(t, "profile", csv, "--max-rows", "5")
	if !strings.Contains(stderr, "read first 5 rows") {
		t.Fatalf("expected truncation warning, got stderr:\n%s", stderr)
	}

	_, stderr = runCmdOutput(t, "profile", csv)
	if strings.Contains(stderr, "read first") {
		t.Fatalf("unexpected truncation warning:\n%s", stderr)
	}
}

func TestCLI_ClusterWritesAssignmentsAndJSON(t *testing.T) {
	home := withHome(t)
	csv := writeShops(t, home)
	assign := filepath.Join(home, "out", "assign.csv")
	res := filepath.Join(home, "out", "result.json")

	out := runCmd(t, "cluster", csv, "-q", "-k", "2", "--normalization", "minmax", "--assignments", assign, "--json", res)
	if !strings.Contains(out, "[CLUSTERING]") || !strings.Contains(out, "K: 2") {
		t.Fatalf("unexpected cluster report:\n%s", out)
	}

	b, err := os.ReadFile(assign)
	if err != nil {
		t.Fatalf("read assignments: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 21 {
		t.Fatalf("expected header + 20 rows, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], ",cluster") {
		t.Fatalf("expected cluster column, got header %q", lines[0])
	}

	var parsed struct {
		K     int   `json:"k"`
		Sizes []int `json:"sizes"`
	}
	b, err = os.ReadFile(res)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if err := json.Unmarshal(b, &parsed); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if parsed.K != 2 || len(parsed.Sizes) != 2 || parsed.Sizes[0]+parsed.Sizes[1] != 20 {
		t.Fatalf("unexpected result: %+v", parsed)
	}
}

func TestCLI_ClusterRejectsBadK(t *testing.T) {
	home := withHome(t)
	csv := writeShops(t, home)
	resetFlags(rootCmd)
	cfg = nil
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"cluster", csv, "-q", "-k", "0"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("expected error for k=0")
	}
}

func TestCLI_ElbowWithChart(t *testing.T) {
	home := withHome(t)
	csv := writeShops(t, home)
	chart := filepath.Join(home, "elbow.png")

	out := runCmd(t, "elbow", csv, "-q", "--k", "1-4", "--chart", chart)
	if !strings.Contains(out, "[RECOMMENDATION]") {
		t.Fatalf("missing recommendation:\n%s", out)
	}
	if !strings.Contains(out, "| 1 |") || !strings.Contains(out, "| 4 |") {
		t.Fatalf("expected rows for k=1..4:\n%s", out)
	}
	if info, err := os.Stat(chart); err != nil || info.Size() == 0 {
		t.Fatalf("chart not written: %v", err)
	}
}

func TestCLI_ConfigSetThenShow(t *testing.T) {
	withHome(t)
	runCmd(t, "config", "set", "encoding", "label")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "encoding: label") {
		t.Fatalf("expected saved encoding, got:\n%s", out)
	}
}

func TestCLI_ExperimentsOutputDir(t *testing.T) {
	home := withHome(t)
	writeShops(t, home)
	dir := filepath.Join(home, "exp")

	out := runCmd(t, "experiments", filepath.Join(home, "*.csv"), "-q",
		"--k", "2,3", "--encodings", "label,onehot", "--normalizations", "zscore", "--output-dir", dir, "--json")
	if !strings.Contains(out, "shops.experiments.md") {
		t.Fatalf("expected report path in output, got %q", out)
	}
	b, err := os.ReadFile(filepath.Join(dir, "shops.experiments.json"))
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var outs []map[string]any
	if err := json.Unmarshal(b, &outs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(outs) != 4 {
		t.Fatalf("expected 4 outcomes, got %d", len(outs))
	}
}
