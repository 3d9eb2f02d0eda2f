package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"github.com/KaramelBytes/clusterbench-cli/internal/elbow"
	"github.com/KaramelBytes/clusterbench-cli/internal/engine"
	"github.com/KaramelBytes/clusterbench-cli/internal/experiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *engine.ClusteringResult {
	return &engine.ClusteringResult{
		RunID:       "run-1",
		K:           2,
		Columns:     []string{"x", "y"},
		Assignments: []int{0, 0, 1, 1},
		Centroids:   [][]float64{{0, 0.5}, {10, 10.5}},
		Sizes:       []int{2, 2},
		WCSS:        1,
		DBI:         0.1,
		Attempts:    5,
		Accepted:    5,
		Repaired:    true,
		Warnings:    []string{"repair: rebuilt 4 assignments round-robin (optimizer returned 3)"},
	}
}

func sampleElbow() *engine.ElbowReport {
	return &engine.ElbowReport{
		RunID:   "run-2",
		Columns: []string{"x", "y"},
		Report: &elbow.Report{
			KValues:     []int{1, 2, 3},
			WCSS:        []float64{100, 10, 8},
			DBI:         []float64{0, 0.3, 0.5},
			Fallbacks:   []elbow.Fallback{{K: 3, Cause: "all attempts rejected"}},
			ElbowK:      2,
			DBIOptimumK: 2,
		},
	}
}

func TestClusterMarkdown(t *testing.T) {
	md := ClusterMarkdown("points.csv", sampleResult())
	for _, want := range []string{
		"[CLUSTERING]",
		"File: points.csv",
		"K: 2",
		"Attempts: 5 accepted of 5 (repaired)",
		"- cluster 1: 2 rows (50.0%) centroid (x=10, y=10.5)",
		"[NOTES]",
	} {
		assert.Contains(t, md, want)
	}
}

func TestElbowMarkdown(t *testing.T) {
	md := ElbowMarkdown("", sampleElbow())
	assert.Contains(t, md, "| 2 | 10.0000 | 0.3000 | elbow, best DBI |")
	assert.Contains(t, md, "| 3 | 8.0000 | 0.5000 | estimated |")
	assert.Contains(t, md, "- Elbow point: k=2")
	assert.NotContains(t, md, "File:")
}

func TestExperimentsMarkdownRanksFailuresLast(t *testing.T) {
	outs := []experiment.Outcome{
		{Experiment: experiment.Experiment{ID: "aaaaaaaa-1", Encoding: "label", Normalization: "zscore", K: 9}, Err: errors.New("bad"), Error: "invalid k: too big"},
		{Experiment: experiment.Experiment{ID: "bbbbbbbb-2", Encoding: "onehot", Normalization: "minmax", K: 2}, Result: sampleResult()},
	}
	md := ExperimentsMarkdown("f.csv", outs)
	lines := strings.Split(md, "\n")
	var rows []string
	for _, l := range lines {
		if strings.HasPrefix(l, "| 1 ") || strings.HasPrefix(l, "| 2 ") {
			rows = append(rows, l)
		}
	}
	require.Len(t, rows, 2)
	assert.Contains(t, rows[0], "bbbbbbbb")
	assert.Contains(t, rows[1], "failed: invalid k: too big")
}

func TestWriteCSVAndJSON(t *testing.T) {
	dir := t.TempDir()
	ds := dataset.New(dataset.IDColumn, "name", "cluster")
	ds.Append(dataset.Row{dataset.IDColumn: 1.0, "name": "a,b", "cluster": 0.0})
	ds.Append(dataset.Row{dataset.IDColumn: 2.0, "name": nil, "cluster": 1.0})

	csvPath := filepath.Join(dir, "out", "assign.csv")
	require.NoError(t, WriteCSV(csvPath, ds))
	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "id,name,cluster\n1,\"a,b\",0\n2,,1\n", string(b))

	jsonPath := filepath.Join(dir, "r.json")
	require.NoError(t, WriteJSON(jsonPath, sampleResult()))
	b, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	var back engine.ClusteringResult
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []int{2, 2}, back.Sizes)
	assert.Equal(t, "run-1", back.RunID)
}

func TestCharts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elbow.png")
	require.NoError(t, ElbowChart(sampleElbow().Report, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	res := sampleResult()
	feats := [][]float64{{0, 0}, {0, 1}, {10, 10}, {10, 11}}
	scatter := filepath.Join(dir, "clusters.svg")
	require.NoError(t, ScatterChart(feats, res.Assignments, res.Centroids, "x", "y", scatter))
	_, err = os.Stat(scatter)
	require.NoError(t, err)

	assert.Error(t, ElbowChart(&elbow.Report{}, path))
	assert.Error(t, ScatterChart([][]float64{{1}}, []int{0}, nil, "x", "y", scatter))
}
