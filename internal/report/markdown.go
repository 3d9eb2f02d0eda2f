// Package report renders clustering outcomes for terminals and files.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/clusterbench-cli/internal/engine"
	"github.com/KaramelBytes/clusterbench-cli/internal/experiment"
)

// PrepareMarkdown summarizes column typing, encoding and normalization.
func PrepareMarkdown(name string, prep *engine.Prepared) string {
	var b strings.Builder
	b.WriteString("[PREPARATION]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Numeric: %s\n", list(prep.Types.Numeric)))
	b.WriteString(fmt.Sprintf("Categorical: %s\n", list(prep.Types.Categorical)))
	b.WriteString(fmt.Sprintf("Features: %d\n", len(prep.Features)))
	if v := prep.Validation; v != nil {
		b.WriteString(fmt.Sprintf("Sparsity ratio: %.3f (%d features / %d rows)\n", v.SparsityRatio, v.FeatureCount, v.Rows))
	}

	if prep.Encoded != nil && len(prep.Encoded.Map) > 0 {
		b.WriteString("\n[ENCODING]\n")
		cols := make([]string, 0, len(prep.Encoded.Map))
		for c := range prep.Encoded.Map {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		for _, c := range cols {
			enc := prep.Encoded.Map[c]
			if enc.Labels != nil {
				b.WriteString(fmt.Sprintf("- %s: label, %d values\n", c, len(enc.Labels)))
			} else {
				b.WriteString(fmt.Sprintf("- %s: one-hot, %d indicator columns\n", c, len(enc.Indicators)))
			}
		}
	}
	if prep.Encoded != nil && len(prep.Encoded.Excluded) > 0 {
		b.WriteString("\n[EXCLUDED]\n")
		for _, e := range prep.Encoded.Excluded {
			b.WriteString(fmt.Sprintf("- %s: %s\n", e.Column, e.Reason))
		}
	}
	if prep.Normalized != nil && len(prep.Normalized.Stats) > 0 {
		b.WriteString("\n[NORMALIZATION]\n")
		for _, c := range prep.Types.Numeric {
			s, ok := prep.Normalized.Stats[c]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: min %.4g, max %.4g, mean %.4g, std %.4g", c, s.Min, s.Max, s.Mean, s.Std))
			if s.Degenerate {
				b.WriteString(" (constant)")
			}
			b.WriteString("\n")
		}
	}
	var recs []string
	if prep.Validation != nil {
		recs = prep.Validation.Recommendations
	}
	notes(&b, "NOTES", append(append([]string(nil), prep.Warnings...), recs...))
	return b.String()
}

// ClusterMarkdown renders a clustering result.
func ClusterMarkdown(name string, res *engine.ClusteringResult) string {
	var b strings.Builder
	b.WriteString("[CLUSTERING]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Run: %s\n", res.RunID))
	b.WriteString(fmt.Sprintf("K: %d\n", res.K))
	b.WriteString(fmt.Sprintf("WCSS: %.4f\n", res.WCSS))
	b.WriteString(fmt.Sprintf("Davies-Bouldin: %.4f\n", res.DBI))
	b.WriteString(fmt.Sprintf("Attempts: %d accepted of %d", res.Accepted, res.Attempts))
	if res.Repaired {
		b.WriteString(" (repaired)")
	}
	b.WriteString("\n\n[CLUSTERS]\n")
	total := 0
	for _, s := range res.Sizes {
		total += s
	}
	for c, s := range res.Sizes {
		pct := 0.0
		if total > 0 {
			pct = float64(s) * 100 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- cluster %d: %d rows (%.1f%%)", c, s, pct))
		if c < len(res.Centroids) {
			b.WriteString(" centroid ")
			b.WriteString(centroid(res.Columns, res.Centroids[c]))
		}
		b.WriteString("\n")
	}
	notes(&b, "NOTES", res.Warnings)
	return b.String()
}

// ElbowMarkdown renders an elbow sweep as a table with its recommendations.
func ElbowMarkdown(name string, rep *engine.ElbowReport) string {
	var b strings.Builder
	b.WriteString("[ELBOW]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(rep.Columns)))
	b.WriteString("| k | WCSS | DBI | |\n|---|---|---|---|\n")
	for i, k := range rep.KValues {
		var tags []string
		if k == rep.ElbowK {
			tags = append(tags, "elbow")
		}
		if k == rep.DBIOptimumK {
			tags = append(tags, "best DBI")
		}
		if rep.Estimated(k) {
			tags = append(tags, "estimated")
		}
		b.WriteString(fmt.Sprintf("| %d | %.4f | %.4f | %s |\n", k, rep.WCSS[i], rep.DBI[i], strings.Join(tags, ", ")))
	}
	b.WriteString("\n[RECOMMENDATION]\n")
	if rep.ElbowK > 0 {
		b.WriteString(fmt.Sprintf("- Elbow point: k=%d\n", rep.ElbowK))
	} else {
		b.WriteString("- Elbow point: undefined (needs at least 3 k values)\n")
	}
	if rep.DBIOptimumK > 0 {
		b.WriteString(fmt.Sprintf("- Lowest Davies-Bouldin: k=%d\n", rep.DBIOptimumK))
	} else {
		b.WriteString("- Lowest Davies-Bouldin: undefined\n")
	}
	notes(&b, "NOTES", rep.Warnings)
	return b.String()
}

// ExperimentsMarkdown ranks experiment outcomes into a table.
func ExperimentsMarkdown(name string, outcomes []experiment.Outcome) string {
	var b strings.Builder
	b.WriteString("[EXPERIMENTS]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString("| rank | id | encoding | normalization | k | WCSS | DBI | status |\n|---|---|---|---|---|---|---|---|\n")
	for i, o := range experiment.Rank(outcomes) {
		e := o.Experiment
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		if o.Result == nil {
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | - | - | failed: %s |\n", i+1, id, e.Encoding, e.Normalization, e.K, oneLine(o.Error)))
			continue
		}
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %d | %.4f | %.4f | ok |\n", i+1, id, e.Encoding, e.Normalization, e.K, o.Result.WCSS, o.Result.DBI))
	}
	return b.String()
}

func notes(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n[%s]\n", title))
	for _, l := range lines {
		b.WriteString("- ")
		b.WriteString(l)
		b.WriteString("\n")
	}
}

func list(s []string) string {
	if len(s) == 0 {
		return "(none)"
	}
	return strings.Join(s, ", ")
}

// centroid prints at most six named components.
func centroid(cols []string, c []float64) string {
	parts := make([]string, 0, len(c))
	for i, v := range c {
		if i == 6 {
			parts = append(parts, fmt.Sprintf("… +%d", len(c)-6))
			break
		}
		name := fmt.Sprintf("f%d", i)
		if i < len(cols) {
			name = cols[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%.3g", name, v))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func oneLine(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
