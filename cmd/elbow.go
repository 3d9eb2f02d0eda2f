package cmd

import (
	"fmt"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/clusterbench-cli/internal/config"
	"github.com/KaramelBytes/clusterbench-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	elbLoad       loadFlags
	elbPipeline   pipelineFlags
	elbKValues    string
	elbOutputPath string
	elbJSON       string
	elbChart      string
)

var elbowCmd = &cobra.Command{
	Use:   "elbow <file>",
	Short: "Compare cluster counts with WCSS and Davies-Bouldin scores",
	Long: `Run K-Means for each requested k and report WCSS and the Davies-Bouldin index.
The elbow point is where the WCSS curve bends the most; the best DBI is the
smallest positive index. When clustering fails for a k its scores are estimated
from the previous k and marked as such.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ks := settings().ElbowKValues
		if cmd.Flags().Changed("k") {
			parsed, err := cfgpkg.ParseKList(elbKValues)
			if err != nil {
				return fmt.Errorf("invalid --k: %w", err)
			}
			ks = parsed
		}
		ds, err := elbLoad.load(cmd, path)
		if err != nil {
			return err
		}
		p, err := elbPipeline.pipeline(cmd)
		if err != nil {
			return err
		}
		prep, rep, err := p.Sweep(ds, ks)
		if err != nil {
			return err
		}
		logger.Info("elbow analysis", "file", path, "run_id", rep.RunID, "elbow_k", rep.ElbowK, "dbi_k", rep.DBIOptimumK, "fallbacks", len(rep.Fallbacks))
		for _, fb := range rep.Fallbacks {
			progressf(cmd, "⚠ k=%d estimated: %s\n", fb.K, fb.Cause)
		}

		if elbJSON != "" {
			if err := report.WriteJSON(elbJSON, rep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", elbJSON)
		}
		if elbChart != "" {
			if err := report.ElbowChart(rep.Report, elbChart); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote chart to %s\n", elbChart)
		}
		md := report.PrepareMarkdown(filepath.Base(path), prep) + "\n" + report.ElbowMarkdown(filepath.Base(path), rep)
		return emit(cmd, elbOutputPath, md, report.WriteMarkdown)
	},
}

func init() {
	rootCmd.AddCommand(elbowCmd)
	elbLoad.register(elbowCmd)
	elbPipeline.register(elbowCmd)
	elbowCmd.Flags().StringVarP(&elbKValues, "k", "k", "", "k values as a list or range, e.g. '1-8' or '2,3,5' (default from config)")
	elbowCmd.Flags().StringVarP(&elbOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	elbowCmd.Flags().StringVar(&elbJSON, "json", "", "write the elbow report as JSON")
	elbowCmd.Flags().StringVar(&elbChart, "chart", "", "write the WCSS curve as an image (png|svg|pdf)")
}
