package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	clsLoad        loadFlags
	clsPipeline    pipelineFlags
	clsK           int
	clsOutputPath  string
	clsJSON        string
	clsAssignments string
	clsChart       string
)

var clusterCmd = &cobra.Command{
	Use:   "cluster <file>",
	Short: "Cluster a dataset into k groups with multi-restart K-Means",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, err := clsLoad.load(cmd, path)
		if err != nil {
			return err
		}
		p, err := clsPipeline.pipeline(cmd)
		if err != nil {
			return err
		}
		out, err := p.Run(ds, clsK)
		if err != nil {
			return err
		}
		res := out.Result
		logger.Info("clustered dataset", "file", path, "run_id", res.RunID, "k", res.K, "wcss", res.WCSS, "dbi", res.DBI)

		if clsAssignments != "" {
			if err := report.WriteCSV(clsAssignments, out.Annotated); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote assignments to %s\n", clsAssignments)
		}
		if clsJSON != "" {
			if err := report.WriteJSON(clsJSON, res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", clsJSON)
		}
		if clsChart != "" {
			if len(res.Columns) < 2 {
				progressf(cmd, "⚠ Skipping chart: need at least two feature columns\n")
			} else {
				m, _ := dataprep.ExtractFeatures(out.Dataset, res.Columns)
				if err := report.ScatterChart(m, res.Assignments, res.Centroids, res.Columns[0], res.Columns[1], clsChart); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote chart to %s\n", clsChart)
			}
		}
		md := report.PrepareMarkdown(filepath.Base(path), out.Prepared) + "\n" + report.ClusterMarkdown(filepath.Base(path), res)
		return emit(cmd, clsOutputPath, md, report.WriteMarkdown)
	},
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clsLoad.register(clusterCmd)
	clsPipeline.register(clusterCmd)
	clusterCmd.Flags().IntVarP(&clsK, "k", "k", 3, "number of clusters")
	clusterCmd.Flags().StringVarP(&clsOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	clusterCmd.Flags().StringVar(&clsJSON, "json", "", "write the clustering result as JSON")
	clusterCmd.Flags().StringVar(&clsAssignments, "assignments", "", "write the input rows with a cluster column as CSV")
	clusterCmd.Flags().StringVar(&clsChart, "chart", "", "write a scatter plot of the first two features (png|svg|pdf)")
}
