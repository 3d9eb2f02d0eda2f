package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	prepLoad       loadFlags
	prepPipeline   pipelineFlags
	prepOutputPath string
	prepExport     string
	prepJSON       string
)

type prepSummary struct {
	Features   []string                        `json:"features"`
	Encoding   dataprep.EncodingMap            `json:"encoding"`
	Excluded   []dataprep.ExcludedColumn       `json:"excluded,omitempty"`
	Scaling    map[string]dataprep.ColumnStats `json:"scaling"`
	Validation *dataprep.Validation            `json:"validation"`
	Warnings   []string                        `json:"warnings,omitempty"`
}

var prepareCmd = &cobra.Command{
	Use:   "prepare <file>",
	Short: "Encode and normalize a dataset without clustering it",
	Long: `Encode categorical columns and normalize numeric ones, then print a summary
of the encoding map, excluded columns and scaling statistics. Use --export to
write the prepared table as CSV.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, err := prepLoad.load(cmd, path)
		if err != nil {
			return err
		}
		p, err := prepPipeline.pipeline(cmd)
		if err != nil {
			return err
		}
		prep, err := p.Prepare(ds)
		if err != nil {
			return err
		}
		if prepExport != "" {
			if err := report.WriteCSV(prepExport, prep.Dataset); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows to %s\n", prep.Dataset.Len(), prepExport)
		}
		if prepJSON != "" {
			summary := prepSummary{
				Features:   prep.Features,
				Encoding:   prep.Encoded.Map,
				Excluded:   prep.Encoded.Excluded,
				Scaling:    prep.Normalized.Stats,
				Validation: prep.Validation,
				Warnings:   prep.Warnings,
			}
			if err := report.WriteJSON(prepJSON, summary); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", prepJSON)
		}
		return emit(cmd, prepOutputPath, report.PrepareMarkdown(filepath.Base(path), prep), report.WriteMarkdown)
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
	prepLoad.register(prepareCmd)
	prepPipeline.register(prepareCmd)
	prepareCmd.Flags().StringVarP(&prepOutputPath, "output", "o", "", "optional path to write the summary (Markdown)")
	prepareCmd.Flags().StringVar(&prepExport, "export", "", "write the encoded and normalized table as CSV")
	prepareCmd.Flags().StringVar(&prepJSON, "json", "", "write the preparation details as JSON")
}
