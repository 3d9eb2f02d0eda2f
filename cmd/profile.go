package cmd

import (
	"path/filepath"

	"github.com/KaramelBytes/clusterbench-cli/internal/analysis"
	"github.com/KaramelBytes/clusterbench-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	profLoad       loadFlags
	profOutputPath string
	profTop        int
	profSampleRows int
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Infer column types and summarize a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		ds, err := profLoad.load(cmd, path)
		if err != nil {
			return err
		}
		s := settings()
		opt := analysis.DefaultOptions()
		opt.SampleRows = s.SampleRows
		opt.MaxCardinality = s.OneHotMaxCardinality
		if profSampleRows > 0 {
			opt.SampleRows = profSampleRows
		}
		if profTop > 0 {
			opt.TopValues = profTop
		}
		rep := analysis.Profile(filepath.Base(path), ds, opt)
		logger.Debug("profiled dataset", "file", path, "rows", rep.Rows, "columns", len(rep.Cols))
		return emit(cmd, profOutputPath, rep.Markdown(), report.WriteMarkdown)
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profLoad.register(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&profTop, "top", 0, "categorical values listed per column (0 = default)")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 0, "rows sampled for column type inference (overrides config)")
}
