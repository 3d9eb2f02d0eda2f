package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfgpkg "github.com/KaramelBytes/clusterbench-cli/internal/config"
	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/experiment"
	"github.com/KaramelBytes/clusterbench-cli/internal/report"
	"github.com/spf13/cobra"
)

var (
	expLoad           loadFlags
	expPipeline       pipelineFlags
	expKValues        string
	expEncodings      []string
	expNormalizations []string
	expOutputDir      string
	expJSON           bool
)

var experimentsCmd = &cobra.Command{
	Use:   "experiments <files...>",
	Short: "Run a grid of encodings, normalizations and k values over one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		grid, err := experimentGrid(cmd)
		if err != nil {
			return err
		}
		base, err := expPipeline.pipeline(cmd)
		if err != nil {
			return err
		}

		total := len(files)
		failed := 0
		for i, f := range files {
			progressf(cmd, "[%d/%d] Processing %s\n", i+1, total, f)
			ds, err := expLoad.load(cmd, f)
			if err != nil {
				failed++
				progressf(cmd, "  ✗ %v\n", err)
				logger.Warn("skipping file", "file", f, "error", err)
				continue
			}
			r := &experiment.Runner{
				Base: *base,
				OnProgress: func(j, n int, e experiment.Experiment) {
					progressf(cmd, "  (%d/%d) encoding=%s normalization=%s k=%d\n", j, n, e.Encoding, e.Normalization, e.K)
				},
			}
			outs := r.Run(ds, grid)
			name := filepath.Base(f)
			md := report.ExperimentsMarkdown(name, outs)
			if expOutputDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				continue
			}
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			mdPath := filepath.Join(expOutputDir, stem+".experiments.md")
			if err := report.WriteMarkdown(mdPath, md); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", mdPath)
			if expJSON {
				jsonPath := filepath.Join(expOutputDir, stem+".experiments.json")
				if err := report.WriteJSON(jsonPath, experiment.Rank(outs)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", jsonPath)
			}
		}
		if failed == total {
			return fmt.Errorf("all %d files failed to load", total)
		}
		return nil
	},
}

// experimentGrid resolves the grid from flags, falling back to config.
func experimentGrid(cmd *cobra.Command) (experiment.Grid, error) {
	s := settings()
	var g experiment.Grid
	encs := expEncodings
	if len(encs) == 0 {
		encs = []string{s.Encoding}
	}
	for _, e := range encs {
		m, err := dataprep.ParseEncodeMode(e)
		if err != nil {
			return g, err
		}
		g.Encodings = append(g.Encodings, m)
	}
	norms := expNormalizations
	if len(norms) == 0 {
		norms = []string{s.Normalization}
	}
	for _, n := range norms {
		m, err := dataprep.ParseNormalizeMode(n)
		if err != nil {
			return g, err
		}
		g.Normalizations = append(g.Normalizations, m)
	}
	g.KValues = s.ElbowKValues
	if cmd.Flags().Changed("k") {
		ks, err := cfgpkg.ParseKList(expKValues)
		if err != nil {
			return g, fmt.Errorf("invalid --k: %w", err)
		}
		g.KValues = ks
	}
	return g, nil
}

func init() {
	rootCmd.AddCommand(experimentsCmd)
	expLoad.register(experimentsCmd)
	expPipeline.register(experimentsCmd)
	experimentsCmd.Flags().StringVarP(&expKValues, "k", "k", "", "k values as a list or range, e.g. '2-6' (default from config)")
	experimentsCmd.Flags().StringSliceVar(&expEncodings, "encodings", nil, "encodings to try: label,onehot (default from config)")
	experimentsCmd.Flags().StringSliceVar(&expNormalizations, "normalizations", nil, "normalizations to try: minmax,zscore,none (default from config)")
	experimentsCmd.Flags().StringVar(&expOutputDir, "output-dir", "", "write one report per file into this directory")
	experimentsCmd.Flags().BoolVar(&expJSON, "json", false, "with --output-dir, also write ranked outcomes as JSON")
}
