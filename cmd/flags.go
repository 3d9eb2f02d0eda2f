package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/clusterbench-cli/internal/dataprep"
	"github.com/KaramelBytes/clusterbench-cli/internal/dataset"
	"github.com/KaramelBytes/clusterbench-cli/internal/elbow"
	"github.com/KaramelBytes/clusterbench-cli/internal/engine"
	"github.com/spf13/cobra"
)

// loadFlags configures how input files are read.
type loadFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
}

func (f *loadFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | 'tab' | ';' (auto by extension if empty)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator: '.' | 'comma' (auto if empty)")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator: ',' | '.' | 'space' (auto if empty)")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "maximum rows to read (0 = default)")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used when --sheet-name is empty)")
}

func (f *loadFlags) options() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.SheetName = f.sheetName
	if f.sheetIndex > 0 {
		opt.SheetIndex = f.sheetIndex
	}
	return opt, nil
}

func (f *loadFlags) load(c *cobra.Command, path string) (*dataset.Dataset, error) {
	opt, err := f.options()
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if ds.Truncated {
		progressf(c, "⚠ %s: read first %d rows (raise --max-rows to read more)\n", path, ds.Len())
		logger.Warn("dataset truncated", "file", path, "rows", ds.Len())
	}
	return ds, nil
}

// pipelineFlags override the preparation and clustering settings from config.
type pipelineFlags struct {
	encoding       string
	normalization  string
	maxCardinality int
	sampleRows     int
	attempts       int
	maxIterations  int
	seed           int64
}

func (f *pipelineFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.encoding, "encoding", "", "categorical encoding: label|onehot (overrides config)")
	c.Flags().StringVar(&f.normalization, "normalization", "", "numeric scaling: minmax|zscore|none (overrides config)")
	c.Flags().IntVar(&f.maxCardinality, "max-cardinality", 0, "one-hot: exclude columns with more distinct values (overrides config)")
	c.Flags().IntVar(&f.sampleRows, "sample-rows", 0, "rows sampled for column type inference (overrides config)")
	c.Flags().IntVar(&f.attempts, "attempts", 0, "K-Means restarts per k (overrides config)")
	c.Flags().IntVar(&f.maxIterations, "max-iter", 0, "K-Means iteration cap per attempt (overrides config)")
	c.Flags().Int64Var(&f.seed, "seed", 0, "base random seed (overrides config)")
}

// pipeline builds an engine pipeline from config with flag overrides applied.
func (f *pipelineFlags) pipeline(c *cobra.Command) (*engine.Pipeline, error) {
	s := settings()
	encName, normName := s.Encoding, s.Normalization
	if c.Flags().Changed("encoding") {
		encName = f.encoding
	}
	if c.Flags().Changed("normalization") {
		normName = f.normalization
	}
	enc, err := dataprep.ParseEncodeMode(encName)
	if err != nil {
		return nil, err
	}
	norm, err := dataprep.ParseNormalizeMode(normName)
	if err != nil {
		return nil, err
	}
	opts := engine.Options{
		Attempts:      s.KMeansAttempts,
		MaxIterations: s.KMeansMaxIterations,
		Seed:          s.Seed,
		SeedStep:      s.SeedStep,
		Fallback: elbow.FallbackPolicy{
			ShrinkMin: s.FallbackShrinkMin,
			ShrinkMax: s.FallbackShrinkMax,
			GrowMin:   s.FallbackGrowMin,
			GrowMax:   s.FallbackGrowMax,
			Seed:      s.Seed,
		},
		Logger: logger,
	}
	if c.Flags().Changed("attempts") && f.attempts > 0 {
		opts.Attempts = f.attempts
	}
	if c.Flags().Changed("max-iter") && f.maxIterations > 0 {
		opts.MaxIterations = f.maxIterations
	}
	if c.Flags().Changed("seed") {
		opts.Seed = f.seed
		opts.Fallback.Seed = f.seed
	}
	p := &engine.Pipeline{
		SampleRows: s.SampleRows,
		Encode:     dataprep.EncodeOptions{Mode: enc, MaxCardinality: s.OneHotMaxCardinality},
		Normalize:  norm,
		Validate: dataprep.ValidateOptions{
			SparsityWarnRatio:   s.SparsityWarnRatio,
			UniquenessWarnRatio: s.UniquenessWarnRatio,
		},
		Options: opts,
		OnPhase: func(ph engine.Phase) { progressf(c, "• %s\n", ph) },
	}
	if c.Flags().Changed("max-cardinality") && f.maxCardinality > 0 {
		p.Encode.MaxCardinality = f.maxCardinality
	}
	if c.Flags().Changed("sample-rows") && f.sampleRows > 0 {
		p.SampleRows = f.sampleRows
	}
	return p, nil
}

// emit prints md to stdout, or writes it to path when one is given.
func emit(c *cobra.Command, path, md string, write func(string, string) error) error {
	if path == "" {
		fmt.Fprint(c.OutOrStdout(), md)
		return nil
	}
	if err := write(path, md); err != nil {
		return err
	}
	fmt.Fprintf(c.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}
