package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Preparation
	Encoding             string `mapstructure:"encoding" yaml:"encoding"`
	Normalization        string `mapstructure:"normalization" yaml:"normalization"`
	OneHotMaxCardinality int    `mapstructure:"onehot_max_cardinality" yaml:"onehot_max_cardinality"`
	SampleRows           int    `mapstructure:"sample_rows" yaml:"sample_rows"`

	// K-Means
	KMeansAttempts      int   `mapstructure:"kmeans_attempts" yaml:"kmeans_attempts"`
	KMeansMaxIterations int   `mapstructure:"kmeans_max_iterations" yaml:"kmeans_max_iterations"`
	Seed                int64 `mapstructure:"seed" yaml:"seed"`
	SeedStep            int64 `mapstructure:"seed_step" yaml:"seed_step"`

	// Elbow sweep and its fallback estimates
	ElbowKValues      []int   `mapstructure:"elbow_k_values" yaml:"elbow_k_values"`
	FallbackShrinkMin float64 `mapstructure:"fallback_shrink_min" yaml:"fallback_shrink_min"`
	FallbackShrinkMax float64 `mapstructure:"fallback_shrink_max" yaml:"fallback_shrink_max"`
	FallbackGrowMin   float64 `mapstructure:"fallback_grow_min" yaml:"fallback_grow_min"`
	FallbackGrowMax   float64 `mapstructure:"fallback_grow_max" yaml:"fallback_grow_max"`

	// Encoding diagnostics
	SparsityWarnRatio   float64 `mapstructure:"sparsity_warn_ratio" yaml:"sparsity_warn_ratio"`
	UniquenessWarnRatio float64 `mapstructure:"uniqueness_warn_ratio" yaml:"uniqueness_warn_ratio"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"encoding", "normalization", "onehot_max_cardinality", "sample_rows",
	"kmeans_attempts", "kmeans_max_iterations", "seed", "seed_step",
	"elbow_k_values", "fallback_shrink_min", "fallback_shrink_max", "fallback_grow_min", "fallback_grow_max",
	"sparsity_warn_ratio", "uniqueness_warn_ratio", "log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("encoding", "onehot")
	v.SetDefault("normalization", "zscore")
	v.SetDefault("onehot_max_cardinality", 10)
	v.SetDefault("sample_rows", 100)
	v.SetDefault("kmeans_attempts", 5)
	v.SetDefault("kmeans_max_iterations", 100)
	v.SetDefault("seed", 42)
	v.SetDefault("seed_step", 1009)
	v.SetDefault("elbow_k_values", []int{1, 2, 3, 4, 5, 6, 7, 8})
	v.SetDefault("fallback_shrink_min", 0.70)
	v.SetDefault("fallback_shrink_max", 0.90)
	v.SetDefault("fallback_grow_min", 1.05)
	v.SetDefault("fallback_grow_max", 1.25)
	v.SetDefault("sparsity_warn_ratio", 0.5)
	v.SetDefault("uniqueness_warn_ratio", 0.8)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
}

// Default returns the built-in configuration.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".clusterbench"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.clusterbench/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CLUSTERBENCH")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case cfgFile != "" && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Set parses val for key and stores it.
func (c *Global) Set(key, val string) error {
	val = strings.TrimSpace(val)
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	ratio := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return 0, fmt.Errorf("invalid positive float for %s: %v", key, val)
		}
		return f, nil
	}
	shrink := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f >= 1 {
			return 0, fmt.Errorf("invalid %s: %v (a shrink factor must be in (0,1))", key, val)
		}
		return f, nil
	}
	grow := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 1 {
			return 0, fmt.Errorf("invalid %s: %v (a grow factor must be above 1)", key, val)
		}
		return f, nil
	}
	setf := func(dst *float64, parse func() (float64, error)) error {
		f, err := parse()
		if err == nil {
			*dst = f
		}
		return err
	}
	var err error
	switch key {
	case "encoding":
		switch strings.ToLower(val) {
		case "label", "onehot":
			c.Encoding = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid encoding: %s (use label or onehot)", val)
		}
	case "normalization":
		switch strings.ToLower(val) {
		case "minmax", "zscore", "none":
			c.Normalization = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid normalization: %s (use minmax, zscore or none)", val)
		}
	case "onehot_max_cardinality":
		c.OneHotMaxCardinality, err = atoi()
	case "sample_rows":
		c.SampleRows, err = atoi()
	case "kmeans_attempts":
		c.KMeansAttempts, err = atoi()
	case "kmeans_max_iterations":
		c.KMeansMaxIterations, err = atoi()
	case "seed", "seed_step":
		i, perr := strconv.ParseInt(val, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		if key == "seed" {
			c.Seed = i
		} else {
			c.SeedStep = i
		}
	case "elbow_k_values":
		ks, perr := ParseKList(val)
		if perr != nil {
			return perr
		}
		c.ElbowKValues = ks
	case "fallback_shrink_min":
		err = setf(&c.FallbackShrinkMin, shrink)
	case "fallback_shrink_max":
		err = setf(&c.FallbackShrinkMax, shrink)
	case "fallback_grow_min":
		err = setf(&c.FallbackGrowMin, grow)
	case "fallback_grow_max":
		err = setf(&c.FallbackGrowMax, grow)
	case "sparsity_warn_ratio":
		err = setf(&c.SparsityWarnRatio, ratio)
	case "uniqueness_warn_ratio":
		err = setf(&c.UniquenessWarnRatio, ratio)
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// ParseKList parses "1,2,3" or ranges like "2-6" into k values.
func ParseKList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, err1 := strconv.Atoi(strings.TrimSpace(lo))
			b, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || a < 1 || b < a {
				return nil, fmt.Errorf("invalid k range: %q", part)
			}
			for k := a; k <= b; k++ {
				out = append(out, k)
			}
			continue
		}
		k, err := strconv.Atoi(part)
		if err != nil || k < 1 {
			return nil, fmt.Errorf("invalid k value: %q", part)
		}
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no k values in %q", s)
	}
	return out, nil
}
