package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// benchConfig holds the benchmark parameters. YAML keys mirror the flag names.
type benchConfig struct {
	Items         int     `yaml:"items"`
	Dimension     int     `yaml:"dimension"`
	Queries       int     `yaml:"queries"`
	N             int     `yaml:"n"`
	Partitions    int     `yaml:"partitions"`
	Concurrency   int     `yaml:"concurrency"`
	Seed          int64   `yaml:"seed"`
	SoftFraction  float64 `yaml:"soft-fraction"`
	KnownFraction float64 `yaml:"known-fraction"`
	Snapshot      bool    `yaml:"snapshot"`
	LogLevel      string  `yaml:"log-level"`
}

func defaultConfig() benchConfig {
	return benchConfig{
		Items:         100000,
		Dimension:     50,
		Queries:       1,
		N:             10,
		Partitions:    4,
		Seed:          4711,
		SoftFraction:  0.01,
		KnownFraction: 0.05,
		LogLevel:      "warn",
	}
}

func (c benchConfig) validate() error {
	var errs []error
	if c.Items < 0 {
		errs = append(errs, fmt.Errorf("items must not be negative: %d", c.Items))
	}
	if c.Dimension <= 0 {
		errs = append(errs, fmt.Errorf("dimension must be positive: %d", c.Dimension))
	}
	if c.Queries <= 0 {
		errs = append(errs, fmt.Errorf("queries must be positive: %d", c.Queries))
	}
	if c.N <= 0 {
		errs = append(errs, fmt.Errorf("n must be positive: %d", c.N))
	}
	if c.Partitions <= 0 {
		errs = append(errs, fmt.Errorf("partitions must be positive: %d", c.Partitions))
	}
	for name, f := range map[string]float64{"soft-fraction": c.SoftFraction, "known-fraction": c.KnownFraction} {
		if f < 0 || f > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0, 1]: %g", name, f))
		}
	}
	return errors.Join(errs...)
}

// loadConfigFile decodes path over cfg. Unknown keys are rejected.
func loadConfigFile(path string, cfg *benchConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// bindFlags registers cfg's fields as flags with cfg's values as defaults.
func bindFlags(fs *pflag.FlagSet, cfg *benchConfig) {
	fs.IntVar(&cfg.Items, "items", cfg.Items, "Number of catalog items")
	fs.IntVar(&cfg.Dimension, "dimension", cfg.Dimension, "Latent factor dimension")
	fs.IntVar(&cfg.Queries, "queries", cfg.Queries, "Number of blended query vectors")
	fs.IntVar(&cfg.N, "n", cfg.N, "Number of candidates to return")
	fs.IntVar(&cfg.Partitions, "partitions", cfg.Partitions, "Catalog partitions scored in parallel")
	fs.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Max partitions scored at once (0 = all)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	fs.Float64Var(&cfg.SoftFraction, "soft-fraction", cfg.SoftFraction, "Fraction of items in the soft exclusion set")
	fs.Float64Var(&cfg.KnownFraction, "known-fraction", cfg.KnownFraction, "Fraction of items in the shared hard exclusion set")
	fs.BoolVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "Snapshot the hard exclusion set instead of locking")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug|info|warn|error)")
}

// applyFile loads path into cfg and then re-applies every flag the user set
// explicitly, so the command line wins over the file.
func applyFile(fs *pflag.FlagSet, path string, cfg *benchConfig) error {
	explicit := make(map[string]string)
	fs.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := loadConfigFile(path, cfg); err != nil {
		return err
	}

	var errs []error
	for name, value := range explicit {
		if name == "config" {
			continue
		}
		if err := fs.Set(name, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
