package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/factorec"
	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/metrics/prometheus"
	"github.com/hupe1980/factorec/model"
	"github.com/hupe1980/factorec/testutil"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the factorec-bench command.
func NewRootCmd(version string) *cobra.Command {
	cfg := defaultConfig()
	var (
		configPath  string
		jsonOutput  bool
		dumpMetrics bool
	)

	cmd := &cobra.Command{
		Use:           "factorec-bench",
		Short:         "Score a synthetic catalog and print the top-N candidates",
		Long:          `Generates random latent factors, scores them with factorec across parallel partitions and reports the best candidates.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := applyFile(cmd.Flags(), configPath, &cfg); err != nil {
					return err
				}
			}
			if err := cfg.validate(); err != nil {
				return err
			}

			report, err := runBench(cmd, cfg, dumpMetrics)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			return writeText(cmd.OutOrStdout(), report)
		},
	}

	bindFlags(cmd.Flags(), &cfg)
	cmd.Flags().StringVar(&configPath, "config", "", "YAML file with benchmark parameters")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&dumpMetrics, "metrics", false, "Print Prometheus metrics after the run")

	return cmd
}

type benchReport struct {
	Config   benchConfig                `json:"config"`
	Results  []model.Candidate          `json:"results"`
	Stats    factorec.BasicMetricsStats `json:"stats"`
	Duration time.Duration              `json:"duration_ns"`
	Metrics  string                     `json:"metrics,omitempty"`
}

func runBench(cmd *cobra.Command, cfg benchConfig, dumpMetrics bool) (*benchReport, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	logger := factorec.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	rng := testutil.NewRNG(cfg.Seed)

	items, err := rng.Matrix(cfg.Items, cfg.Dimension)
	if err != nil {
		return nil, err
	}
	queries := rng.GaussianVectors(cfg.Queries, cfg.Dimension)
	soft := exclusion.NewIDSet(rng.Sample(cfg.Items, cfg.SoftFraction)...)
	known := exclusion.NewSharedSet(rng.Sample(cfg.Items, cfg.KnownFraction)...)

	reg := prom.NewRegistry()
	basic := &factorec.BasicMetricsCollector{}
	collector := multiCollector{basic, prometheus.NewCollector(reg)}

	opts := []factorec.Option{
		factorec.WithHardExclusions(known),
		factorec.WithConcurrency(cfg.Concurrency),
		factorec.WithLogger(logger),
		factorec.WithMetricsCollector(collector),
	}
	if cfg.Snapshot {
		opts = append(opts, factorec.WithHardSnapshot())
	}

	start := time.Now()
	results, err := factorec.TopN(cmd.Context(), queries, items.Partitions(cfg.Partitions), soft, cfg.N, opts...)
	if err != nil {
		return nil, err
	}

	report := &benchReport{
		Config:   cfg,
		Results:  results,
		Stats:    basic.GetStats(),
		Duration: time.Since(start),
	}

	if dumpMetrics {
		text, err := gatherText(reg)
		if err != nil {
			return nil, err
		}
		report.Metrics = text
	}

	return report, nil
}

// multiCollector fans metrics out to several collectors.
type multiCollector []factorec.MetricsCollector

func (m multiCollector) RecordScan(stats factorec.ScanStats, d time.Duration, err error) {
	for _, c := range m {
		c.RecordScan(stats, d, err)
	}
}

func (m multiCollector) RecordTopN(n, partitions int, d time.Duration, err error) {
	for _, c := range m {
		c.RecordTopN(n, partitions, d, err)
	}
}

func gatherText(g prom.Gatherer) (string, error) {
	families, err := g.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var buf strings.Builder
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", fmt.Errorf("encode metrics: %w", err)
		}
	}
	return buf.String(), nil
}

func writeJSON(w io.Writer, r *benchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeText(w io.Writer, r *benchReport) error {
	fmt.Fprintf(w, "items=%d dimension=%d queries=%d partitions=%d duration=%s\n",
		r.Config.Items, r.Config.Dimension, r.Config.Queries, r.Config.Partitions, r.Duration)
	fmt.Fprintf(w, "scanned=%d emitted=%d skipped=%d\n", r.Stats.Scanned, r.Stats.Emitted, r.Stats.Skipped)

	for i, c := range r.Results {
		fmt.Fprintf(w, "%3d  %-12d %.6f\n", i+1, c.ID, c.Score)
	}

	if r.Metrics != "" {
		_, err := io.WriteString(w, r.Metrics)
		return err
	}
	return nil
}
