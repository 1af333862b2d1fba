// Package prometheus provides a factorec.MetricsCollector backed by
// Prometheus metrics.
//
// Metrics:
//   - factorec_scans_total{outcome}: finished iterator scans (ok/error)
//   - factorec_scan_duration_seconds: scan latency histogram
//   - factorec_items_scanned_total: catalog entries pulled
//   - factorec_candidates_emitted_total: candidates produced
//   - factorec_candidates_skipped_total{reason}: pulls dropped by reason
//   - factorec_topn_total{outcome}: top-N selections
//   - factorec_topn_duration_seconds: top-N latency histogram
//
// Usage:
//
//	c := prometheus.NewCollector(prom.DefaultRegisterer)
//	it, _ := factorec.NewIterator(queries, items, exclusion.Empty,
//	    factorec.WithMetricsCollector(c))
package prometheus

import (
	"time"

	"github.com/hupe1980/factorec"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Compile time check.
var _ factorec.MetricsCollector = (*Collector)(nil)

const namespace = "factorec"

// Skip reasons used as the "reason" label.
const (
	ReasonSoft      = "soft"
	ReasonHard      = "hard"
	ReasonRescorer  = "rescorer"
	ReasonNonFinite = "non_finite"
)

// Collector records factorec scans as Prometheus metrics.
type Collector struct {
	scans        *prom.CounterVec
	scanDuration prom.Histogram
	scanned      prom.Counter
	emitted      prom.Counter
	skipped      *prom.CounterVec
	topN         *prom.CounterVec
	topNDuration prom.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
// If reg is nil, metrics are created but not registered.
func NewCollector(reg prom.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		scans: f.NewCounterVec(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Total number of finished candidate scans",
			},
			[]string{"outcome"},
		),
		scanDuration: f.NewHistogram(
			prom.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Duration of candidate scans in seconds",
				// Buckets from small partitions to full multi-million item catalogs
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		scanned: f.NewCounter(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "items_scanned_total",
				Help:      "Total number of catalog entries pulled",
			},
		),
		emitted: f.NewCounter(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_emitted_total",
				Help:      "Total number of scored candidates produced",
			},
		),
		skipped: f.NewCounterVec(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_skipped_total",
				Help:      "Total number of catalog entries dropped, by reason",
			},
			[]string{"reason"},
		),
		topN: f.NewCounterVec(
			prom.CounterOpts{
				Namespace: namespace,
				Name:      "topn_total",
				Help:      "Total number of top-N selections",
			},
			[]string{"outcome"},
		),
		topNDuration: f.NewHistogram(
			prom.HistogramOpts{
				Namespace: namespace,
				Name:      "topn_duration_seconds",
				Help:      "Duration of top-N selections in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
	}
}

// RecordScan implements factorec.MetricsCollector.
func (c *Collector) RecordScan(stats factorec.ScanStats, duration time.Duration, err error) {
	c.scans.WithLabelValues(outcome(err)).Inc()
	c.scanDuration.Observe(duration.Seconds())
	c.scanned.Add(float64(stats.Scanned))
	c.emitted.Add(float64(stats.Emitted))
	c.skipped.WithLabelValues(ReasonSoft).Add(float64(stats.SoftExcluded))
	c.skipped.WithLabelValues(ReasonHard).Add(float64(stats.HardExcluded))
	c.skipped.WithLabelValues(ReasonRescorer).Add(float64(stats.RescorerExcluded))
	c.skipped.WithLabelValues(ReasonNonFinite).Add(float64(stats.NonFinite))
}

// RecordTopN implements factorec.MetricsCollector.
func (c *Collector) RecordTopN(_, _ int, duration time.Duration, err error) {
	c.topN.WithLabelValues(outcome(err)).Inc()
	c.topNDuration.Observe(duration.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
