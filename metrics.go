package factorec

import (
	"sync/atomic"
	"time"
)

// ScanStats counts the outcomes of one iterator's pulls.
type ScanStats struct {
	// Scanned is the number of entries pulled from the catalog source.
	Scanned int64
	// Emitted is the number of candidates produced.
	Emitted int64
	// SoftExcluded counts items found in the soft exclusion set.
	SoftExcluded int64
	// HardExcluded counts items found in the hard exclusion set.
	HardExcluded int64
	// RescorerExcluded counts items vetoed by Rescorer.IsExcluded.
	RescorerExcluded int64
	// NonFinite counts items whose rescored value was NaN or infinite.
	NonFinite int64
}

// Skipped returns the number of pulls that produced no candidate.
func (s ScanStats) Skipped() int64 {
	return s.SoftExcluded + s.HardExcluded + s.RescorerExcluded + s.NonFinite
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordScan is called once per iterator, when it reaches the end of the
	// catalog, hits a fatal error, or is stopped early.
	// err is nil unless the scan failed.
	RecordScan(stats ScanStats, duration time.Duration, err error)

	// RecordTopN is called after each top-N selection.
	// n is the number of candidates requested, partitions the fan-out.
	RecordTopN(n, partitions int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordScan(ScanStats, time.Duration, error) {}
func (NoopMetricsCollector) RecordTopN(int, int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ScanCount      atomic.Int64
	ScanErrors     atomic.Int64
	ScanTotalNanos atomic.Int64
	Scanned        atomic.Int64
	Emitted        atomic.Int64
	Skipped        atomic.Int64
	TopNCount      atomic.Int64
	TopNErrors     atomic.Int64
	TopNTotalNanos atomic.Int64
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(stats ScanStats, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	b.Scanned.Add(stats.Scanned)
	b.Emitted.Add(stats.Emitted)
	b.Skipped.Add(stats.Skipped())
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// RecordTopN implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTopN(n, partitions int, duration time.Duration, err error) {
	b.TopNCount.Add(1)
	b.TopNTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TopNErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ScanCount:    b.ScanCount.Load(),
		ScanErrors:   b.ScanErrors.Load(),
		ScanAvgNanos: avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
		Scanned:      b.Scanned.Load(),
		Emitted:      b.Emitted.Load(),
		Skipped:      b.Skipped.Load(),
		TopNCount:    b.TopNCount.Load(),
		TopNErrors:   b.TopNErrors.Load(),
		TopNAvgNanos: avg(b.TopNTotalNanos.Load(), b.TopNCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ScanCount    int64
	ScanErrors   int64
	ScanAvgNanos int64
	Scanned      int64
	Emitted      int64
	Skipped      int64
	TopNCount    int64
	TopNErrors   int64
	TopNAvgNanos int64
}
