package factorec

import (
	"github.com/hupe1980/factorec/exclusion"
	"github.com/hupe1980/factorec/rescore"
)

type options struct {
	hard             exclusion.Set
	hardSnapshot     bool
	rescorer         rescore.Rescorer
	logger           *Logger
	metricsCollector MetricsCollector
	concurrency      int
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

// Option configures an Iterator or a TopN selection.
type Option func(*options)

// WithHardExclusions configures the hard exclusion set, typically the items
// a user already knows. The set may be shared with concurrent runs if it is
// safe for concurrent use (see exclusion.SharedSet).
//
// If nil is passed, no hard exclusions apply.
func WithHardExclusions(s exclusion.Set) Option {
	return func(o *options) {
		o.hard = s
	}
}

// WithHardSnapshot makes each iterator copy a *exclusion.SharedSet hard set
// when it is created and test membership against that copy without locking.
// Writes made to the shared set after creation are not observed.
// Has no effect on other Set implementations.
func WithHardSnapshot() Option {
	return func(o *options) {
		o.hardSnapshot = true
	}
}

// WithRescorer configures a rescorer applied to each non-excluded item.
//
// If nil is passed, raw scores are emitted unchanged.
func WithRescorer(r rescore.Rescorer) Option {
	return func(o *options) {
		o.rescorer = r
	}
}

// WithLogger configures the logger.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring scans.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &factorec.BasicMetricsCollector{}
//	it, _ := factorec.NewIterator(queries, items, exclusion.Empty,
//	    factorec.WithMetricsCollector(metrics))
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithConcurrency bounds the number of partitions TopN scores at once.
// Values <= 0 mean one goroutine per partition.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}
