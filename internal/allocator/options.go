package allocator

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the search engine.
type Option func(*options)

type options struct {
	threshold float64
	onImprove func(Improvement)
	logger    *zap.Logger
	deadline  []DeadlineOption
}

func newOptions(opts []Option) options {
	cfg := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithThreshold stops the search once the best score drops below threshold.
// Zero (the default) disables early stopping.
func WithThreshold(threshold float64) Option {
	return func(o *options) {
		if threshold > 0 {
			o.threshold = threshold
		}
	}
}

// WithImprovementHook is called synchronously on every strict improvement.
func WithImprovementHook(fn func(Improvement)) Option {
	return func(o *options) {
		o.onImprove = fn
	}
}

// WithLogger sets the logger used for search progress.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDeadlineTick overrides the deadline tick, primarily for tests.
func WithDeadlineTick(d time.Duration) Option {
	return func(o *options) {
		o.deadline = append(o.deadline, WithTick(d))
	}
}
