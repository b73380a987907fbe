package allocator

import (
	"context"

	"go.uber.org/zap"
)

// Engine is the backtracking search Allocator.
type Engine struct {
	opts []Option
}

var _ Allocator = (*Engine)(nil)

// New creates the backtracking search Allocator.
func New(opts ...Option) *Engine {
	return &Engine{opts: opts}
}

// Allocate validates req, then searches until the space is exhausted, the
// deadline expires, the threshold is met or ctx is cancelled. The deadline is
// started and terminated within this call. A request threshold overrides the
// engine's WithThreshold option.
func (e *Engine) Allocate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	opts := e.opts
	if req.Threshold > 0 {
		opts = append(append([]Option(nil), e.opts...), WithThreshold(req.Threshold))
	}
	cfg := newOptions(opts)

	deadline := NewDeadline(req.BudgetSeconds, cfg.deadline...)
	deadline.Start(ctx)
	defer func() {
		if !deadline.Terminate() {
			cfg.logger.Warn("deadline countdown did not stop in time")
		}
	}()

	res := NewFinder(req.Durations, req.Capacity, req.Sides, deadline, opts...).Run()
	if res.Truncated && ctx.Err() != nil {
		res.Stop = StopCancelled
	}

	cfg.logger.Debug("search finished",
		zap.String("stop", string(res.Stop)),
		zap.Bool("has_snapshot", res.HasSnapshot),
		zap.Float64("score", res.Score),
		zap.Int64("nodes", res.Stats.Nodes),
		zap.Duration("elapsed", res.Stats.Elapsed),
	)
	return res, nil
}
