package planner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/sidesplit/internal/allocator"
	"github.com/eugenenazirov/sidesplit/internal/metrics"
	"github.com/eugenenazirov/sidesplit/internal/track"
)

// Planner runs allocation strategies over track lists.
type Planner struct {
	allocators map[Strategy]allocator.Allocator
	recorder   metrics.Recorder
	logger     *zap.Logger
	clock      func() time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithAllocator overrides the allocator used for strategy.
func WithAllocator(strategy Strategy, alloc allocator.Allocator) Option {
	return func(p *Planner) {
		p.allocators[strategy] = alloc
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(p *Planner) {
		if rec != nil {
			p.recorder = rec
		}
	}
}

// WithLogger sets the logger. The default allocators log through it as well.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(p *Planner) {
		p.clock = clock
	}
}

// New creates a Planner with the search and sequential strategies.
func New(opts ...Option) *Planner {
	p := &Planner{
		allocators: make(map[Strategy]allocator.Allocator, 2),
		recorder:   metrics.NewNop(),
		logger:     zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	named := p.logger.Named("allocator")
	if _, ok := p.allocators[StrategySearch]; !ok {
		p.allocators[StrategySearch] = allocator.New(allocator.WithLogger(named))
	}
	if _, ok := p.allocators[StrategySequential]; !ok {
		p.allocators[StrategySequential] = allocator.NewSequential(allocator.WithLogger(named))
	}
	return p
}

// Plan splits req.Tracks across sides. Precondition violations are returned
// as errors; "no solution" and deadline truncation are reported through the
// plan's HasSnapshot and Truncated flags (see Plan.Err).
func (p *Planner) Plan(ctx context.Context, req Request) (Plan, error) {
	strategy, err := ParseStrategy(string(req.Strategy))
	if err != nil {
		return Plan{}, err
	}
	req.Strategy = strategy

	if len(req.Tracks) == 0 {
		return Plan{}, allocator.ErrNoItems
	}
	if req.Capacity <= 0 {
		return Plan{}, allocator.ErrInvalidCapacity
	}
	if req.Sides < 0 {
		return Plan{}, allocator.ErrInvalidSides
	}

	total := track.Total(req.Tracks)
	sides := req.Sides
	if sides == 0 {
		sides = track.RequiredSides(total, req.Capacity, req.Even)
	} else if req.Even && sides%2 == 1 {
		sides++
	}

	ordered := req.Tracks
	if strategy == StrategySearch {
		ordered = track.SortByDuration(req.Tracks)
	}

	logger := p.logger.With(
		zap.String("strategy", string(strategy)),
		zap.Int("tracks", len(ordered)),
		zap.Int("capacity", req.Capacity),
		zap.Int("sides", sides),
	)
	logger.Debug("allocation started",
		zap.String("total", track.FormatTime(total, ":")),
		zap.Int("budget_seconds", req.BudgetSeconds),
		zap.Float64("threshold", req.Threshold),
	)

	res, err := p.allocators[strategy].Allocate(ctx, allocator.Request{
		Durations:     track.Durations(ordered),
		Capacity:      req.Capacity,
		Sides:         sides,
		BudgetSeconds: req.BudgetSeconds,
		Threshold:     req.Threshold,
	})
	if err != nil {
		return Plan{}, err
	}
	p.recorder.ObserveSearch(string(strategy), res)

	plan := Plan{
		Strategy:    strategy,
		Capacity:    req.Capacity,
		SideCount:   sides,
		Total:       total,
		Score:       res.Score,
		HasSnapshot: res.HasSnapshot,
		Truncated:   res.Truncated,
		Stop:        res.Stop,
		Stats:       res.Stats,
		Fingerprint: req.Fingerprint(),
		CreatedAt:   p.clock(),
	}
	if res.HasSnapshot {
		plan.Sides = allocator.Materialize(res.Snapshot, ordered, func(t track.Track) int {
			return t.Seconds
		})
	}

	fields := []zap.Field{
		zap.String("stop", string(res.Stop)),
		zap.Float64("score", res.Score),
		zap.Int64("nodes", res.Stats.Nodes),
		zap.Duration("elapsed", res.Stats.Elapsed),
	}
	switch {
	case !res.HasSnapshot:
		logger.Warn("allocation found no solution", append(fields, zap.Bool("truncated", res.Truncated))...)
	case res.Truncated:
		logger.Warn("allocation truncated by deadline", fields...)
	default:
		logger.Info("allocation finished", fields...)
	}

	return plan, nil
}
