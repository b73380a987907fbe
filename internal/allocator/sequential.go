package allocator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sequential keeps items in their given order and cuts the sequence into
// contiguous runs. It binary searches the shortest side length for which a
// greedy in-order fill needs no more than the requested number of sides.
type Sequential struct {
	opts []Option
}

var _ Allocator = (*Sequential)(nil)

// NewSequential creates the order-preserving Allocator.
func NewSequential(opts ...Option) *Sequential {
	return &Sequential{opts: opts}
}

// Allocate validates req and splits the items in order. The same deadline
// rules as the search engine apply: the binary search stops probing lengths
// once the budget runs out and returns the best split found so far.
func (s *Sequential) Allocate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	opts := s.opts
	if req.Threshold > 0 {
		opts = append(append([]Option(nil), s.opts...), WithThreshold(req.Threshold))
	}
	cfg := newOptions(opts)

	deadline := NewDeadline(req.BudgetSeconds, cfg.deadline...)
	deadline.Start(ctx)
	defer deadline.Terminate()

	started := time.Now()
	res := s.split(req, deadline, cfg, started)
	res.Stats.Elapsed = time.Since(started)
	if res.Truncated && ctx.Err() != nil {
		res.Stop = StopCancelled
	}

	cfg.logger.Debug("sequential split finished",
		zap.String("stop", string(res.Stop)),
		zap.Bool("has_snapshot", res.HasSnapshot),
		zap.Float64("score", res.Score),
		zap.Int64("probes", res.Stats.Nodes),
	)
	return res, nil
}

func (s *Sequential) split(req Request, deadline Activity, cfg options, started time.Time) Result {
	res := Result{Stop: StopExhausted}

	total, longest := 0, 0
	for _, d := range req.Durations {
		total += d
		if d > longest {
			longest = d
		}
	}

	lo := total / req.Sides
	if total%req.Sides != 0 {
		lo++
	}
	if lo < longest {
		lo = longest
	}
	hi := req.Capacity
	if lo > hi {
		return res
	}

	accept := func(snap Snapshot) bool {
		next := Result{Snapshot: snap}
		score := Deviation(next.Loads(req.Durations))
		res.Snapshot = snap
		res.Score = score
		res.HasSnapshot = true
		res.Stats.Improvements++
		imp := Improvement{Score: score, Node: res.Stats.Nodes, Elapsed: time.Since(started)}
		if cfg.onImprove != nil {
			cfg.onImprove(imp)
		}
		return cfg.threshold > 0 && score < cfg.threshold
	}

	probe := func(length int) Snapshot {
		res.Stats.Nodes++
		return packInOrder(req.Durations, length, req.Sides)
	}

	if !deadline.Active() {
		res.Truncated = true
		res.Stop = StopDeadline
		return res
	}
	snap := probe(hi)
	if snap == nil {
		return res
	}
	res.Stats.Completions++
	if accept(snap) {
		res.Stop = StopThreshold
		return res
	}

	for lo < hi {
		if !deadline.Active() {
			res.Truncated = true
			res.Stop = StopDeadline
			return res
		}
		mid := lo + (hi-lo)/2
		snap := probe(mid)
		if snap == nil {
			lo = mid + 1
			continue
		}
		res.Stats.Completions++
		hi = mid
		if accept(snap) {
			res.Stop = StopThreshold
			return res
		}
	}
	return res
}

// packInOrder fills sides greedily in item order without letting any side
// exceed length. It returns nil when more than sides sides would be needed.
// Unused trailing sides are left empty.
func packInOrder(durations []int, length, sides int) Snapshot {
	snap := make(Snapshot, sides)
	current, load := 0, 0
	for id, d := range durations {
		if d > length {
			return nil
		}
		if d > length-load && len(snap[current]) > 0 {
			current++
			load = 0
			if current == sides {
				return nil
			}
		}
		snap[current] = append(snap[current], id)
		load += d
	}
	for i := range snap {
		if snap[i] == nil {
			snap[i] = []int{}
		}
	}
	return snap
}
