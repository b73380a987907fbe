package allocator

import (
	"math"
	"time"

	"go.uber.org/zap"
)

// Activity is the part of a Deadline the search polls.
type Activity interface {
	Active() bool
}

// Finder runs one backtracking search over a fixed item table. It is not safe
// for concurrent use; create one per search.
type Finder struct {
	durations []int
	capacity  int
	threshold float64
	deadline  Activity
	onImprove func(Improvement)
	logger    *zap.Logger

	sides  []side
	orders [][]int
	loads  []int

	best      Snapshot
	bestScore float64
	hasBest   bool

	truncated bool
	satisfied bool

	started time.Time
	stats   Stats
}

// NewFinder prepares a search placing durations into sideCount sides of the
// given capacity. Item ids are indexes into durations.
func NewFinder(durations []int, capacity, sideCount int, deadline Activity, opts ...Option) *Finder {
	cfg := newOptions(opts)
	return &Finder{
		durations: durations,
		capacity:  capacity,
		threshold: cfg.threshold,
		deadline:  deadline,
		onImprove: cfg.onImprove,
		logger:    cfg.logger,
		sides:     newSides(sideCount, len(durations)),
		orders:    probeTable(len(durations), sideCount),
		loads:     make([]int, 0, sideCount),
		bestScore: math.Inf(1),
	}
}

// Run searches from the first item with every side empty and returns the
// best complete assignment found.
func (f *Finder) Run() Result {
	f.started = time.Now()
	f.look(0)
	f.stats.Elapsed = time.Since(f.started)

	res := Result{
		HasSnapshot: f.hasBest,
		Truncated:   f.truncated,
		Stop:        StopExhausted,
		Stats:       f.stats,
	}
	switch {
	case f.truncated:
		res.Stop = StopDeadline
	case f.satisfied:
		res.Stop = StopThreshold
	}
	if f.hasBest {
		res.Snapshot = f.best.Clone()
		res.Score = f.bestScore
	}
	return res
}

// Best returns the current best snapshot and its score.
func (f *Finder) Best() (Snapshot, float64, bool) {
	if !f.hasBest {
		return nil, 0, false
	}
	return f.best.Clone(), f.bestScore, true
}

func (f *Finder) stopped() bool {
	return f.truncated || f.satisfied
}

func (f *Finder) look(item int) {
	f.stats.Nodes++

	if !f.deadline.Active() {
		f.truncated = true
		return
	}
	if f.hasBest && f.bestScore < f.threshold {
		f.satisfied = true
		return
	}

	if item == len(f.durations) {
		f.complete()
		return
	}

	seconds := f.durations[item]
	for _, idx := range f.orders[item] {
		s := &f.sides[idx]
		if seconds > f.capacity-s.load {
			continue
		}
		f.descend(s, item, seconds)
		if f.stopped() {
			return
		}
	}
}

func (f *Finder) descend(s *side, item, seconds int) {
	s.push(item, seconds)
	defer s.pop()
	f.look(item + 1)
}

func (f *Finder) complete() {
	f.stats.Completions++

	f.loads = sideLoads(f.sides, f.loads)
	score := Deviation(f.loads)
	if f.hasBest && score >= f.bestScore {
		return
	}

	next := make(Snapshot, len(f.sides))
	for i := range f.sides {
		next[i] = append(make([]int, 0, len(f.sides[i].members)), f.sides[i].members...)
	}
	f.best = next
	f.bestScore = score
	f.hasBest = true
	f.stats.Improvements++

	imp := Improvement{Score: score, Node: f.stats.Nodes, Elapsed: time.Since(f.started)}
	f.logger.Debug("improved allocation",
		zap.Float64("score", imp.Score),
		zap.Int64("node", imp.Node),
		zap.Duration("elapsed", imp.Elapsed),
	)
	if f.onImprove != nil {
		f.onImprove(imp)
	}
}
