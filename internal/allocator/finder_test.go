package allocator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type alwaysActive struct{}

func (alwaysActive) Active() bool { return true }

// countdown is an Activity that expires after a fixed number of polls.
type countdown struct {
	polls int
	left  int
}

func (c *countdown) Active() bool {
	c.polls++
	if c.left <= 0 {
		return false
	}
	c.left--
	return true
}

var exampleDurations = []int{500, 400, 300, 200, 100}

func mixedDurations() []int {
	return []int{610, 540, 480, 455, 390, 305, 270, 240, 180, 95}
}

func requireValidSnapshot(t *testing.T, snap Snapshot, durations []int, capacity, sides int) {
	t.Helper()

	require.Len(t, snap, sides)
	seen := make([]int, len(durations))
	for i, members := range snap {
		load := 0
		for _, id := range members {
			seen[id]++
			load += durations[id]
		}
		require.LessOrEqual(t, load, capacity, "side %d over capacity", i)
	}
	for id, count := range seen {
		require.Equal(t, 1, count, "item %d placed %d times", id, count)
	}
}

func TestEngineBalancedExample(t *testing.T) {
	t.Parallel()

	res, err := New(WithLogger(zaptest.NewLogger(t))).Allocate(context.Background(), Request{
		Durations:     exampleDurations,
		Capacity:      600,
		Sides:         3,
		BudgetSeconds: 30,
	})
	require.NoError(t, err)

	require.True(t, res.HasSnapshot)
	require.False(t, res.Truncated)
	require.Equal(t, StopExhausted, res.Stop)
	require.Zero(t, res.Score)
	require.Equal(t, Snapshot{{0}, {2, 3}, {1, 4}}, res.Snapshot)
	require.Equal(t, []int{500, 500, 500}, res.Loads(exampleDurations))
	requireValidSnapshot(t, res.Snapshot, exampleDurations, 600, 3)
	require.Positive(t, res.Stats.Nodes)
	require.Positive(t, res.Stats.Completions)
	require.EqualValues(t, 1, res.Stats.Improvements)
}

func TestEngineInfeasibleItem(t *testing.T) {
	t.Parallel()

	for _, sides := range []int{1, 2, 5} {
		res, err := New().Allocate(context.Background(), Request{
			Durations:     []int{700},
			Capacity:      600,
			Sides:         sides,
			BudgetSeconds: 30,
		})
		require.NoError(t, err)
		require.False(t, res.HasSnapshot)
		require.False(t, res.Truncated)
		require.Equal(t, StopExhausted, res.Stop)
		require.Nil(t, res.Snapshot)
	}
}

func TestEngineZeroBudget(t *testing.T) {
	t.Parallel()

	res, err := New().Allocate(context.Background(), Request{
		Durations:     exampleDurations,
		Capacity:      600,
		Sides:         3,
		BudgetSeconds: 0,
	})
	require.NoError(t, err)
	require.False(t, res.HasSnapshot)
	require.True(t, res.Truncated)
	require.Equal(t, StopDeadline, res.Stop)
}

func TestEngineCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New().Allocate(ctx, Request{
		Durations:     exampleDurations,
		Capacity:      600,
		Sides:         3,
		BudgetSeconds: 30,
	})
	require.NoError(t, err)
	require.True(t, res.Truncated)
	require.Equal(t, StopCancelled, res.Stop)
}

func TestEngineValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{name: "ZeroCapacity", req: Request{Durations: []int{1}, Capacity: 0, Sides: 1}, want: ErrInvalidCapacity},
		{name: "ZeroSides", req: Request{Durations: []int{1}, Capacity: 10, Sides: 0}, want: ErrInvalidSides},
		{name: "NoItems", req: Request{Capacity: 10, Sides: 1}, want: ErrNoItems},
		{name: "NegativeDuration", req: Request{Durations: []int{1, -1}, Capacity: 10, Sides: 1}, want: ErrInvalidDuration},
		{name: "TotalOverflows", req: Request{Durations: []int{math.MaxInt, math.MaxInt}, Capacity: math.MaxInt, Sides: 1}, want: ErrInvalidDuration},
		{name: "NegativeThreshold", req: Request{Durations: []int{1}, Capacity: 10, Sides: 1, Threshold: -1}, want: ErrInvalidThreshold},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := New().Allocate(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.want)

			_, err = NewSequential().Allocate(context.Background(), tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestFinderRejectsOverflowingLoad(t *testing.T) {
	t.Parallel()

	res := NewFinder([]int{math.MaxInt, math.MaxInt}, math.MaxInt, 1, alwaysActive{}).Run()
	require.False(t, res.HasSnapshot)
	require.Equal(t, StopExhausted, res.Stop)

	res = NewFinder([]int{math.MaxInt, math.MaxInt}, math.MaxInt, 2, alwaysActive{}).Run()
	require.True(t, res.HasSnapshot)
	require.Zero(t, res.Score)
	require.Equal(t, []int{math.MaxInt, math.MaxInt}, res.Loads([]int{math.MaxInt, math.MaxInt}))
}

func TestFinderCapacityAndCompleteness(t *testing.T) {
	t.Parallel()

	durations := mixedDurations()
	res := NewFinder(durations, 1300, 3, alwaysActive{}).Run()

	require.True(t, res.HasSnapshot)
	require.Equal(t, StopExhausted, res.Stop)
	requireValidSnapshot(t, res.Snapshot, durations, 1300, 3)
}

func TestFinderIsDeterministic(t *testing.T) {
	t.Parallel()

	durations := mixedDurations()
	first := NewFinder(durations, 1300, 3, alwaysActive{}).Run()
	second := NewFinder(durations, 1300, 3, alwaysActive{}).Run()

	require.Equal(t, first.Snapshot, second.Snapshot)
	require.Equal(t, first.Score, second.Score)
	require.Equal(t, first.Stats.Nodes, second.Stats.Nodes)
}

func TestFinderScoreIsMonotonic(t *testing.T) {
	t.Parallel()

	var scores []float64
	res := NewFinder(mixedDurations(), 1300, 3, alwaysActive{},
		WithImprovementHook(func(imp Improvement) {
			scores = append(scores, imp.Score)
		}),
	).Run()

	require.NotEmpty(t, scores)
	for i := 1; i < len(scores); i++ {
		require.Less(t, scores[i], scores[i-1], "scores %v", scores)
	}
	require.Equal(t, scores[len(scores)-1], res.Score)
	require.EqualValues(t, len(scores), res.Stats.Improvements)
}

func TestFinderMatchesBruteForceOptimum(t *testing.T) {
	t.Parallel()

	durations := mixedDurations()
	const capacity, sides = 1300, 3

	best := -1.0
	assign := make([]int, len(durations))
	var walk func(i int)
	walk = func(i int) {
		if i == len(durations) {
			loads := make([]int, sides)
			for id, s := range assign {
				loads[s] += durations[id]
			}
			for _, l := range loads {
				if l > capacity {
					return
				}
			}
			if score := Deviation(loads); best < 0 || score < best {
				best = score
			}
			return
		}
		for s := 0; s < sides; s++ {
			assign[i] = s
			walk(i + 1)
		}
	}
	walk(0)

	res := NewFinder(durations, capacity, sides, alwaysActive{}).Run()
	require.InDelta(t, best, res.Score, 1e-9)
}

func TestFinderPollsDeadlineOnEveryCall(t *testing.T) {
	t.Parallel()

	act := &countdown{left: 4}
	res := NewFinder(mixedDurations(), 1300, 3, act).Run()

	require.True(t, res.Truncated)
	require.Equal(t, StopDeadline, res.Stop)
	require.False(t, res.HasSnapshot)
	require.EqualValues(t, act.polls, res.Stats.Nodes)
	require.Equal(t, 5, act.polls)
}

func TestFinderThresholdStopsEarly(t *testing.T) {
	t.Parallel()

	exhaustive := NewFinder(mixedDurations(), 1300, 3, alwaysActive{}).Run()
	early := NewFinder(mixedDurations(), 1300, 3, alwaysActive{}, WithThreshold(1e9)).Run()

	require.Equal(t, StopThreshold, early.Stop)
	require.False(t, early.Truncated)
	require.True(t, early.HasSnapshot)
	require.EqualValues(t, 1, early.Stats.Completions)
	require.Less(t, early.Stats.Nodes, exhaustive.Stats.Nodes)
	requireValidSnapshot(t, early.Snapshot, mixedDurations(), 1300, 3)
}

func TestFinderBestBeforeRun(t *testing.T) {
	t.Parallel()

	f := NewFinder(exampleDurations, 600, 3, alwaysActive{})
	_, _, ok := f.Best()
	require.False(t, ok)

	f.Run()
	snap, score, ok := f.Best()
	require.True(t, ok)
	require.Zero(t, score)
	requireValidSnapshot(t, snap, exampleDurations, 600, 3)
}

func TestEngineDeadlineTruncatesLargeSearch(t *testing.T) {
	t.Parallel()

	durations := make([]int, 24)
	total := 0
	for i := range durations {
		durations[i] = 600 - i*7
		total += durations[i]
	}

	start := time.Now()
	res, err := New(WithDeadlineTick(20*time.Millisecond)).Allocate(context.Background(), Request{
		Durations:     durations,
		Capacity:      total,
		Sides:         4,
		BudgetSeconds: 2,
	})
	require.NoError(t, err)

	require.True(t, res.Truncated)
	require.Equal(t, StopDeadline, res.Stop)
	require.True(t, res.HasSnapshot, "a complete assignment is reachable before the deadline")
	requireValidSnapshot(t, res.Snapshot, durations, total, 4)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestEngineRequestThreshold(t *testing.T) {
	t.Parallel()

	res, err := New().Allocate(context.Background(), Request{
		Durations:     mixedDurations(),
		Capacity:      1300,
		Sides:         3,
		BudgetSeconds: 30,
		Threshold:     1e9,
	})
	require.NoError(t, err)
	require.Equal(t, StopThreshold, res.Stop)
	require.EqualValues(t, 1, res.Stats.Completions)
}
