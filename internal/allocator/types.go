package allocator

import (
	"context"
	"math"
	"time"
)

// Request describes one allocation problem. Durations are indexed by item id.
type Request struct {
	Durations     []int
	Capacity      int
	Sides         int
	BudgetSeconds int
	// Threshold stops the search once the best score drops below it. Zero
	// leaves the engine default in place.
	Threshold float64
}

// Validate reports precondition violations. They are rejected before any
// search starts. Durations whose sum overflows an int are invalid.
func (r Request) Validate() error {
	if r.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if r.Sides <= 0 {
		return ErrInvalidSides
	}
	if len(r.Durations) == 0 {
		return ErrNoItems
	}
	if r.Threshold < 0 {
		return ErrInvalidThreshold
	}
	total := 0
	for _, d := range r.Durations {
		if d < 0 || d > math.MaxInt-total {
			return ErrInvalidDuration
		}
		total += d
	}
	return nil
}

// StopReason explains why a search returned.
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopDeadline  StopReason = "deadline"
	StopThreshold StopReason = "threshold"
	StopCancelled StopReason = "cancelled"
)

// Stats counts the work done by one search.
type Stats struct {
	Nodes        int64         `json:"nodes"`
	Completions  int64         `json:"completions"`
	Improvements int64         `json:"improvements"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Result is the outcome of one search. HasSnapshot is false when no complete
// capacity-respecting assignment was reached; Truncated is true when the
// deadline (or the caller's context) cut the search short.
type Result struct {
	Snapshot    Snapshot
	Score       float64
	HasSnapshot bool
	Truncated   bool
	Stop        StopReason
	Stats       Stats
}

// Loads returns the per-side load of the snapshot.
func (r Result) Loads(durations []int) []int {
	loads := make([]int, len(r.Snapshot))
	for side, members := range r.Snapshot {
		for _, id := range members {
			loads[side] += durations[id]
		}
	}
	return loads
}

// Improvement is reported every time a strictly better assignment is found.
type Improvement struct {
	Score   float64
	Node    int64
	Elapsed time.Duration
}

// Allocator describes the behaviour required from an allocation strategy.
type Allocator interface {
	Allocate(ctx context.Context, req Request) (Result, error)
}
