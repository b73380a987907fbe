package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/eugenenazirov/sidesplit/internal/allocator"
	"github.com/eugenenazirov/sidesplit/internal/track"
)

// Strategy selects the allocator used for a plan.
type Strategy string

const (
	// StrategySearch balances sides with the backtracking search; track order is not kept.
	StrategySearch Strategy = "search"
	// StrategySequential keeps the track order and cuts it into contiguous sides.
	StrategySequential Strategy = "sequential"
)

// ParseStrategy accepts a strategy name; the empty string selects search.
func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", StrategySearch:
		return StrategySearch, nil
	case StrategySequential:
		return StrategySequential, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, raw)
	}
}

// Request describes the tracks to split and the constraints to honour.
// A zero Sides derives the count from the total duration and Capacity.
type Request struct {
	Tracks        []track.Track
	Capacity      int
	Sides         int
	Even          bool
	BudgetSeconds int
	Threshold     float64
	Strategy      Strategy
}

// Fingerprint identifies requests that produce the same untruncated plan.
// The deadline budget is left out because it only matters when a search is
// cut short.
func (r Request) Fingerprint() uint64 {
	buf := make([]byte, 0, 64+len(r.Tracks)*32)
	buf = append(buf, r.Strategy...)
	buf = append(buf, 0)
	buf = strconv.AppendInt(buf, int64(r.Capacity), 10)
	buf = append(buf, 0)
	buf = strconv.AppendInt(buf, int64(r.Sides), 10)
	buf = append(buf, 0)
	buf = strconv.AppendBool(buf, r.Even)
	buf = append(buf, 0)
	buf = strconv.AppendFloat(buf, r.Threshold, 'g', -1, 64)
	for _, t := range r.Tracks {
		buf = append(buf, 0)
		buf = strconv.AppendInt(buf, int64(t.Seconds), 10)
		buf = append(buf, 0)
		// length prefix keeps titles containing NUL from merging with the next track
		buf = strconv.AppendInt(buf, int64(len(t.Title)), 10)
		buf = append(buf, ':')
		buf = append(buf, t.Title...)
	}
	return xxh3.Hash(buf)
}

// Plan is a materialized allocation ready for presentation.
type Plan struct {
	ID          string                         `json:"id,omitempty"`
	Strategy    Strategy                       `json:"strategy"`
	Capacity    int                            `json:"capacity"`
	SideCount   int                            `json:"sideCount"`
	Total       int                            `json:"total"`
	Sides       []allocator.Group[track.Track] `json:"sides"`
	Score       float64                        `json:"score"`
	HasSnapshot bool                           `json:"hasSnapshot"`
	Truncated   bool                           `json:"truncated"`
	Stop        allocator.StopReason           `json:"stop"`
	Stats       allocator.Stats                `json:"stats"`
	Fingerprint uint64                         `json:"-"`
	CreatedAt   time.Time                      `json:"createdAt"`
}

// Err maps a plan without a snapshot to ErrNoSolution or ErrNoSolutionInTime.
// A truncated plan with a snapshot is a degraded success and returns nil.
func (p Plan) Err() error {
	switch {
	case p.HasSnapshot:
		return nil
	case p.Truncated:
		return ErrNoSolutionInTime
	default:
		return ErrNoSolution
	}
}

// Clone returns a copy that shares no slices with p.
func (p Plan) Clone() Plan {
	out := p
	if p.Sides != nil {
		out.Sides = make([]allocator.Group[track.Track], len(p.Sides))
		for i, g := range p.Sides {
			g.Items = append([]track.Track(nil), g.Items...)
			out.Sides[i] = g
		}
	}
	return out
}
