// Package progress renders the search deadline as a terminal progress bar.
package progress

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

const defaultRefresh = 100 * time.Millisecond

// Countdown fills a bar while the search budget elapses and shows the best
// load deviation found so far.
type Countdown struct {
	p     *mpb.Progress
	bar   *mpb.Bar
	stop  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
	best  atomic.Uint64
	found atomic.Bool
}

// Start begins rendering to w. A non-positive budget renders nothing.
func Start(w io.Writer, budget time.Duration) *Countdown {
	c := &Countdown{stop: make(chan struct{})}
	if budget <= 0 {
		return c
	}

	c.p = mpb.New(
		mpb.WithOutput(w),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(defaultRefresh),
	)
	name := "Searching"
	c.bar = c.p.New(budget.Milliseconds(),
		mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.Any(c.remaining(budget), decor.WC{W: 6}), "Done"),
		),
		mpb.AppendDecorators(
			decor.Any(c.bestLabel),
		),
	)

	started := time.Now()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(defaultRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-ticker.C:
				elapsed := time.Since(started).Milliseconds()
				if elapsed > budget.Milliseconds() {
					elapsed = budget.Milliseconds()
				}
				c.bar.SetCurrent(elapsed)
			}
		}
	}()

	return c
}

// Improved records a new best score. It matches the allocator improvement hook.
func (c *Countdown) Improved(score float64) {
	c.best.Store(math.Float64bits(score))
	c.found.Store(true)
}

// Best reports the last score passed to Improved.
func (c *Countdown) Best() (float64, bool) {
	return math.Float64frombits(c.best.Load()), c.found.Load()
}

// Stop completes the bar and waits for rendering to finish. Safe to call twice.
func (c *Countdown) Stop() {
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
		if c.p == nil {
			return
		}
		c.bar.SetTotal(-1, true)
		c.p.Wait()
	})
}

func (c *Countdown) remaining(budget time.Duration) decor.DecorFunc {
	return func(s decor.Statistics) string {
		left := budget - time.Duration(s.Current)*time.Millisecond
		if left < 0 {
			left = 0
		}
		return left.Round(time.Second).String()
	}
}

func (c *Countdown) bestLabel(decor.Statistics) string {
	score, ok := c.Best()
	if !ok {
		return "no allocation yet"
	}
	return fmt.Sprintf("best σ %.2fs", score)
}
