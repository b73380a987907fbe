package progress

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vbauerster/mpb/v8/decor"
)

func TestCountdownZeroBudget(t *testing.T) {
	t.Parallel()

	c := Start(io.Discard, 0)
	c.Improved(3.5)
	c.Stop()
	c.Stop()

	score, ok := c.Best()
	require.True(t, ok)
	require.Equal(t, 3.5, score)
}

func TestCountdownStopBeforeBudget(t *testing.T) {
	t.Parallel()

	c := Start(io.Discard, time.Minute)
	_, ok := c.Best()
	require.False(t, ok)

	c.Improved(12.25)
	c.Improved(4)

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	score, ok := c.Best()
	require.True(t, ok)
	require.Equal(t, 4.0, score)
	require.Contains(t, c.bestLabel(decor.Statistics{}), "4.00")
}
