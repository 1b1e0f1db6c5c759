package app

import (
	"time"

	"github.com/charmbracelet/harmonica"
)

// MaxFrameDelta caps variable frame steps so a stall does not fling the
// camera across the level.
const MaxFrameDelta = 0.1

// Clock turns wall time into per-frame deltas.
type Clock struct {
	fixed bool
	step  float64
	last  time.Time
}

// NewClock creates a clock for the given frame rate. In fixed mode every
// tick is exactly 1/fps seconds.
func NewClock(fps int, fixed bool) *Clock {
	return &Clock{
		fixed: fixed,
		step:  harmonica.FPS(fps),
	}
}

// Step returns the fixed frame step in seconds.
func (c *Clock) Step() float64 {
	return c.step
}

// Interval is the wall time between frames.
func (c *Clock) Interval() time.Duration {
	return time.Duration(c.step * float64(time.Second))
}

// Tick returns the delta for a frame starting at now. The first tick and
// backwards clock jumps yield zero.
func (c *Clock) Tick(now time.Time) float64 {
	if c.fixed {
		c.last = now
		return c.step
	}
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	dt := now.Sub(c.last).Seconds()
	c.last = now
	return min(max(dt, 0), MaxFrameDelta)
}
