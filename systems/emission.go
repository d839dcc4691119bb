package systems

import "math"

// maxConsume bounds one frame's emission count so it always fits an int.
const maxConsume = math.MaxInt32

// EmissionController converts a continuous emission rate into whole
// emission events per frame. The fractional remainder carries over, so the
// long-run average matches the rate regardless of frame-time jitter.
type EmissionController struct {
	rate        float64
	accumulator float64
}

// NewEmissionController creates a controller emitting rate particles per second.
func NewEmissionController(rate float64) *EmissionController {
	c := &EmissionController{}
	c.Configure(rate)
	return c
}

// Configure sets the emission rate in particles per second.
// Negative and non-finite rates are treated as zero.
func (c *EmissionController) Configure(rate float64) {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 0
	}
	c.rate = rate
}

// Rate returns the configured particles per second.
func (c *EmissionController) Rate() float64 { return c.rate }

// Pending returns the fractional emission carried to the next frame.
func (c *EmissionController) Pending() float64 { return c.accumulator }

// Consume advances the accumulator by rate*dt and returns the whole number
// of emissions due this frame, at most maxConsume. That count is subtracted
// from the accumulator.
func (c *EmissionController) Consume(dt float64) int {
	if dt > 0 && !math.IsInf(dt, 0) {
		c.accumulator += c.rate * dt
	}
	if math.IsNaN(c.accumulator) || math.IsInf(c.accumulator, 0) {
		c.accumulator = 0
	}
	n := math.Floor(c.accumulator)
	if n <= 0 {
		return 0
	}
	if n > maxConsume {
		n = maxConsume
	}
	c.accumulator -= n
	return int(n)
}

// Reset discards any carried fraction.
func (c *EmissionController) Reset() {
	c.accumulator = 0
}
