package telemetry

// Collector accumulates per-frame emission counts within time windows and
// produces WindowStats. Frames have variable dt, so windows are measured in
// simulation seconds rather than ticks.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartFrame int64
	windowStartTime  float64

	// Per-frame samples for the current window
	emitCounts    []float64
	emitted       int
	clampedFrames int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 1
	}
	return &Collector{windowDurationSec: windowDurationSec}
}

// RecordFrame records one frame's emission count. clamped marks a frame
// whose request exceeded the emission list capacity.
func (c *Collector) RecordFrame(emitted int, clamped bool) {
	c.emitCounts = append(c.emitCounts, float64(emitted))
	c.emitted += emitted
	if clamped {
		c.clampedFrames++
	}
}

// ShouldFlush returns true once the window has covered its duration.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowDurationSec
}

// Flush produces a WindowStats and resets counters for the next window.
// alive and capacity describe the particle pool at frame; ages holds the
// ages of its live particles.
func (c *Collector) Flush(frame int64, simTime float64, alive, capacity int, ages []float64) WindowStats {
	elapsed := simTime - c.windowStartTime

	var rate float64
	if elapsed > 0 {
		rate = float64(c.emitted) / elapsed
	}
	var occupancy float64
	if capacity > 0 {
		occupancy = float64(alive) / float64(capacity)
	}

	emitMean, emitStd := MeanStd(c.emitCounts)
	ageMean, ageStd, p10, p50, p90 := ComputeAgeStats(ages)

	stats := WindowStats{
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,
		SimTimeSec:       simTime,
		WindowSec:        elapsed,
		Frames:           len(c.emitCounts),

		Alive:     alive,
		Capacity:  capacity,
		Occupancy: occupancy,

		Emitted:       c.emitted,
		EmitRate:      rate,
		EmitPerFrame:  emitMean,
		EmitStd:       emitStd,
		ClampedFrames: c.clampedFrames,

		AgeMean: ageMean,
		AgeStd:  ageStd,
		AgeP10:  p10,
		AgeP50:  p50,
		AgeP90:  p90,
	}

	// Reset for next window
	c.windowStartFrame = frame
	c.windowStartTime = simTime
	c.emitCounts = c.emitCounts[:0]
	c.emitted = 0
	c.clampedFrames = 0

	return stats
}

// WindowDurationSec returns the window length in simulation seconds.
func (c *Collector) WindowDurationSec() float64 {
	return c.windowDurationSec
}
