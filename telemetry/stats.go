package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`
	WindowSec        float64 `csv:"window_sec"`
	Frames           int     `csv:"frames"`

	// Pool occupancy at window end
	Alive     int     `csv:"alive"`
	Capacity  int     `csv:"capacity"`
	Occupancy float64 `csv:"occupancy"`

	// Emission during window
	Emitted       int     `csv:"emitted"`
	EmitRate      float64 `csv:"emit_rate"`      // Realised particles per second
	EmitPerFrame  float64 `csv:"emit_per_frame"` // Mean per-frame emission count
	EmitStd       float64 `csv:"emit_std"`
	ClampedFrames int     `csv:"clamped_frames"` // Frames where the emission list was full

	// Age distribution of live particles (sampled at window end)
	AgeMean float64 `csv:"age_mean"`
	AgeStd  float64 `csv:"age_std"`
	AgeP10  float64 `csv:"age_p10"`
	AgeP50  float64 `csv:"age_p50"`
	AgeP90  float64 `csv:"age_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// MeanStd returns the mean and sample standard deviation of values.
// The deviation is 0 for fewer than two values.
func MeanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// ComputeAgeStats calculates mean, std, and percentiles from particle ages.
func ComputeAgeStats(values []float64) (mean, std, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}
	mean, std = MeanStd(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Int("alive", s.Alive),
		slog.Int("capacity", s.Capacity),
		slog.Float64("occupancy", s.Occupancy),
		slog.Int("emitted", s.Emitted),
		slog.Float64("emit_rate", s.EmitRate),
		slog.Float64("emit_per_frame", s.EmitPerFrame),
		slog.Float64("emit_std", s.EmitStd),
		slog.Int("clamped_frames", s.ClampedFrames),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("age_std", s.AgeStd),
		slog.Float64("age_p10", s.AgeP10),
		slog.Float64("age_p50", s.AgeP50),
		slog.Float64("age_p90", s.AgeP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"frames", s.Frames,
		"alive", s.Alive,
		"capacity", s.Capacity,
		"occupancy", s.Occupancy,
		"emitted", s.Emitted,
		"emit_rate", s.EmitRate,
		"emit_per_frame", s.EmitPerFrame,
		"emit_std", s.EmitStd,
		"clamped_frames", s.ClampedFrames,
		"age_mean", s.AgeMean,
		"age_std", s.AgeStd,
		"age_p10", s.AgeP10,
		"age_p50", s.AgeP50,
		"age_p90", s.AgeP90,
	)
}
