package game

import "log/slog"

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (s *Simulation) flushTelemetry() {
	if !s.collector.ShouldFlush(s.time) {
		return
	}

	ages := s.sampleAges()
	stats := s.collector.Flush(s.frame, s.time, len(ages), s.store.Capacity(), ages)
	perfStats := s.perf.Stats()

	if s.statsCallback != nil {
		s.statsCallback(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if s.outputManager != nil {
		if err := s.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.outputManager.WritePerf(perfStats, stats.WindowEndFrame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range s.bookmarkDetector.Check(stats) {
		if s.logStats {
			bm.LogBookmark()
		}
		if s.outputManager != nil {
			if err := s.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// sampleAges collects the ages of live particles from the host mirror.
func (s *Simulation) sampleAges() []float64 {
	s.ages = s.ages[:0]
	for _, p := range s.store.Host() {
		if p.Alive() {
			s.ages = append(s.ages, float64(p.Age))
		}
	}
	return s.ages
}
