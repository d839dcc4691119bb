package game

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pthm-cable/curl/systems"
)

// kernelNames resolves device labels for the perf log.
var kernelNames = systems.NewKernelRegistry()

// logWriter is the destination for log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// LogPerfStats logs host frame timing and cumulative device kernel time.
func (s *Simulation) LogPerfStats() {
	perf := s.perf.Stats()
	Logf("=== Perf @ Frame %d | FPS: %.0f ===", s.frame, perf.FPS)
	Logf("Host frame time: %s", perf.AvgTickDuration.Round(time.Microsecond))

	names := make([]string, 0, len(perf.PhaseAvg))
	for name := range perf.PhaseAvg {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return perf.PhaseAvg[names[i]] > perf.PhaseAvg[names[j]]
	})
	for _, name := range names {
		Logf("  %-12s %10s  %5.1f%%", name, perf.PhaseAvg[name].Round(time.Microsecond), perf.PhasePct[name])
	}

	dev := s.dev.Stats()
	var kernelTotal time.Duration
	for _, d := range dev.KernelTime {
		kernelTotal += d
	}
	Logf("  --- Device (%d dispatches, %d live resources) ---", dev.Dispatches, dev.LiveResources)
	kernels := make([]string, 0, len(dev.KernelTime))
	for name := range dev.KernelTime {
		kernels = append(kernels, name)
	}
	sort.Strings(kernels)
	for _, name := range kernels {
		d := dev.KernelTime[name]
		pct := float64(0)
		if kernelTotal > 0 {
			pct = float64(d) / float64(kernelTotal) * 100
		}
		Logf("    %-24s %10s  %5.1f%%", kernelNames.Name(name), d.Round(time.Microsecond), pct)
	}
	Logf("")
}

// LogWorldState logs the particle pool and scene.
func (s *Simulation) LogWorldState() {
	st := s.Stats()
	var minAge, maxAge, sumAge float32
	minAge = -1
	for _, p := range s.Host() {
		if !p.Alive() {
			continue
		}
		if minAge < 0 || p.Age < minAge {
			minAge = p.Age
		}
		if p.Age > maxAge {
			maxAge = p.Age
		}
		sumAge += p.Age
	}
	avgAge := float32(0)
	if st.Alive > 0 {
		avgAge = sumAge / float32(st.Alive)
	} else {
		minAge = 0
	}

	Logf("=== Frame %d | t=%.2fs ===", st.Frame, st.Time)
	Logf("Particles: %d/%d alive (%.1f%%), emitted %d last frame at %.1f/s",
		st.Alive, st.Capacity, 100*float64(st.Alive)/float64(max(st.Capacity, 1)), st.Emitted, st.EmitRate)
	Logf("Age: min=%.2f avg=%.2f max=%.2f", minAge, avgAge, maxAge)
	Logf("Scene: %d emitters, %d obstacles", len(s.scene.Emitters()), len(s.scene.Obstacles()))
	Logf("")
}
