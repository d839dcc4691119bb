package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/config"
	"github.com/pthm-cable/curl/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxFrames := flag.Int64("max-frames", 0, "Stop after N frames (0 = unlimited)")
	dt := flag.Float64("dt", 0, "Fixed frame step in seconds (0 = 1/target_fps headless, frame time in graphics mode)")
	workers := flag.Int("workers", 0, "Compute worker goroutines (0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	dev := compute.NewDevice(*workers)
	defer dev.Close()

	sim, err := game.NewSimulation(cfg, dev, nil, game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
	})
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer sim.Release()

	if *headless {
		step := float32(*dt)
		if step <= 0 {
			step = 1 / float32(max(cfg.Screen.TargetFPS, 1))
		}
		runHeadless(sim, step, *maxFrames, rngSeed)
		return
	}

	v := newViewer(sim, cfg)
	defer v.Close()
	v.Run(float32(*dt), *maxFrames)
}

// runHeadless steps the simulation at a fixed dt without a window.
func runHeadless(sim *game.Simulation, dt float32, maxFrames, seed int64) {
	slog.Info("starting headless simulation",
		"seed", seed,
		"dt", dt,
		"max_frames", maxFrames,
		"workers", sim.Device().Workers(),
	)

	start := time.Now()
	for maxFrames <= 0 || sim.Frame() < maxFrames {
		sim.Step(dt)
	}
	sim.Device().Finish()

	st := sim.Stats()
	slog.Info("max frames reached",
		"frame", st.Frame,
		"sim_time", st.Time,
		"alive", st.Alive,
		"capacity", st.Capacity,
		"dispatches", st.Device.Dispatches,
		"wall_ms", time.Since(start).Milliseconds(),
	)
}
