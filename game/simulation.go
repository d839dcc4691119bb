package game

import (
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/config"
	"github.com/pthm-cable/curl/systems"
	"github.com/pthm-cable/curl/telemetry"
)

// Options configures a Simulation beyond the YAML config.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string

	// StatsCallback, if set, receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// allocKey holds the parameters that size device resources. Any change
// tears everything down and reallocates.
type allocKey struct {
	capacity     int
	emitCapacity int
	textureSize  int
	maxObstacles int
}

// FrameStats is a snapshot of the simulation counters after a frame.
type FrameStats struct {
	Frame        int64
	Time         float64
	Emitted      int
	Alive        int
	Capacity     int
	EmitCapacity int
	EmitRate     float64
	Device       compute.DeviceStats
}

// Simulation advances the particle system one frame per Step. Every stage is
// enqueued on the device without waiting; queue order alone makes each
// stage see the writes of the one before it.
type Simulation struct {
	cfg   *config.Config
	dev   *compute.Device
	scene *Scene
	rng   *rand.Rand

	ctrl *systems.EmissionController

	// Device resources, nil until the first frame
	store     *systems.ParticleStore
	slots     *systems.EmitSlots
	field     *systems.PotentialField
	obstacles *systems.ObstacleUploader
	alloc     allocKey

	// Flow bias, reloaded when its path or size changes
	bias     *compute.Texture
	biasPath string
	biasSize int

	noiseKind string
	noiseSeed int64
	noise     systems.NoiseSource

	uniforms    systems.FieldUniforms
	frame       int64
	time        float64
	lastEmitted int

	// Telemetry
	perf             *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsCallback    func(telemetry.WindowStats)
	ages             []float64

	released bool
}

// NewSimulation creates a simulation over dev. Device resources are
// allocated lazily by the first Step. The config is cloned; later changes
// go through SetConfig.
func NewSimulation(cfg *config.Config, dev *compute.Device, scene *Scene, opts Options) (*Simulation, error) {
	if scene == nil {
		scene = NewSceneFromConfig(cfg.Scene)
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		dev:              dev,
		scene:            scene,
		rng:              rand.New(rand.NewSource(opts.Seed)),
		ctrl:             systems.NewEmissionController(0),
		perf:             telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:        telemetry.NewCollector(statsWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		outputManager:    om,
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
	}
	s.SetConfig(cfg)

	if err := om.WriteConfig(s.cfg); err != nil {
		om.Close()
		return nil, err
	}
	return s, nil
}

// SetConfig replaces the configuration read by subsequent frames.
// Capacity or resolution changes take effect at the next Step.
func (s *Simulation) SetConfig(cfg *config.Config) {
	c := cfg.Clone()
	c.Sanitize()
	s.cfg = c
}

// Config returns the configuration in effect.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Scene returns the emitter and obstacle scene.
func (s *Simulation) Scene() *Scene { return s.scene }

// Step advances the simulation by dt seconds.
func (s *Simulation) Step(dt float32) {
	if s.released {
		panic("game: Step on a released simulation")
	}
	if dt < 0 {
		dt = 0
	}
	cfg := s.cfg
	s.perf.StartTick()

	// (1) resources and (2) field-transform uniforms
	s.perf.StartPhase(telemetry.PhaseField)
	s.ensureResources()
	s.time += float64(dt)
	size := s.field.Size()
	s.uniforms = systems.NewFieldUniforms(cfg.Field, size, size, s.time)

	// (3) potential precompute
	s.field.Dispatch(s.dev, s.uniforms)

	// (4) slot selection and upload, (5) emit scatter into this frame's input
	s.perf.StartPhase(telemetry.PhaseEmit)
	s.ctrl.Configure(cfg.Particles.EmitRate)
	clamped := int(s.ctrl.Pending()+s.ctrl.Rate()*float64(dt)) > s.slots.Capacity()
	s.lastEmitted = s.slots.Select(s.store, s.ctrl, s.scene.Emitters(), cfg.Derived.Lifespan32, dt, s.rng)
	s.slots.Dispatch(s.dev, s.store.Current())

	// (6) host aging and obstacle repack
	s.perf.StartPhase(telemetry.PhaseAge)
	s.store.Age(dt)

	s.perf.StartPhase(telemetry.PhaseObstacles)
	s.obstacles.Upload(s.scene.Obstacles())

	// (7) simulate current -> next
	s.perf.StartPhase(telemetry.PhaseSimulate)
	systems.DispatchSimulate(s.dev, s.store.Current(), s.store.Next(), systems.SimulateParams{
		Flow: systems.FlowSampler{
			Potential: s.field.Texture(),
			Bias:      s.bias,
			Uniforms:  s.uniforms,
			CurlSpeed: float32(cfg.Flow.CurlSpeed),
			FlowSpeed: float32(cfg.Flow.FlowSpeed),
		},
		Obstacles: s.obstacles.Buffer(),
		Dt:        dt,
	})

	// (8) swap; (9) CurrentBuffer now publishes this frame's result
	s.perf.StartPhase(telemetry.PhaseSwap)
	s.store.Swap()
	s.frame++

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.collector.RecordFrame(s.lastEmitted, clamped)
	s.flushTelemetry()

	s.perf.EndTick()
}

// ensureResources allocates device resources on the first frame and
// reallocates all of them when any size parameter changes.
func (s *Simulation) ensureResources() {
	cfg := s.cfg
	key := allocKey{
		capacity:     cfg.Derived.Capacity,
		emitCapacity: cfg.Derived.EmitCapacity,
		textureSize:  cfg.Field.TextureSize,
		maxObstacles: cfg.Obstacles.Max,
	}

	if s.noise == nil || cfg.Field.Noise != s.noiseKind || cfg.Field.Seed != s.noiseSeed {
		noise, err := systems.NewNoiseSource(cfg.Field.Noise, cfg.Field.Seed)
		if err != nil {
			slog.Warn("falling back to simplex noise", "error", err)
			noise, _ = systems.NewNoiseSource("simplex", cfg.Field.Seed)
		}
		s.noise = noise
		s.noiseKind = cfg.Field.Noise
		s.noiseSeed = cfg.Field.Seed
	}

	if s.store == nil || key != s.alloc {
		if s.store != nil {
			slog.Info("reallocating particle resources",
				"capacity", key.capacity,
				"emit_capacity", key.emitCapacity,
				"texture_size", key.textureSize,
				"max_obstacles", key.maxObstacles,
			)
		}
		s.releaseSized()

		s.store = systems.NewParticleStore(s.dev, key.capacity)
		s.slots = systems.NewEmitSlots(s.dev, key.emitCapacity)
		s.field = systems.NewPotentialField(s.dev, key.textureSize, s.noise)
		s.obstacles = systems.NewObstacleUploader(s.dev, key.maxObstacles)
		s.alloc = key
	}
	s.field.SetNoise(s.noise)

	if cfg.Flow.BiasTexture != s.biasPath || cfg.Flow.BiasSize != s.biasSize {
		s.bias.Release()
		s.bias = nil
		s.biasPath = cfg.Flow.BiasTexture
		s.biasSize = cfg.Flow.BiasSize

		if s.biasPath != "" {
			texels, err := systems.LoadFlowBias(s.biasPath, s.biasSize)
			if err != nil {
				slog.Warn("flow bias disabled", "path", s.biasPath, "error", err)
			} else {
				s.bias = systems.NewFlowBiasTexture(s.dev, texels, s.biasSize)
			}
		}
	}
}

// releaseSized frees the resources sized by allocKey.
func (s *Simulation) releaseSized() {
	s.store.Release()
	s.slots.Release()
	s.field.Release()
	s.obstacles.Release()
	s.store, s.slots, s.field, s.obstacles = nil, nil, nil, nil
}

// CurrentBuffer returns the particle buffer holding the latest completed
// frame. Renderers bind it as ParticleIn. Nil before the first Step.
func (s *Simulation) CurrentBuffer() *compute.Buffer[systems.Particle] {
	if s.store == nil {
		return nil
	}
	return s.store.Current()
}

// Field returns the potential texture, nil before the first Step.
func (s *Simulation) Field() *compute.Texture {
	if s.field == nil {
		return nil
	}
	return s.field.Texture()
}

// FlowBias returns the bias texture, nil when no bias is loaded.
func (s *Simulation) FlowBias() *compute.Texture { return s.bias }

// Uniforms returns the field transforms of the last frame.
func (s *Simulation) Uniforms() systems.FieldUniforms { return s.uniforms }

// Host returns the host mirror of the particle state. It matches the
// device state once the queue has drained.
func (s *Simulation) Host() []systems.Particle {
	if s.store == nil {
		return nil
	}
	return s.store.Host()
}

// Device returns the compute device.
func (s *Simulation) Device() *compute.Device { return s.dev }

// Frame returns the number of completed frames.
func (s *Simulation) Frame() int64 { return s.frame }

// Time returns the simulated seconds since the first frame.
func (s *Simulation) Time() float64 { return s.time }

// Stats returns the current counters.
func (s *Simulation) Stats() FrameStats {
	st := FrameStats{
		Frame:    s.frame,
		Time:     s.time,
		Emitted:  s.lastEmitted,
		EmitRate: s.ctrl.Rate(),
		Device:   s.dev.Stats(),
	}
	if s.store != nil {
		st.Alive = s.store.AliveCount()
		st.Capacity = s.store.Capacity()
		st.EmitCapacity = s.slots.Capacity()
	}
	return st
}

// PerfStats returns frame timing over the perf window.
func (s *Simulation) PerfStats() telemetry.PerfStats { return s.perf.Stats() }

// RecordFrame records presentation frame timing for graphics mode.
func (s *Simulation) RecordFrame() { s.perf.RecordFrame() }

// Release frees every device resource and closes telemetry output.
// Release is idempotent and leaves the device open.
func (s *Simulation) Release() {
	if s.released {
		return
	}
	s.released = true
	s.releaseSized()
	s.bias.Release()
	s.bias = nil

	if err := s.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	s.outputManager = nil
}
