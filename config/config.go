// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ThreadWidth is the side of a square compute thread block.
const ThreadWidth = 8

// ThreadBlockSize is the number of threads in one block (ThreadWidth²).
const ThreadBlockSize = ThreadWidth * ThreadWidth

// Config holds all simulation configuration parameters.
type Config struct {
	Seed      int64           `yaml:"seed"`
	Screen    ScreenConfig    `yaml:"screen"`
	Particles ParticlesConfig `yaml:"particles"`
	Field     FieldConfig     `yaml:"field"`
	Flow      FlowConfig      `yaml:"flow"`
	Obstacles ObstaclesConfig `yaml:"obstacles"`
	Scene     SceneConfig     `yaml:"scene"`
	Debug     DebugConfig     `yaml:"debug"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// ParticlesConfig holds particle capacity and emission parameters.
type ParticlesConfig struct {
	Groups     int     `yaml:"groups"`      // Particle capacity = groups * ThreadBlockSize
	EmitGroups int     `yaml:"emit_groups"` // Emission slot capacity = emit_groups * ThreadBlockSize
	EmitRate   float64 `yaml:"emit_rate"`   // Particles per second
	Lifespan   float64 `yaml:"lifespan"`    // Seconds a particle lives after emission
}

// FieldConfig holds potential field generation parameters.
type FieldConfig struct {
	Width       float64 `yaml:"width"`        // Field extent in world units
	Height      float64 `yaml:"height"`       // Field extent in world units
	TextureSize int     `yaml:"texture_size"` // Potential texture resolution (square, multiple of ThreadWidth)
	NoiseScale  float64 `yaml:"noise_scale"`  // World units to noise space
	TimeScale   float64 `yaml:"time_scale"`   // Seconds to noise time
	Octaves     int     `yaml:"octaves"`      // fBm octaves
	Lacunarity  float64 `yaml:"lacunarity"`   // Frequency multiplier per octave
	Gain        float64 `yaml:"gain"`         // Amplitude multiplier per octave
	Noise       string  `yaml:"noise"`        // "simplex" or "perlin"
	Seed        int64   `yaml:"seed"`
}

// FlowConfig holds velocity scaling and the optional bias texture.
type FlowConfig struct {
	CurlSpeed   float64 `yaml:"curl_speed"`   // Multiplier on the curl of the potential
	FlowSpeed   float64 `yaml:"flow_speed"`   // Multiplier on the bias texture
	BiasTexture string  `yaml:"bias_texture"` // PNG path; empty disables the bias
	BiasSize    int     `yaml:"bias_size"`    // Resampled bias texture resolution
}

// ObstaclesConfig holds the obstacle buffer bound.
type ObstaclesConfig struct {
	Max int `yaml:"max"`
}

// SceneConfig holds the initial emitter and obstacle transforms.
type SceneConfig struct {
	Emitters  []TransformConfig `yaml:"emitters"`
	Obstacles []TransformConfig `yaml:"obstacles"`
}

// TransformConfig is a 2D position with per-axis scale.
// Emitters use the scale as the rectangle extent, obstacles as the sphere diameter.
type TransformConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	ScaleX float64 `yaml:"scale_x"`
	ScaleY float64 `yaml:"scale_y"`
}

// DebugConfig holds presentation-only debug settings.
type DebugConfig struct {
	Key string `yaml:"key"` // Key that cycles the debug view
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Capacity     int     // Particles.Groups * ThreadBlockSize
	EmitCapacity int     // Particles.EmitGroups * ThreadBlockSize
	Lifespan32   float32 // Particles.Lifespan as float32
	FieldW32     float32 // Field.Width as float32
	FieldH32     float32 // Field.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Sanitize()
	return cfg, nil
}

// Sanitize clamps out-of-range values to the nearest usable setting and
// recomputes derived values. Call it after editing a Config in place.
//
// Validation is deliberately loose: nonsensical inputs degrade to a no-op
// subsystem (zero rate, zero obstacles) instead of failing.
func (c *Config) Sanitize() {
	if c.Particles.Groups < 1 {
		c.Particles.Groups = 1
	}
	if c.Particles.EmitGroups < 1 {
		c.Particles.EmitGroups = 1
	}
	if c.Particles.EmitRate < 0 {
		c.Particles.EmitRate = 0
	}
	if c.Field.TextureSize < ThreadWidth {
		c.Field.TextureSize = ThreadWidth
	}
	// Round the texture up to whole thread blocks
	if r := c.Field.TextureSize % ThreadWidth; r != 0 {
		c.Field.TextureSize += ThreadWidth - r
	}
	if c.Field.Width <= 0 {
		c.Field.Width = 1
	}
	if c.Field.Height <= 0 {
		c.Field.Height = 1
	}
	if c.Field.Octaves < 1 {
		c.Field.Octaves = 1
	}
	if c.Field.Noise == "" {
		c.Field.Noise = "simplex"
	}
	if c.Flow.BiasSize < 1 {
		c.Flow.BiasSize = 256
	}
	if c.Obstacles.Max < 0 {
		c.Obstacles.Max = 0
	}

	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Capacity = c.Particles.Groups * ThreadBlockSize
	c.Derived.EmitCapacity = c.Particles.EmitGroups * ThreadBlockSize
	c.Derived.Lifespan32 = float32(c.Particles.Lifespan)
	c.Derived.FieldW32 = float32(c.Field.Width)
	c.Derived.FieldH32 = float32(c.Field.Height)
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Scene.Emitters = append([]TransformConfig(nil), c.Scene.Emitters...)
	out.Scene.Obstacles = append([]TransformConfig(nil), c.Scene.Obstacles...)
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
