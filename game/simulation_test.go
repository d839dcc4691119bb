package game

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/config"
	"github.com/pthm-cable/curl/systems"
	"github.com/pthm-cable/curl/telemetry"
)

// smallConfig is a 64-slot pool emitting 10/s with a 1s lifespan.
func smallConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Particles.Groups = 1
	cfg.Particles.EmitGroups = 1
	cfg.Particles.EmitRate = 10
	cfg.Particles.Lifespan = 1
	cfg.Field.TextureSize = 32
	cfg.Obstacles.Max = 4
	cfg.Flow.BiasTexture = ""
	cfg.Scene = config.SceneConfig{}
	cfg.Sanitize()
	return cfg
}

func originScene() *Scene {
	scene := NewScene()
	scene.AddEmitter(0, 0, 0, 0)
	return scene
}

func newTestSim(t *testing.T, cfg *config.Config, scene *Scene, opts Options) (*Simulation, *compute.Device) {
	t.Helper()
	dev := compute.NewDevice(2)
	sim, err := NewSimulation(cfg, dev, scene, opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		sim.Release()
		dev.Close()
	})
	return sim, dev
}

func readParticles(sim *Simulation) []systems.Particle {
	buf := sim.CurrentBuffer()
	out := make([]systems.Particle, buf.Len())
	buf.Read(out)
	return out
}

func TestScenarioTenFramesAtTenPerSecond(t *testing.T) {
	cfg := smallConfig()
	sim, _ := newTestSim(t, cfg, originScene(), Options{Seed: 1})

	for i := 0; i < 10; i++ {
		sim.Step(0.1)
		if got := sim.Stats().Emitted; got != 1 {
			t.Fatalf("frame %d emitted %d, want 1", i+1, got)
		}
	}

	ps := readParticles(sim)
	if len(ps) != 64 {
		t.Fatalf("capacity = %d, want 64", len(ps))
	}

	// Slot k was emitted at frame k+1 and has aged 10-k frames.
	for k := 0; k < 10; k++ {
		p := ps[k]
		if p.Life != 1 {
			t.Errorf("slot %d life = %v, want 1", k, p.Life)
		}
		want := 0.1 * float64(10-k)
		if math.Abs(float64(p.Age)-want) > 1e-4 {
			t.Errorf("slot %d age = %v, want ~%v", k, p.Age, want)
		}
		// Ten float32 steps of 0.1 reach 1.0000001, so the first particle
		// has just reached its lifespan and every later one is alive.
		if k == 0 {
			if p.Age < p.Life {
				t.Errorf("slot 0 age %v below life %v, want expired", p.Age, p.Life)
			}
		} else if !p.Alive() {
			t.Errorf("slot %d dead at age %v, want alive", k, p.Age)
		}
	}
	if got := sim.Stats().Alive; got != 9 {
		t.Errorf("alive = %d, want 9", got)
	}
	for k := 10; k < len(ps); k++ {
		if ps[k] != systems.DeadParticle {
			t.Fatalf("slot %d = %+v, want dead sentinel", k, ps[k])
		}
	}
}

func TestHostMirrorMatchesDevice(t *testing.T) {
	cfg := smallConfig()
	cfg.Particles.Groups = 2
	cfg.Particles.EmitRate = 200
	cfg.Particles.Lifespan = 0.5
	cfg.Sanitize()

	scene := NewScene()
	scene.AddEmitter(20, 50, 8, 8)
	scene.AddEmitter(60, 50, 8, 8)
	scene.AddObstacle(40, 50, 10)
	sim, _ := newTestSim(t, cfg, scene, Options{Seed: 7})

	jitter := rand.New(rand.NewSource(3))
	for i := 0; i < 90; i++ {
		sim.Step(float32(1.0/60 + jitter.Float64()/60))
	}

	device := readParticles(sim)
	host := sim.Host()
	for i := range host {
		if host[i].Age != device[i].Age || host[i].Life != device[i].Life {
			t.Fatalf("slot %d: host age/life %v/%v, device %v/%v",
				i, host[i].Age, host[i].Life, device[i].Age, device[i].Life)
		}
	}
	if sim.Stats().Alive == 0 {
		t.Error("expected live particles")
	}
}

func TestRateDropToZero(t *testing.T) {
	cfg := smallConfig()
	sim, _ := newTestSim(t, cfg, originScene(), Options{Seed: 1})

	for i := 0; i < 5; i++ {
		sim.Step(0.1)
	}

	cfg.Particles.EmitRate = 0
	sim.SetConfig(cfg)

	prevAlive := sim.Stats().Alive
	for i := 0; i < 20; i++ {
		sim.Step(0.1)
		st := sim.Stats()
		if st.Emitted != 0 {
			t.Fatalf("frame %d emitted %d after rate dropped to 0", i, st.Emitted)
		}
		if st.Alive > prevAlive {
			t.Fatalf("alive grew from %d to %d with no emission", prevAlive, st.Alive)
		}
		prevAlive = st.Alive
	}
	if prevAlive != 0 {
		t.Errorf("%d particles still alive after two lifespans", prevAlive)
	}

	emitted := 0
	for _, p := range readParticles(sim) {
		if p.Life == 1 {
			emitted++
		}
	}
	if emitted != 5 {
		t.Errorf("%d slots ever emitted, want 5", emitted)
	}
}

func TestEmptyObstacleBufferIsInert(t *testing.T) {
	cfg := smallConfig()
	sim, _ := newTestSim(t, cfg, originScene(), Options{})
	sim.Step(0.1)

	buf := sim.obstacles.Buffer()
	out := make([]systems.Obstacle, buf.Len())
	buf.Read(out)
	if len(out) != cfg.Obstacles.Max {
		t.Fatalf("obstacle buffer length %d, want %d", len(out), cfg.Obstacles.Max)
	}
	for i, o := range out {
		if o != (systems.Obstacle{}) {
			t.Errorf("obstacle %d = %+v, want zero", i, o)
		}
	}
}

func TestObstacleChangesReachDevice(t *testing.T) {
	cfg := smallConfig()
	scene := originScene()
	e := scene.AddObstacle(30, 40, 6)
	sim, _ := newTestSim(t, cfg, scene, Options{})

	sim.Step(0.1)
	scene.MoveObstacle(e, 10, 20)
	sim.Step(0.1)

	buf := sim.obstacles.Buffer()
	out := make([]systems.Obstacle, buf.Len())
	buf.Read(out)
	if out[0] != (systems.Obstacle{X: 10, Y: 20, Radius: 3}) {
		t.Errorf("obstacle 0 = %+v", out[0])
	}

	scene.RemoveObstacle(e)
	sim.Step(0.1)
	buf.Read(out)
	if out[0] != (systems.Obstacle{}) {
		t.Errorf("removed obstacle still uploaded: %+v", out[0])
	}
}

func TestCapacityChangeReallocates(t *testing.T) {
	cfg := smallConfig()
	sim, dev := newTestSim(t, cfg, originScene(), Options{})

	sim.Step(0.1)
	live := dev.LiveResources()
	if live == 0 {
		t.Fatal("no resources allocated")
	}

	cfg.Particles.Groups = 3
	cfg.Field.TextureSize = 16
	sim.SetConfig(cfg)
	sim.Step(0.1)

	if got := dev.LiveResources(); got != live {
		t.Errorf("live resources = %d after realloc, want %d", got, live)
	}
	st := sim.Stats()
	if st.Capacity != 3*config.ThreadBlockSize {
		t.Errorf("capacity = %d", st.Capacity)
	}
	if sim.Field().W != 16 {
		t.Errorf("texture size = %d", sim.Field().W)
	}
	// Reallocation starts from an all-dead pool
	if st.Alive != 1 {
		t.Errorf("alive = %d after realloc, want 1", st.Alive)
	}
	if n := len(readParticles(sim)); n != st.Capacity {
		t.Errorf("current buffer length = %d", n)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	sim, err := NewSimulation(smallConfig(), dev, originScene(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	// Release before any frame allocated anything
	sim.Release()
	sim.Release()

	sim, err = NewSimulation(smallConfig(), dev, originScene(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	sim.Step(0.1)
	sim.Release()
	sim.Release()
	if got := dev.LiveResources(); got != 0 {
		t.Errorf("live resources after release = %d", got)
	}
}

func TestStepDoesNotWaitForDevice(t *testing.T) {
	cfg := smallConfig()
	sim, dev := newTestSim(t, cfg, originScene(), Options{})

	gate := make(chan struct{})
	dev.Enqueue("gate", func() { <-gate })

	// Every stage is enqueued behind the blocked command.
	sim.Step(0.1)
	sim.Step(0.1)
	if sim.Frame() != 2 {
		t.Fatalf("frame = %d", sim.Frame())
	}

	close(gate)
	ps := readParticles(sim)
	if !ps[0].Alive() || !ps[1].Alive() {
		t.Errorf("expected two emitted particles, got %+v %+v", ps[0], ps[1])
	}
}

func TestNoEmittersDegradesGracefully(t *testing.T) {
	cfg := smallConfig()
	sim, _ := newTestSim(t, cfg, NewScene(), Options{})

	for i := 0; i < 10; i++ {
		sim.Step(0.1)
	}
	if st := sim.Stats(); st.Alive != 0 || st.Emitted != 0 {
		t.Errorf("alive/emitted = %d/%d without emitters", st.Alive, st.Emitted)
	}
}

func TestMissingBiasTextureDisablesBias(t *testing.T) {
	cfg := smallConfig()
	cfg.Flow.BiasTexture = filepath.Join(t.TempDir(), "missing.png")
	cfg.Flow.FlowSpeed = 1
	sim, _ := newTestSim(t, cfg, originScene(), Options{})

	sim.Step(0.1)
	if sim.FlowBias() != nil {
		t.Error("expected bias to be disabled")
	}
	if sim.Stats().Alive != 1 {
		t.Error("simulation should keep running without a bias")
	}
}

func TestTelemetryWindows(t *testing.T) {
	dir := t.TempDir()
	var windows []telemetry.WindowStats
	sim, _ := newTestSim(t, smallConfig(), originScene(), Options{
		StatsWindowSec: 0.5,
		OutputDir:      dir,
		StatsCallback: func(ws telemetry.WindowStats) {
			windows = append(windows, ws)
		},
	})

	for i := 0; i < 10; i++ {
		sim.Step(0.1)
	}
	if len(windows) != 2 {
		t.Fatalf("got %d windows, want 2", len(windows))
	}
	total := 0
	for _, w := range windows {
		total += w.Emitted
	}
	if total != 10 {
		t.Errorf("windows emitted %d, want 10", total)
	}
	if windows[0].Capacity != 64 || windows[0].Alive != 5 {
		t.Errorf("first window alive/capacity = %d/%d", windows[0].Alive, windows[0].Capacity)
	}

	sim.Release()
	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}
