package systems

import (
	"testing"

	"github.com/pthm-cable/curl/components"
	"github.com/pthm-cable/curl/compute"
)

type simFixture struct {
	dev       *compute.Device
	store     *ParticleStore
	pot       *compute.Texture
	obstacles *ObstacleUploader
	flow      FlowSampler
}

// newSimFixture builds a 16-slot store over a flat potential, so the only
// motion comes from the given uniform bias.
func newSimFixture(t *testing.T, biasX, biasY float32) *simFixture {
	t.Helper()
	dev := compute.NewDevice(1)
	f := &simFixture{
		dev:       dev,
		store:     NewParticleStore(dev, 16),
		pot:       compute.NewTexture(dev, "flat", 8, 8, 1),
		obstacles: NewObstacleUploader(dev, 4),
	}
	bias := compute.NewTexture(dev, "bias", 2, 2, 2)
	bias.SetData([]float32{biasX, biasY, biasX, biasY, biasX, biasY, biasX, biasY})

	f.flow = FlowSampler{
		Potential: f.pot,
		Bias:      bias,
		Uniforms:  testUniforms(100, 8),
		CurlSpeed: 1,
		FlowSpeed: 1,
	}
	t.Cleanup(func() {
		bias.Release()
		f.pot.Release()
		f.obstacles.Release()
		f.store.Release()
		dev.Close()
	})
	return f
}

func (f *simFixture) seed(ps ...Particle) {
	cur := make([]Particle, f.store.Capacity())
	for i := range cur {
		cur[i] = DeadParticle
	}
	copy(cur, ps)
	f.store.Current().SetData(cur)
}

func (f *simFixture) step(dt float32) []Particle {
	DispatchSimulate(f.dev, f.store.Current(), f.store.Next(), SimulateParams{
		Flow:      f.flow,
		Obstacles: f.obstacles.Buffer(),
		Dt:        dt,
	})
	f.store.Swap()
	out := make([]Particle, f.store.Capacity())
	f.store.Current().Read(out)
	return out
}

func TestSimulateAdvectsAndAges(t *testing.T) {
	f := newSimFixture(t, 0.5, -0.25)
	f.seed(Particle{X: 10, Y: 10, Age: 0, Life: 5})

	out := f.step(2)
	p := out[0]
	if p.X != 11 || p.Y != 9.5 {
		t.Errorf("position = (%v,%v), want (11,9.5)", p.X, p.Y)
	}
	if p.Age != 2 || p.Life != 5 {
		t.Errorf("age/life = %v/%v, want 2/5", p.Age, p.Life)
	}
}

func TestSimulatePassesDeadThrough(t *testing.T) {
	f := newSimFixture(t, 1, 1)
	expired := Particle{X: 3, Y: 4, Age: 5, Life: 5}
	f.seed(expired)

	out := f.step(0.5)
	if out[0] != expired {
		t.Errorf("expired particle changed: %+v", out[0])
	}
	for i := 1; i < len(out); i++ {
		if out[i] != DeadParticle {
			t.Fatalf("sentinel %d changed: %+v", i, out[i])
		}
	}
}

func TestSimulateResolvesObstacles(t *testing.T) {
	f := newSimFixture(t, 1, 0)
	f.obstacles.Upload([]components.Transform{{X: 20, Y: 10, ScaleX: 4, ScaleY: 4}})
	f.seed(Particle{X: 17, Y: 10, Life: 10})

	// One unit step lands at x=18, exactly on the sphere surface.
	p := f.step(1)[0]
	if p.X != 18 || p.Y != 10 {
		t.Fatalf("first step = (%v,%v)", p.X, p.Y)
	}
	// The next step would enter the sphere; it is pushed back to the surface.
	p = f.step(1)[0]
	if p.X != 18 || p.Y != 10 {
		t.Errorf("second step = (%v,%v), want (18,10)", p.X, p.Y)
	}
}

func TestSimulateEmptyObstacleBuffer(t *testing.T) {
	f := newSimFixture(t, 1, 0)
	f.obstacles.Upload(nil)
	f.seed(Particle{X: 20, Y: 10, Life: 10})

	p := f.step(1)[0]
	if p.X != 21 {
		t.Errorf("x = %v, want 21 with no obstacles", p.X)
	}
}
