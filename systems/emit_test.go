package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/curl/components"
	"github.com/pthm-cable/curl/compute"
)

func TestSelectNeverDuplicatesAndRespectsBounds(t *testing.T) {
	dev := compute.NewDevice(2)
	defer dev.Close()

	store := NewParticleStore(dev, 256)
	slots := NewEmitSlots(dev, 64)
	defer store.Release()
	defer slots.Release()

	rng := rand.New(rand.NewSource(1))
	emitters := []components.Transform{{X: 5, Y: 5, ScaleX: 2, ScaleY: 2}}

	cases := []struct {
		rate float64
		dt   float32
	}{
		{rate: 100, dt: 0.1},  // 10 per frame
		{rate: 1000, dt: 0.1}, // 100 per frame, clamped to 64
		{rate: 30, dt: 0.1},   // 3 per frame
	}

	for _, tc := range cases {
		ctrl := NewEmissionController(tc.rate)
		expected := int(tc.rate * float64(tc.dt))
		if expected > slots.Capacity() {
			expected = slots.Capacity()
		}

		n := slots.Select(store, ctrl, emitters, 10, tc.dt, rng)
		if n > expected {
			t.Fatalf("rate %v: emitted %d, bound %d", tc.rate, n, expected)
		}

		seen := make(map[int32]bool)
		for k := 0; k < n; k++ {
			idx := slots.Indices[k]
			if idx == NoEmit {
				t.Fatalf("slot %d within emit count is NoEmit", k)
			}
			if seen[idx] {
				t.Fatalf("particle %d claimed twice in one frame", idx)
			}
			seen[idx] = true
			if store.Host()[idx] != slots.Particles[k] {
				t.Fatalf("host mirror slot %d differs from emitted particle", idx)
			}
		}
		for k := n; k < slots.Capacity(); k++ {
			if slots.Indices[k] != NoEmit {
				t.Fatalf("stale slot %d still targets %d", k, slots.Indices[k])
			}
		}
	}
}

func TestSelectClearsStaleSlots(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	store := NewParticleStore(dev, 64)
	slots := NewEmitSlots(dev, 64)
	defer store.Release()
	defer slots.Release()

	rng := rand.New(rand.NewSource(2))
	emitters := []components.Transform{{}}

	ctrl := NewEmissionController(50)
	if n := slots.Select(store, ctrl, emitters, 10, 0.1, rng); n != 5 {
		t.Fatalf("first frame emitted %d, want 5", n)
	}

	ctrl.Configure(20)
	if n := slots.Select(store, ctrl, emitters, 10, 0.1, rng); n != 2 {
		t.Fatalf("second frame emitted %d, want 2", n)
	}
	for k := 2; k < 5; k++ {
		if slots.Indices[k] != NoEmit {
			t.Errorf("slot %d kept stale index %d", k, slots.Indices[k])
		}
	}
	// Second frame claims the next dead slots, not the ones from frame one.
	if slots.Indices[0] != 5 || slots.Indices[1] != 6 {
		t.Errorf("second frame claimed %v, want [5 6]", slots.Indices[:2])
	}
}

func TestSelectWithoutEmitters(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	store := NewParticleStore(dev, 64)
	slots := NewEmitSlots(dev, 64)
	defer store.Release()
	defer slots.Release()

	rng := rand.New(rand.NewSource(3))
	ctrl := NewEmissionController(30)
	slots.Select(store, ctrl, []components.Transform{{}}, 10, 0.1, rng)

	if n := slots.Select(store, ctrl, nil, 10, 0.1, rng); n != 0 {
		t.Fatalf("emitted %d with no emitters", n)
	}
	for k, idx := range slots.Indices {
		if idx != NoEmit {
			t.Fatalf("slot %d = %d, want NoEmit with no emitters", k, idx)
		}
	}
	// No burst should build up while emitters are absent.
	if p := ctrl.Pending(); p >= 1 {
		t.Errorf("controller accumulated %v while emitters were absent", p)
	}
}

func TestSelectSkipsLiveSlots(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	store := NewParticleStore(dev, 8)
	slots := NewEmitSlots(dev, 8)
	defer store.Release()
	defer slots.Release()

	host := store.Host()
	for i := range host {
		host[i] = Particle{Age: 0.1, Life: 1}
	}
	host[2] = Particle{Age: 1, Life: 1} // expired exactly this frame
	host[6] = DeadParticle

	rng := rand.New(rand.NewSource(4))
	ctrl := NewEmissionController(100)
	n := slots.Select(store, ctrl, []components.Transform{{}}, 3, 0.1, rng)
	if n != 2 {
		t.Fatalf("emitted %d, want 2 (only two dead slots)", n)
	}
	if slots.Indices[0] != 2 || slots.Indices[1] != 6 {
		t.Errorf("claimed %v, want [2 6]", slots.Indices[:2])
	}
}

func TestNewParticleInsideEmitter(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	e := components.Transform{X: 10, Y: -4, ScaleX: 6, ScaleY: 2}
	for i := 0; i < 1000; i++ {
		p := NewParticle(e, 2, rng)
		if p.X < 7 || p.X > 13 || p.Y < -5 || p.Y > -3 {
			t.Fatalf("particle %+v outside emitter rectangle", p)
		}
		if p.Age != 0 || p.Life != 2 {
			t.Fatalf("particle %+v has wrong age/life", p)
		}
	}
}

func TestEmitKernelScattersIntoTarget(t *testing.T) {
	dev := compute.NewDevice(2)
	defer dev.Close()

	store := NewParticleStore(dev, 64)
	slots := NewEmitSlots(dev, 64)
	defer store.Release()
	defer slots.Release()

	rng := rand.New(rand.NewSource(6))
	ctrl := NewEmissionController(40)
	n := slots.Select(store, ctrl, []components.Transform{{X: 1, Y: 1, ScaleX: 1, ScaleY: 1}}, 5, 0.1, rng)
	slots.Dispatch(dev, store.Current())

	out := make([]Particle, 64)
	store.Current().Read(out)
	for k := 0; k < n; k++ {
		if out[slots.Indices[k]] != slots.Particles[k] {
			t.Fatalf("slot %d not scattered", slots.Indices[k])
		}
	}
	for i := n; i < 64; i++ {
		if out[i] != DeadParticle {
			t.Fatalf("untouched slot %d changed to %+v", i, out[i])
		}
	}
}

func TestEmitKernelPanicsOnOutOfRangeIndex(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	store := NewParticleStore(dev, 16)
	slots := NewEmitSlots(dev, 16)
	defer store.Release()
	defer slots.Release()

	slots.Indices[0] = 99
	slots.indexBuf.SetData(slots.Indices)
	slots.Dispatch(dev, store.Current())

	defer func() {
		if recover() == nil {
			t.Fatal("expected out-of-range emission index to fail")
		}
	}()
	dev.Finish()
}
