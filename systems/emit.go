package systems

import (
	"fmt"
	"math/rand"

	"github.com/pthm-cable/curl/components"
	"github.com/pthm-cable/curl/compute"
)

// NoEmit marks an emission slot with nothing to scatter this frame.
const NoEmit int32 = -1

// EmitSlots is the fixed-capacity emission list: parallel arrays of target
// slot indices and particle values, mirrored into two device buffers.
type EmitSlots struct {
	Indices   []int32
	Particles []Particle

	indexBuf    *compute.Buffer[int32]
	particleBuf *compute.Buffer[Particle]
	prevCount   int
}

// NewEmitSlots allocates capacity emission slots, all set to NoEmit.
func NewEmitSlots(dev *compute.Device, capacity int) *EmitSlots {
	e := &EmitSlots{
		Indices:     make([]int32, capacity),
		Particles:   make([]Particle, capacity),
		indexBuf:    compute.NewBuffer[int32](dev, "EmitIndices", capacity),
		particleBuf: compute.NewBuffer[Particle](dev, "EmitParticles", capacity),
	}
	for i := range e.Indices {
		e.Indices[i] = NoEmit
		e.Particles[i] = DeadParticle
	}
	e.indexBuf.SetData(e.Indices)
	e.particleBuf.SetData(e.Particles)
	return e
}

// Capacity returns the number of emission slots.
func (e *EmitSlots) Capacity() int { return len(e.Indices) }

// Select claims dead slots for this frame's emissions and uploads the list.
//
// One emitter is chosen uniformly at random. The controller's count, clamped
// to the slot capacity, bounds how many dead slots are claimed in index
// order. Each claimed particle is written into the host mirror and recorded
// in the list; list entries left over from a larger previous frame are reset
// to NoEmit. With no emitters the controller is still drained and nothing is
// claimed. Returns the number of particles emitted.
func (e *EmitSlots) Select(store *ParticleStore, ctrl *EmissionController, emitters []components.Transform, lifespan, dt float32, rng *rand.Rand) int {
	want := ctrl.Consume(float64(dt))
	if want > len(e.Indices) {
		want = len(e.Indices)
	}

	count := 0
	if len(emitters) > 0 && want > 0 {
		emitter := emitters[rng.Intn(len(emitters))]
		host := store.Host()
		for i := 0; i < len(host) && count < want; i++ {
			p := host[i]
			if p.Life <= p.Age {
				pnew := NewParticle(emitter, lifespan, rng)
				host[i] = pnew
				e.Indices[count] = int32(i)
				e.Particles[count] = pnew
				count++
			}
		}
	}

	for i := count; i < e.prevCount; i++ {
		e.Indices[i] = NoEmit
	}
	e.prevCount = count

	e.indexBuf.SetData(e.Indices)
	e.particleBuf.SetData(e.Particles)
	return count
}

// Count returns the number of emissions recorded by the last Select.
func (e *EmitSlots) Count() int { return e.prevCount }

// Dispatch enqueues the emit kernel, scattering this frame's particles into
// target at their recorded indices. An index outside the target panics.
func (e *EmitSlots) Dispatch(dev *compute.Device, target *compute.Buffer[Particle]) {
	indices := e.indexBuf.Data()
	particles := e.particleBuf.Data()
	out := target.Data()
	n := int32(len(out))

	dev.Dispatch(KernelEmit, len(indices), func(k int) {
		idx := indices[k]
		if idx == NoEmit {
			return
		}
		if idx < 0 || idx >= n {
			panic(fmt.Sprintf("emit slot %d targets particle %d outside capacity %d", k, idx, n))
		}
		out[idx] = particles[k]
	})
}

// Release frees both device buffers. Safe to call more than once.
func (e *EmitSlots) Release() {
	if e == nil {
		return
	}
	e.indexBuf.Release()
	e.particleBuf.Release()
}
