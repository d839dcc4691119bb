package systems

import (
	"fmt"

	"github.com/pthm-cable/curl/compute"
)

// ParticleStore owns the two device particle buffers and the host mirror
// used for emission bookkeeping.
//
// Exactly one buffer is current (the authoritative state of the last
// completed frame) and the other is next (this frame's write target).
// Swap flips the roles by index; particle data is never copied.
type ParticleStore struct {
	bufs  [2]*compute.Buffer[Particle]
	front int

	// host mirrors the device state for slot selection and aging
	host []Particle
}

// NewParticleStore allocates both buffers with capacity slots and uploads
// the dead sentinel into every slot.
func NewParticleStore(dev *compute.Device, capacity int) *ParticleStore {
	s := &ParticleStore{
		bufs: [2]*compute.Buffer[Particle]{
			compute.NewBuffer[Particle](dev, "ParticleBuf0", capacity),
			compute.NewBuffer[Particle](dev, "ParticleBuf1", capacity),
		},
		host: make([]Particle, capacity),
	}
	s.Reset()
	return s
}

// Capacity returns the number of particle slots.
func (s *ParticleStore) Capacity() int { return len(s.host) }

// Current returns the buffer holding the last completed frame.
func (s *ParticleStore) Current() *compute.Buffer[Particle] {
	return s.bufs[s.front]
}

// Next returns the buffer the simulate stage writes this frame.
func (s *ParticleStore) Next() *compute.Buffer[Particle] {
	return s.bufs[1-s.front]
}

// Swap exchanges the current and next roles.
func (s *ParticleStore) Swap() {
	s.checkLengths()
	s.front = 1 - s.front
}

// Host returns the host mirror. Slot selection writes it directly.
func (s *ParticleStore) Host() []Particle { return s.host }

// Reset marks every slot dead in the mirror and in both device buffers.
func (s *ParticleStore) Reset() {
	for i := range s.host {
		s.host[i] = DeadParticle
	}
	s.bufs[0].SetData(s.host)
	s.bufs[1].SetData(s.host)
	s.front = 0
}

// Age advances every live slot of the host mirror by dt.
// Dead slots keep their age until they are emitted again.
func (s *ParticleStore) Age(dt float32) {
	for i := range s.host {
		p := &s.host[i]
		if p.Age < p.Life {
			p.Age += dt
		}
	}
}

// AliveCount returns the number of live slots in the host mirror.
func (s *ParticleStore) AliveCount() int {
	n := 0
	for i := range s.host {
		if s.host[i].Alive() {
			n++
		}
	}
	return n
}

// Release frees both buffers. Safe to call more than once.
func (s *ParticleStore) Release() {
	if s == nil {
		return
	}
	s.bufs[0].Release()
	s.bufs[1].Release()
}

// checkLengths panics if the ping-pong buffers disagree in size.
func (s *ParticleStore) checkLengths() {
	a, b := s.bufs[0].Len(), s.bufs[1].Len()
	if a != b || a != len(s.host) {
		panic(fmt.Sprintf("systems: particle buffer length mismatch: %d / %d / host %d", a, b, len(s.host)))
	}
}
