package systems

import (
	"math/rand"

	"github.com/pthm-cable/curl/components"
)

// Particle is one slot of the particle buffer.
// The layout matches `struct { vec2 x; float t; float life; }` in std430.
type Particle struct {
	X, Y float32
	Age  float32 // seconds since emission
	Life float32 // lifespan in seconds; negative marks a never-emitted slot
}

// DeadParticle is the sentinel every slot starts as.
var DeadParticle = Particle{X: 0, Y: 0, Age: 0, Life: -1}

// Alive reports whether the particle is still within its lifespan.
func (p Particle) Alive() bool {
	return p.Age < p.Life
}

// NewParticle spawns a particle uniformly inside the emitter rectangle.
func NewParticle(emitter components.Transform, lifespan float32, rng *rand.Rand) Particle {
	return Particle{
		X:    emitter.X + emitter.ScaleX*(rng.Float32()-0.5),
		Y:    emitter.Y + emitter.ScaleY*(rng.Float32()-0.5),
		Age:  0,
		Life: lifespan,
	}
}
