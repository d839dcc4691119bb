package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/curl/camera"
	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/systems"
)

// ParticleBinding is the name the particle buffer is bound under.
const ParticleBinding = "ParticleIn"

// ParticleRenderer draws the published particle buffer.
type ParticleRenderer struct {
	particles []systems.Particle
	Color     rl.Color
	Size      float32 // screen pixels
}

// NewParticleRenderer creates a new particle renderer.
func NewParticleRenderer() *ParticleRenderer {
	return &ParticleRenderer{
		Color: rl.Color{R: 140, G: 200, B: 255, A: 255},
		Size:  1.5,
	}
}

// Bind copies the buffer into the renderer. It blocks until the device has
// finished every frame enqueued before the call.
func (r *ParticleRenderer) Bind(buf *compute.Buffer[systems.Particle]) {
	if buf == nil || buf.Released() {
		r.particles = r.particles[:0]
		return
	}
	if cap(r.particles) < buf.Len() {
		r.particles = make([]systems.Particle, buf.Len())
	}
	r.particles = r.particles[:buf.Len()]
	buf.Read(r.particles)
}

// Count returns the number of bound slots.
func (r *ParticleRenderer) Count() int { return len(r.particles) }

// Draw renders every live particle, fading toward the end of its life.
func (r *ParticleRenderer) Draw(cam *camera.Camera) {
	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	for i := range r.particles {
		p := &r.particles[i]
		if !p.Alive() {
			continue
		}
		if p.X < minX || p.X > maxX || p.Y < minY || p.Y > maxY {
			continue
		}

		c := r.Color
		c.A = uint8(float32(c.A) * fadeAlpha(p.Age, p.Life))
		sx, sy := cam.WorldToScreen(p.X, p.Y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r.Size, c)
	}
}

// fadeAlpha is 1 at birth and 0 at the end of life.
func fadeAlpha(age, life float32) float32 {
	if life <= 0 {
		return 0
	}
	a := 1 - age/life
	if a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
