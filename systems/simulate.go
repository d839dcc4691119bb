package systems

import (
	"math"

	"github.com/pthm-cable/curl/compute"
)

// SimulateParams are the simulate kernel's per-frame inputs.
type SimulateParams struct {
	Flow      FlowSampler
	Obstacles *compute.Buffer[Obstacle]
	Dt        float32
}

// DispatchSimulate enqueues the advection kernel: every live particle in in
// moves with the local flow, is pushed out of any obstacle it entered and
// ages by dt; dead particles are copied through unchanged. Results go to out.
func DispatchSimulate(dev *compute.Device, in, out *compute.Buffer[Particle], params SimulateParams) {
	src := in.Data()
	dst := out.Data()
	spheres := params.Obstacles.Data()
	flow := params.Flow
	dt := params.Dt

	dev.Dispatch(KernelSimulate, len(src), func(i int) {
		p := src[i]
		if !(p.Age < p.Life) {
			dst[i] = p
			return
		}

		vx, vy := flow.Velocity(p.X, p.Y)
		p.X += vx * dt
		p.Y += vy * dt
		p.X, p.Y = resolveObstacles(p.X, p.Y, spheres)
		p.Age += dt
		dst[i] = p
	})
}

// resolveObstacles projects a point inside any sphere back onto its surface.
func resolveObstacles(x, y float32, spheres []Obstacle) (float32, float32) {
	for _, s := range spheres {
		if s.Radius <= 0 {
			continue
		}
		dx := x - s.X
		dy := y - s.Y
		d2 := dx*dx + dy*dy
		if d2 >= s.Radius*s.Radius {
			continue
		}
		d := float32(math.Sqrt(float64(d2)))
		if d == 0 {
			// Exactly at the center: push out along +x
			x = s.X + s.Radius
			continue
		}
		k := s.Radius / d
		x = s.X + dx*k
		y = s.Y + dy*k
	}
	return x, y
}
