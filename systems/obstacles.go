package systems

import (
	"github.com/pthm-cable/curl/components"
	"github.com/pthm-cable/curl/compute"
)

// Obstacle is a packed sphere: center (X, Y), Z unused, Radius.
// A zero radius collides with nothing.
type Obstacle struct {
	X, Y, Z, Radius float32
}

// ObstacleUploader packs a bounded obstacle list into a fixed-size device buffer.
type ObstacleUploader struct {
	packed []Obstacle
	buf    *compute.Buffer[Obstacle]
}

// NewObstacleUploader allocates room for max obstacles, all inert.
func NewObstacleUploader(dev *compute.Device, max int) *ObstacleUploader {
	u := &ObstacleUploader{
		packed: make([]Obstacle, max),
		buf:    compute.NewBuffer[Obstacle](dev, "Spheres", max),
	}
	u.buf.SetData(u.packed)
	return u
}

// Max returns the buffer bound.
func (u *ObstacleUploader) Max() int { return len(u.packed) }

// Upload repacks the whole buffer from the given obstacle transforms.
// Entries past Max are ignored; unused slots are zeroed.
func (u *ObstacleUploader) Upload(obstacles []components.Transform) {
	for i := range u.packed {
		if i < len(obstacles) {
			t := obstacles[i]
			u.packed[i] = Obstacle{X: t.X, Y: t.Y, Z: 0, Radius: t.Radius()}
		} else {
			u.packed[i] = Obstacle{}
		}
	}
	u.buf.SetData(u.packed)
}

// Packed returns the host copy of the last upload.
func (u *ObstacleUploader) Packed() []Obstacle { return u.packed }

// Buffer returns the device buffer.
func (u *ObstacleUploader) Buffer() *compute.Buffer[Obstacle] { return u.buf }

// Release frees the device buffer. Safe to call more than once.
func (u *ObstacleUploader) Release() {
	if u == nil {
		return
	}
	u.buf.Release()
}
