package systems

import (
	"testing"

	"github.com/pthm-cable/curl/components"
	"github.com/pthm-cable/curl/compute"
)

func TestObstacleUploadPacksAndPads(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	u := NewObstacleUploader(dev, 4)
	defer u.Release()

	u.Upload([]components.Transform{
		{X: 1, Y: 2, ScaleX: 4, ScaleY: 4},
		{X: -3, Y: 5, ScaleX: 1, ScaleY: 9},
	})

	out := make([]Obstacle, u.Buffer().Len())
	u.Buffer().Read(out)
	if len(out) != 4 {
		t.Fatalf("buffer length %d, want 4", len(out))
	}
	want := []Obstacle{
		{X: 1, Y: 2, Z: 0, Radius: 2},
		{X: -3, Y: 5, Z: 0, Radius: 0.5},
		{},
		{},
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("obstacle %d = %+v, want %+v", i, out[i], want[i])
		}
	}
}

func TestObstacleUploadTruncatesAndClears(t *testing.T) {
	dev := compute.NewDevice(1)
	defer dev.Close()

	u := NewObstacleUploader(dev, 2)
	defer u.Release()

	many := []components.Transform{
		{X: 1, ScaleX: 2}, {X: 2, ScaleX: 2}, {X: 3, ScaleX: 2},
	}
	u.Upload(many)
	if u.Packed()[1].X != 2 {
		t.Fatalf("second slot = %+v", u.Packed()[1])
	}

	// A shorter list must zero the slots the previous frame used.
	u.Upload(many[:1])
	if u.Packed()[1] != (Obstacle{}) {
		t.Errorf("stale obstacle left in slot 1: %+v", u.Packed()[1])
	}

	u.Upload(nil)
	for i, o := range u.Packed() {
		if o != (Obstacle{}) {
			t.Errorf("empty list left obstacle %d = %+v", i, o)
		}
	}
}

func TestResolveObstaclesPushesToSurface(t *testing.T) {
	spheres := []Obstacle{{X: 0, Y: 0, Radius: 2}, {}}

	x, y := resolveObstacles(1, 0, spheres)
	if x != 2 || y != 0 {
		t.Errorf("pushed to (%v,%v), want (2,0)", x, y)
	}

	x, y = resolveObstacles(3, 4, spheres)
	if x != 3 || y != 4 {
		t.Errorf("point outside sphere moved to (%v,%v)", x, y)
	}

	x, y = resolveObstacles(0, 0, spheres)
	if x != 2 || y != 0 {
		t.Errorf("center point resolved to (%v,%v), want (2,0)", x, y)
	}
}
