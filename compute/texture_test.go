package compute

import (
	"math"
	"testing"
)

func TestSampleAtTexelCenters(t *testing.T) {
	d := NewDevice(1)
	defer d.Close()

	tex := NewTexture(d, "t", 4, 4, 1)
	defer tex.Release()

	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i)
	}
	tex.SetData(data)
	d.Finish()

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			u := (float32(x) + 0.5) / 4
			v := (float32(y) + 0.5) / 4
			if got := tex.Sample(u, v, 0); math.Abs(float64(got-data[y*4+x])) > 1e-5 {
				t.Errorf("Sample at texel (%d,%d) = %v, want %v", x, y, got, data[y*4+x])
			}
		}
	}
}

func TestSampleIsLinearBetweenTexels(t *testing.T) {
	d := NewDevice(1)
	defer d.Close()

	tex := NewTexture(d, "ramp", 8, 1, 1)
	defer tex.Release()
	d.Dispatch2D("ramp", 8, 1, func(x, y int) {
		tex.Store(x, y, 0, float32(x))
	})
	d.Finish()

	// Halfway between texel 2 and texel 3.
	got := tex.Sample(3.0/8, 0.5, 0)
	if math.Abs(float64(got-2.5)) > 1e-5 {
		t.Errorf("midpoint sample = %v, want 2.5", got)
	}
}

func TestSampleClampsToEdge(t *testing.T) {
	d := NewDevice(1)
	defer d.Close()

	tex := NewTexture(d, "edge", 2, 2, 2)
	defer tex.Release()
	tex.SetData([]float32{1, -1, 2, -2, 3, -3, 4, -4})
	d.Finish()

	if got := tex.Sample(-5, -5, 0); got != 1 {
		t.Errorf("below range = %v, want 1", got)
	}
	if got := tex.Sample(5, 5, 1); got != -4 {
		t.Errorf("above range = %v, want -4", got)
	}
}
