package compute

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Texture is a device-resident 2D float image with random-write access.
// Texels are stored row-major with Channels interleaved components.
type Texture struct {
	dev      *Device
	name     string
	W, H     int
	Channels int
	texels   []float32
	released atomic.Bool
}

// NewTexture allocates a zeroed w×h texture with the given channel count.
func NewTexture(d *Device, name string, w, h, channels int) *Texture {
	if w <= 0 || h <= 0 || channels <= 0 {
		panic(fmt.Sprintf("compute: texture %q with invalid shape %dx%dx%d", name, w, h, channels))
	}
	d.live.Add(1)
	return &Texture{
		dev:      d,
		name:     name,
		W:        w,
		H:        h,
		Channels: channels,
		texels:   make([]float32, w*h*channels),
	}
}

// Name returns the texture label.
func (t *Texture) Name() string { return t.name }

// Store writes channel c of texel (x, y). Kernel use only.
func (t *Texture) Store(x, y, c int, v float32) {
	t.texels[(y*t.W+x)*t.Channels+c] = v
}

// Load reads channel c of texel (x, y) with clamp-to-edge addressing. Kernel use only.
func (t *Texture) Load(x, y, c int) float32 {
	x = clampInt(x, 0, t.W-1)
	y = clampInt(y, 0, t.H-1)
	return t.texels[(y*t.W+x)*t.Channels+c]
}

// Sample returns channel c at normalized coordinates (u, v) with bilinear filtering.
// Texel centers sit at (i+0.5)/W, matching GPU sampler conventions. Kernel use only.
func (t *Texture) Sample(u, v float32, c int) float32 {
	fx := u*float32(t.W) - 0.5
	fy := v*float32(t.H) - 0.5

	x0f := float32(math.Floor(float64(fx)))
	y0f := float32(math.Floor(float64(fy)))
	tx := fx - x0f
	ty := fy - y0f
	x0 := int(x0f)
	y0 := int(y0f)

	a := t.Load(x0, y0, c)
	b := t.Load(x0+1, y0, c)
	cc := t.Load(x0, y0+1, c)
	d := t.Load(x0+1, y0+1, c)

	ab := a + (b-a)*tx
	cd := cc + (d-cc)*tx
	return ab + (cd-ab)*ty
}

// SetData uploads src as the full texel array.
func (t *Texture) SetData(src []float32) {
	t.mustLive()
	if len(src) != len(t.texels) {
		panic(fmt.Sprintf("compute: upload of %d texels into %q of size %d", len(src), t.name, len(t.texels)))
	}
	staged := make([]float32, len(src))
	copy(staged, src)
	t.dev.Enqueue("upload:"+t.name, func() {
		copy(t.texels, staged)
	})
}

// Read copies the texels into dst after every previously enqueued command has run.
func (t *Texture) Read(dst []float32) int {
	t.mustLive()
	var n int
	t.dev.Enqueue("read:"+t.name, func() {
		n = copy(dst, t.texels)
	})
	t.dev.Finish()
	return n
}

// Len returns the number of float components. Zero for nil or released textures.
func (t *Texture) Len() int {
	if t == nil || t.released.Load() {
		return 0
	}
	return len(t.texels)
}

// Release frees the texture. It is safe on nil and already-released textures.
func (t *Texture) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}
	t.dev.live.Add(-1)
	drop := func() { t.texels = nil }
	if t.dev.Closed() {
		drop()
		return
	}
	t.dev.Enqueue("release:"+t.name, drop)
}

// Released reports whether Release has been called.
func (t *Texture) Released() bool {
	return t == nil || t.released.Load()
}

func (t *Texture) mustLive() {
	if t == nil || t.released.Load() {
		panic("compute: use of released texture")
	}
}

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
