package systems

import (
	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/config"
)

// FieldUniforms are the per-frame constants shared by the precompute and
// simulate kernels.
type FieldUniforms struct {
	GeoW, GeoH             float32 // field extent in world units
	Pix2NoiseX, Pix2NoiseY float32 // texel to noise space
	Geo2UVX, Geo2UVY       float32 // world to texture uv
	Geo2Noise              float32 // world to noise space
	Time                   float32 // noise-space time

	Octaves    int
	Lacunarity float32
	Gain       float32
}

// NewFieldUniforms derives the field transforms from the current size and
// scale parameters. worldTime is seconds since the simulation started.
func NewFieldUniforms(f config.FieldConfig, texW, texH int, worldTime float64) FieldUniforms {
	w := float32(f.Width)
	h := float32(f.Height)
	ns := float32(f.NoiseScale)
	return FieldUniforms{
		GeoW:       w,
		GeoH:       h,
		Pix2NoiseX: w * ns / float32(texW),
		Pix2NoiseY: h * ns / float32(texH),
		Geo2UVX:    1 / w,
		Geo2UVY:    1 / h,
		Geo2Noise:  ns,
		Time:       float32(f.TimeScale * worldTime),
		Octaves:    f.Octaves,
		Lacunarity: float32(f.Lacunarity),
		Gain:       float32(f.Gain),
	}
}

// PotentialField owns the scalar potential texture. The texture is fully
// regenerated every frame from world time; nothing is carried between frames
// except the storage itself.
type PotentialField struct {
	tex   *compute.Texture
	noise NoiseSource
}

// NewPotentialField allocates a size×size single-channel potential texture.
func NewPotentialField(dev *compute.Device, size int, noise NoiseSource) *PotentialField {
	return &PotentialField{
		tex:   compute.NewTexture(dev, "PotTex", size, size, 1),
		noise: noise,
	}
}

// Texture returns the potential texture handle.
func (pf *PotentialField) Texture() *compute.Texture { return pf.tex }

// SetNoise swaps the noise generator used by later dispatches.
func (pf *PotentialField) SetNoise(noise NoiseSource) { pf.noise = noise }

// Size returns the texture resolution.
func (pf *PotentialField) Size() int {
	if pf == nil || pf.tex.Released() {
		return 0
	}
	return pf.tex.W
}

// Dispatch enqueues the precompute kernel over every texel.
func (pf *PotentialField) Dispatch(dev *compute.Device, u FieldUniforms) {
	tex := pf.tex
	noise := pf.noise
	octaves := u.Octaves
	lac := float64(u.Lacunarity)
	gain := float64(u.Gain)
	z := float64(u.Time)

	dev.Dispatch2D(KernelPrecompute, tex.W, tex.H, func(x, y int) {
		nx := (float64(x) + 0.5) * float64(u.Pix2NoiseX)
		ny := (float64(y) + 0.5) * float64(u.Pix2NoiseY)
		tex.Store(x, y, 0, float32(FBM(noise, nx, ny, z, octaves, lac, gain)))
	})
}

// Release frees the texture. Safe to call more than once.
func (pf *PotentialField) Release() {
	if pf == nil {
		return
	}
	pf.tex.Release()
}
