package systems

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/pthm-cable/curl/compute"
)

// FlowSampler derives the divergence-free flow velocity at a world
// position from the potential texture, plus the optional bias texture.
// It is a value type captured by the simulate kernel.
type FlowSampler struct {
	Potential *compute.Texture
	Bias      *compute.Texture // two channels in [-1, 1]; nil disables the bias
	Uniforms  FieldUniforms
	CurlSpeed float32
	FlowSpeed float32
}

// Curl returns the perpendicular of the potential gradient at world (x, y):
// (dψ/dy, -dψ/dx), computed from four samples one texel apart.
func (fs *FlowSampler) Curl(x, y float32) (float32, float32) {
	tex := fs.Potential
	u := x * fs.Uniforms.Geo2UVX
	v := y * fs.Uniforms.Geo2UVY
	du := 1 / float32(tex.W)
	dv := 1 / float32(tex.H)

	pr := tex.Sample(u+du, v, 0)
	pl := tex.Sample(u-du, v, 0)
	pu := tex.Sample(u, v+dv, 0)
	pd := tex.Sample(u, v-dv, 0)

	// One texel in world units
	hx := du * fs.Uniforms.GeoW
	hy := dv * fs.Uniforms.GeoH

	dpdx := (pr - pl) / (2 * hx)
	dpdy := (pu - pd) / (2 * hy)
	return dpdy, -dpdx
}

// BiasAt returns the bias texture vector at world (x, y), or zero without a bias.
func (fs *FlowSampler) BiasAt(x, y float32) (float32, float32) {
	if fs.Bias == nil {
		return 0, 0
	}
	u := x * fs.Uniforms.Geo2UVX
	v := y * fs.Uniforms.Geo2UVY
	return fs.Bias.Sample(u, v, 0), fs.Bias.Sample(u, v, 1)
}

// Velocity returns the total flow velocity at world (x, y).
func (fs *FlowSampler) Velocity(x, y float32) (float32, float32) {
	cx, cy := fs.Curl(x, y)
	vx := fs.CurlSpeed * cx
	vy := fs.CurlSpeed * cy
	if fs.Bias != nil && fs.FlowSpeed != 0 {
		bx, by := fs.BiasAt(x, y)
		vx += fs.FlowSpeed * bx
		vy += fs.FlowSpeed * by
	}
	return vx, vy
}

// LoadFlowBias reads an image and resamples it to a size×size two-channel
// texel array. Red and green decode like a normal map (2c-1); the image's
// bottom row maps to v = 0.
func LoadFlowBias(path string, size int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening flow bias: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding flow bias: %w", err)
	}
	return FlowBiasFromImage(src, size), nil
}

// FlowBiasFromImage resamples src to size×size and decodes its RG channels.
func FlowBiasFromImage(src image.Image, size int) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	texels := make([]float32, size*size*2)
	for y := 0; y < size; y++ {
		row := size - 1 - y
		for x := 0; x < size; x++ {
			off := dst.PixOffset(x, row)
			r := float32(dst.Pix[off]) / 255
			g := float32(dst.Pix[off+1]) / 255
			i := (y*size + x) * 2
			texels[i] = 2*r - 1
			texels[i+1] = 2*g - 1
		}
	}
	return texels
}

// NewFlowBiasTexture uploads decoded bias texels into a new texture.
func NewFlowBiasTexture(dev *compute.Device, texels []float32, size int) *compute.Texture {
	tex := compute.NewTexture(dev, "FlowTex", size, size, 2)
	tex.SetData(texels)
	return tex
}
