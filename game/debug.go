package game

import (
	"image/color"

	"github.com/pthm-cable/curl/compute"
)

// DebugMode selects the field view drawn under the particles.
type DebugMode uint8

const (
	DebugOff DebugMode = iota
	DebugPotential
	DebugFlowBias

	debugModeCount
)

// Next returns the mode after m, wrapping back to DebugOff.
func (m DebugMode) Next() DebugMode {
	return (m + 1) % debugModeCount
}

func (m DebugMode) String() string {
	switch m {
	case DebugOff:
		return "off"
	case DebugPotential:
		return "potential"
	case DebugFlowBias:
		return "flow bias"
	default:
		return "unknown"
	}
}

// FieldPixels converts a field texture to top-down RGBA rows for display.
// Values in [-1, 1] map to [0, 255]; the first channel drives red and the
// second green. Single-channel textures are drawn in grey. dst is reused
// when large enough. Read blocks until the device has drained.
func FieldPixels(tex *compute.Texture, dst []color.RGBA) []color.RGBA {
	if tex == nil || tex.Released() {
		return dst[:0]
	}
	n := tex.W * tex.H
	if cap(dst) < n {
		dst = make([]color.RGBA, n)
	}
	dst = dst[:n]

	texels := make([]float32, tex.Len())
	tex.Read(texels)

	for y := 0; y < tex.H; y++ {
		// Texture row 0 is world y = 0, which is the bottom of the screen.
		row := (tex.H - 1 - y) * tex.W
		for x := 0; x < tex.W; x++ {
			base := (y*tex.W + x) * tex.Channels
			r := unitByte(texels[base])
			px := color.RGBA{R: r, G: r, B: r, A: 255}
			if tex.Channels > 1 {
				px.G = unitByte(texels[base+1])
				px.B = 128
			}
			dst[row+x] = px
		}
	}
	return dst
}

// unitByte maps [-1, 1] to [0, 255], clamping outside values.
func unitByte(v float32) uint8 {
	f := (v*0.5 + 0.5) * 255
	if f <= 0 {
		return 0
	}
	if f >= 255 {
		return 255
	}
	return uint8(f + 0.5)
}
