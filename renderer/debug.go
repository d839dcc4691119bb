package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/curl/camera"
	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/game"
)

// DebugView draws a field texture stretched over the simulation extent.
type DebugView struct {
	texture     rl.Texture2D
	width       int32
	height      int32
	pixels      []color.RGBA
	initialized bool
}

// NewDebugView creates an empty debug view. The GPU texture is created on
// first Update, sized to the field being shown.
func NewDebugView() *DebugView {
	return &DebugView{}
}

// Update refreshes the display texture from the field selected by mode.
// It reports whether there is anything to draw.
func (v *DebugView) Update(mode game.DebugMode, sim *game.Simulation) bool {
	var src *compute.Texture
	switch mode {
	case game.DebugPotential:
		src = sim.Field()
	case game.DebugFlowBias:
		src = sim.FlowBias()
	}
	if src == nil {
		return false
	}

	v.pixels = game.FieldPixels(src, v.pixels)
	v.ensure(int32(src.W), int32(src.H))
	rl.UpdateTexture(v.texture, v.pixels)
	return true
}

// ensure (re)creates the texture when the field resolution changes.
func (v *DebugView) ensure(w, h int32) {
	if v.initialized && v.width == w && v.height == h {
		return
	}
	v.Unload()

	img := rl.GenImageColor(int(w), int(h), rl.Black)
	v.texture = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(v.texture, rl.FilterBilinear)

	v.width = w
	v.height = h
	v.initialized = true
}

// Draw stretches the texture over [0, worldW] x [0, worldH].
func (v *DebugView) Draw(cam *camera.Camera, worldW, worldH float32) {
	if !v.initialized {
		return
	}
	x0, y0 := cam.WorldToScreen(0, worldH)
	x1, y1 := cam.WorldToScreen(worldW, 0)

	src := rl.Rectangle{X: 0, Y: 0, Width: float32(v.width), Height: float32(v.height)}
	dst := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawTexturePro(v.texture, src, dst, rl.Vector2{}, 0, rl.Color{R: 255, G: 255, B: 255, A: 200})
}

// Unload releases the GPU texture.
func (v *DebugView) Unload() {
	if v.initialized {
		rl.UnloadTexture(v.texture)
		v.initialized = false
	}
}
