package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/curl/camera"
	"github.com/pthm-cable/curl/components"
)

var (
	boundsColor   = rl.Color{R: 60, G: 60, B: 70, A: 255}
	emitterColor  = rl.Color{R: 255, G: 200, B: 80, A: 160}
	obstacleColor = rl.Color{R: 230, G: 90, B: 90, A: 200}
)

// DrawBounds outlines the field extent.
func DrawBounds(cam *camera.Camera, worldW, worldH float32) {
	x0, y0 := cam.WorldToScreen(0, worldH)
	x1, y1 := cam.WorldToScreen(worldW, 0)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, boundsColor)
}

// DrawEmitters outlines each emitter rectangle.
func DrawEmitters(cam *camera.Camera, emitters []components.Transform) {
	for _, e := range emitters {
		x0, y0 := cam.WorldToScreen(e.X-e.ScaleX/2, e.Y+e.ScaleY/2)
		x1, y1 := cam.WorldToScreen(e.X+e.ScaleX/2, e.Y-e.ScaleY/2)
		rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, emitterColor)
	}
}

// DrawObstacles outlines each obstacle sphere.
func DrawObstacles(cam *camera.Camera, obstacles []components.Transform) {
	for _, o := range obstacles {
		r := o.Radius()
		if !cam.IsVisible(o.X, o.Y, r) {
			continue
		}
		sx, sy := cam.WorldToScreen(o.X, o.Y)
		rl.DrawCircleLines(int32(sx), int32(sy), r*cam.Zoom, obstacleColor)
	}
}
