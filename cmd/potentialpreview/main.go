// Potential field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/potentialpreview
package main

import (
	"fmt"
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/curl/compute"
	"github.com/pthm-cable/curl/config"
	"github.com/pthm-cable/curl/game"
	"github.com/pthm-cable/curl/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	arrowGrid    = 16
)

// slider draws a labelled slider and returns the new value.
func slider(x float32, y *float32, label string, value, min, max float32, format string) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, min), fmt.Sprintf(format, max),
		value, min, max,
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+float32(panelWidth-70)), int32(*y+2), 16, rl.DarkGray)
	*y += 35
	return v
}

func main() {
	rl.InitWindow(windowWidth, windowHeight, "Potential Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	defaults := config.Defaults().Field
	field := defaults

	dev := compute.NewDevice(0)
	defer dev.Close()

	noise, err := systems.NewNoiseSource(field.Noise, field.Seed)
	if err != nil {
		noise, _ = systems.NewNoiseSource("simplex", field.Seed)
	}
	pf := systems.NewPotentialField(dev, field.TextureSize, noise)
	defer pf.Release()

	img := rl.GenImageColor(field.TextureSize, field.TextureSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(texture, rl.FilterBilinear)
	defer rl.UnloadTexture(texture)

	var pixels []color.RGBA
	var raw []float32
	var worldTime float64
	animating := false
	showCurl := true
	needsRegen := true
	var uniforms systems.FieldUniforms

	for !rl.WindowShouldClose() {
		if animating {
			worldTime += float64(rl.GetFrameTime())
			needsRegen = true
		}

		if needsRegen {
			size := pf.Size()
			uniforms = systems.NewFieldUniforms(field, size, size, worldTime)
			pf.Dispatch(dev, uniforms)
			pixels = game.FieldPixels(pf.Texture(), pixels)
			rl.UpdateTexture(texture, pixels)

			if cap(raw) < pf.Texture().Len() {
				raw = make([]float32, pf.Texture().Len())
			}
			raw = raw[:pf.Texture().Len()]
			pf.Texture().Read(raw)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(field.TextureSize), Height: float32(field.TextureSize)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		sampler := systems.FlowSampler{Potential: pf.Texture(), Uniforms: uniforms, CurlSpeed: 1}
		maxSpeed := drawCurl(&sampler, showCurl)

		minVal, maxVal := float32(math.MaxFloat32), float32(-math.MaxFloat32)
		var sum float32
		for _, v := range raw {
			sum += v
			minVal = min(minVal, v)
			maxVal = max(maxVal, v)
		}
		avg := float32(0)
		if len(raw) > 0 {
			avg = sum / float32(len(raw))
		}

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Min: %.3f  Max: %.3f  Avg: %.3f", minVal, maxVal, avg), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Time: %.1f  Max curl: %.3f", worldTime, maxSpeed), 15, statsY+20, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)
		rl.DrawText("Potential Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		prev := field
		field.NoiseScale = float64(slider(panelX, &panelY, "Noise scale (world to noise)", float32(field.NoiseScale), 0.001, 0.1, "%.3f"))
		field.TimeScale = float64(slider(panelX, &panelY, "Time scale (noise drift per second)", float32(field.TimeScale), 0, 2, "%.2f"))
		field.Octaves = int(slider(panelX, &panelY, "Octaves (fBm detail level)", float32(field.Octaves), 1, 8, "%.0f"))
		field.Lacunarity = float64(slider(panelX, &panelY, "Lacunarity (frequency per octave)", float32(field.Lacunarity), 1, 4, "%.2f"))
		field.Gain = float64(slider(panelX, &panelY, "Gain (amplitude per octave)", float32(field.Gain), 0.1, 1, "%.2f"))
		if field != prev {
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			worldTime = 0
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(showCurl, "Hide Curl", "Show Curl")) {
			showCurl = !showCurl
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			field = defaults
			worldTime = 0
			needsRegen = true
		}
		panelY += 55

		snippet := fieldYAML(field)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(snippet, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(snippet)
		}

		rl.EndDrawing()
	}
}

// drawCurl draws the normalized curl on a coarse grid over the preview and
// returns the largest curl magnitude found.
func drawCurl(fs *systems.FlowSampler, draw bool) float32 {
	cell := float32(previewSize) / arrowGrid
	var vels [arrowGrid * arrowGrid][2]float32
	var maxSpeed float32
	for j := 0; j < arrowGrid; j++ {
		for i := 0; i < arrowGrid; i++ {
			wx := (float32(i) + 0.5) / arrowGrid * fs.Uniforms.GeoW
			wy := (float32(j) + 0.5) / arrowGrid * fs.Uniforms.GeoH
			vx, vy := fs.Curl(wx, wy)
			vels[j*arrowGrid+i] = [2]float32{vx, vy}
			maxSpeed = max(maxSpeed, float32(math.Hypot(float64(vx), float64(vy))))
		}
	}
	if !draw || maxSpeed == 0 {
		return maxSpeed
	}

	for j := 0; j < arrowGrid; j++ {
		for i := 0; i < arrowGrid; i++ {
			v := vels[j*arrowGrid+i]
			cx := 10 + (float32(i)+0.5)*cell
			cy := 10 + previewSize - (float32(j)+0.5)*cell
			scale := 0.45 * cell / maxSpeed
			end := rl.Vector2{X: cx + v[0]*scale, Y: cy - v[1]*scale}
			rl.DrawLineV(rl.Vector2{X: cx, Y: cy}, end, rl.Red)
			rl.DrawCircleV(end, 1.5, rl.Red)
		}
	}
	return maxSpeed
}

// fieldYAML renders the tunable field keys as a config.yaml snippet.
func fieldYAML(f config.FieldConfig) string {
	out, err := yaml.Marshal(map[string]any{
		"field": map[string]any{
			"noise_scale": f.NoiseScale,
			"time_scale":  f.TimeScale,
			"octaves":     f.Octaves,
			"lacunarity":  f.Lacunarity,
			"gain":        f.Gain,
		},
	})
	if err != nil {
		return err.Error()
	}
	return string(out)
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
