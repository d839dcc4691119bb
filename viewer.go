package main

import (
	"log/slog"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/curl/camera"
	"github.com/pthm-cable/curl/config"
	"github.com/pthm-cable/curl/game"
	"github.com/pthm-cable/curl/renderer"
	"github.com/pthm-cable/curl/ui"
)

const (
	controlsText = "[Space] Pause  [Wheel] Zoom  [RMB] Pan  [LMB] Drag obstacle  [O] Add  [X] Remove  [Up/Down] Rate  [R] Reset view  [P] Perf"

	perfLogInterval = 600 // frames between perf dumps
	newObstacleSize = 8
	rateStep        = 1.25
)

// viewer owns the window and everything drawn in it.
type viewer struct {
	sim *game.Simulation
	cam *camera.Camera

	particles *renderer.ParticleRenderer
	debugView *renderer.DebugView
	hud       *ui.HUD
	perfPanel *ui.PerfPanel

	debugKey  int32
	debugMode game.DebugMode
	paused    bool
	showPerf  bool

	dragging bool
	dragged  ecs.Entity
	worldW   float32
	worldH   float32
	screenW  int32
	screenH  int32
}

func newViewer(sim *game.Simulation, cfg *config.Config) *viewer {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Curl Flow")
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	w := float32(cfg.Field.Width)
	h := float32(cfg.Field.Height)
	v := &viewer{
		sim:       sim,
		cam:       camera.New(float32(cfg.Screen.Width), float32(cfg.Screen.Height), w, h),
		particles: renderer.NewParticleRenderer(),
		debugView: renderer.NewDebugView(),
		hud:       ui.NewHUD(),
		perfPanel: ui.NewPerfPanel(int32(cfg.Screen.Width)-300, 10),
		debugKey:  parseKey(cfg.Debug.Key),
		worldW:    w,
		worldH:    h,
		screenW:   int32(cfg.Screen.Width),
		screenH:   int32(cfg.Screen.Height),
	}
	return v
}

// Run drives the window until it closes or maxFrames have been simulated.
// A positive dt fixes the step; otherwise the frame time is used.
func (v *viewer) Run(dt float32, maxFrames int64) {
	for !rl.WindowShouldClose() {
		v.handleInput()

		if !v.paused {
			step := dt
			if step <= 0 {
				step = rl.GetFrameTime()
			}
			v.sim.Step(step)
		}

		v.draw()

		if f := v.sim.Frame(); !v.paused && f > 0 && f%perfLogInterval == 0 {
			v.sim.LogPerfStats()
			v.sim.LogWorldState()
		}
		if maxFrames > 0 && v.sim.Frame() >= maxFrames {
			slog.Info("max frames reached", "frame", v.sim.Frame())
			break
		}
	}
}

func (v *viewer) handleInput() {
	if rl.IsWindowResized() {
		v.screenW = int32(rl.GetScreenWidth())
		v.screenH = int32(rl.GetScreenHeight())
		v.cam.Resize(float32(v.screenW), float32(v.screenH))
		v.perfPanel.SetPosition(v.screenW-300, 10)
	}

	if rl.IsKeyPressed(v.debugKey) {
		v.debugMode = v.debugMode.Next()
		slog.Info("debug view", "mode", v.debugMode.String())
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyP) {
		v.showPerf = !v.showPerf
	}
	if rl.IsKeyPressed(rl.KeyR) {
		v.cam.Reset()
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		v.scaleEmitRate(rateStep)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		v.scaleEmitRate(1 / rateStep)
	}

	mouse := rl.GetMousePosition()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := float32(1.1)
		if wheel < 0 {
			factor = 1 / factor
		}
		v.cam.ZoomAt(mouse.X, mouse.Y, factor)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Pan(-d.X, -d.Y)
	}

	wx, wy := v.cam.ScreenToWorld(mouse.X, mouse.Y)
	scene := v.sim.Scene()

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		v.dragged, v.dragging = scene.ObstacleAt(wx, wy)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		v.dragging = false
	}
	if v.dragging && !scene.MoveObstacle(v.dragged, wx, wy) {
		v.dragging = false
	}

	if rl.IsKeyPressed(rl.KeyO) {
		scene.AddObstacle(wx, wy, newObstacleSize)
	}
	if rl.IsKeyPressed(rl.KeyX) {
		if e, ok := scene.ObstacleAt(wx, wy); ok {
			scene.RemoveObstacle(e)
			v.dragging = false
		}
	}
}

// scaleEmitRate multiplies the emission rate through SetConfig.
func (v *viewer) scaleEmitRate(factor float64) {
	cfg := v.sim.Config().Clone()
	cfg.Particles.EmitRate *= factor
	v.sim.SetConfig(cfg)
	slog.Info("emit rate changed", "emit_rate", v.sim.Config().Particles.EmitRate)
}

func (v *viewer) draw() {
	// Readback. Step never waits, so this is the frame's only sync point.
	v.particles.Bind(v.sim.CurrentBuffer())
	hasDebug := v.debugMode != game.DebugOff && v.debugView.Update(v.debugMode, v.sim)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 20, A: 255})

	if hasDebug {
		v.debugView.Draw(v.cam, v.worldW, v.worldH)
	}
	renderer.DrawBounds(v.cam, v.worldW, v.worldH)
	v.particles.Draw(v.cam)
	scene := v.sim.Scene()
	renderer.DrawEmitters(v.cam, scene.Emitters())
	renderer.DrawObstacles(v.cam, scene.Obstacles())

	v.hud.Draw(ui.HUDData{
		Title:     "Curl Flow",
		Stats:     v.sim.Stats(),
		Debug:     v.debugMode,
		FPS:       rl.GetFPS(),
		Paused:    v.paused,
		Obstacles: len(scene.Obstacles()),
	})
	if v.showPerf {
		v.perfPanel.Draw(v.sim.PerfStats(), v.sim.Device().Stats().KernelTime)
	}
	v.hud.DrawControls(v.screenH, controlsText)

	rl.EndDrawing()
	v.sim.RecordFrame()
}

// Close releases presentation resources and the window.
func (v *viewer) Close() {
	v.debugView.Unload()
	rl.CloseWindow()
}

// parseKey maps a config key name to a raylib key code. Letters and digits
// map to their ASCII codes; unknown names fall back to D.
func parseKey(name string) int32 {
	name = strings.ToUpper(strings.TrimSpace(name))
	switch name {
	case "SPACE":
		return rl.KeySpace
	case "TAB":
		return rl.KeyTab
	case "F1":
		return rl.KeyF1
	case "F2":
		return rl.KeyF2
	case "F3":
		return rl.KeyF3
	}
	if len(name) == 1 {
		c := name[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return int32(c)
		}
	}
	return rl.KeyD
}
