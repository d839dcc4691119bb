package ui

import (
	"fmt"
	"sort"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/curl/game"
	"github.com/pthm-cable/curl/systems"
	"github.com/pthm-cable/curl/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Stats     game.FrameStats
	Debug     game.DebugMode
	FPS       int32
	Paused    bool
	Obstacles int
}

// hudSection describes the simulation panel over HUDData.
var hudSection = SectionDescriptor{
	ID:    "simulation",
	Title: "Simulation",
	Fields: []FieldDescriptor{
		{ID: "frame", Label: "Frame", Widget: WidgetText, TextGetter: func(d any) string {
			return fmt.Sprintf("%d", d.(HUDData).Stats.Frame)
		}},
		{ID: "time", Label: "Time", Widget: WidgetText, Format: "%.1fs", Getter: func(d any) float32 {
			return float32(d.(HUDData).Stats.Time)
		}},
		{ID: "alive", Label: "Alive", Widget: WidgetText, TextGetter: func(d any) string {
			s := d.(HUDData).Stats
			return fmt.Sprintf("%d / %d", s.Alive, s.Capacity)
		}},
		{ID: "occupancy", Label: "Pool", Widget: WidgetBar, Getter: func(d any) float32 {
			s := d.(HUDData).Stats
			if s.Capacity == 0 {
				return 0
			}
			return float32(s.Alive) / float32(s.Capacity)
		}},
		{ID: "rate", Label: "Emit rate", Widget: WidgetText, Format: "%.0f/s", Getter: func(d any) float32 {
			return float32(d.(HUDData).Stats.EmitRate)
		}},
		{ID: "emitted", Label: "Emitted", Widget: WidgetText, TextGetter: func(d any) string {
			s := d.(HUDData).Stats
			return fmt.Sprintf("%d (max %d)", s.Emitted, s.EmitCapacity)
		}},
		{ID: "obstacles", Label: "Obstacles", Widget: WidgetText, TextGetter: func(d any) string {
			return fmt.Sprintf("%d", d.(HUDData).Obstacles)
		}},
		{ID: "debug", Label: "Debug", Widget: WidgetText, TextGetter: func(d any) string {
			return d.(HUDData).Debug.String()
		}},
	},
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
		width:    240,
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	r := h.renderer
	pad := r.Theme.Padding

	rl.DrawText(data.Title, pad, pad, 20, rl.White)
	status := fmt.Sprintf("FPS: %d", data.FPS)
	if data.Paused {
		status += " | PAUSED"
	}
	rl.DrawText(status, pad, pad+24, 16, rl.Yellow)

	y := pad + 48
	height := r.SectionHeight(hudSection, data) + 2*pad
	r.DrawPanel(pad, y, h.width, height)
	r.DrawSection(2*pad, y+pad, hudSection, data, h.width-2*pad)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the frame phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	registry *systems.KernelRegistry
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		registry: systems.NewKernelRegistry(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel. Kernel times come from the device
// and are shown beside the host-side phase times.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, device map[string]time.Duration) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s", stats.AvgTickDuration.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range telemetry.Phases() {
		pct := stats.PhasePct[name]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %6s %5.1f%%", name, stats.PhaseAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}

	if len(device) == 0 {
		return
	}
	y += 6
	rl.DrawText("Device kernels", x, y, 14, rl.Yellow)
	y += 16
	for _, name := range sortedKeys(device) {
		rl.DrawText(fmt.Sprintf("%-22s %8s", p.registry.Name(name), device[name].Round(time.Microsecond)), x, y, 12, rl.LightGray)
		y += 14
	}
}

func sortedKeys(m map[string]time.Duration) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
