// Package components defines ECS components for the scene.
package components

// Transform is a 2D placement with per-axis scale.
type Transform struct {
	X, Y           float32
	ScaleX, ScaleY float32
}

// Emitter tags a transform whose rectangle spawns particles.
// The rectangle is centered on the transform and spans ScaleX × ScaleY.
type Emitter struct{}

// Obstacle tags a transform acting as a sphere of diameter ScaleX.
type Obstacle struct{}

// Radius returns the sphere radius for an obstacle transform.
func (t Transform) Radius() float32 {
	return 0.5 * t.ScaleX
}
