package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/curl/components"
	"github.com/pthm-cable/curl/config"
)

// Scene holds the emitter and obstacle transforms in an ECS world.
// The simulation reads both lists once per frame.
type Scene struct {
	world *ecs.World

	emitterMapper  *ecs.Map2[components.Transform, components.Emitter]
	obstacleMapper *ecs.Map2[components.Transform, components.Obstacle]
	emitterFilter  *ecs.Filter2[components.Transform, components.Emitter]
	obstacleFilter *ecs.Filter2[components.Transform, components.Obstacle]
	transformMap   *ecs.Map1[components.Transform]

	// Reused per-frame results
	emitters  []components.Transform
	obstacles []components.Transform
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:          world,
		emitterMapper:  ecs.NewMap2[components.Transform, components.Emitter](world),
		obstacleMapper: ecs.NewMap2[components.Transform, components.Obstacle](world),
		emitterFilter:  ecs.NewFilter2[components.Transform, components.Emitter](world),
		obstacleFilter: ecs.NewFilter2[components.Transform, components.Obstacle](world),
		transformMap:   ecs.NewMap1[components.Transform](world),
	}
}

// NewSceneFromConfig creates a scene seeded with the configured transforms.
func NewSceneFromConfig(sc config.SceneConfig) *Scene {
	s := NewScene()
	for _, e := range sc.Emitters {
		s.AddEmitter(float32(e.X), float32(e.Y), float32(e.ScaleX), float32(e.ScaleY))
	}
	for _, o := range sc.Obstacles {
		s.AddObstacle(float32(o.X), float32(o.Y), float32(o.ScaleX))
	}
	return s
}

// AddEmitter adds a w×h emission rectangle centered on (x, y).
func (s *Scene) AddEmitter(x, y, w, h float32) ecs.Entity {
	t := components.Transform{X: x, Y: y, ScaleX: w, ScaleY: h}
	return s.emitterMapper.NewEntity(&t, &components.Emitter{})
}

// AddObstacle adds a sphere of diameter scale centered on (x, y).
func (s *Scene) AddObstacle(x, y, scale float32) ecs.Entity {
	t := components.Transform{X: x, Y: y, ScaleX: scale, ScaleY: scale}
	return s.obstacleMapper.NewEntity(&t, &components.Obstacle{})
}

// RemoveObstacle removes an entity from the scene. Removing an entity that
// is already gone is a no-op.
func (s *Scene) RemoveObstacle(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.world.RemoveEntity(e)
}

// MoveObstacle moves an entity's transform. Returns false if e is gone.
func (s *Scene) MoveObstacle(e ecs.Entity, x, y float32) bool {
	if !s.world.Alive(e) {
		return false
	}
	t := s.transformMap.Get(e)
	if t == nil {
		return false
	}
	t.X = x
	t.Y = y
	return true
}

// Emitters returns the emitter transforms. The slice is reused by the next call.
func (s *Scene) Emitters() []components.Transform {
	s.emitters = s.emitters[:0]
	query := s.emitterFilter.Query()
	for query.Next() {
		t, _ := query.Get()
		s.emitters = append(s.emitters, *t)
	}
	return s.emitters
}

// Obstacles returns the obstacle transforms. The slice is reused by the next call.
func (s *Scene) Obstacles() []components.Transform {
	s.obstacles = s.obstacles[:0]
	query := s.obstacleFilter.Query()
	for query.Next() {
		t, _ := query.Get()
		s.obstacles = append(s.obstacles, *t)
	}
	return s.obstacles
}

// ObstacleEntities returns the obstacle entities in query order.
func (s *Scene) ObstacleEntities() []ecs.Entity {
	var out []ecs.Entity
	query := s.obstacleFilter.Query()
	for query.Next() {
		out = append(out, query.Entity())
	}
	return out
}

// ObstacleAt returns the obstacle whose sphere contains (x, y), preferring
// the one with the closest center.
func (s *Scene) ObstacleAt(x, y float32) (ecs.Entity, bool) {
	var best ecs.Entity
	bestD2 := float32(-1)
	query := s.obstacleFilter.Query()
	for query.Next() {
		t, _ := query.Get()
		dx := x - t.X
		dy := y - t.Y
		d2 := dx*dx + dy*dy
		r := t.Radius()
		if d2 > r*r {
			continue
		}
		if bestD2 < 0 || d2 < bestD2 {
			best = query.Entity()
			bestD2 = d2
		}
	}
	return best, bestD2 >= 0
}
