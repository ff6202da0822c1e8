package game

import (
	"fmt"

	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/maps"
	"happy-place-engine/internal/world"
)

// World wraps a built map with what the loop needs to place players in it.
type World struct {
	Map        *world.Map
	Spawn      geom.Point
	SpawnLayer string    // layer that receives player avatars
	Bounds     geom.Rect // cameras following an avatar are clamped to this
}

// NewWorld builds a world from a scene. Avatars go into the first colliding
// layer, or the first layer if none collide.
func NewWorld(sc *maps.Scene, log *zap.Logger) (*World, error) {
	m, err := maps.Build(sc, log)
	if err != nil {
		return nil, fmt.Errorf("build scene %q: %w", sc.Name, err)
	}
	w := &World{
		Map:    m,
		Spawn:  geom.Pt(sc.Spawn.X, sc.Spawn.Y),
		Bounds: maps.SceneBounds(sc),
	}
	for _, l := range sc.Layers {
		if l.Collides {
			w.SpawnLayer = l.Name
			break
		}
	}
	if w.SpawnLayer == "" && len(sc.Layers) > 0 {
		w.SpawnLayer = sc.Layers[0].Name
	}
	return w, nil
}

// spawnLayer returns the avatar layer, creating it if the scene has none.
func (w *World) spawnLayer() *world.Layer {
	if l, ok := w.Map.LayerByName(w.SpawnLayer); ok {
		return l
	}
	if w.SpawnLayer == "" {
		w.SpawnLayer = "players"
	}
	l := world.NewLayer(w.SpawnLayer, true)
	w.Map.AddLayer(l)
	return l
}
