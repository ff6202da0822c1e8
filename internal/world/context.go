package world

import (
	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
)

// Context is handed to every hook. It replaces global engine state: a hook
// reaches its map, layer and own object only through it.
type Context struct {
	Map    *Map    // nil for a layer that isn't part of a map
	Layer  *Layer  // nil for camera hooks
	Camera *Camera // set for camera hooks only
	Self   registry.ID[Object]
	Tick   uint64
	Log    *zap.Logger
}

// Object resolves the hook's own object. It fails with registry.ErrNotFound
// once the object has been removed.
func (c *Context) Object() (*Object, error) {
	if c.Layer == nil {
		return nil, registry.ErrNotFound
	}
	return c.Layer.Get(c.Self)
}

// Schedule queues a move of the hook's own object. It runs in the layer's
// next movement phase, never inside the resolution that invoked the hook.
func (c *Context) Schedule(delta geom.Point) {
	if c.Layer == nil || c.Self.IsNull() {
		return
	}
	c.Layer.schedule(c.Self, delta)
}

// ScheduleFor queues a move of another object in the same layer.
func (c *Context) ScheduleFor(id registry.ID[Object], delta geom.Point) {
	if c.Layer == nil {
		return
	}
	c.Layer.schedule(id, delta)
}
