package world

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"happy-place-engine/internal/registry"
)

// Map owns layers and cameras and advances them one tick at a time.
type Map struct {
	Name  string
	Rules *CollisionTable // fallback for layers without their own rules

	layers  *registry.Registry[Layer]
	cameras *registry.Registry[Camera]
	log     *zap.Logger
	tick    uint64
}

// NewMap creates an empty map. A nil logger discards output.
func NewMap(name string, log *zap.Logger) *Map {
	if log == nil {
		log = zap.NewNop()
	}
	return &Map{
		Name:    name,
		Rules:   DefaultCollisionTable(),
		layers:  registry.New[Layer](),
		cameras: registry.New[Camera](),
		log:     log,
	}
}

// Tick returns the number of completed Advance calls.
func (m *Map) Tick() uint64 {
	return m.tick
}

// Logger returns the map's logger.
func (m *Map) Logger() *zap.Logger {
	return m.log
}

// AddLayer takes ownership of l.
func (m *Map) AddLayer(l *Layer) registry.ID[Layer] {
	l.id = m.layers.Add(l)
	l.m = m
	l.log = m.log.Named("layer").With(zap.String("layer", l.Name))
	return l.id
}

// Layer resolves a layer ID.
func (m *Map) Layer(id registry.ID[Layer]) (*Layer, error) {
	return m.layers.Get(id)
}

// LayerByName returns the first layer with the given name.
func (m *Map) LayerByName(name string) (*Layer, bool) {
	var found *Layer
	m.layers.Each(func(_ registry.ID[Layer], l *Layer) bool {
		if l.Name == name {
			found = l
			return false
		}
		return true
	})
	return found, found != nil
}

// LayerIDs returns the layers in registry order.
func (m *Map) LayerIDs() []registry.ID[Layer] {
	return m.layers.IDs()
}

// RemoveLayer releases the layer and all of its objects, and detaches it
// from every camera.
func (m *Map) RemoveLayer(id registry.ID[Layer]) error {
	l, err := m.layers.Remove(id)
	if err != nil {
		return fmt.Errorf("remove layer: %w", err)
	}
	l.clear()
	l.m = nil
	l.id = registry.ID[Layer]{}
	m.cameras.Each(func(_ registry.ID[Camera], c *Camera) bool {
		c.Layers = slices.DeleteFunc(c.Layers, func(x registry.ID[Layer]) bool { return x == id })
		return true
	})
	return nil
}

// Object resolves a map-wide object reference.
func (m *Map) Object(ref ObjectRef) (*Object, error) {
	l, err := m.layers.Get(ref.Layer)
	if err != nil {
		return nil, err
	}
	return l.Get(ref.Object)
}

// FindObject searches every layer for an object by name.
func (m *Map) FindObject(name string) (*Object, bool) {
	var found *Object
	m.layers.Each(func(_ registry.ID[Layer], l *Layer) bool {
		found, _ = l.Find(name)
		return found == nil
	})
	return found, found != nil
}

// AddCamera takes ownership of c.
func (m *Map) AddCamera(c *Camera) registry.ID[Camera] {
	c.id = m.cameras.Add(c)
	c.m = m
	return c.id
}

// Camera resolves a camera ID.
func (m *Map) Camera(id registry.ID[Camera]) (*Camera, error) {
	return m.cameras.Get(id)
}

// CameraByName returns the first camera with the given name.
func (m *Map) CameraByName(name string) (*Camera, bool) {
	var found *Camera
	m.cameras.Each(func(_ registry.ID[Camera], c *Camera) bool {
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found, found != nil
}

// CameraIDs returns the cameras in registry order.
func (m *Map) CameraIDs() []registry.ID[Camera] {
	return m.cameras.IDs()
}

// RemoveCamera releases the camera.
func (m *Map) RemoveCamera(id registry.ID[Camera]) error {
	c, err := m.cameras.Remove(id)
	if err != nil {
		return fmt.Errorf("remove camera: %w", err)
	}
	c.m = nil
	c.id = registry.ID[Camera]{}
	return nil
}

// Advance runs one tick: layer, object and camera OnTick hooks in registry
// order, then each layer's movement phase. A movement phase first runs the
// moves scheduled since the last phase, then the intents addressed to that
// layer in submission order.
func (m *Map) Advance(intents []Intent) {
	m.tick++

	layers := m.layers.IDs()
	for _, id := range layers {
		l, err := m.layers.Get(id)
		if err != nil {
			continue
		}
		if t, ok := l.Behavior.(Ticker); ok {
			m.protect("layer", l.Name, func() { t.OnTick(&Context{Map: m, Layer: l, Tick: m.tick, Log: l.log}) })
		}
	}
	for _, id := range layers {
		l, err := m.layers.Get(id)
		if err != nil {
			continue
		}
		l.Each(func(o *Object) bool {
			l.fireTick(o)
			return true
		})
	}
	m.cameras.Each(func(_ registry.ID[Camera], c *Camera) bool {
		if t, ok := c.Behavior.(Ticker); ok {
			m.protect("camera", c.Name, func() { t.OnTick(&Context{Map: m, Camera: c, Tick: m.tick, Log: m.log}) })
		}
		return true
	})

	byLayer := make(map[registry.ID[Layer]][]Intent)
	for _, in := range intents {
		if !m.layers.Contains(in.Target.Layer) {
			m.log.Warn("intent for unknown layer", zap.Stringer("layer", in.Target.Layer))
			continue
		}
		byLayer[in.Target.Layer] = append(byLayer[in.Target.Layer], in)
	}

	for _, id := range m.layers.IDs() {
		l, err := m.layers.Get(id)
		if err != nil {
			continue
		}
		l.RunScheduled()
		for _, in := range byLayer[id] {
			m.deliver(l, in)
		}
	}
}

func (m *Map) deliver(l *Layer, in Intent) {
	if in.Action != "" {
		if err := l.Act(in.Target.Object, in.Action); err != nil {
			l.log.Debug("dropped action", zap.String("action", in.Action), zap.Error(err))
			return
		}
	}
	if in.Move.IsZero() {
		return
	}
	if _, err := l.Move(in.Target.Object, in.Move); err != nil {
		l.log.Debug("dropped move", zap.Stringer("delta", in.Move), zap.Error(err))
	}
}

func (m *Map) protect(kind, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("hook panicked",
				zap.String("kind", kind),
				zap.String("name", name),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

// RenderCameras renders every camera concurrently. It must only be called
// between ticks; rendering reads layers and objects without locking.
func (m *Map) RenderCameras(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	m.cameras.Each(func(_ registry.ID[Camera], c *Camera) bool {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := c.Render(); err != nil {
				return fmt.Errorf("camera %q: %w", c.Name, err)
			}
			return nil
		})
		return true
	})
	return g.Wait()
}
