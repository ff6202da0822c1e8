package world

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"happy-place-engine/internal/geom"
	"happy-place-engine/internal/registry"
	"happy-place-engine/internal/render"
)

var (
	// ErrPushOverflow reports a push chain longer than the layer allows.
	ErrPushOverflow = errors.New("push chain overflow")
	// ErrDetached is returned by operations that need an owning Map.
	ErrDetached = errors.New("not attached to a map")
)

var defaultRules = DefaultCollisionTable()

// Layer owns a set of Objects. Objects only collide with others in the same
// layer, and only if Collides is set.
type Layer struct {
	Name     string
	Collides bool
	Visible  bool
	Alpha    uint8
	Fg, Bg   render.RGBA // tint painted over everything below after drawing
	Rules    *CollisionTable
	MaxPush  int // pushed objects per move; 0 means the live object count
	Behavior any

	objects *registry.Registry[Object]
	id      registry.ID[Layer]
	m       *Map
	log     *zap.Logger

	resolving bool
	pending   []pendingMove
}

type pendingMove struct {
	id    registry.ID[Object]
	delta geom.Point
}

// NewLayer returns a visible, opaque, empty layer.
func NewLayer(name string, collides bool) *Layer {
	return &Layer{
		Name:     name,
		Collides: collides,
		Visible:  true,
		Alpha:    255,
		objects:  registry.New[Object](),
		log:      zap.NewNop(),
	}
}

// SetLogger replaces the layer's logger. Map.AddLayer sets one automatically.
func (l *Layer) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	l.log = log
}

// ID returns the layer's identifier within its map.
func (l *Layer) ID() registry.ID[Layer] {
	return l.id
}

// Map returns the owning map, or nil.
func (l *Layer) Map() *Map {
	return l.m
}

// Add takes ownership of o. An object that already belongs to another layer
// is removed from it first.
func (l *Layer) Add(o *Object) registry.ID[Object] {
	if o.layer != nil {
		_, _ = o.layer.Remove(o.id)
	}
	o.id = l.objects.Add(o)
	o.layer = l
	return o.id
}

// Remove releases the object and invalidates its ID.
func (l *Layer) Remove(id registry.ID[Object]) (*Object, error) {
	o, err := l.objects.Remove(id)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name, err)
	}
	o.layer = nil
	o.id = registry.ID[Object]{}
	return o, nil
}

// Get resolves an object ID.
func (l *Layer) Get(id registry.ID[Object]) (*Object, error) {
	o, err := l.objects.Get(id)
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", l.Name, err)
	}
	return o, nil
}

// Find returns the first object with the given name.
func (l *Layer) Find(name string) (*Object, bool) {
	var found *Object
	l.objects.Each(func(_ registry.ID[Object], o *Object) bool {
		if o.Name == name {
			found = o
			return false
		}
		return true
	})
	return found, found != nil
}

// Len returns the number of live objects.
func (l *Layer) Len() int {
	return l.objects.Len()
}

// IDs returns a snapshot of the objects in registry order.
func (l *Layer) IDs() []registry.ID[Object] {
	return l.objects.IDs()
}

// Each visits objects in registry order until fn returns false.
func (l *Layer) Each(fn func(*Object) bool) {
	l.objects.Each(func(_ registry.ID[Object], o *Object) bool { return fn(o) })
}

// MoveToFront makes the object the first one drawn and resolved.
func (l *Layer) MoveToFront(id registry.ID[Object]) error {
	return l.objects.MoveToFront(id)
}

// MoveToBack makes the object the last one drawn and resolved.
func (l *Layer) MoveToBack(id registry.ID[Object]) error {
	return l.objects.MoveToBack(id)
}

// clear releases every object.
func (l *Layer) clear() {
	for _, o := range l.objects.Clear() {
		o.layer = nil
		o.id = registry.ID[Object]{}
	}
	l.pending = nil
}

func (l *Layer) rules() *CollisionTable {
	if l.Rules != nil {
		return l.Rules
	}
	if l.m != nil && l.m.Rules != nil {
		return l.m.Rules
	}
	return defaultRules
}

func (l *Layer) tick() uint64 {
	if l.m == nil {
		return 0
	}
	return l.m.tick
}

func (l *Layer) context(self registry.ID[Object]) *Context {
	return &Context{Map: l.m, Layer: l, Self: self, Tick: l.tick(), Log: l.log}
}

func (l *Layer) schedule(id registry.ID[Object], delta geom.Point) {
	l.pending = append(l.pending, pendingMove{id: id, delta: delta})
}

// Pending returns the number of queued moves.
func (l *Layer) Pending() int {
	return len(l.pending)
}

// RunScheduled executes the moves queued by hooks and deferred Move calls.
// Moves queued while these run wait for the next call.
func (l *Layer) RunScheduled() {
	batch := l.pending
	l.pending = nil
	for _, pm := range batch {
		if _, err := l.Move(pm.id, pm.delta); err != nil {
			l.log.Debug("dropped scheduled move", zap.Stringer("object", pm.id), zap.Error(err))
		}
	}
}

// Act delivers a named action to the object's Actor behavior.
func (l *Layer) Act(id registry.ID[Object], action string) error {
	o, err := l.Get(id)
	if err != nil {
		return err
	}
	if a, ok := o.Behavior.(Actor); ok {
		l.protect("OnAction", o, func() { a.OnAction(l.context(id), action) })
	}
	return nil
}

// protect runs a hook, isolating panics so one misbehaving object can't take
// down the tick.
func (l *Layer) protect(name string, o *Object, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("hook panicked",
				zap.String("hook", name),
				zap.String("object", o.Name),
				zap.Any("panic", r),
			)
		}
	}()
	fn()
}

// fire looks the object up again before calling h so hooks that remove
// objects don't leave later callbacks holding stale pointers.
func (l *Layer) fire(h hook, id registry.ID[Object], ev Event) {
	o, err := l.objects.Get(id)
	if err != nil || o.Behavior == nil {
		return
	}
	l.protect(h.String(), o, func() { h.dispatch(o.Behavior, l.context(id), ev) })
}

func (l *Layer) fireMove(id registry.ID[Object], delta geom.Point) {
	o, err := l.objects.Get(id)
	if err != nil {
		return
	}
	if m, ok := o.Behavior.(Mover); ok {
		l.protect("OnMove", o, func() { m.OnMove(l.context(id), delta) })
	}
}

func (l *Layer) fireTick(o *Object) {
	if t, ok := o.Behavior.(Ticker); ok {
		l.protect("OnTick", o, func() { t.OnTick(l.context(o.id)) })
		if o.layer != l {
			return
		}
	}
	if o.Animation != nil {
		o.Animation.advance(l, o)
	}
}
